// Package leaflet defines the capability contract this module needs from
// the Leaflet mapping library, the catalog of base tile layers, and the
// loader that fetches the library's pinned CDN assets on first use.
//
// The adapter in package widget only ever talks to the Library interface,
// so it can run against a fake in tests and against the real js/wasm
// bindings in a browser.
package leaflet

import "leafmap/typedef"

// Pinned CDN assets for the mapping library. The integrity hashes cover
// both resources; the browser refuses the load if either is tampered with.
const (
	ScriptURL       = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"
	ScriptIntegrity = "sha256-20nQCchB9co0qIjJZRGuk2/Z9VM+kNiyxNV1lvTlZBo="

	StylesheetURL       = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"
	StylesheetIntegrity = "sha256-p4NxAoJBhIIN+hmNHrzRCf9tD/miZyoHS5obTRR9BMY="
)

// LayerKind distinguishes the two overlay kinds this module creates.
type LayerKind string

const (
	LayerTile   LayerKind = "tile"
	LayerMarker LayerKind = "marker"
)

// Layer is anything that can be added to or removed from a Map.
type Layer interface {
	Kind() LayerKind
}

// TileLayer is a raster overlay of map tiles fetched from a URL template.
type TileLayer interface {
	Layer
}

// Marker is a point overlay bound to a popup.
type Marker interface {
	Layer
}

// Map is the live map object. The adapter owns exactly one.
type Map interface {
	SetView(center typedef.LatLng, zoom int)
	AddLayer(l Layer)
	RemoveLayer(l Layer)
	// InvalidateSize asks the library to recompute its rendered size from
	// the container's current on-screen size.
	InvalidateSize()
}

// Container is the DOM element (or stand-in) the map renders into.
type Container interface {
	SetBorderRadius(css string)
	SetInteractive(on bool)
}

// Library is the minimal capability contract the adapter needs: construct
// a map, construct layers and markers. Everything else happens through the
// returned handles.
type Library interface {
	NewMap(c Container, center typedef.LatLng, zoom int) (Map, error)
	NewTileLayer(urlTemplate, attribution string) TileLayer
	NewMarker(pos typedef.LatLng, popup string) Marker
}

// TileSpec describes one base layer: where its tiles come from and the
// attribution the imagery provider requires.
type TileSpec struct {
	URLTemplate string
	Attribution string
}

var baseLayers = map[typedef.BaseLayer]TileSpec{
	typedef.BaseLayerRoadmap: {
		URLTemplate: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
	},
	typedef.BaseLayerSatellite: {
		URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles &copy; Esri &mdash; Source: Esri, i-cubed, USDA, USGS, AEX, GeoEye, Getmapping, Aerogrid, IGN, IGP, UPR-EGP, and the GIS User Community",
	},
	typedef.BaseLayerTerrain: {
		URLTemplate: "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
		Attribution: "Map data: &copy; OpenStreetMap contributors, SRTM | Map style: &copy; OpenTopoMap (CC-BY-SA)",
	},
}

// BaseLayerSpec looks up the tile spec for a base layer selection.
func BaseLayerSpec(b typedef.BaseLayer) (TileSpec, bool) {
	spec, ok := baseLayers[b]
	return spec, ok
}
