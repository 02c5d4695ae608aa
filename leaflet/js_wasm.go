//go:build js && wasm
// +build js,wasm

package leaflet

import (
	"context"
	"errors"
	"fmt"
	"syscall/js"

	"leafmap/typedef"
)

func init() {
	// Process-wide gate for the browser: one script/link injection per page.
	SetDefault(NewLoader(CDNLoadFunc()))
}

// CDNLoadFunc returns a LoadFunc that makes the mapping library globally
// available: if window.L already exists it resolves immediately, otherwise
// it injects the pinned stylesheet and script tags into document.head and
// resolves once the script has executed.
func CDNLoadFunc() LoadFunc {
	return func(ctx context.Context) (Library, error) {
		global := js.Global()
		if l := global.Get("L"); l.Truthy() {
			return jsLibrary{l: l}, nil
		}

		doc := global.Get("document")
		head := doc.Get("head")

		link := doc.Call("createElement", "link")
		link.Set("rel", "stylesheet")
		link.Set("href", StylesheetURL)
		link.Set("integrity", StylesheetIntegrity)
		link.Set("crossOrigin", "anonymous")
		head.Call("appendChild", link)

		script := doc.Call("createElement", "script")
		script.Set("src", ScriptURL)
		script.Set("integrity", ScriptIntegrity)
		script.Set("crossOrigin", "anonymous")

		done := make(chan error, 1)
		onLoad := js.FuncOf(func(this js.Value, args []js.Value) any {
			done <- nil
			return nil
		})
		onError := js.FuncOf(func(this js.Value, args []js.Value) any {
			done <- fmt.Errorf("script load failed for %s", ScriptURL)
			return nil
		})
		defer onLoad.Release()
		defer onError.Release()
		script.Set("onload", onLoad)
		script.Set("onerror", onError)
		head.Call("appendChild", script)

		select {
		case err := <-done:
			if err != nil {
				return nil, err
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		l := global.Get("L")
		if !l.Truthy() {
			return nil, errors.New("script loaded but window.L is not set")
		}
		return jsLibrary{l: l}, nil
	}
}

// ElementContainer wraps a DOM element as a Container.
func ElementContainer(el js.Value) Container {
	return jsContainer{el: el}
}

// ContainerByID looks up a DOM element by id.
func ContainerByID(id string) (Container, error) {
	el := js.Global().Get("document").Call("getElementById", id)
	if !el.Truthy() {
		return nil, fmt.Errorf("no element with id %q", id)
	}
	return jsContainer{el: el}, nil
}

type jsContainer struct {
	el js.Value
}

func (c jsContainer) SetBorderRadius(css string) {
	c.el.Get("style").Set("borderRadius", css)
}

func (c jsContainer) SetInteractive(on bool) {
	v := "none"
	if on {
		v = "auto"
	}
	c.el.Get("style").Set("pointerEvents", v)
}

type jsLibrary struct {
	l js.Value
}

func (j jsLibrary) NewMap(c Container, center typedef.LatLng, zoom int) (Map, error) {
	jc, ok := c.(jsContainer)
	if !ok {
		return nil, fmt.Errorf("container %T is not a DOM element", c)
	}
	m := j.l.Call("map", jc.el)
	m.Call("setView", latLng(center), zoom)
	return jsMap{m: m}, nil
}

func (j jsLibrary) NewTileLayer(urlTemplate, attribution string) TileLayer {
	opts := map[string]any{"attribution": attribution}
	return jsTileLayer{v: j.l.Call("tileLayer", urlTemplate, opts)}
}

func (j jsLibrary) NewMarker(pos typedef.LatLng, popup string) Marker {
	m := j.l.Call("marker", latLng(pos))
	m.Call("bindPopup", popup)
	return jsMarker{v: m}
}

type jsMap struct {
	m js.Value
}

func (m jsMap) SetView(center typedef.LatLng, zoom int) {
	m.m.Call("setView", latLng(center), zoom)
}

func (m jsMap) AddLayer(l Layer) {
	m.m.Call("addLayer", layerValue(l))
}

func (m jsMap) RemoveLayer(l Layer) {
	m.m.Call("removeLayer", layerValue(l))
}

func (m jsMap) InvalidateSize() {
	m.m.Call("invalidateSize")
}

type jsTileLayer struct {
	v js.Value
}

func (jsTileLayer) Kind() LayerKind { return LayerTile }

type jsMarker struct {
	v js.Value
}

func (jsMarker) Kind() LayerKind { return LayerMarker }

func layerValue(l Layer) js.Value {
	switch t := l.(type) {
	case jsTileLayer:
		return t.v
	case jsMarker:
		return t.v
	}
	panic(fmt.Sprintf("layer %T did not come from this library", l))
}

func latLng(ll typedef.LatLng) []any {
	return []any{ll.Lat, ll.Lng}
}
