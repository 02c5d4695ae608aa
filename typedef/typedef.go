package typedef

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LatLng is a geographic coordinate pair in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// MarshalJSON encodes the coordinate as a [lat, lng] pair, which is the
// wire form the host framework uses for map centers and marker positions.
func (ll LatLng) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{ll.Lat, ll.Lng})
}

func (ll *LatLng) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("latlng must be a [lat, lng] pair: %w", err)
	}
	ll.Lat = pair[0]
	ll.Lng = pair[1]
	return nil
}

// Marker is a point annotation with popup text. Markers are value types
// with no identity of their own; the full marker set is replaced wholesale
// on every update that carries one.
type Marker struct {
	Position LatLng `json:"position"`
	Popup    string `json:"popup"`
}

// BaseLayer selects the background tile imagery style.
type BaseLayer string

const (
	BaseLayerRoadmap   BaseLayer = "ROADMAP"
	BaseLayerSatellite BaseLayer = "SATELLITE"
	BaseLayerTerrain   BaseLayer = "TERRAIN"
)

// Valid reports whether b is one of the three known imagery styles.
func (b BaseLayer) Valid() bool {
	switch b {
	case BaseLayerRoadmap, BaseLayerSatellite, BaseLayerTerrain:
		return true
	}
	return false
}

// CornerRadius holds the four container corner radii in rem, ordered
// top-left, top-right, bottom-right, bottom-left.
type CornerRadius [4]float64

// Uniform returns a CornerRadius with the same radius on all corners.
func Uniform(r float64) CornerRadius {
	return CornerRadius{r, r, r, r}
}

// CSS renders the radii as a border-radius value, e.g. "1rem 2rem 3rem 4rem".
func (c CornerRadius) CSS() string {
	parts := make([]string, len(c))
	for i, r := range c {
		parts[i] = strconv.FormatFloat(r, 'f', -1, 64) + "rem"
	}
	return strings.Join(parts, " ")
}

// Delta is a partial map view state. Only non-nil (respectively non-empty
// for BaseLayer) fields represent a change. Markers distinguishes "absent"
// (nil) from "present and empty" (non-nil zero-length slice); the JSON
// wire form uses null for the former and [] for the latter.
type Delta struct {
	Center       *LatLng       `json:"center,omitempty"`
	Zoom         *int          `json:"zoom,omitempty"`
	Markers      []Marker      `json:"markers"`
	BaseLayer    BaseLayer     `json:"base_layer,omitempty"`
	CornerRadius *CornerRadius `json:"corner_radius,omitempty"`
}

// HasView reports whether all three fields of the render trigger
// (center, zoom and base layer) are present in this single delta.
func (d Delta) HasView() bool {
	return d.Center != nil && d.Zoom != nil && d.BaseLayer != ""
}
