// Package widget turns declarative map view deltas into imperative calls
// against the mapping library. One Widget owns one live map instance, one
// base tile layer and the current marker overlays.
package widget

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"leafmap/leaflet"
	"leafmap/typedef"
)

// Fixed element tag and styling class the host framework applies to the
// widget's container element.
const (
	ElementID  = "Map-builtin"
	StyleClass = "map-widget"
)

// Option configures a Widget.
type Option func(*Widget)

// WithStrictTrigger makes the render path fire only when a single delta
// carries center, zoom and base layer together. Under this contract a
// marker-only delta changes nothing on the map. The default instead
// accumulates deltas and renders whenever the merged state is complete.
func WithStrictTrigger() Option {
	return func(w *Widget) { w.strict = true }
}

// WithErrorHandler routes render errors to fn. Renders deferred behind a
// pending library load settle asynchronously, so errors are delivered
// through a handler rather than a return value. The default logs them.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Widget) { w.onError = fn }
}

// WithLogger overrides the widget's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Widget) { w.logger = logger }
}

// pendingState is the accumulated partial view state. Markers keeps the
// most recent non-nil marker sequence.
type pendingState struct {
	center    *typedef.LatLng
	zoom      *int
	markers   []typedef.Marker
	baseLayer typedef.BaseLayer
}

// complete reports whether enough state has accumulated to render.
func (p pendingState) complete() bool {
	return p.center != nil && p.zoom != nil && p.baseLayer != ""
}

// renderSnapshot is the immutable input to one render pass.
type renderSnapshot struct {
	center    typedef.LatLng
	zoom      int
	markers   []typedef.Marker
	baseLayer typedef.BaseLayer
}

// Widget adapts deltas onto a single owned map instance. The library
// arrives through the loader gate, so the first renders may be deferred
// behind the one in-flight asset load; deferred renders execute in
// delta-arrival order.
type Widget struct {
	loader    *leaflet.Loader
	container leaflet.Container
	strict    bool
	onError   func(error)
	logger    zerolog.Logger

	mu      sync.Mutex
	pending pendingState
	m       leaflet.Map
	base    leaflet.TileLayer
	markers []leaflet.Marker
}

// New creates a widget rendering into container, gated on loader.
func New(loader *leaflet.Loader, container leaflet.Container, opts ...Option) *Widget {
	w := &Widget{
		loader:    loader,
		container: container,
		logger:    log.With().Str("component", "map-widget").Logger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.onError == nil {
		w.onError = func(err error) {
			w.logger.Error().Err(err).Msg("map render failed")
		}
	}
	return w
}

// ApplyDelta merges d into the widget's state and renders if the render
// condition holds. Corner radius applies immediately and independently of
// the render path. Fields of d that are absent leave prior state untouched.
func (w *Widget) ApplyDelta(d typedef.Delta) {
	w.mu.Lock()
	if d.CornerRadius != nil {
		w.container.SetBorderRadius(d.CornerRadius.CSS())
	}
	if d.Center != nil {
		c := *d.Center
		w.pending.center = &c
	}
	if d.Zoom != nil {
		z := *d.Zoom
		w.pending.zoom = &z
	}
	if d.Markers != nil {
		w.pending.markers = append([]typedef.Marker(nil), d.Markers...)
	}
	if d.BaseLayer != "" {
		w.pending.baseLayer = d.BaseLayer
	}

	trigger := w.pending.complete()
	if w.strict {
		trigger = d.HasView()
	}
	if !trigger {
		w.mu.Unlock()
		return
	}
	snap := renderSnapshot{
		center:    *w.pending.center,
		zoom:      *w.pending.zoom,
		markers:   append([]typedef.Marker(nil), w.pending.markers...),
		baseLayer: w.pending.baseLayer,
	}
	w.mu.Unlock()

	w.loader.Run(func(lib leaflet.Library, err error) {
		if err != nil {
			w.onError(fmt.Errorf("mapping library unavailable: %w", err))
			return
		}
		if err := w.render(lib, snap); err != nil {
			w.onError(err)
		}
	})
}

// render mutates the owned map instance to match snap.
func (w *Widget) render(lib leaflet.Library, snap renderSnapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.m == nil {
		m, err := lib.NewMap(w.container, snap.center, snap.zoom)
		if err != nil {
			return fmt.Errorf("constructing map: %w", err)
		}
		w.m = m
		w.container.SetInteractive(true)
		w.logger.Debug().
			Float64("lat", snap.center.Lat).
			Float64("lng", snap.center.Lng).
			Int("zoom", snap.zoom).
			Msg("map instance created")
	} else {
		w.m.SetView(snap.center, snap.zoom)
	}

	if w.base != nil {
		w.m.RemoveLayer(w.base)
		w.base = nil
	}
	spec, ok := leaflet.BaseLayerSpec(snap.baseLayer)
	if !ok {
		return fmt.Errorf("unknown base layer %q", snap.baseLayer)
	}
	tl := lib.NewTileLayer(spec.URLTemplate, spec.Attribution)
	w.m.AddLayer(tl)
	w.base = tl

	// Replace the marker set wholesale; only handles this widget added are
	// removed, never other layers on the map.
	for _, mk := range w.markers {
		w.m.RemoveLayer(mk)
	}
	w.markers = w.markers[:0]
	for _, mk := range snap.markers {
		h := lib.NewMarker(mk.Position, mk.Popup)
		w.m.AddLayer(h)
		w.markers = append(w.markers, h)
	}

	w.m.InvalidateSize()
	return nil
}
