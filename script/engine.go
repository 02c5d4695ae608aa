// Package script embeds a JavaScript engine so delta sequences can be
// scripted against a widget session, e.g. to drive the demo server.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dop251/goja"

	"leafmap/typedef"
)

// Session receives the deltas a script produces. Both widget.Widget and
// the api hub satisfy it.
type Session interface {
	ApplyDelta(d typedef.Delta)
}

// API is the object exposed to scripts as `session`.
type API struct {
	session Session
}

// ApplyDelta applies a raw delta object, e.g.
// session.applyDelta({center: [51.5, -0.09], zoom: 13, base_layer: "ROADMAP"}).
func (a *API) ApplyDelta(raw map[string]any) error {
	d, err := deltaFromScript(raw)
	if err != nil {
		return err
	}
	a.session.ApplyDelta(d)
	return nil
}

// SetView applies a center/zoom/base-layer delta in one call.
func (a *API) SetView(lat, lng float64, zoom int, baseLayer string) {
	center := typedef.LatLng{Lat: lat, Lng: lng}
	a.session.ApplyDelta(typedef.Delta{
		Center:    &center,
		Zoom:      &zoom,
		BaseLayer: typedef.BaseLayer(baseLayer),
	})
}

// SetMarkers replaces the marker set. Each entry is
// {position: [lat, lng], popup: "text"}.
func (a *API) SetMarkers(raw []map[string]any) error {
	d, err := deltaFromScript(map[string]any{"markers": anySlice(raw)})
	if err != nil {
		return err
	}
	a.session.ApplyDelta(d)
	return nil
}

// SetCornerRadius applies the four container corner radii in rem.
func (a *API) SetCornerRadius(tl, tr, br, bl float64) {
	r := typedef.CornerRadius{tl, tr, br, bl}
	a.session.ApplyDelta(typedef.Delta{CornerRadius: &r})
}

// Sleep pauses the script, for pacing delta sequences.
func (a *API) Sleep(ms int) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// Timeout after 60 seconds
const scriptTimeout = 60 * time.Second

// Execute runs a delta script against session.
func Execute(src, scriptName string, session Session) error {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	// Utility functions
	vm.Set("sprintf", fmt.Sprintf)
	vm.Set("printf", fmt.Printf)
	vm.Set("println", fmt.Println)
	vm.Set("session", &API{session: session})

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(scriptTimeout))
	defer cancel()

	errCh := make(chan error, 1)

	// Run script in a goroutine so a runaway script can be interrupted
	go func() {
		_, err := vm.RunString(src)
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		vm.Interrupt("timeout")
		return fmt.Errorf("script %s timed out: %w", scriptName, ctx.Err())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to run script %s: %w", scriptName, err)
		}
		return nil
	}
}

// ExecuteFile runs the delta script at path against session.
func ExecuteFile(path string, session Session) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading script %s: %w", path, err)
	}
	return Execute(string(src), path, session)
}

// deltaFromScript converts a plain script object into a Delta by taking
// it through the JSON wire form, so scripts use the same field names the
// host framework serializes.
func deltaFromScript(raw map[string]any) (typedef.Delta, error) {
	var d typedef.Delta
	data, err := json.Marshal(raw)
	if err != nil {
		return d, fmt.Errorf("encoding delta: %w", err)
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("decoding delta: %w", err)
	}
	return d, nil
}

func anySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
