package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leafmap/typedef"
)

type recordingSession struct {
	deltas []typedef.Delta
}

func (s *recordingSession) ApplyDelta(d typedef.Delta) {
	s.deltas = append(s.deltas, d)
}

func TestSetViewProducesCompleteDelta(t *testing.T) {
	session := &recordingSession{}
	err := Execute(`session.setView(51.505, -0.09, 13, "ROADMAP")`, "test.js", session)
	require.NoError(t, err)

	require.Len(t, session.deltas, 1)
	d := session.deltas[0]
	assert.True(t, d.HasView())
	assert.Equal(t, typedef.LatLng{Lat: 51.505, Lng: -0.09}, *d.Center)
	assert.Equal(t, 13, *d.Zoom)
	assert.Equal(t, typedef.BaseLayerRoadmap, d.BaseLayer)
	assert.Nil(t, d.Markers)
}

func TestApplyDeltaUsesWireFieldNames(t *testing.T) {
	session := &recordingSession{}
	src := `session.applyDelta({
		center: [0, 0],
		zoom: 2,
		base_layer: "TERRAIN",
		markers: [{position: [1, 1], popup: "A"}],
		corner_radius: [1, 2, 3, 4]
	})`
	require.NoError(t, Execute(src, "test.js", session))

	require.Len(t, session.deltas, 1)
	d := session.deltas[0]
	assert.Equal(t, typedef.BaseLayerTerrain, d.BaseLayer)
	require.Len(t, d.Markers, 1)
	assert.Equal(t, typedef.LatLng{Lat: 1, Lng: 1}, d.Markers[0].Position)
	assert.Equal(t, "A", d.Markers[0].Popup)
	require.NotNil(t, d.CornerRadius)
	assert.Equal(t, "1rem 2rem 3rem 4rem", d.CornerRadius.CSS())
}

func TestSetMarkersReplacesSetOnly(t *testing.T) {
	session := &recordingSession{}
	src := `
		session.setMarkers([
			{position: [51.505, -0.09], popup: "Marker 1"},
			{position: [51.515, -0.1], popup: "Marker 2"}
		])
		session.setMarkers([])
	`
	require.NoError(t, Execute(src, "test.js", session))

	require.Len(t, session.deltas, 2)
	assert.Len(t, session.deltas[0].Markers, 2)
	assert.False(t, session.deltas[0].HasView())
	require.NotNil(t, session.deltas[1].Markers)
	assert.Empty(t, session.deltas[1].Markers)
}

func TestSetCornerRadius(t *testing.T) {
	session := &recordingSession{}
	require.NoError(t, Execute(`session.setCornerRadius(1, 2, 3, 4)`, "test.js", session))

	require.Len(t, session.deltas, 1)
	require.NotNil(t, session.deltas[0].CornerRadius)
	assert.Equal(t, typedef.CornerRadius{1, 2, 3, 4}, *session.deltas[0].CornerRadius)
}

func TestScriptErrorsAreReported(t *testing.T) {
	session := &recordingSession{}
	err := Execute(`session.noSuchMethod()`, "broken.js", session)
	assert.Error(t, err)
	assert.Empty(t, session.deltas)
}
