package leaflet

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leafmap/typedef"
)

type stubLibrary struct{}

func (stubLibrary) NewMap(c Container, center typedef.LatLng, zoom int) (Map, error) {
	return nil, nil
}
func (stubLibrary) NewTileLayer(urlTemplate, attribution string) TileLayer { return nil }
func (stubLibrary) NewMarker(pos typedef.LatLng, popup string) Marker      { return nil }

func TestEnsureDeduplicatesConcurrentLoads(t *testing.T) {
	var loads atomic.Int32
	loader := NewLoader(func(ctx context.Context) (Library, error) {
		loads.Add(1)
		time.Sleep(10 * time.Millisecond)
		return stubLibrary{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lib, err := loader.Ensure(context.Background())
			assert.NoError(t, err)
			assert.NotNil(t, lib)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load(), "concurrent callers must attach to one load")
	assert.Equal(t, StateReady, loader.State())
}

func TestRunQueuedCallbacksFireInOrder(t *testing.T) {
	release := make(chan struct{})
	var loads atomic.Int32
	loader := NewLoader(func(ctx context.Context) (Library, error) {
		loads.Add(1)
		<-release
		return stubLibrary{}, nil
	})

	const n = 8
	var mu sync.Mutex
	var order []int
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		i := i
		loader.Run(func(lib Library, err error) {
			assert.NoError(t, err)
			mu.Lock()
			order = append(order, i)
			if len(order) == n {
				close(done)
			}
			mu.Unlock()
		})
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("queued callbacks never ran")
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 0; i < n; i++ {
		assert.Equal(t, i, order[i], "callbacks must fire in enqueue order")
	}
	assert.Equal(t, int32(1), loads.Load())
}

func TestRunSynchronousWhenReady(t *testing.T) {
	loader := NewReadyLoader(stubLibrary{})

	ran := false
	loader.Run(func(lib Library, err error) {
		require.NoError(t, err)
		assert.NotNil(t, lib)
		ran = true
	})
	assert.True(t, ran, "a ready loader must invoke the callback synchronously")
}

func TestLoadFailureIsObservable(t *testing.T) {
	loadErr := errors.New("blocked by firewall")
	loader := NewLoader(func(ctx context.Context) (Library, error) {
		return nil, loadErr
	})

	_, err := loader.Ensure(context.Background())
	assert.ErrorIs(t, err, loadErr)
	assert.Equal(t, StateFailed, loader.State())
	assert.ErrorIs(t, loader.Err(), loadErr)

	got := make(chan error, 1)
	loader.Run(func(lib Library, err error) { got <- err })
	assert.ErrorIs(t, <-got, loadErr)
}

func TestLoadTimeout(t *testing.T) {
	loader := NewLoader(func(ctx context.Context) (Library, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, WithTimeout(20*time.Millisecond))

	_, err := loader.Ensure(context.Background())
	assert.ErrorIs(t, err, ErrLoadTimeout)
	assert.Equal(t, StateFailed, loader.State())
}

func TestEnsureHonorsCallerContext(t *testing.T) {
	loader := NewLoader(func(ctx context.Context) (Library, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := loader.Ensure(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryEventuallySucceeds(t *testing.T) {
	var attempts atomic.Int32
	loader := NewLoader(func(ctx context.Context) (Library, error) {
		if attempts.Add(1) < 3 {
			return nil, errors.New("transient")
		}
		return stubLibrary{}, nil
	}, WithRetry(func() backoff.BackOff {
		return backoff.NewConstantBackOff(time.Millisecond)
	}))

	lib, err := loader.Ensure(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, lib)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestBaseLayerCatalog(t *testing.T) {
	for _, b := range []typedef.BaseLayer{
		typedef.BaseLayerRoadmap,
		typedef.BaseLayerSatellite,
		typedef.BaseLayerTerrain,
	} {
		spec, ok := BaseLayerSpec(b)
		require.True(t, ok, "missing catalog entry for %s", b)
		assert.NotEmpty(t, spec.URLTemplate)
		assert.NotEmpty(t, spec.Attribution)
	}

	_, ok := BaseLayerSpec(typedef.BaseLayer("PLASMA"))
	assert.False(t, ok)
}
