package leaflet

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrLoadTimeout is returned when the library load exceeds the loader's
// configured timeout.
var ErrLoadTimeout = errors.New("leaflet: library load timed out")

// LoadFunc fetches the mapping library. The js/wasm implementation injects
// the pinned script and stylesheet tags and resolves once the script has
// executed; tests supply their own.
type LoadFunc func(ctx context.Context) (Library, error)

// State is the loader's lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Loader gates access to the mapping library. The first caller starts the
// load; every caller that arrives while the load is in flight attaches to
// the same pending load instead of starting a second one. Queued callbacks
// fire in enqueue order once the load settles. The idle-to-loading edge is
// a compare-and-swap, so the gate stays correct with concurrent callers.
//
// Unlike a fire-and-forget asset load, a failed load is observable: the
// error is latched, Err exposes it, and queued callbacks receive it.
type Loader struct {
	load    LoadFunc
	timeout time.Duration
	retry   func() backoff.BackOff
	logger  zerolog.Logger

	state atomic.Int32
	done  chan struct{}

	mu    sync.Mutex
	queue []func(Library, error)
	lib   Library
	err   error

	// execMu serializes callback execution so a caller that finds the
	// loader already settled cannot overtake callbacks still draining.
	execMu sync.Mutex
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTimeout bounds the load attempt. Zero means no bound.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) { l.timeout = d }
}

// WithRetry retries failed load attempts under the given policy factory.
// The default is a single attempt.
func WithRetry(policy func() backoff.BackOff) LoaderOption {
	return func(l *Loader) { l.retry = policy }
}

// WithLoaderLogger overrides the loader's logger.
func WithLoaderLogger(logger zerolog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates an idle loader around load.
func NewLoader(load LoadFunc, opts ...LoaderOption) *Loader {
	l := &Loader{
		load:   load,
		done:   make(chan struct{}),
		logger: log.With().Str("component", "leaflet-loader").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewReadyLoader creates a loader that already holds lib, as when the
// library is globally available before the first use.
func NewReadyLoader(lib Library) *Loader {
	l := NewLoader(nil)
	l.lib = lib
	l.state.Store(int32(StateReady))
	close(l.done)
	return l
}

// State returns the loader's current lifecycle position.
func (l *Loader) State() State {
	return State(l.state.Load())
}

// Err returns the latched load error, or nil.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Ensure starts the load if needed and blocks until the library is
// available, the load fails, or ctx is done.
func (l *Loader) Ensure(ctx context.Context) (Library, error) {
	l.start()
	select {
	case <-l.done:
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.lib, l.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run invokes fn with the library once it is available. If the loader has
// already settled, fn runs synchronously on the calling goroutine;
// otherwise it is queued and runs, in enqueue order, after the single
// in-flight load resolves. A failed load delivers the error instead.
func (l *Loader) Run(fn func(Library, error)) {
	l.mu.Lock()
	if s := l.State(); (s == StateReady || s == StateFailed) && l.queue == nil {
		lib, err := l.lib, l.err
		l.mu.Unlock()
		l.execMu.Lock()
		fn(lib, err)
		l.execMu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.start()
}

// start kicks off the load exactly once.
func (l *Loader) start() {
	if !l.state.CompareAndSwap(int32(StateIdle), int32(StateLoading)) {
		return
	}
	l.logger.Debug().Msg("starting mapping library load")
	go l.doLoad()
}

func (l *Loader) doLoad() {
	ctx := context.Background()
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	var lib Library
	var err error
	if l.retry != nil {
		lib, err = backoff.RetryWithData(func() (Library, error) {
			return l.load(ctx)
		}, backoff.WithContext(l.retry(), ctx))
	} else {
		lib, err = l.load(ctx)
	}
	if err != nil && l.timeout > 0 && ctx.Err() != nil {
		err = ErrLoadTimeout
	}

	l.mu.Lock()
	l.lib, l.err = lib, err
	if err != nil {
		l.state.Store(int32(StateFailed))
		l.logger.Error().Err(err).Msg("mapping library load failed")
	} else {
		l.state.Store(int32(StateReady))
		l.logger.Info().Msg("mapping library ready")
	}
	queue := l.queue
	l.queue = nil
	close(l.done)
	l.mu.Unlock()

	l.execMu.Lock()
	for _, fn := range queue {
		fn(lib, err)
	}
	l.execMu.Unlock()
}

var (
	defaultMu     sync.Mutex
	defaultLoader *Loader
)

// SetDefault installs the process-wide loader. The js/wasm build installs
// a CDN-backed loader at init; tests and native hosts install their own.
func SetDefault(l *Loader) {
	defaultMu.Lock()
	defaultLoader = l
	defaultMu.Unlock()
}

// Default returns the process-wide loader, or nil if none is installed.
func Default() *Loader {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultLoader
}
