package manager

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
)

// runtimeLoader acquires the numerical runtime lazily. A failed acquisition
// is retried on the next call; a successful one is never repeated.
type runtimeLoader struct {
	mu    sync.Mutex
	rt    Runtime
	state RuntimeState
	err   error
	log   zerolog.Logger
}

func newRuntimeLoader(rt Runtime, log zerolog.Logger) *runtimeLoader {
	return &runtimeLoader{rt: rt, state: RuntimeUnloaded, log: log}
}

// ensure returns true once the runtime is initialised. It never panics.
func (l *runtimeLoader) ensure() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == RuntimeLoaded {
		return true
	}
	err := l.initOnce()
	if err != nil {
		l.state = RuntimeLoadFailed
		l.err = err
		l.log.Error().Str("runtime", l.rt.Name()).Err(err).Msg("runtime initialisation failed")
		return false
	}
	l.state = RuntimeLoaded
	l.err = nil
	l.log.Info().Str("runtime", l.rt.Name()).Msg("runtime initialised")
	return true
}

func (l *runtimeLoader) initOnce() (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Str("stack", string(debug.Stack())).Msg("runtime init panic")
			err = fmt.Errorf("runtime init panic: %v", r)
		}
	}()
	return l.rt.Init()
}

// lastErr returns the most recent acquisition failure as a
// DependencyUnavailable error.
func (l *runtimeLoader) lastErr() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err == nil {
		return ErrDependencyUnavailable(l.rt.Name() + " not initialised")
	}
	if IsDependencyUnavailable(l.err) {
		return l.err
	}
	return dependencyUnavailableError{msg: l.rt.Name(), cause: l.err}
}

func (l *runtimeLoader) current() RuntimeState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *runtimeLoader) runtime() Runtime { return l.rt }
