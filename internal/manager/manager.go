package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"histoscan/internal/memguard"
	"histoscan/pkg/types"
)

// Manager owns the runtime and model handles for the process. It is safe for
// concurrent use; construct one and inject it into request handlers.
type Manager struct {
	mu         sync.RWMutex
	state      State
	err        string
	artifact   *types.Artifact
	loadsTotal uint64

	// loadMu serialises the check-then-load sequence.
	loadMu sync.Mutex
	// ready is set once after a successful warm-up and cleared only by Close.
	ready atomic.Pointer[loadedModel]
	// runMu is held shared for each forward pass; Close takes it exclusively.
	runMu sync.RWMutex

	rt         *runtimeLoader
	loadGuard  *memguard.Guard
	admitGuard *memguard.Guard

	candidates  []string
	imageSize   int
	maxPixels   int
	degraded    bool
	healthLoads bool
	watchSettle time.Duration
	reclaim     func()

	log       zerolog.Logger
	publisher EventPublisher
	startTime time.Time
}

// New builds a Manager over the given artifact candidates with defaults for
// everything else.
func New(candidates []string) *Manager {
	return NewWithConfig(ManagerConfig{Candidates: candidates})
}

// Ready reports whether the model is loaded and warmed up. Lock-free.
func (m *Manager) Ready() bool { return m.ready.Load() != nil }

// Candidates returns a copy of the artifact candidate list.
func (m *Manager) Candidates() []string {
	return append([]string(nil), m.candidates...)
}

// ImageSize returns the model's square input edge length.
func (m *Manager) ImageSize() int { return m.imageSize }

// DegradedMode reports whether synthetic results are enabled.
func (m *Manager) DegradedMode() bool { return m.degraded }

// SetEventPublisher replaces the lifecycle event sink.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	m.mu.Lock()
	m.publisher = p
	m.mu.Unlock()
}

func (m *Manager) publish(name, path string, fields map[string]any) {
	m.mu.RLock()
	p := m.publisher
	m.mu.RUnlock()
	if fields == nil {
		fields = map[string]any{}
	}
	p.Publish(Event{Name: name, Path: path, Fields: fields})
}

// Close releases the loaded session, if any, after in-flight forward passes
// finish. The manager must not be used afterwards.
func (m *Manager) Close() error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	m.runMu.Lock()
	defer m.runMu.Unlock()
	lm := m.ready.Swap(nil)
	if lm == nil {
		return nil
	}
	return lm.session.Close()
}
