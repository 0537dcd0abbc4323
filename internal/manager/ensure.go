package manager

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"histoscan/internal/common/fsutil"
	"histoscan/internal/preprocess"
	"histoscan/internal/registry"
	"histoscan/pkg/types"
)

// LoadModel makes the model ready, loading it at most once per process.
// It is idempotent and safe under concurrency: callers racing a first load
// wait for it and observe its outcome. A failed load is retried on the next
// call.
func (m *Manager) LoadModel() error {
	if m.Ready() {
		return nil
	}
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	// Re-check under the lock: another caller may have finished the load.
	if m.Ready() {
		return nil
	}

	snap, ok := m.loadGuard.HasHeadroom()
	if !ok {
		err := insufficientMemoryError{stage: "load", snap: snap, threshold: m.loadGuard.Threshold()}
		memoryRejections.WithLabelValues("load").Inc()
		m.setErr(err)
		m.publish("model_load_rejected", "", map[string]any{"used_percent": snap.UsedPercent})
		return err
	}

	if !m.rt.ensure() {
		err := m.rt.lastErr()
		m.reclaim()
		m.fail(err)
		modelLoads.WithLabelValues("dependency_unavailable").Inc()
		return err
	}

	art, found := registry.Resolve(m.candidates)
	if !found {
		err := ErrModelNotFound(m.candidates)
		m.logMissing()
		m.reclaim()
		m.fail(err)
		modelLoads.WithLabelValues("not_found").Inc()
		return err
	}

	m.setLoading(art)
	m.publish("model_load_start", art.Path, map[string]any{"size_bytes": art.SizeBytes})
	start := time.Now()
	sess, err := m.loadAndWarm(art.Path)
	if err != nil {
		lerr := modelLoadFailedError{path: art.Path, cause: err}
		m.log.Error().Str("path", art.Path).Err(err).Msg("model load failed")
		m.reclaim()
		m.fail(lerr)
		modelLoads.WithLabelValues("failed").Inc()
		m.publish("model_load_failed", art.Path, map[string]any{"error": err.Error()})
		return lerr
	}
	m.reclaim()

	m.ready.Store(&loadedModel{session: sess, artifact: art})
	m.mu.Lock()
	m.state = StateReady
	m.err = ""
	m.loadsTotal++
	m.mu.Unlock()
	modelLoads.WithLabelValues("ok").Inc()
	modelReady.Set(1)
	m.log.Info().Str("path", art.Path).Dur("took", time.Since(start)).Msg("model ready")
	m.publish("model_ready", art.Path, map[string]any{"took_ms": time.Since(start).Milliseconds()})
	return nil
}

// loadAndWarm deserialises the artifact and runs one forward pass on a zero
// tensor. The session is closed again if warm-up fails.
func (m *Manager) loadAndWarm(path string) (sess Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Str("path", path).Str("stack", string(debug.Stack())).Msg("panic during model load")
			if sess != nil {
				_ = sess.Close()
				sess = nil
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	sess, err = m.rt.runtime().Load(path)
	if err != nil {
		return nil, err
	}
	warm := preprocess.NewZeroTensor(m.imageSize)
	defer warm.Release()
	if _, werr := sess.Run(warm); werr != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("warm-up: %w", werr)
	}
	return sess, nil
}

func (m *Manager) setLoading(art types.Artifact) {
	m.mu.Lock()
	m.state = StateLoading
	a := art
	m.artifact = &a
	m.mu.Unlock()
}

// fail records err and moves the model to StateFailed.
func (m *Manager) fail(err error) {
	m.mu.Lock()
	m.state = StateFailed
	m.err = err.Error()
	m.mu.Unlock()
}

// setErr records err without touching the lifecycle state.
func (m *Manager) setErr(err error) {
	m.mu.Lock()
	m.err = err.Error()
	m.mu.Unlock()
}

func (m *Manager) logMissing() {
	wd, _ := os.Getwd()
	ev := m.log.Error().Strs("candidates", m.candidates).Str("cwd", wd)
	if entries, err := fsutil.ListDir("."); err == nil {
		ev = ev.Strs("cwd_entries", entries)
	}
	ev.Msg("model artifact not found")
}
