package manager

import (
	"time"

	"histoscan/internal/registry"
	"histoscan/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{
		State:        m.state,
		RuntimeState: m.rt.current(),
		Err:          m.err,
		LoadsTotal:   m.loadsTotal,
	}
	if m.artifact != nil {
		a := *m.artifact
		s.Artifact = &a
	}
	return s
}

// Health builds the /health payload. It does not load the model unless
// HealthLoadsModel is enabled and memory is below the load threshold; a
// model that is not loaded is a healthy, reportable state.
func (m *Manager) Health() types.HealthResponse {
	if m.healthLoads && !m.Ready() {
		if snap, err := m.loadGuard.Snapshot(); err == nil && snap.UsedPercent <= m.loadGuard.Threshold() {
			if err := m.LoadModel(); err != nil {
				m.log.Debug().Err(err).Msg("opportunistic load from health failed")
			}
		}
	}

	snap := m.Snapshot()
	resp := types.HealthResponse{
		Status:        "healthy",
		Message:       "Backend is running",
		ModelLoaded:   m.Ready(),
		ImageSize:     [2]int{m.imageSize, m.imageSize},
		State:         string(snap.State),
		RuntimeState:  string(snap.RuntimeState),
		LastError:     snap.Err,
		LoadsTotal:    snap.LoadsTotal,
		UptimeSeconds: int64(time.Since(m.startTime).Seconds()),
		DegradedMode:  m.degraded,
	}
	if lm := m.ready.Load(); lm != nil {
		resp.ModelPath = lm.artifact.Path
		resp.ModelExists = true
	} else if art, ok := registry.Resolve(m.candidates); ok {
		resp.ModelPath = art.Path
		resp.ModelExists = true
	} else if len(m.candidates) > 0 {
		resp.ModelPath = m.candidates[0]
	}
	if mem, err := m.loadGuard.Snapshot(); err == nil {
		resp.MemoryAvailable = mem.AvailableBytes
		resp.MemoryPercent = mem.UsedPercent
	}
	return resp
}

// Memory builds the /memory payload from a fresh reading.
func (m *Manager) Memory() types.MemoryResponse {
	resp := types.MemoryResponse{
		LoadThresholdPercent:      m.loadGuard.Threshold(),
		AdmissionThresholdPercent: m.admitGuard.Threshold(),
	}
	snap, err := m.loadGuard.Snapshot()
	if err != nil {
		resp.Error = err.Error()
		resp.HasHeadroom = true
		return resp
	}
	resp.UsedPercent = snap.UsedPercent
	resp.AvailableBytes = snap.AvailableBytes
	resp.TotalBytes = snap.TotalBytes
	resp.ProcessRSSBytes = snap.ProcessRSSBytes
	resp.AvailableHuman = snap.AvailableHuman()
	resp.HasHeadroom = snap.UsedPercent <= m.loadGuard.Threshold()
	return resp
}

// CheckModel reports which candidates exist and what surrounds them.
func (m *Manager) CheckModel() types.CheckModelResponse {
	return registry.Inspect(m.candidates)
}
