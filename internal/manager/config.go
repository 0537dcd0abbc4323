package manager

import (
	"time"

	"github.com/prometheus/procfs"
	"github.com/rs/zerolog"

	"histoscan/internal/memguard"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultImageSize          = 100
	defaultLoadThreshold      = 85.0
	defaultAdmissionThreshold = 95.0
	defaultWatchSettle        = 500 * time.Millisecond
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Candidates lists artifact paths in priority order (explicit first).
	Candidates     []string
	ImageSize      int
	MaxImagePixels int

	// Runtime overrides the ONNX runtime (tests inject fakes).
	Runtime Runtime
	// ORT configuration used when Runtime is nil.
	ORTLibPath string
	Threads    int

	// MemoryReader overrides the procfs reader.
	MemoryReader memguard.Reader
	ProcPath     string
	// LoadThresholdPercent gates model loading; AdmissionThresholdPercent
	// gates each prediction request.
	LoadThresholdPercent      float64
	AdmissionThresholdPercent float64
	// Reclaim overrides the memory reclamation pass.
	Reclaim func()

	// DegradedMode returns synthetic results instead of resource failures.
	DegradedMode bool
	// HealthLoadsModel lets Health attempt a load when memory allows.
	HealthLoadsModel bool
	// WatchSettle is the quiet period before the watcher loads a new artifact.
	WatchSettle time.Duration

	Logger    *zerolog.Logger
	Publisher EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:       StateAbsent,
		candidates:  append([]string(nil), cfg.Candidates...),
		imageSize:   cfg.ImageSize,
		maxPixels:   cfg.MaxImagePixels,
		degraded:    cfg.DegradedMode,
		healthLoads: cfg.HealthLoadsModel,
		watchSettle: cfg.WatchSettle,
		reclaim:     cfg.Reclaim,
		publisher:   cfg.Publisher,
		log:         zerolog.Nop(),
	}
	// Apply defaults if unset
	if m.imageSize <= 0 {
		m.imageSize = defaultImageSize
	}
	if m.watchSettle <= 0 {
		m.watchSettle = defaultWatchSettle
	}
	if m.reclaim == nil {
		m.reclaim = memguard.Reclaim
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	}
	rt := cfg.Runtime
	if rt == nil {
		rt = NewONNXRuntime(cfg.ORTLibPath, cfg.Threads)
	}
	m.rt = newRuntimeLoader(rt, m.log)

	reader := cfg.MemoryReader
	if reader == nil {
		reader = defaultMemoryReader(cfg.ProcPath, m.log)
	}
	loadPct := cfg.LoadThresholdPercent
	if loadPct <= 0 {
		loadPct = defaultLoadThreshold
	}
	admitPct := cfg.AdmissionThresholdPercent
	if admitPct <= 0 {
		admitPct = defaultAdmissionThreshold
	}
	m.loadGuard = memguard.New(reader, loadPct,
		memguard.WithName("load"), memguard.WithReclaimer(m.reclaim), memguard.WithLogger(m.log))
	m.admitGuard = memguard.New(reader, admitPct,
		memguard.WithName("admission"), memguard.WithReclaimer(m.reclaim), memguard.WithLogger(m.log))
	m.startTime = time.Now()
	return m
}

func defaultMemoryReader(procPath string, log zerolog.Logger) memguard.Reader {
	if procPath == "" {
		procPath = procfs.DefaultMountPoint
	}
	r, err := memguard.NewProcReader(procPath)
	if err != nil {
		log.Warn().Err(err).Msg("memory introspection unavailable; guards will admit all work")
		return memguard.Unavailable(err)
	}
	return r
}
