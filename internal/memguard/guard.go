// Package memguard gates memory-expensive work behind a utilisation check.
//
// A Guard compares the current system memory utilisation against a fixed
// threshold. When the threshold is exceeded it runs one reclamation pass and
// measures again; it never retries beyond that. The check is synchronous and
// best-effort: when memory cannot be read at all the guard admits the work
// and logs the read failure.
package memguard

import (
	"runtime/debug"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Snapshot is a point-in-time memory reading. It is never cached.
type Snapshot struct {
	UsedPercent     float64
	AvailableBytes  uint64
	TotalBytes      uint64
	ProcessRSSBytes uint64
}

// AvailableHuman formats AvailableBytes for logs and status payloads.
func (s Snapshot) AvailableHuman() string { return humanize.Bytes(s.AvailableBytes) }

// Reader provides current memory utilisation.
type Reader interface {
	Read() (Snapshot, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func() (Snapshot, error)

func (f ReaderFunc) Read() (Snapshot, error) { return f() }

// Reclaim returns freed heap to the OS. It forces a garbage collection.
func Reclaim() { debug.FreeOSMemory() }

// Guard is safe for concurrent use; it holds no mutable state.
type Guard struct {
	name      string
	reader    Reader
	threshold float64
	reclaim   func()
	log       zerolog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithReclaimer replaces the reclamation pass (default Reclaim).
func WithReclaimer(fn func()) Option { return func(g *Guard) { g.reclaim = fn } }

// WithLogger installs a structured logger.
func WithLogger(l zerolog.Logger) Option { return func(g *Guard) { g.log = l } }

// WithName labels log lines, e.g. "load" or "admission".
func WithName(name string) Option { return func(g *Guard) { g.name = name } }

// New builds a guard rejecting work above thresholdPercent utilisation.
func New(r Reader, thresholdPercent float64, opts ...Option) *Guard {
	g := &Guard{
		name:      "memory",
		reader:    r,
		threshold: thresholdPercent,
		reclaim:   Reclaim,
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Threshold returns the configured utilisation ceiling in percent.
func (g *Guard) Threshold() float64 { return g.threshold }

// Snapshot reads memory without reclaiming or judging.
func (g *Guard) Snapshot() (Snapshot, error) { return g.reader.Read() }

// HasHeadroom reports whether utilisation is at or below the threshold,
// reclaiming once and re-measuring when it is not. The returned snapshot is
// the last reading taken.
func (g *Guard) HasHeadroom() (Snapshot, bool) {
	snap, err := g.reader.Read()
	if err != nil {
		g.log.Warn().Str("guard", g.name).Err(err).Msg("memory read failed; admitting")
		return snap, true
	}
	if snap.UsedPercent <= g.threshold {
		return snap, true
	}
	g.log.Info().Str("guard", g.name).
		Float64("used_percent", snap.UsedPercent).
		Float64("threshold", g.threshold).
		Str("available", snap.AvailableHuman()).
		Msg("memory above threshold; reclaiming")
	g.reclaim()

	after, err := g.reader.Read()
	if err != nil {
		g.log.Warn().Str("guard", g.name).Err(err).Msg("memory re-read failed; admitting")
		return snap, true
	}
	if after.UsedPercent <= g.threshold {
		return after, true
	}
	g.log.Warn().Str("guard", g.name).
		Float64("used_percent", after.UsedPercent).
		Float64("threshold", g.threshold).
		Str("available", after.AvailableHuman()).
		Msg("insufficient memory after reclamation")
	return after, false
}
