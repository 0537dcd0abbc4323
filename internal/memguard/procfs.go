package memguard

import (
	"errors"
	"fmt"

	"github.com/prometheus/procfs"
)

// ProcReader reads system memory from /proc/meminfo and the process RSS
// from /proc/self/stat.
type ProcReader struct {
	fs procfs.FS
}

// NewProcReader opens the proc filesystem mounted at mountPoint
// (usually procfs.DefaultMountPoint).
func NewProcReader(mountPoint string) (*ProcReader, error) {
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, fmt.Errorf("open procfs %s: %w", mountPoint, err)
	}
	return &ProcReader{fs: fs}, nil
}

func (r *ProcReader) Read() (Snapshot, error) {
	mi, err := r.fs.Meminfo()
	if err != nil {
		return Snapshot{}, fmt.Errorf("read meminfo: %w", err)
	}
	if mi.MemTotal == nil || *mi.MemTotal == 0 {
		return Snapshot{}, errors.New("meminfo: MemTotal missing")
	}
	totalKB := *mi.MemTotal
	var availKB uint64
	switch {
	case mi.MemAvailable != nil:
		availKB = *mi.MemAvailable
	case mi.MemFree != nil:
		// kernels before 3.14 have no MemAvailable
		availKB = *mi.MemFree
	}
	if availKB > totalKB {
		availKB = totalKB
	}
	s := Snapshot{
		TotalBytes:     totalKB * 1024,
		AvailableBytes: availKB * 1024,
		UsedPercent:    100 * float64(totalKB-availKB) / float64(totalKB),
	}
	// RSS is informational; a missing /proc/self does not fail the read.
	if p, err := r.fs.Self(); err == nil {
		if st, err := p.Stat(); err == nil && st.ResidentMemory() > 0 {
			s.ProcessRSSBytes = uint64(st.ResidentMemory())
		}
	}
	return s, nil
}

// Unavailable returns a Reader that always fails with err. It stands in when
// procfs cannot be opened so the guard degrades to admitting work.
func Unavailable(err error) Reader {
	return ReaderFunc(func() (Snapshot, error) { return Snapshot{}, err })
}
