package memguard

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeMeminfo(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "meminfo"), []byte(content), 0o644); err != nil {
		t.Fatalf("write meminfo: %v", err)
	}
	return dir
}

func TestProcReader_MemAvailable(t *testing.T) {
	dir := writeMeminfo(t, "MemTotal:        1000 kB\nMemFree:          100 kB\nMemAvailable:     250 kB\n")
	r, err := NewProcReader(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s, err := r.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if s.TotalBytes != 1000*1024 || s.AvailableBytes != 250*1024 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if math.Abs(s.UsedPercent-75) > 1e-9 {
		t.Fatalf("used percent=%v, want 75", s.UsedPercent)
	}
}

func TestProcReader_FallsBackToMemFree(t *testing.T) {
	dir := writeMeminfo(t, "MemTotal:        2000 kB\nMemFree:          500 kB\n")
	r, err := NewProcReader(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s, err := r.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if s.AvailableBytes != 500*1024 || math.Abs(s.UsedPercent-75) > 1e-9 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
}

func TestProcReader_Errors(t *testing.T) {
	if _, err := NewProcReader(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing mount point")
	}
	r, err := NewProcReader(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := r.Read(); err == nil {
		t.Fatalf("expected error without meminfo")
	}
}
