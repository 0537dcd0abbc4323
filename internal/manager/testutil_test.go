package manager

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"histoscan/internal/memguard"
	"histoscan/internal/preprocess"
)

// fakeRuntime records calls and hands out fakeSessions.
type fakeRuntime struct {
	mu       sync.Mutex
	initErrs []error // consumed one per Init call
	loadErr  error
	loadHook func(path string)
	panicOn  bool

	inits  atomic.Int32
	loads  atomic.Int32
	loaded []string

	sess *fakeSession
}

func newFakeRuntime(out float32) *fakeRuntime {
	return &fakeRuntime{sess: &fakeSession{out: out}}
}

func (f *fakeRuntime) Name() string { return "fake" }

func (f *fakeRuntime) Init() error {
	f.inits.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.initErrs) == 0 {
		return nil
	}
	err := f.initErrs[0]
	f.initErrs = f.initErrs[1:]
	return err
}

func (f *fakeRuntime) Load(path string) (Session, error) {
	f.loads.Add(1)
	if f.loadHook != nil {
		f.loadHook(path)
	}
	if f.panicOn {
		panic("native crash")
	}
	f.mu.Lock()
	f.loaded = append(f.loaded, path)
	err := f.loadErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.sess, nil
}

func (f *fakeRuntime) setLoadErr(err error) {
	f.mu.Lock()
	f.loadErr = err
	f.mu.Unlock()
}

func (f *fakeRuntime) loadedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.loaded...)
}

// fakeSession returns a fixed output and records the tensors it saw.
type fakeSession struct {
	mu      sync.Mutex
	out     float32
	err     error
	warmErr error
	panicOn bool
	runs    atomic.Int32
	closes  atomic.Int32
	shapes  [][4]int64
	// gate, when set, holds every post-warm-up Run until it is closed.
	// entered receives once per held Run.
	gate    chan struct{}
	entered chan struct{}
}

func (s *fakeSession) Run(in *preprocess.Tensor) (float32, error) {
	n := s.runs.Add(1)
	s.mu.Lock()
	s.shapes = append(s.shapes, in.Shape)
	out, err, warmErr, p := s.out, s.err, s.warmErr, s.panicOn
	gate, entered := s.gate, s.entered
	s.mu.Unlock()
	if n == 1 && warmErr != nil {
		return 0, warmErr
	}
	if n > 1 && gate != nil {
		entered <- struct{}{}
		<-gate
	}
	if n > 1 && p {
		panic("forward pass crashed")
	}
	return out, err
}

func (s *fakeSession) Close() error {
	s.closes.Add(1)
	return nil
}

func (s *fakeSession) set(fn func(s *fakeSession)) {
	s.mu.Lock()
	fn(s)
	s.mu.Unlock()
}

// memReader serves a settable utilisation percentage.
type memReader struct {
	pct   atomic.Uint64 // percent * 100
	err   error
	reads atomic.Int32
}

func newMemReader(pct float64) *memReader {
	r := &memReader{}
	r.set(pct)
	return r
}

func (r *memReader) set(pct float64) { r.pct.Store(uint64(pct * 100)) }

func (r *memReader) Read() (memguard.Snapshot, error) {
	r.reads.Add(1)
	if r.err != nil {
		return memguard.Snapshot{}, r.err
	}
	used := float64(r.pct.Load()) / 100
	total := uint64(8 << 30)
	return memguard.Snapshot{
		UsedPercent:    used,
		TotalBytes:     total,
		AvailableBytes: uint64(float64(total) * (100 - used) / 100),
	}, nil
}

// writeArtifact creates a fake model file and returns its path.
func writeArtifact(t *testing.T, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("onnx"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

type testEnv struct {
	m    *Manager
	rt   *fakeRuntime
	mem  *memReader
	pub  *MemoryPublisher
	path string
	recl atomic.Int32
}

// newTestEnv builds a manager over one existing artifact with fakes for the
// runtime and memory reader. mutate may adjust the config before construction.
func newTestEnv(t *testing.T, mutate func(*ManagerConfig)) *testEnv {
	t.Helper()
	env := &testEnv{
		rt:  newFakeRuntime(0.9),
		mem: newMemReader(40),
		pub: NewMemoryPublisher(),
	}
	env.path = writeArtifact(t, t.TempDir(), "model.onnx")
	cfg := ManagerConfig{
		Candidates:   []string{env.path},
		Runtime:      env.rt,
		MemoryReader: env.mem,
		Reclaim:      func() { env.recl.Add(1) },
		Publisher:    env.pub,
		WatchSettle:  20 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	env.m = NewWithConfig(cfg)
	return env
}

var errBoom = errors.New("boom")
