package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, p string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte("onnx"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestCandidates_ExplicitFirstAndDeduped(t *testing.T) {
	got := Candidates("/x/m.onnx", []string{"model/m.onnx", "/x/m.onnx", "", "backend/model/m.onnx"})
	want := []string{"/x/m.onnx", "model/m.onnx", "backend/model/m.onnx"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != filepath.Clean(want[i]) {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if got := Candidates("", []string{"a"}); len(got) != 1 || got[0] != "a" {
		t.Fatalf("empty explicit must be skipped: %v", got)
	}
}

func TestResolve_PicksFirstExisting(t *testing.T) {
	d := t.TempDir()
	a := filepath.Join(d, "a", "m.onnx")
	b := filepath.Join(d, "b", "m.onnx")
	c := filepath.Join(d, "c", "m.onnx")
	touch(t, b)
	touch(t, c)
	art, ok := Resolve([]string{a, b, c})
	if !ok {
		t.Fatalf("expected a resolved artifact")
	}
	if art.Path != b {
		t.Fatalf("expected %s, got %s", b, art.Path)
	}
	if art.SizeBytes != 4 {
		t.Fatalf("unexpected size %d", art.SizeBytes)
	}
}

func TestResolve_NoneExist(t *testing.T) {
	d := t.TempDir()
	// a directory named like the artifact is not an artifact
	if err := os.MkdirAll(filepath.Join(d, "m.onnx"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, ok := Resolve([]string{filepath.Join(d, "m.onnx"), filepath.Join(d, "x.onnx")}); ok {
		t.Fatalf("expected no artifact")
	}
	if _, ok := Resolve(nil); ok {
		t.Fatalf("expected no artifact for empty list")
	}
}

func TestInspect_ReportsFoundAndListings(t *testing.T) {
	d := t.TempDir()
	a := filepath.Join(d, "missing", "m.onnx")
	b := filepath.Join(d, "model", "m.onnx")
	touch(t, b)
	r := Inspect([]string{a, b})
	if len(r.PossiblePaths) != 2 || len(r.FoundPaths) != 1 || r.FoundPaths[0] != b {
		t.Fatalf("unexpected report: %+v", r)
	}
	if names := r.Directories[filepath.Dir(b)]; len(names) != 1 || names[0] != "m.onnx" {
		t.Fatalf("unexpected listing: %v", names)
	}
	if _, ok := r.Directories[filepath.Dir(a)]; !ok {
		t.Fatalf("missing directory should still be reported")
	}
	if _, ok := r.Directories["."]; !ok {
		t.Fatalf("working directory listing missing")
	}
	if Describe(r) == "" {
		t.Fatalf("empty description")
	}
}
