package blackbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) (int, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	cleanup := func() { _ = ln.Close() }
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port, cleanup
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	bbDir := filepath.Dir(thisFile)
	return filepath.Dir(filepath.Dir(bbDir))
}

// buildBinary compiles the server without CGO, so the ONNX runtime is the
// stub that reports the dependency as unavailable.
func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("black-box tests build the binary; skipped in -short mode")
	}
	root := projectRootFromThisFile(t)
	binPath := filepath.Join(t.TempDir(), "histoscan")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/histoscan")
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(out))
	}
	return binPath
}

// createArtifact writes a placeholder model file and returns its path.
func createArtifact(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "best_cancer_model_small.onnx")
	if err := os.WriteFile(p, []byte("not really onnx"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return p
}

type serverProc struct {
	cmd  *exec.Cmd
	base string // http base URL, e.g. http://127.0.0.1:18080
}

func startServer(t *testing.T, bin string, port int, env ...string) *serverProc {
	t.Helper()
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	cmd := exec.Command(bin, "serve", "--addr", fmt.Sprintf(":%d", port))
	// Run from an empty directory so the default candidate paths miss.
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	// Wait for healthz
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			_ = cmd.Process.Kill()
			t.Fatalf("server did not become healthy in time")
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Cleanup(func() { _ = cmd.Process.Kill() })
	return &serverProc{cmd: cmd, base: base}
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func postImage(t *testing.T, url string, content []byte) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "slide.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, &buf)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for i := 0; i < 32; i++ {
		img.Set(i, i, color.RGBA{R: 200, G: 40, B: 120, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestBlackbox_Flow(t *testing.T) {
	bin := buildBinary(t)
	artifact := createArtifact(t)
	port, release := findFreePort(t)
	release()
	sp := startServer(t, bin, port, "MODEL_PATH="+artifact)

	// /health reports the artifact without loading it
	resp, body := get(t, sp.base+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/health %d %s", resp.StatusCode, string(body))
	}
	var health struct {
		Status      string `json:"status"`
		ModelLoaded bool   `json:"model_loaded"`
		ModelExists bool   `json:"model_exists"`
		ModelPath   string `json:"model_path"`
		ImageSize   [2]int `json:"image_size"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("/health json: %v body=%s", err, string(body))
	}
	if health.Status != "healthy" || health.ModelLoaded || !health.ModelExists || health.ModelPath != artifact {
		t.Fatalf("unexpected health: %+v", health)
	}
	if health.ImageSize != [2]int{100, 100} {
		t.Fatalf("image_size=%v", health.ImageSize)
	}

	// /readyz is 503 until a model is loaded
	resp, body = get(t, sp.base+"/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/readyz %d %s", resp.StatusCode, string(body))
	}

	// Without the onnx build tag the runtime is unavailable: strict mode
	// must fail rather than fabricate a result.
	resp, body = postImage(t, sp.base+"/predict", samplePNG(t))
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/predict expected 503, got %d %s", resp.StatusCode, string(body))
	}
	if bytes.Contains(body, []byte(`"status"`)) {
		t.Fatalf("/predict must not return a classification: %s", string(body))
	}

	// /check-model lists the explicit path first
	resp, body = get(t, sp.base+"/check-model")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/check-model %d %s", resp.StatusCode, string(body))
	}
	var cm struct {
		FoundPaths    []string `json:"found_paths"`
		PossiblePaths []string `json:"possible_paths"`
	}
	if err := json.Unmarshal(body, &cm); err != nil {
		t.Fatalf("/check-model json: %v", err)
	}
	if len(cm.PossiblePaths) == 0 || cm.PossiblePaths[0] != artifact || len(cm.FoundPaths) != 1 {
		t.Fatalf("unexpected check-model: %+v", cm)
	}

	// /metrics exposes the service namespace
	resp, body = get(t, sp.base+"/metrics")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "histoscan_predictions_total") {
		t.Fatalf("/metrics %d missing histoscan_predictions_total", resp.StatusCode)
	}
}

func TestBlackbox_DegradedMode(t *testing.T) {
	bin := buildBinary(t)
	port, release := findFreePort(t)
	release()
	sp := startServer(t, bin, port, "HISTOSCAN_DEGRADED=true", "MODEL_PATH="+filepath.Join(t.TempDir(), "absent.onnx"))

	resp, body := postImage(t, sp.base+"/predict", samplePNG(t))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/predict %d %s", resp.StatusCode, string(body))
	}
	var res struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if res.Note == "" || (res.Status != "Cancer" && res.Status != "No Cancer") {
		t.Fatalf("expected labelled synthetic result, got %+v", res)
	}

	// Undecodable uploads still fail.
	resp, body = postImage(t, sp.base+"/predict", []byte("definitely not an image"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for garbage, got %d %s", resp.StatusCode, string(body))
	}
}
