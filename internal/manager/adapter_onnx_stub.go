//go:build !onnx

package manager

// This file provides a no-CGO stub for the ONNX runtime. It is compiled when
// the 'onnx' build tag is NOT set, keeping default builds and CI CGO-free.
// The real adapter lives in adapter_onnx.go (tagged 'onnx').

const stubReason = "onnxruntime support not built (missing 'onnx' build tag)"

// onnxRuntime is a stub that satisfies Runtime but refuses to initialise, so
// production binaries built without CGO never report fabricated results.
type onnxRuntime struct {
	libPath string
	threads int
}

// NewONNXRuntime returns a runtime that refuses to initialise in this build.
func NewONNXRuntime(libPath string, threads int) Runtime {
	return &onnxRuntime{libPath: libPath, threads: threads}
}

func (r *onnxRuntime) Name() string { return "onnxruntime(stub)" }

func (r *onnxRuntime) Init() error { return ErrDependencyUnavailable(stubReason) }

func (r *onnxRuntime) Load(path string) (Session, error) {
	return nil, ErrDependencyUnavailable(stubReason)
}
