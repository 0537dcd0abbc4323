package manager

import "histoscan/internal/preprocess"

// Runtime abstracts the numerical runtime used by the Manager.
// Concrete implementations (e.g., ONNX Runtime) should satisfy this interface.
type Runtime interface {
	// Name identifies the runtime in logs and status output.
	Name() string
	// Init acquires and configures the runtime for CPU-only, low-thread,
	// low-memory operation. It is called until it succeeds once.
	Init() error
	// Load deserialises an artifact for inference only (no training state).
	Load(path string) (Session, error)
}

// Session is a loaded model ready for forward passes.
type Session interface {
	// Run performs one forward pass and returns the scalar sigmoid output.
	// Implementations must release any native buffers they allocate before
	// returning, on success and on error.
	Run(in *preprocess.Tensor) (float32, error)
	// Close releases resources associated with the session.
	Close() error
}
