//go:build onnx

package manager

import (
	"errors"
	"fmt"
	"os"

	ort "github.com/yalue/onnxruntime_go"

	"histoscan/internal/preprocess"
)

// onnxRuntime holds process-wide session options shared by every load.
type onnxRuntime struct {
	libPath string
	threads int
	opts    *ort.SessionOptions
}

// NewONNXRuntime returns a runtime backed by the ONNX Runtime shared library.
// libPath may be empty to use the platform default.
func NewONNXRuntime(libPath string, threads int) Runtime {
	if threads <= 0 {
		threads = 1
	}
	return &onnxRuntime{libPath: libPath, threads: threads}
}

func (r *onnxRuntime) Name() string { return "onnxruntime" }

func (r *onnxRuntime) Init() error {
	// Hide accelerators before the library is loaded; only the CPU
	// execution provider is ever registered.
	_ = os.Setenv("CUDA_VISIBLE_DEVICES", "-1")
	if r.libPath != "" {
		ort.SetSharedLibraryPath(r.libPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}
	if r.opts != nil {
		return nil
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("session options: %w", err)
	}
	if err := configureCPU(opts, r.threads); err != nil {
		_ = opts.Destroy()
		return err
	}
	r.opts = opts
	return nil
}

// configureCPU pins parallelism and turns off the arena allocator and memory
// pattern planning so memory grows per request instead of up front.
func configureCPU(o *ort.SessionOptions, threads int) error {
	if err := o.SetIntraOpNumThreads(threads); err != nil {
		return fmt.Errorf("intra-op threads: %w", err)
	}
	if err := o.SetInterOpNumThreads(threads); err != nil {
		return fmt.Errorf("inter-op threads: %w", err)
	}
	if err := o.SetCpuMemArena(false); err != nil {
		return fmt.Errorf("cpu mem arena: %w", err)
	}
	if err := o.SetMemPattern(false); err != nil {
		return fmt.Errorf("mem pattern: %w", err)
	}
	return nil
}

func (r *onnxRuntime) Load(path string) (Session, error) {
	if r.opts == nil {
		return nil, errors.New("onnxruntime not initialised")
	}
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", path, err)
	}
	if len(inputs) != 1 || len(outputs) == 0 {
		return nil, fmt.Errorf("expected 1 input and >=1 output, got %d/%d", len(inputs), len(outputs))
	}
	if dims := inputs[0].Dimensions; len(dims) != 4 || dims[3] != preprocess.Channels {
		return nil, fmt.Errorf("input %q has shape %v, want [N,H,W,3]", inputs[0].Name, dims)
	}
	sess, err := ort.NewDynamicAdvancedSession(path,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, r.opts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &onnxSession{session: sess, outShape: concreteShape(outputs[0].Dimensions)}, nil
}

// concreteShape replaces dynamic (-1) dimensions with 1 for a single-image batch.
func concreteShape(dims ort.Shape) ort.Shape {
	out := make(ort.Shape, len(dims))
	for i, d := range dims {
		if d <= 0 {
			d = 1
		}
		out[i] = d
	}
	return out
}

type onnxSession struct {
	session  *ort.DynamicAdvancedSession
	outShape ort.Shape
}

func (s *onnxSession) Run(in *preprocess.Tensor) (float32, error) {
	input, err := ort.NewTensor(ort.NewShape(in.Shape[:]...), in.Data)
	if err != nil {
		return 0, fmt.Errorf("input tensor: %w", err)
	}
	defer input.Destroy()
	output, err := ort.NewEmptyTensor[float32](s.outShape)
	if err != nil {
		return 0, fmt.Errorf("output tensor: %w", err)
	}
	defer output.Destroy()

	if err := s.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return 0, err
	}
	data := output.GetData()
	if len(data) == 0 {
		return 0, errors.New("empty model output")
	}
	return data[0], nil
}

func (s *onnxSession) Close() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}
