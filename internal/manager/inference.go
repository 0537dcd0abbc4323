package manager

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"time"

	"histoscan/internal/preprocess"
	"histoscan/pkg/types"
)

// Predict classifies one encoded image. The flow is admission memory check,
// load-if-absent, preprocess, forward pass. ctx is only consulted before
// work starts; an in-flight forward pass is not interrupted.
func (m *Manager) Predict(ctx context.Context, raw []byte) (types.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return types.PredictionResult{}, err
	}
	start := time.Now()
	res, err := m.predict(raw)
	if err != nil {
		if m.degradable(err) {
			res, err = m.syntheticResult(raw, err)
		}
	}
	if err != nil {
		predictions.WithLabelValues(ErrorKind(err)).Inc()
		return types.PredictionResult{}, err
	}
	res.ProcessingTimeMs = time.Since(start).Milliseconds()
	if res.Synthetic() {
		predictions.WithLabelValues("synthetic").Inc()
	} else {
		predictions.WithLabelValues("ok").Inc()
	}
	return res, nil
}

func (m *Manager) predict(raw []byte) (types.PredictionResult, error) {
	snap, ok := m.admitGuard.HasHeadroom()
	if !ok {
		memoryRejections.WithLabelValues("admission").Inc()
		return types.PredictionResult{}, insufficientMemoryError{
			stage: "admission", snap: snap, threshold: m.admitGuard.Threshold(),
		}
	}
	if err := m.LoadModel(); err != nil {
		return types.PredictionResult{}, err
	}
	tensor, err := preprocess.Preprocess(raw, preprocess.Options{Size: m.imageSize, MaxPixels: m.maxPixels})
	if err != nil {
		return types.PredictionResult{}, err
	}
	out, err := m.infer(tensor)
	if err != nil {
		return types.PredictionResult{}, err
	}
	return Classify(out), nil
}

// infer runs one forward pass. The tensor is released on every path and
// runtime panics surface as InferenceFailed.
func (m *Manager) infer(t *preprocess.Tensor) (out float64, err error) {
	defer t.Release()
	m.runMu.RLock()
	defer m.runMu.RUnlock()
	lm := m.ready.Load()
	if lm == nil {
		return 0, inferenceFailedError{cause: fmt.Errorf("model not ready")}
	}
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Str("stack", string(debug.Stack())).Msg("panic during inference")
			err = inferenceFailedError{cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	start := time.Now()
	v, rerr := lm.session.Run(t)
	inferenceDuration.Observe(time.Since(start).Seconds())
	if rerr != nil {
		m.log.Error().Err(rerr).Msg("forward pass failed")
		return 0, inferenceFailedError{cause: rerr}
	}
	out = float64(v)
	if math.IsNaN(out) || out < 0 || out > 1 {
		return 0, inferenceFailedError{cause: fmt.Errorf("model output %v outside [0,1]", v)}
	}
	return out, nil
}
