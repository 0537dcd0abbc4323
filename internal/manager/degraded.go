package manager

import (
	"hash/fnv"

	"histoscan/internal/preprocess"
	"histoscan/pkg/types"
)

const syntheticNote = "synthetic result: model unavailable"

// degradable reports whether err may be replaced by a synthetic result.
// Caller errors (undecodable images) never are.
func (m *Manager) degradable(err error) bool {
	if !m.degraded || IsImageDecodeError(err) {
		return false
	}
	return IsInsufficientMemory(err) || IsDependencyUnavailable(err) ||
		IsModelNotFound(err) || IsModelLoadFailed(err) || IsInferenceFailed(err)
}

// syntheticResult derives a deterministic placeholder from the input bytes.
// The image is still fully decoded so bad uploads keep failing.
func (m *Manager) syntheticResult(raw []byte, cause error) (types.PredictionResult, error) {
	t, err := preprocess.Preprocess(raw, preprocess.Options{Size: m.imageSize, MaxPixels: m.maxPixels})
	if err != nil {
		return types.PredictionResult{}, err
	}
	t.Release()
	h := fnv.New32a()
	_, _ = h.Write(raw)
	p := float64(h.Sum32()%1000) / 1000
	res := Classify(p)
	res.Note = syntheticNote + " (" + ErrorKind(cause) + ")"
	m.log.Warn().Err(cause).Str("status", res.Status).Msg("returning synthetic result")
	return res, nil
}
