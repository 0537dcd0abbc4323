package manager

import (
	"errors"
	"fmt"
	"strings"

	"histoscan/internal/memguard"
	"histoscan/internal/preprocess"
)

// dependencyUnavailableError signals the numerical runtime could not be
// acquired or configured so the HTTP layer can return 503.
type dependencyUnavailableError struct {
	msg   string
	cause error
}

func (e dependencyUnavailableError) Error() string {
	if e.cause != nil {
		return "dependency unavailable: " + e.msg + ": " + e.cause.Error()
	}
	return "dependency unavailable: " + e.msg
}

func (e dependencyUnavailableError) Unwrap() error { return e.cause }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}

// modelNotFoundError reports that no candidate path holds an artifact.
type modelNotFoundError struct{ candidates []string }

func (e modelNotFoundError) Error() string {
	return "model not found; checked: " + strings.Join(e.candidates, ", ")
}

// ErrModelNotFound returns an error listing the candidates that were checked.
func ErrModelNotFound(candidates []string) error {
	return modelNotFoundError{candidates: append([]string(nil), candidates...)}
}

// IsModelNotFound reports whether the error indicates a missing artifact.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// modelLoadFailedError reports an artifact that failed to deserialise or warm up.
type modelLoadFailedError struct {
	path  string
	cause error
}

func (e modelLoadFailedError) Error() string {
	return fmt.Sprintf("model load failed (%s): %v", e.path, e.cause)
}

func (e modelLoadFailedError) Unwrap() error { return e.cause }

// IsModelLoadFailed reports whether err indicates a failed (retryable) load.
func IsModelLoadFailed(err error) bool {
	var e modelLoadFailedError
	return errors.As(err, &e)
}

// insufficientMemoryError is returned when a guard refuses work even after
// one reclamation pass. Callers should back off and retry later.
type insufficientMemoryError struct {
	stage     string
	snap      memguard.Snapshot
	threshold float64
}

func (e insufficientMemoryError) Error() string {
	return fmt.Sprintf("insufficient memory for %s: %.1f%% used (threshold %.1f%%, %s available)",
		e.stage, e.snap.UsedPercent, e.threshold, e.snap.AvailableHuman())
}

// IsInsufficientMemory reports whether err indicates memory pressure.
func IsInsufficientMemory(err error) bool {
	var e insufficientMemoryError
	return errors.As(err, &e)
}

// inferenceFailedError wraps a fault raised during the forward pass.
type inferenceFailedError struct{ cause error }

func (e inferenceFailedError) Error() string { return "inference failed: " + e.cause.Error() }

func (e inferenceFailedError) Unwrap() error { return e.cause }

// IsInferenceFailed reports whether err came from the forward pass.
func IsInferenceFailed(err error) bool {
	var e inferenceFailedError
	return errors.As(err, &e)
}

// IsImageDecodeError reports whether err indicates undecodable input.
// Such errors are caller errors and must not be retried automatically.
func IsImageDecodeError(err error) bool { return preprocess.IsImageDecodeError(err) }

// ErrorKind names the failure category of err for logs, metrics and API
// payloads. Unknown errors map to "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsImageDecodeError(err):
		return "image_decode"
	case IsInsufficientMemory(err):
		return "insufficient_memory"
	case IsDependencyUnavailable(err):
		return "dependency_unavailable"
	case IsModelNotFound(err):
		return "model_not_found"
	case IsModelLoadFailed(err):
		return "model_load_failed"
	case IsInferenceFailed(err):
		return "inference_failed"
	default:
		return "internal"
	}
}
