package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"histoscan/internal/manager"
	"histoscan/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps classifier failures to HTTP status codes. Resource and
// artifact problems are transient from the client's view (503); undecodable
// uploads are the client's fault (400).
func statusFor(err error) int {
	var he HTTPError
	switch {
	case manager.IsImageDecodeError(err):
		return http.StatusBadRequest
	case manager.IsInsufficientMemory(err),
		manager.IsDependencyUnavailable(err),
		manager.IsModelNotFound(err),
		manager.IsModelLoadFailed(err):
		return http.StatusServiceUnavailable
	case manager.IsInferenceFailed(err):
		return http.StatusInternalServerError
	case errors.As(err, &he):
		return he.StatusCode()
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logf(LevelError, "encode response: %v", err)
	}
}
