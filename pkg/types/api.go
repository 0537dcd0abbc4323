package types

// PredictionResult is returned by POST /predict.
type PredictionResult struct {
	// Classification label.
	// example: No Cancer
	Status string `json:"status" example:"No Cancer"`
	// Confidence in the reported label, as a percentage in (0, 100].
	// example: 87.5
	Confidence float64 `json:"confidence" example:"87.5"`
	// Raw model probability of the positive class, as a percentage in [0, 100].
	// example: 12.5
	CancerProbability float64 `json:"cancer_probability" example:"12.5"`
	// Wall time spent in the classifier.
	// example: 42
	ProcessingTimeMs int64 `json:"processing_time_ms" example:"42"`
	// Present only when the result is synthetic (degraded mode).
	Note string `json:"note,omitempty"`
}

// Synthetic reports whether the result was fabricated in degraded mode.
func (p PredictionResult) Synthetic() bool { return p.Note != "" }

// HealthResponse is returned by GET /health. It never forces a model load.
type HealthResponse struct {
	// Overall service status; always "healthy" while the process serves.
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// example: Backend is running
	Message string `json:"message,omitempty" example:"Backend is running"`
	// Whether the model completed loading and warm-up.
	// example: true
	ModelLoaded bool `json:"model_loaded" example:"true"`
	// Resolved artifact path, or the highest-priority candidate when none exist.
	// example: model/best_cancer_model_small.onnx
	ModelPath string `json:"model_path" example:"model/best_cancer_model_small.onnx"`
	// Whether any candidate artifact exists on disk.
	// example: true
	ModelExists bool `json:"model_exists" example:"true"`
	// Model input geometry [height, width].
	// example: [100,100]
	ImageSize [2]int `json:"image_size"`
	// Available system memory in bytes.
	// example: 1073741824
	MemoryAvailable uint64 `json:"memory_available" example:"1073741824"`
	// System memory utilisation in percent.
	// example: 63.2
	MemoryPercent float64 `json:"memory_percent" example:"63.2"`
	// Model lifecycle state (absent, loading, ready, failed).
	// example: ready
	State string `json:"state" example:"ready"`
	// Runtime state (unloaded, loaded, load_failed).
	// example: loaded
	RuntimeState string `json:"runtime_state" example:"loaded"`
	// Last lifecycle error, if any.
	LastError string `json:"last_error,omitempty"`
	// Number of successful model loads.
	// example: 1
	LoadsTotal uint64 `json:"loads_total" example:"1"`
	// Uptime of the classifier in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Whether degraded (synthetic-result) mode is enabled.
	DegradedMode bool `json:"degraded_mode"`
}

// MemoryResponse is returned by GET /memory.
type MemoryResponse struct {
	// example: 63.2
	UsedPercent float64 `json:"used_percent" example:"63.2"`
	// example: 1073741824
	AvailableBytes uint64 `json:"available_bytes" example:"1073741824"`
	// example: 2147483648
	TotalBytes uint64 `json:"total_bytes" example:"2147483648"`
	// Resident set size of this process in bytes.
	// example: 268435456
	ProcessRSSBytes uint64 `json:"process_rss_bytes" example:"268435456"`
	// Human-readable available memory.
	// example: 1.1 GB
	AvailableHuman string `json:"available_human" example:"1.1 GB"`
	// Threshold above which model loading is refused.
	// example: 85
	LoadThresholdPercent float64 `json:"load_threshold_percent" example:"85"`
	// Threshold above which prediction requests are refused.
	// example: 95
	AdmissionThresholdPercent float64 `json:"admission_threshold_percent" example:"95"`
	// Whether a model load would currently be admitted.
	HasHeadroom bool `json:"has_headroom"`
	Error       string `json:"error,omitempty"`
}

// CheckModelResponse is returned by GET /check-model.
type CheckModelResponse struct {
	// Candidates that exist on disk, in priority order.
	FoundPaths []string `json:"found_paths"`
	// Every candidate that was checked, in priority order.
	PossiblePaths []string `json:"possible_paths"`
	// Working directory of the process.
	WorkingDir string `json:"working_dir"`
	// Listing of the working directory and each candidate's parent directory.
	Directories map[string][]string `json:"directories"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: No image provided
	Error string `json:"error" example:"No image provided"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
	// Error kind for programmatic handling.
	// example: image_decode
	Kind string `json:"kind,omitempty" example:"image_decode"`
}
