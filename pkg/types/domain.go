package types

// Status labels produced by the classifier.
const (
	StatusCancer   = "Cancer"
	StatusNoCancer = "No Cancer"
)

// Artifact describes a resolved model artifact on disk.
type Artifact struct {
	// Path the artifact was resolved at.
	// example: model/best_cancer_model_small.onnx
	Path string `json:"path" example:"model/best_cancer_model_small.onnx"`
	// Size of the artifact in bytes.
	// example: 5242880
	SizeBytes int64 `json:"size_bytes" example:"5242880"`
}
