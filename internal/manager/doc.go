// Package manager owns the classifier's resource-aware inference lifecycle.
// It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: lifecycle state types (State, RuntimeState, Snapshot).
//   - errors.go: typed failures and helpers (IsModelNotFound, IsInsufficientMemory, ...).
//   - adapter_iface.go: Runtime/Session interfaces over the numerical runtime.
//   - runtime.go: lazy, retryable acquisition of the runtime (dependency loader).
//   - ensure.go: LoadModel state machine (absent → loading → ready | failed).
//   - inference.go: Predict entry point and the guarded forward pass.
//   - decision.go: mapping of the raw model output to a labelled result.
//   - degraded.go: opt-in synthetic results for resource failures.
//   - status_report.go: Health/Memory/CheckModel reporting; never forces a load.
//   - watch.go: artifact watcher that loads a model once it appears on disk.
//   - metrics.go: Prometheus collectors for loads, predictions and rejections.
//
// Build tags and runtimes:
//
//   - ONNX Runtime (standard):
//     Uses github.com/yalue/onnxruntime_go. Enabled with `-tags=onnx`.
//     File: adapter_onnx.go. The shared library is located through
//     ORT_LIB_PATH or the platform default.
//
//   - Without the tag adapter_onnx_stub.go is compiled; it reports the
//     runtime as unavailable so CGO-free builds fail requests with
//     DependencyUnavailable instead of fabricating results.
//
// External packages should use public methods only (NewWithConfig, LoadModel,
// Predict, Health, Memory, CheckModel, Ready, WatchArtifacts).
package manager
