package manager

import "histoscan/pkg/types"

// State is the lifecycle state of the model handle.
type State string

const (
	StateAbsent  State = "absent"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// RuntimeState is the lifecycle state of the numerical runtime.
type RuntimeState string

const (
	RuntimeUnloaded   RuntimeState = "unloaded"
	RuntimeLoaded     RuntimeState = "loaded"
	RuntimeLoadFailed RuntimeState = "load_failed"
)

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State        State
	RuntimeState RuntimeState
	Artifact     *types.Artifact
	Err          string
	LoadsTotal   uint64
}

// loadedModel is published once, after warm-up, and never mutated.
type loadedModel struct {
	session  Session
	artifact types.Artifact
}
