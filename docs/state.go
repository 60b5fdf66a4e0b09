package docs

// State is the lifecycle position of the document service. Transitions only
// move forward within one generation run; a later run may move Degraded back
// to Ready.
type State int32

const (
	// StateUninitialized is the state before Initialize is called.
	StateUninitialized State = iota
	// StateLoadingCached covers the synchronous best-effort load of a
	// previously persisted document.
	StateLoadingCached
	// StateGenerating covers the async worker run and document assembly.
	StateGenerating
	// StateReady means a fully assembled document is being served.
	StateReady
	// StateDegraded means the last run failed; any previously available
	// document keeps being served.
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoadingCached:
		return "loading-cached"
	case StateGenerating:
		return "generating"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}
