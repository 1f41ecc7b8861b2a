package component

import "github.com/relaylogic/relaysim/internal/simerr"

// Kernel is the four-operation behavior surface every component variant
// implements. Calling an operation outside its valid lifecycle is an
// InvalidStateError, not a panic.
type Kernel interface {
	// OnStart initializes pin states and allocates any bridges this
	// component owns.
	OnStart(ctx *Context) error
	// Evaluate reads pin states and computes new pin states and/or
	// bridge mutations. Must be idempotent when nothing has changed.
	Evaluate(ctx *Context) error
	// Interact applies an external stimulus (toggle, press, release).
	// Never called concurrently with Evaluate on the same component.
	Interact(ctx *Context, action string, params map[string]string) error
	// OnStop clears transient state. Bridges owned by the component are
	// destroyed by the engine, not by OnStop itself.
	OnStop(ctx *Context) error
}

// PendingTimer is implemented by kernels that run an internal countdown
// independent of any VNET's state — a running countdown needs Evaluate
// called every iteration until it completes, even on iterations where none
// of the component's own VNETs changed. The engine polls this on every
// kernel at the start of each run-loop iteration and folds pending
// components into that iteration's touched set.
type PendingTimer interface {
	Pending() bool
}

// Lifecycle tracks which operations are currently valid for a component
// instance.
type Lifecycle int

const (
	NotStarted Lifecycle = iota
	Started
	Stopped
)

func invalidState(op string, lc Lifecycle) error {
	return simerr.New(simerr.InvalidState, op, errLifecycle{lc})
}

type errLifecycle struct{ lc Lifecycle }

func (e errLifecycle) Error() string {
	switch e.lc {
	case NotStarted:
		return "component has not been started"
	case Started:
		return "component is already started"
	case Stopped:
		return "component has already stopped"
	default:
		return "component in unknown lifecycle state"
	}
}
