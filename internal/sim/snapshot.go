package sim

import "github.com/relaylogic/relaysim/internal/signal"

// ComponentSnapshot is one entry of Engine.Snapshot()'s components list.
type ComponentSnapshot struct {
	ID        string
	Type      string
	X, Y      float64
	PinStates map[string]signal.State
}

// VNETSnapshot is one entry of Engine.Snapshot()'s vnets list.
type VNETSnapshot struct {
	ID      string
	State   signal.State
	Members []string
}

// Snapshot is the immutable view handed to observers: engine.snapshot()
// in the kernel API, and the payload of on_stable callbacks. It is only
// produced while the engine is Stable.
type Snapshot struct {
	Components []ComponentSnapshot
	VNETs      []VNETSnapshot
	Warnings   []string
}
