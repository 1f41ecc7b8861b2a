package component

// SubCircuitInstance is a transparent wrapper around a cloned template:
// its pins mirror the FOOTPRINT page's Link components, and on_start it
// bridges each external pin's VNET to the corresponding internal Link's
// VNET on the cloned instance page. Evaluate does nothing — all logic
// lives in the contained circuit.
type SubCircuitInstance struct {
	lc Lifecycle

	// PinToInternalTab maps this component's own pin id to the tab id of
	// the matching Link component on the cloned FOOTPRINT page. Set by
	// the instantiator at construction time.
	PinToInternalTab map[string]string

	bridgeIDs []string
}

// NewSubCircuitInstance returns a fresh, unstarted wrapper kernel. The
// caller (the instantiator) is responsible for populating
// PinToInternalTab before OnStart runs.
func NewSubCircuitInstance(pinToInternalTab map[string]string) *SubCircuitInstance {
	return &SubCircuitInstance{PinToInternalTab: pinToInternalTab}
}

func (s *SubCircuitInstance) OnStart(ctx *Context) error {
	if s.lc == Started {
		return invalidState("SubCircuitInstance.OnStart", s.lc)
	}
	s.lc = Started

	for _, pin := range ctx.Comp.Pins {
		internalTabID, ok := s.PinToInternalTab[pin.ID]
		if !ok || len(pin.Tabs) == 0 {
			continue
		}
		externalVNET, ok := ctx.VNETForTab(pin.Tabs[0].ID)
		if !ok {
			continue
		}
		internalVNET, ok := ctx.VNETForTab(internalTabID)
		if !ok {
			continue
		}
		id := ctx.Bridges.Create(externalVNET.ID, internalVNET.ID, ctx.Comp.ID)
		s.bridgeIDs = append(s.bridgeIDs, id)
	}
	return nil
}

// Evaluate is a deliberate no-op: the wrapper is transparent.
func (s *SubCircuitInstance) Evaluate(ctx *Context) error {
	if s.lc != Started {
		return invalidState("SubCircuitInstance.Evaluate", s.lc)
	}
	return nil
}

func (s *SubCircuitInstance) Interact(ctx *Context, action string, params map[string]string) error {
	return invalidState("SubCircuitInstance.Interact", s.lc)
}

func (s *SubCircuitInstance) OnStop(ctx *Context) error {
	s.lc = Stopped
	return nil
}
