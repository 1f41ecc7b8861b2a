package component

// Indicator is a passive display element: one pin, four positional tabs,
// no drive of its own. Evaluate reads the pin state for display only.
type Indicator struct {
	lc Lifecycle
}

// NewIndicator returns a fresh, unstarted Indicator kernel.
func NewIndicator() *Indicator { return &Indicator{} }

func (i *Indicator) OnStart(ctx *Context) error {
	if i.lc == Started {
		return invalidState("Indicator.OnStart", i.lc)
	}
	i.lc = Started
	return nil
}

// Evaluate is intentionally a no-op: the indicator never drives its pin,
// it only displays whatever state propagation already wrote there.
func (i *Indicator) Evaluate(ctx *Context) error {
	if i.lc != Started {
		return invalidState("Indicator.Evaluate", i.lc)
	}
	return nil
}

func (i *Indicator) Interact(ctx *Context, action string, params map[string]string) error {
	return invalidState("Indicator.Interact", i.lc)
}

func (i *Indicator) OnStop(ctx *Context) error {
	i.lc = Stopped
	return nil
}

// Lit reports the indicator's displayed state (for snapshots).
func (i *Indicator) Lit(ctx *Context) bool {
	if len(ctx.Comp.Pins) == 0 {
		return false
	}
	return ctx.PinState(ctx.Comp.Pins[0]) != 0
}
