package component

import "github.com/relaylogic/relaysim/internal/signal"

// Vcc is a fixed power source: one pin, one tab, permanently HIGH while
// running.
type Vcc struct {
	lc Lifecycle
}

// NewVcc returns a fresh, unstarted Vcc kernel.
func NewVcc() *Vcc { return &Vcc{} }

func (v *Vcc) OnStart(ctx *Context) error {
	if v.lc == Started {
		return invalidState("Vcc.OnStart", v.lc)
	}
	v.lc = Started
	if len(ctx.Comp.Pins) > 0 {
		ctx.SetPinState(ctx.Comp.Pins[0], signal.High)
	}
	return nil
}

func (v *Vcc) Evaluate(ctx *Context) error {
	if v.lc != Started {
		return invalidState("Vcc.Evaluate", v.lc)
	}
	if len(ctx.Comp.Pins) > 0 {
		ctx.SetPinState(ctx.Comp.Pins[0], signal.High)
	}
	return nil
}

func (v *Vcc) Interact(ctx *Context, action string, params map[string]string) error {
	return invalidState("Vcc.Interact", v.lc)
}

func (v *Vcc) OnStop(ctx *Context) error {
	v.lc = Stopped
	return nil
}
