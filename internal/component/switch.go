package component

import (
	"fmt"

	"github.com/relaylogic/relaysim/internal/signal"
)

// Switch models a toggle or pushbutton switch: one pin, four positional
// tabs, an internal boolean drive state.
type Switch struct {
	lc Lifecycle
	on bool
}

// NewSwitch returns a fresh, unstarted Switch kernel.
func NewSwitch() *Switch { return &Switch{} }

func (s *Switch) OnStart(ctx *Context) error {
	if s.lc == Started {
		return invalidState("Switch.OnStart", s.lc)
	}
	s.lc = Started
	s.on = false
	if len(ctx.Comp.Pins) > 0 {
		ctx.SetPinState(ctx.Comp.Pins[0], signal.Float)
	}
	return nil
}

func (s *Switch) Evaluate(ctx *Context) error {
	if s.lc != Started {
		return invalidState("Switch.Evaluate", s.lc)
	}
	if len(ctx.Comp.Pins) == 0 {
		return nil
	}
	want := signal.Float
	if s.on {
		want = signal.High
	}
	ctx.SetPinState(ctx.Comp.Pins[0], want)
	return nil
}

func (s *Switch) Interact(ctx *Context, action string, params map[string]string) error {
	if s.lc != Started {
		return invalidState("Switch.Interact", s.lc)
	}
	switch action {
	case "toggle":
		s.on = !s.on
	case "press":
		s.on = true
	case "release":
		s.on = false
	default:
		return fmt.Errorf("switch: unknown action %q", action)
	}
	return s.Evaluate(ctx)
}

func (s *Switch) OnStop(ctx *Context) error {
	s.lc = Stopped
	return nil
}

// On reports the switch's current internal drive state (for snapshots).
func (s *Switch) On() bool { return s.on }
