// Package component implements the per-type kernel logic dispatched by
// component type tag: Switch, Indicator, Vcc, DpdtRelay, and
// SubCircuitInstance. Every variant implements the same four-operation
// Kernel interface; behavior differs, dispatch does not.
package component

import (
	"github.com/relaylogic/relaysim/internal/bridge"
	"github.com/relaylogic/relaysim/internal/model"
	"github.com/relaylogic/relaysim/internal/signal"
	"github.com/relaylogic/relaysim/internal/vnet"
)

// Context is the view a Kernel implementation gets into the surrounding
// engine state: its own component, the pin/tab→VNET lookup, and the
// bridge manager. It never exposes other components.
type Context struct {
	Comp      *model.Component
	TabToVNET map[string]*vnet.VNET
	Bridges   *bridge.Manager
	Tick      uint64 // monotonic evaluate-pass counter, used by the relay timer
}

// PinState returns the current aggregated state of a pin: HIGH iff any
// owned tab is HIGH.
func (c *Context) PinState(p *model.Pin) signal.State {
	result := signal.Float
	for _, t := range p.Tabs {
		result = signal.Combine(result, t.State)
	}
	return result
}

// SetPinState writes newState to a pin and every tab it owns, and marks
// dirty every VNET whose member tab's contribution actually changed as a
// result — matching §4.7's "any pin write that differs from the
// containing VNET's current state re-marks that VNET dirty".
func (c *Context) SetPinState(p *model.Pin, newState signal.State) {
	for _, t := range p.Tabs {
		if t.State == newState {
			continue
		}
		t.State = newState
		if v, ok := c.TabToVNET[t.ID]; ok && v.State() != newState {
			v.MarkDirty()
		}
	}
	p.State = newState
}

// VNETForTab resolves the VNET containing a given tab id, if any.
func (c *Context) VNETForTab(tabID string) (*vnet.VNET, bool) {
	v, ok := c.TabToVNET[tabID]
	return v, ok
}

// Properties returns the component's free-form property map, never nil.
func (c *Context) Properties() map[string]string {
	if c.Comp.Properties == nil {
		return map[string]string{}
	}
	return c.Comp.Properties
}

// PinByID finds one of the component's own pins by id.
func (c *Context) PinByID(id string) *model.Pin {
	for _, p := range c.Comp.Pins {
		if p.ID == id {
			return p
		}
	}
	return nil
}
