package component

import (
	"testing"

	"github.com/relaylogic/relaysim/internal/bridge"
	"github.com/relaylogic/relaysim/internal/ident"
	"github.com/relaylogic/relaysim/internal/model"
	"github.com/relaylogic/relaysim/internal/signal"
	"github.com/relaylogic/relaysim/internal/vnet"
)

func singlePinComponent(id string, t model.ComponentType) (*model.Component, *vnet.VNET, *Context) {
	tab := &model.Tab{ID: "t" + id[1:]}
	pin := &model.Pin{ID: "p" + id[1:], Tabs: []*model.Tab{tab}}
	comp := &model.Component{ID: id, Type: t, Pins: []*model.Pin{pin}}

	vnets := vnet.NewSet()
	v := vnet.New("v"+id[1:], "pg111111", tab.ID)
	v.ClearDirty()
	vnets.Add(v)

	ctx := &Context{
		Comp:      comp,
		TabToVNET: map[string]*vnet.VNET{tab.ID: v},
		Bridges:   bridge.NewManager(vnets, ident.NewSpace()),
	}
	return comp, v, ctx
}

func TestSwitchToggleTwiceRoundTrips(t *testing.T) {
	_, v, ctx := singlePinComponent("csw00001", model.TypeSwitch)
	sw := NewSwitch()
	if err := sw.OnStart(ctx); err != nil {
		t.Fatalf("OnStart: %v", err)
	}
	v.Apply(signal.Float)

	if err := sw.Interact(ctx, "toggle", nil); err != nil {
		t.Fatalf("Interact(toggle): %v", err)
	}
	if ctx.PinState(ctx.Comp.Pins[0]) != signal.High {
		t.Fatal("after one toggle: want HIGH")
	}

	if err := sw.Interact(ctx, "toggle", nil); err != nil {
		t.Fatalf("Interact(toggle): %v", err)
	}
	if ctx.PinState(ctx.Comp.Pins[0]) != signal.Float {
		t.Fatal("after second toggle: want FLOAT (round trip)")
	}
}

func TestSwitchInvalidStateBeforeStart(t *testing.T) {
	_, _, ctx := singlePinComponent("csw00002", model.TypeSwitch)
	sw := NewSwitch()
	if err := sw.Interact(ctx, "toggle", nil); err == nil {
		t.Fatal("Interact before OnStart: want InvalidStateError, got nil")
	}
}

func TestVccDrivesHighOnStart(t *testing.T) {
	_, _, ctx := singlePinComponent("cvc00001", model.TypeVcc)
	v := NewVcc()
	if err := v.OnStart(ctx); err != nil {
		t.Fatalf("OnStart: %v", err)
	}
	if ctx.PinState(ctx.Comp.Pins[0]) != signal.High {
		t.Fatal("Vcc.OnStart: want pin HIGH")
	}
}

func TestIndicatorEvaluateNeverDrives(t *testing.T) {
	_, v, ctx := singlePinComponent("cin00001", model.TypeIndicator)
	ind := NewIndicator()
	if err := ind.OnStart(ctx); err != nil {
		t.Fatalf("OnStart: %v", err)
	}
	v.Apply(signal.High)
	ctx.Comp.Pins[0].Tabs[0].State = signal.High
	if err := ind.Evaluate(ctx); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !ind.Lit(ctx) {
		t.Fatal("indicator should reflect propagated HIGH")
	}
}

func sevenPinRelay(id string) (*model.Component, map[string]*vnet.VNET, *Context) {
	names := []string{"coil", "com1", "no1", "nc1", "com2", "no2", "nc2"}
	var pins []*model.Pin
	vnets := vnet.NewSet()
	tabToVNET := make(map[string]*vnet.VNET)
	all := make(map[string]*vnet.VNET)

	for i, n := range names {
		tabID := id[:1] + "t" + n + padDigits(i)
		tab := &model.Tab{ID: tabID}
		pinID := id[:1] + "p" + n + padDigits(i)
		pins = append(pins, &model.Pin{ID: pinID, Tabs: []*model.Tab{tab}})

		vnetID := id[:1] + "v" + n + padDigits(i)
		v := vnet.New(vnetID, "pg111111", tabID)
		v.ClearDirty()
		vnets.Add(v)
		tabToVNET[tabID] = v
		all[n] = v
	}

	comp := &model.Component{ID: id, Type: model.TypeDpdtRelay, Pins: pins}
	ctx := &Context{
		Comp:      comp,
		TabToVNET: tabToVNET,
		Bridges:   bridge.NewManager(vnets, ident.NewSpace()),
	}
	return comp, all, ctx
}

func padDigits(i int) string {
	return string(rune('0' + i))
}

func TestRelayStartsNormallyClosed(t *testing.T) {
	_, vnets, ctx := sevenPinRelay("rxxxxxxx")
	r := NewDpdtRelay()
	if err := r.OnStart(ctx); err != nil {
		t.Fatalf("OnStart: %v", err)
	}
	ends := ctx.Bridges.Endpoints(vnets["com1"].ID)
	if len(ends) != 1 || ends[0] != vnets["nc1"].ID {
		t.Fatalf("pole1 bridge endpoints = %v, want [nc1]", ends)
	}
}

func TestRelayEnergizesAfterTimerAndFlipsPoles(t *testing.T) {
	_, vnets, ctx := sevenPinRelay("rxxxxxxx")
	r := NewDpdtRelay()
	if err := r.OnStart(ctx); err != nil {
		t.Fatalf("OnStart: %v", err)
	}

	ctx.Comp.Pins[relayPinCoil].Tabs[0].State = signal.High

	if err := r.Evaluate(ctx); err != nil { // starts the timer
		t.Fatalf("Evaluate (start timer): %v", err)
	}
	if r.Energized() {
		t.Fatal("should not energize before timer completes")
	}

	if err := r.Evaluate(ctx); err != nil { // completes the timer
		t.Fatalf("Evaluate (complete timer): %v", err)
	}
	if !r.Energized() {
		t.Fatal("should be energized after timer completes")
	}

	ends := ctx.Bridges.Endpoints(vnets["com1"].ID)
	if len(ends) != 1 || ends[0] != vnets["no1"].ID {
		t.Fatalf("pole1 bridge endpoints after flip = %v, want [no1]", ends)
	}
}

func TestRelayReversalBeforeTimerCancels(t *testing.T) {
	_, vnets, ctx := sevenPinRelay("rxxxxxxx")
	r := NewDpdtRelay()
	if err := r.OnStart(ctx); err != nil {
		t.Fatalf("OnStart: %v", err)
	}

	ctx.Comp.Pins[relayPinCoil].Tabs[0].State = signal.High
	if err := r.Evaluate(ctx); err != nil {
		t.Fatalf("Evaluate (start timer): %v", err)
	}

	ctx.Comp.Pins[relayPinCoil].Tabs[0].State = signal.Float
	if err := r.Evaluate(ctx); err != nil {
		t.Fatalf("Evaluate (reversal): %v", err)
	}
	if r.Energized() {
		t.Fatal("reversal before completion should cancel, not flip")
	}
	ends := ctx.Bridges.Endpoints(vnets["com1"].ID)
	if len(ends) != 1 || ends[0] != vnets["nc1"].ID {
		t.Fatalf("pole1 bridge endpoints after cancel = %v, want [nc1]", ends)
	}
}
