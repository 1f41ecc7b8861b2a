package sim

import (
	"testing"
	"time"

	"github.com/relaylogic/relaysim/internal/component"
	"github.com/relaylogic/relaysim/internal/model"
	"github.com/relaylogic/relaysim/internal/signal"
)

// switchToIndicator builds the §8 scenario 1 document: a Switch and an
// Indicator joined by a single wire.
func switchToIndicator() *model.Document {
	t1 := &model.Tab{ID: "00000001"}
	t5 := &model.Tab{ID: "00000005"}
	sw := &model.Component{
		ID:   "00000010",
		Type: model.TypeSwitch,
		Pins: []*model.Pin{{ID: "00000011", Tabs: []*model.Tab{t1}}},
	}
	ind := &model.Component{
		ID:   "00000020",
		Type: model.TypeIndicator,
		Pins: []*model.Pin{{ID: "00000021", Tabs: []*model.Tab{t5}}},
	}
	wire := &model.Wire{ID: "00000030", StartTabID: "00000001", EndTabID: strPtr("00000005")}
	page := &model.Page{
		ID:         "00000040",
		Name:       "main",
		Components: []*model.Component{sw, ind},
		Wires:      []*model.Wire{wire},
	}
	return &model.Document{Version: "1.0.0", Pages: []*model.Page{page}}
}

func strPtr(s string) *string { return &s }

func TestSwitchToIndicatorStabilizesFloat(t *testing.T) {
	doc := switchToIndicator()
	e := New(DefaultConfig())
	if err := e.Start(doc); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	if e.State() != Stable {
		t.Fatalf("expected Stable after Start, got %s", e.State())
	}
	snap, err := e.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	for _, c := range snap.Components {
		for _, s := range c.PinStates {
			if s != signal.Float {
				t.Errorf("component %s: expected FLOAT, got %s", c.ID, s)
			}
		}
	}
}

func TestSwitchToggleLightsIndicator(t *testing.T) {
	doc := switchToIndicator()
	e := New(DefaultConfig())
	if err := e.Start(doc); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	if err := e.Interact("00000010", "toggle", nil); err != nil {
		t.Fatalf("Interact: %v", err)
	}
	if e.State() != Stable {
		t.Fatalf("expected Stable after Interact, got %s", e.State())
	}
	snap, _ := e.Snapshot()
	found := false
	for _, c := range snap.Components {
		if c.ID != "00000020" {
			continue
		}
		found = true
		for _, s := range c.PinStates {
			if s != signal.High {
				t.Errorf("indicator pin: expected HIGH after toggle, got %s", s)
			}
		}
	}
	if !found {
		t.Fatal("indicator component missing from snapshot")
	}

	if err := e.Interact("00000010", "toggle", nil); err != nil {
		t.Fatalf("second Interact: %v", err)
	}
	snap, _ = e.Snapshot()
	for _, c := range snap.Components {
		if c.ID != "00000020" {
			continue
		}
		for _, s := range c.PinStates {
			if s != signal.Float {
				t.Errorf("indicator pin: expected FLOAT after second toggle, got %s", s)
			}
		}
	}
}

func TestOscillatingRelayReportsOscillation(t *testing.T) {
	coil := &model.Tab{ID: "00000001"}
	nc1 := &model.Tab{ID: "00000002"}

	relayPins := []*model.Pin{
		{ID: "00000011", Tabs: []*model.Tab{coil}},
		{ID: "00000012", Tabs: []*model.Tab{{ID: "00000013"}}}, // COM1
		{ID: "00000014", Tabs: []*model.Tab{{ID: "00000015"}}}, // NO1
		{ID: "00000016", Tabs: []*model.Tab{nc1}},               // NC1, wired back to coil
		{ID: "00000017", Tabs: []*model.Tab{{ID: "00000018"}}}, // COM2
		{ID: "00000019", Tabs: []*model.Tab{{ID: "0000001a"}}}, // NO2
		{ID: "0000001b", Tabs: []*model.Tab{{ID: "0000001c"}}}, // NC2
	}
	relay := &model.Component{
		ID:         "00000020",
		Type:       model.TypeDpdtRelay,
		Pins:       relayPins,
		Properties: map[string]string{"timer_ticks": "1"},
	}

	vcc := &model.Component{
		ID:   "00000030",
		Type: model.TypeVcc,
		Pins: []*model.Pin{{ID: "00000031", Tabs: []*model.Tab{{ID: "00000032"}}}},
	}

	// Wire Vcc into COM1, and feed NC1 back into COIL — oscillator.
	wireVccCom1 := &model.Wire{ID: "00000040", StartTabID: "00000032", EndTabID: strPtr("00000013")}
	wireFeedback := &model.Wire{ID: "00000041", StartTabID: "00000002", EndTabID: strPtr("00000001")}

	page := &model.Page{
		ID:         "00000050",
		Name:       "main",
		Components: []*model.Component{relay, vcc},
		Wires:      []*model.Wire{wireVccCom1, wireFeedback},
	}
	doc := &model.Document{Version: "1.0.0", Pages: []*model.Page{page}}

	cfg := DefaultConfig()
	cfg.OscillationCap = 10
	cfg.WatchdogTimeout = 2 * time.Second
	e := New(cfg)
	err := e.Start(doc)
	if err == nil {
		t.Fatal("expected oscillation or timeout error, got nil")
	}
}

// relayThroughSwitch builds the §8 scenario 2 document: a Switch drives a
// DpdtRelay's coil, Vcc feeds COM1, and an Indicator reads NO1 — the
// indicator should only light once the relay's multi-tick timer has run
// to completion and flipped the bridge from NC1 to NO1.
func relayThroughSwitch(timerTicks string) *model.Document {
	switchTab := &model.Tab{ID: "00000001"}
	coilTab := &model.Tab{ID: "00000002"}
	vccTab := &model.Tab{ID: "00000003"}
	com1Tab := &model.Tab{ID: "00000004"}
	indTab := &model.Tab{ID: "00000005"}
	no1Tab := &model.Tab{ID: "00000006"}

	sw := &model.Component{
		ID:   "00000010",
		Type: model.TypeSwitch,
		Pins: []*model.Pin{{ID: "00000011", Tabs: []*model.Tab{switchTab}}},
	}
	vcc := &model.Component{
		ID:   "00000020",
		Type: model.TypeVcc,
		Pins: []*model.Pin{{ID: "00000021", Tabs: []*model.Tab{vccTab}}},
	}
	ind := &model.Component{
		ID:   "00000030",
		Type: model.TypeIndicator,
		Pins: []*model.Pin{{ID: "00000031", Tabs: []*model.Tab{indTab}}},
	}
	relay := &model.Component{
		ID:   "00000040",
		Type: model.TypeDpdtRelay,
		Pins: []*model.Pin{
			{ID: "00000041", Tabs: []*model.Tab{coilTab}},
			{ID: "00000042", Tabs: []*model.Tab{com1Tab}},
			{ID: "00000043", Tabs: []*model.Tab{no1Tab}},
			{ID: "00000044", Tabs: []*model.Tab{{ID: "00000045"}}}, // NC1, unconnected
			{ID: "00000046", Tabs: []*model.Tab{{ID: "00000047"}}}, // COM2
			{ID: "00000048", Tabs: []*model.Tab{{ID: "00000049"}}}, // NO2
			{ID: "0000004a", Tabs: []*model.Tab{{ID: "0000004b"}}}, // NC2
		},
		Properties: map[string]string{"timer_ticks": timerTicks},
	}

	wires := []*model.Wire{
		{ID: "00000050", StartTabID: switchTab.ID, EndTabID: strPtr(coilTab.ID)},
		{ID: "00000051", StartTabID: vccTab.ID, EndTabID: strPtr(com1Tab.ID)},
		{ID: "00000052", StartTabID: indTab.ID, EndTabID: strPtr(no1Tab.ID)},
	}
	page := &model.Page{
		ID:         "00000060",
		Name:       "main",
		Components: []*model.Component{sw, vcc, ind, relay},
		Wires:      wires,
	}
	return &model.Document{Version: "1.0.0", Pages: []*model.Page{page}}
}

func indicatorState(snap Snapshot) signal.State {
	for _, c := range snap.Components {
		if c.ID != "00000030" {
			continue
		}
		for _, s := range c.PinStates {
			return s
		}
	}
	return signal.Float
}

// TestRelayTimerCompletesThroughEngine drives a multi-tick relay timer
// purely through Engine.Interact, with no direct Evaluate calls — the
// regression case for a relay whose pending timer never advances because
// nothing keeps re-touching it once its own VNET stops changing.
func TestRelayTimerCompletesThroughEngine(t *testing.T) {
	doc := relayThroughSwitch("4")
	e := New(DefaultConfig())
	if err := e.Start(doc); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	if s := indicatorState(mustSnapshot(t, e)); s != signal.Float {
		t.Fatalf("expected indicator FLOAT before toggle, got %s", s)
	}

	if err := e.Interact("00000010", "toggle", nil); err != nil {
		t.Fatalf("Interact: %v", err)
	}
	if e.State() != Stable {
		t.Fatalf("expected Stable after Interact, got %s", e.State())
	}

	relay := e.kernels["00000040"].(*component.DpdtRelay)
	if !relay.Energized() {
		t.Fatal("relay should be energized once the engine reaches Stable")
	}
	if s := indicatorState(mustSnapshot(t, e)); s != signal.High {
		t.Fatalf("expected indicator HIGH once the relay's timer completes, got %s", s)
	}
}

func mustSnapshot(t *testing.T, e *Engine) Snapshot {
	t.Helper()
	snap, err := e.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return snap
}

func TestInteractBeforeStartIsInvalidState(t *testing.T) {
	e := New(DefaultConfig())
	if err := e.Interact("whatever", "toggle", nil); err == nil {
		t.Fatal("expected error interacting before Start")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	e := New(DefaultConfig())
	if _, err := e.Stop(); err != nil {
		t.Fatalf("Stop on idle engine: %v", err)
	}
	doc := switchToIndicator()
	if err := e.Start(doc); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if _, err := e.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if e.State() != Idle {
		t.Fatalf("expected Idle after Stop, got %s", e.State())
	}
}
