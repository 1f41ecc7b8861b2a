// Package sim implements the simulation loop: the state machine that
// takes an indexed, net-built Document to a stable electrical state and
// back, dispatching component kernels and draining the dirty set until
// convergence, oscillation, or timeout.
package sim

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/relaylogic/relaysim/internal/bridge"
	"github.com/relaylogic/relaysim/internal/component"
	"github.com/relaylogic/relaysim/internal/dirty"
	"github.com/relaylogic/relaysim/internal/ident"
	"github.com/relaylogic/relaysim/internal/linkresolve"
	"github.com/relaylogic/relaysim/internal/model"
	"github.com/relaylogic/relaysim/internal/netbuild"
	"github.com/relaylogic/relaysim/internal/signal"
	"github.com/relaylogic/relaysim/internal/simerr"
	"github.com/relaylogic/relaysim/internal/subcircuit"
	"github.com/relaylogic/relaysim/internal/vnet"
)

// State is the engine's lifecycle state.
type State int

const (
	Idle State = iota
	Initializing
	Stable
	Unstable
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Stable:
		return "stable"
	case Unstable:
		return "unstable"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Config tunes the run loop. Every field has a spec-matching default via
// DefaultConfig; host processes override these from their own
// configuration layer.
type Config struct {
	OscillationCap  int
	WatchdogTimeout time.Duration
	Concurrency     ConcurrencyConfig
}

// DefaultConfig matches §4.7/§4.8/§5's stated defaults.
func DefaultConfig() Config {
	return Config{
		OscillationCap:  50,
		WatchdogTimeout: 10 * time.Second,
		Concurrency:     DefaultConcurrencyConfig(),
	}
}

// Engine is the simulation kernel's entry point. A single Engine instance
// is stateful and not meant to be shared across goroutines except through
// its own exported methods, which hold their own lock.
type Engine struct {
	mu    sync.Mutex
	state State
	cfg   Config

	doc   *model.Document
	idx   *model.Index
	space *ident.Space

	vnets   *vnet.Set
	bridges *bridge.Manager
	dirty   *dirty.Manager

	tabToVNET map[string]*vnet.VNET
	linkGroups map[string]*linkresolve.Group

	kernels map[string]component.Kernel
	ctxs    map[string]*component.Context

	warnings []simerr.WarningCondition
	stats    Statistics
	tick     uint64
	runners  runnerPair

	stableListeners   []func(Snapshot)
	unstableListeners []func()
}

// New returns an idle engine configured with cfg.
func New(cfg Config) *Engine {
	return &Engine{state: Idle, cfg: cfg}
}

// OnStable registers a listener invoked (synchronously, while holding no
// lock) every time the engine transitions into the Stable state.
func (e *Engine) OnStable(fn func(Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stableListeners = append(e.stableListeners, fn)
}

// OnUnstable registers a listener invoked every time the engine leaves
// Stable because a dirtying input arrived.
func (e *Engine) OnUnstable(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unstableListeners = append(e.unstableListeners, fn)
}

// State reports the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start initializes the engine from doc and runs the loop to its first
// stable state (or fails with a StructuralError/OscillationError/
// TimeoutError). doc is not retained by reference beyond what the engine
// needs to run; callers must not mutate it while the engine is not Idle.
func (e *Engine) Start(doc *model.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Idle {
		return simerr.New(simerr.InvalidState, "Engine.Start", errAlreadyStarted{e.state})
	}

	idx, errs := model.BuildIndex(doc)
	if len(errs) > 0 {
		return simerr.New(simerr.Structural, "Engine.Start", joinErrors(errs))
	}

	space := ident.NewSpace()
	for id := range idx.Pages {
		_ = space.Reserve(id)
	}
	for id := range idx.Components {
		_ = space.Reserve(id)
	}
	for id := range idx.Pins {
		_ = space.Reserve(id)
	}
	for id := range idx.Tabs {
		_ = space.Reserve(id)
	}
	for id := range idx.Wires {
		_ = space.Reserve(id)
	}
	for id := range idx.Junctions {
		_ = space.Reserve(id)
	}

	e.state = Initializing
	e.doc = doc
	e.idx = idx
	e.space = space
	e.vnets = vnet.NewSet()
	e.bridges = bridge.NewManager(e.vnets, space)
	e.dirty = dirty.NewManager(e.vnets)
	e.tabToVNET = make(map[string]*vnet.VNET)
	e.kernels = make(map[string]component.Kernel)
	e.ctxs = make(map[string]*component.Context)
	e.warnings = nil
	e.stats = Statistics{}
	e.tick = 0

	var structural []error
	for _, page := range doc.Pages {
		res := netbuild.BuildPage(page, space)
		for _, v := range res.VNETs {
			v.PageID = page.ID
			e.vnets.Add(v)
		}
		for tabID, v := range res.TabToVNET {
			e.tabToVNET[tabID] = v
		}
		structural = append(structural, res.Errors...)
	}
	if len(structural) > 0 {
		e.state = Idle
		return simerr.New(simerr.Structural, "Engine.Start", joinErrors(structural))
	}

	linkResult := linkresolve.Resolve(doc, e.tabToVNET)
	e.linkGroups = linkResult.Groups
	e.warnings = append(e.warnings, linkResult.Warnings...)

	for _, page := range doc.Pages {
		for _, comp := range page.Components {
			kernel, err := e.buildKernel(comp)
			if err != nil {
				e.state = Idle
				return simerr.New(simerr.Structural, "Engine.Start", err)
			}
			e.kernels[comp.ID] = kernel
			e.ctxs[comp.ID] = &component.Context{
				Comp:      comp,
				TabToVNET: e.tabToVNET,
				Bridges:   e.bridges,
			}
		}
	}

	// No component observes another's pins before every on_start has run.
	for _, id := range e.sortedComponentIDs() {
		if err := e.kernels[id].OnStart(e.ctxs[id]); err != nil {
			e.warnings = append(e.warnings, simerr.WarningCondition{
				Message:     fmt.Sprintf("on_start failed: %v", err),
				ComponentID: id,
			})
		}
	}

	for _, v := range e.vnets.All() {
		v.MarkDirty()
	}

	e.runners = newRunnerPair(len(e.idx.Components), e.cfg.Concurrency)

	if err := e.run(); err != nil {
		e.state = Idle
		return err
	}
	return nil
}

// Interact applies an external stimulus to one component and re-runs the
// loop to the next stable state.
func (e *Engine) Interact(componentID, action string, params map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Stable && e.state != Unstable {
		return simerr.New(simerr.InvalidState, "Engine.Interact", errLifecycleEngine{e.state})
	}
	kernel, ok := e.kernels[componentID]
	if !ok {
		return simerr.New(simerr.Structural, "Engine.Interact", fmt.Errorf("unknown component %s", componentID))
	}
	ctx := e.ctxs[componentID]
	if err := kernel.Interact(ctx, action, params); err != nil {
		return simerr.New(simerr.InvalidState, "Engine.Interact", err)
	}

	if e.dirty.AnyDirty() {
		e.transitionUnstable()
	}
	return e.run()
}

// Stop tears the engine down: on_stop on every component, every bridge
// destroyed, every VNET discarded. Idempotent — calling Stop on an
// already-Idle engine returns the last run's statistics with no error.
func (e *Engine) Stop() (Statistics, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Idle {
		return e.stats, nil
	}
	e.state = Stopping

	for _, id := range e.sortedComponentIDs() {
		if err := e.kernels[id].OnStop(e.ctxs[id]); err != nil {
			e.warnings = append(e.warnings, simerr.WarningCondition{
				Message:     fmt.Sprintf("on_stop failed: %v", err),
				ComponentID: id,
			})
		}
		for _, bID := range e.bridges.ByOwner(id) {
			e.bridges.Destroy(bID)
		}
	}

	e.vnets = nil
	e.bridges = nil
	e.dirty = nil
	e.tabToVNET = nil
	e.linkGroups = nil
	e.kernels = nil
	e.ctxs = nil

	if e.stats.Outcome == "" {
		e.stats.Outcome = OutcomeStopped
	}
	e.state = Idle
	return e.stats, nil
}

// Snapshot returns the engine's current view, valid only in Stable.
func (e *Engine) Snapshot() (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Stable {
		return Snapshot{}, simerr.New(simerr.InvalidState, "Engine.Snapshot", errLifecycleEngine{e.state})
	}
	return e.snapshotLocked(), nil
}

func (e *Engine) snapshotLocked() Snapshot {
	var comps []ComponentSnapshot
	for _, id := range e.sortedComponentIDs() {
		c := e.idx.Components[id]
		pinStates := make(map[string]signal.State, len(c.Pins))
		for _, p := range c.Pins {
			pinStates[p.ID] = p.State
		}
		comps = append(comps, ComponentSnapshot{
			ID:        c.ID,
			Type:      string(c.Type),
			X:         c.Position.X,
			Y:         c.Position.Y,
			PinStates: pinStates,
		})
	}

	var vnets []VNETSnapshot
	for _, v := range e.vnets.All() {
		vnets = append(vnets, VNETSnapshot{
			ID:      v.ID,
			State:   v.State(),
			Members: v.Tabs(),
		})
	}

	var warnings []string
	for _, w := range e.warnings {
		warnings = append(warnings, w.String())
	}

	return Snapshot{Components: comps, VNETs: vnets, Warnings: warnings}
}

func (e *Engine) buildKernel(comp *model.Component) (component.Kernel, error) {
	if comp.Type == model.TypeSubCircuitInstance {
		pinMap, err := subcircuit.ResolvePinMapping(e.doc, comp)
		if err != nil {
			return nil, err
		}
		return component.NewSubCircuitInstance(pinMap), nil
	}
	return component.New(comp.Type)
}

func (e *Engine) sortedComponentIDs() []string {
	ids := make([]string, 0, len(e.idx.Components))
	for id := range e.idx.Components {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) transitionStable() {
	if e.state != Stable {
		e.state = Stable
		snap := e.snapshotLocked()
		listeners := append([]func(Snapshot){}, e.stableListeners...)
		e.mu.Unlock()
		for _, fn := range listeners {
			fn(snap)
		}
		e.mu.Lock()
	} else {
		e.state = Stable
	}
}

func (e *Engine) transitionUnstable() {
	if e.state != Unstable {
		e.state = Unstable
		listeners := append([]func(){}, e.unstableListeners...)
		e.mu.Unlock()
		for _, fn := range listeners {
			fn()
		}
		e.mu.Lock()
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	msg := fmt.Sprintf("%d structural errors, first: %v", len(errs), errs[0])
	return fmt.Errorf("%s", msg)
}

type errAlreadyStarted struct{ state State }

func (e errAlreadyStarted) Error() string {
	return fmt.Sprintf("engine already %s, call Stop before Start", e.state)
}

type errLifecycleEngine struct{ state State }

func (e errLifecycleEngine) Error() string {
	return fmt.Sprintf("invalid in engine state %s", e.state)
}
