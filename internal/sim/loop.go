package sim

import (
	"sort"
	"sync"
	"time"

	"github.com/relaylogic/relaysim/internal/component"
	"github.com/relaylogic/relaysim/internal/linkresolve"
	"github.com/relaylogic/relaysim/internal/model"
	"github.com/relaylogic/relaysim/internal/signal"
	"github.com/relaylogic/relaysim/internal/simerr"
	"github.com/relaylogic/relaysim/internal/vnet"
)

// run drains the dirty set to stability, detecting oscillation and
// watchdog timeout along the way. Called with e.mu held; it releases the
// lock only transiently, from transitionStable/transitionUnstable, to
// invoke observer callbacks outside the critical section.
func (e *Engine) run() error {
	start := time.Now()
	prevDirty := -1
	nonShrinking := 0

	for {
		if time.Since(start) > e.cfg.WatchdogTimeout {
			e.stats.Outcome = OutcomeTimeout
			e.stats.WallTime = time.Since(start)
			return simerr.New(simerr.Timeout, "Engine.run", errWatchdog{e.cfg.WatchdogTimeout})
		}

		dirtyVNETs := e.dirty.Drain()
		pending := e.pendingComponentIDs()
		if len(dirtyVNETs) == 0 && len(pending) == 0 {
			e.stats.WallTime = time.Since(start)
			e.stats.Outcome = OutcomeStable
			e.transitionStable()
			return nil
		}

		if len(dirtyVNETs) > e.stats.DirtyPeak {
			e.stats.DirtyPeak = len(dirtyVNETs)
		}

		if prevDirty >= 0 && len(dirtyVNETs) >= prevDirty {
			nonShrinking++
		} else {
			nonShrinking = 0
		}
		prevDirty = len(dirtyVNETs)

		if nonShrinking >= e.cfg.OscillationCap {
			e.stats.WallTime = time.Since(start)
			e.stats.Outcome = OutcomeOscillation
			offenders := e.topOffenders(5)
			e.stats.OscillationOffenders = offenders
			return simerr.NewOscillation("Engine.run", simerr.OscillationDetails{
				Iterations: e.stats.Iterations,
				Offenders:  offenders,
			})
		}

		touched := e.evaluatePhase(dirtyVNETs)
		touched = mergeComponentIDs(touched, pending)
		e.executePhase(touched)

		e.stats.Iterations++
		e.stats.ComponentsEvaluated += len(touched)
		e.tick++

		if e.state != Unstable {
			e.transitionUnstable()
		}
	}
}

// evaluatePhase computes each dirty VNET's new state from its tab, link,
// and bridge contributions, applies it, and collects the set of
// components owning a tab in any VNET whose state actually changed.
//
// Computation and application are two separate passes over dirtyVNETs: every
// combineVNET call reads only state the previous iteration's execute phase
// produced, never a sibling dirty VNET's brand-new value from later in this
// same phase. Without that split, which VNET's new value a link/bridge peer
// observes would depend on dirtyVNETs' iteration order — and VNET ids are
// random, so that order isn't stable across runs (§5's no-reads-from-
// current-writes guarantee).
func (e *Engine) evaluatePhase(dirtyVNETs []*vnet.VNET) []string {
	newStates := make([]signal.State, len(dirtyVNETs))
	tasks := make([]func(), len(dirtyVNETs))
	for i, v := range dirtyVNETs {
		i, v := i, v
		tasks[i] = func() {
			newStates[i] = e.combineVNET(v)
		}
	}
	e.runners.vnetRunner.Run(tasks)

	var changed []*vnet.VNET
	touched := make(map[string]struct{})
	for i, v := range dirtyVNETs {
		newState := newStates[i]
		if !v.Apply(newState) {
			continue
		}
		changed = append(changed, v)
		for _, tabID := range v.Tabs() {
			tab, ok := e.idx.Tabs[tabID]
			if !ok {
				continue
			}
			tab.State = newState
			if pinID, ok := e.idx.TabPin[tabID]; ok {
				if pin, ok := e.idx.Pins[pinID]; ok {
					pin.State = pinStateFromTabs(pin)
				}
			}
			touched[e.idx.TabComponent[tabID]] = struct{}{}
		}
	}

	// A VNET's link and bridge peers only see its new value through
	// combineVNET on a later iteration, so whichever peer didn't run this
	// pass needs dirtying explicitly — nothing else will ever re-mark it.
	for _, v := range changed {
		for _, peer := range linkresolve.Contribution(v, e.linkGroups) {
			peer.MarkDirty()
		}
		for _, peerID := range e.bridges.Endpoints(v.ID) {
			if peer, ok := e.vnets.Get(peerID); ok {
				peer.MarkDirty()
			}
		}
	}

	ids := make([]string, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// pendingComponentIDs returns, in deterministic id order, every component
// whose kernel reports a running internal timer — these must re-enter the
// touched set every iteration even when none of their own VNETs changed,
// since nothing else keeps re-dirtying them on the timer's behalf.
func (e *Engine) pendingComponentIDs() []string {
	var out []string
	for _, id := range e.sortedComponentIDs() {
		if pt, ok := e.kernels[id].(component.PendingTimer); ok && pt.Pending() {
			out = append(out, id)
		}
	}
	return out
}

// mergeComponentIDs returns the sorted, deduplicated union of a and b.
func mergeComponentIDs(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		seen[id] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// combineVNET computes ⊕ over a VNET's own tab states, its linked peers'
// states, and its bridged peers' states.
func (e *Engine) combineVNET(v *vnet.VNET) signal.State {
	result := signal.Float
	for _, tabID := range v.Tabs() {
		if tab, ok := e.idx.Tabs[tabID]; ok {
			result = signal.Combine(result, tab.State)
		}
	}
	for _, peer := range linkresolve.Contribution(v, e.linkGroups) {
		result = signal.Combine(result, peer.State())
	}
	for _, peerID := range e.bridges.Endpoints(v.ID) {
		if peer, ok := e.vnets.Get(peerID); ok {
			result = signal.Combine(result, peer.State())
		}
	}
	return result
}

// pinStateFromTabs recomputes a pin's aggregated state from its owned
// tabs, mirroring model.Pin's invariant after a tab write bypasses
// Pin.SetState (the evaluate phase writes tabs directly).
func pinStateFromTabs(p *model.Pin) signal.State {
	result := signal.Float
	for _, t := range p.Tabs {
		result = signal.Combine(result, t.State)
	}
	return result
}

// executePhase calls Evaluate on every touched component, in
// deterministic id order, via the component-phase runner.
func (e *Engine) executePhase(componentIDs []string) {
	var mu sync.Mutex
	tasks := make([]func(), len(componentIDs))
	for i, id := range componentIDs {
		id := id
		tasks[i] = func() {
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					e.warnings = append(e.warnings, simerr.WarningCondition{
						Message:     "evaluate panicked, skipped for this iteration",
						ComponentID: id,
					})
					mu.Unlock()
				}
			}()
			kernel, ok := e.kernels[id]
			if !ok {
				return
			}
			ctx := e.ctxs[id]
			ctx.Tick = e.tick
			if err := kernel.Evaluate(ctx); err != nil {
				mu.Lock()
				e.warnings = append(e.warnings, simerr.WarningCondition{
					Message:     "evaluate failed, skipped for this iteration",
					ComponentID: id,
				})
				mu.Unlock()
			}
		}
	}
	e.runners.componentRunner.Run(tasks)
}

// topOffenders returns the n VNET ids with the highest toggle counts,
// highest first, ties broken by id for determinism.
func (e *Engine) topOffenders(n int) []string {
	all := e.vnets.All()
	sort.Slice(all, func(i, j int) bool {
		if all[i].Toggles() != all[j].Toggles() {
			return all[i].Toggles() > all[j].Toggles()
		}
		return all[i].ID < all[j].ID
	})
	var out []string
	for i, v := range all {
		if i >= n || v.Toggles() == 0 {
			break
		}
		out = append(out, v.ID)
	}
	return out
}

type errWatchdog struct{ timeout time.Duration }

func (e errWatchdog) Error() string {
	return "run loop exceeded watchdog timeout of " + e.timeout.String()
}
