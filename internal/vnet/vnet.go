// Package vnet defines the virtual electrical net: the runtime-only
// aggregate produced by the net builder and link resolver, and mutated by
// the simulation loop and bridge manager. VNETs are never serialized.
package vnet

import (
	"sort"
	"sync"

	"github.com/relaylogic/relaysim/internal/signal"
)

// VNET is a set of electrically joined tabs plus the link names and
// bridge ids that extend its equipotential beyond its own page. Every
// field access goes through the embedded mutex: a VNET is the kernel's
// central shared-state critical section.
type VNET struct {
	mu sync.Mutex

	ID     string
	PageID string

	tabs      map[string]struct{}
	linkNames map[string]struct{}
	bridgeIDs map[string]struct{}

	state signal.State
	dirty bool

	toggles int // how many times State has flipped this run; oscillation diagnostics
}

// New returns an empty, dirty VNET seeded with the given tab ids.
func New(id, pageID string, tabIDs ...string) *VNET {
	v := &VNET{
		ID:        id,
		PageID:    pageID,
		tabs:      make(map[string]struct{}),
		linkNames: make(map[string]struct{}),
		bridgeIDs: make(map[string]struct{}),
		state:     signal.Float,
		dirty:     true,
	}
	for _, t := range tabIDs {
		v.tabs[t] = struct{}{}
	}
	return v
}

// AddTab adds a tab to the VNET's membership.
func (v *VNET) AddTab(tabID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tabs[tabID] = struct{}{}
}

// Tabs returns the tab ids currently in the VNET, sorted for determinism.
func (v *VNET) Tabs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return sortedKeys(v.tabs)
}

// AddLinkName records that this VNET participates in a named link group.
func (v *VNET) AddLinkName(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.linkNames[name] = struct{}{}
}

// LinkNames returns the link names this VNET participates in, sorted.
func (v *VNET) LinkNames() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return sortedKeys(v.linkNames)
}

// AddBridge records a bridge id touching this VNET.
func (v *VNET) AddBridge(bridgeID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bridgeIDs[bridgeID] = struct{}{}
}

// RemoveBridge forgets a bridge id.
func (v *VNET) RemoveBridge(bridgeID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.bridgeIDs, bridgeID)
}

// BridgeIDs returns the bridge ids touching this VNET, sorted.
func (v *VNET) BridgeIDs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return sortedKeys(v.bridgeIDs)
}

// State returns the current signal level.
func (v *VNET) State() signal.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// SetState overwrites the signal level directly, without touching the
// dirty flag or toggle count. Used when seeding initial state.
func (v *VNET) SetState(s signal.State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = s
}

// Dirty reports whether the VNET is marked dirty.
func (v *VNET) Dirty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dirty
}

// MarkDirty sets the dirty flag.
func (v *VNET) MarkDirty() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dirty = true
}

// ClearDirty clears the dirty flag.
func (v *VNET) ClearDirty() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dirty = false
}

// Apply sets a freshly computed state. It reports whether the state
// actually changed and, if so, clears dirty and bumps the toggle
// counter — callers still decide whether to re-dirty downstream VNETs.
func (v *VNET) Apply(newState signal.State) (changed bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	changed = newState != v.state
	if changed {
		v.state = newState
		v.toggles++
	}
	v.dirty = false
	return changed
}

// Toggles returns how many times this VNET's state has flipped during the
// current run, used by the oscillation detector to name offenders.
func (v *VNET) Toggles() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.toggles
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Set is an id-indexed collection of VNETs, shared by the net builder,
// link resolver, bridge manager, and simulation loop.
type Set struct {
	mu sync.RWMutex
	m  map[string]*VNET
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{m: make(map[string]*VNET)}
}

// Add inserts a VNET.
func (s *Set) Add(v *VNET) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[v.ID] = v
}

// Get returns the VNET with the given id, if present.
func (s *Set) Get(id string) (*VNET, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[id]
	return v, ok
}

// All returns every VNET, ordered by id for deterministic iteration.
func (s *Set) All() []*VNET {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.m))
	for id := range s.m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*VNET, len(ids))
	for i, id := range ids {
		out[i] = s.m[id]
	}
	return out
}

// Len reports how many VNETs are in the set.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
