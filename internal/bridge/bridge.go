// Package bridge implements the dynamic run-time edges between VNETs that
// components (chiefly relays) create, move, and destroy during a
// simulation run. Bridges are never persisted; they exist only for the
// lifetime of a run and are owned by exactly one component.
package bridge

import (
	"sync"

	"github.com/relaylogic/relaysim/internal/ident"
	"github.com/relaylogic/relaysim/internal/vnet"
)

// Bridge is a runtime directed-symmetric edge between two VNETs.
type Bridge struct {
	ID      string
	A, B    string // endpoint VNET ids
	OwnerID string // owning component id
}

// Manager allocates and tracks bridges. All operations are atomic with
// respect to each other and to the dirty-flag effects they trigger.
type Manager struct {
	mu      sync.Mutex
	space   *ident.Space
	bridges map[string]*Bridge
	byOwner map[string]map[string]struct{}
	vnets   *vnet.Set
}

// NewManager returns an empty Manager bound to the given VNET set and
// identifier space (bridge ids share the document's 8-hex id space).
func NewManager(vnets *vnet.Set, space *ident.Space) *Manager {
	return &Manager{
		space:   space,
		bridges: make(map[string]*Bridge),
		byOwner: make(map[string]map[string]struct{}),
		vnets:   vnets,
	}
}

// Create allocates a fresh bridge between two VNETs owned by owner, and
// dirties both endpoints.
func (m *Manager) Create(endpointA, endpointB, owner string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.space.Generate()
	b := &Bridge{ID: id, A: endpointA, B: endpointB, OwnerID: owner}
	m.bridges[id] = b
	if m.byOwner[owner] == nil {
		m.byOwner[owner] = make(map[string]struct{})
	}
	m.byOwner[owner][id] = struct{}{}

	m.attach(endpointA, id)
	m.attach(endpointB, id)
	return id
}

// Move replaces one endpoint of an existing bridge, dirtying both the old
// and new endpoint VNETs. replacing selects which side (A or B) moves.
func (m *Manager) Move(bridgeID string, replacing Side, newEndpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bridges[bridgeID]
	if !ok {
		return
	}
	var old string
	switch replacing {
	case SideA:
		old = b.A
		b.A = newEndpoint
	case SideB:
		old = b.B
		b.B = newEndpoint
	}
	m.detach(old, bridgeID)
	m.attach(newEndpoint, bridgeID)
}

// Side identifies which endpoint of a bridge Move replaces.
type Side int

const (
	SideA Side = iota
	SideB
)

// Destroy detaches a bridge from both endpoints and removes it, dirtying
// both endpoints.
func (m *Manager) Destroy(bridgeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyLocked(bridgeID)
}

func (m *Manager) destroyLocked(bridgeID string) {
	b, ok := m.bridges[bridgeID]
	if !ok {
		return
	}
	delete(m.bridges, bridgeID)
	if owned := m.byOwner[b.OwnerID]; owned != nil {
		delete(owned, bridgeID)
	}
	m.detach(b.A, bridgeID)
	m.detach(b.B, bridgeID)
}

// DestroyOwnedBy destroys every bridge owned by owner; called by the
// engine when a component's on_stop runs.
func (m *Manager) DestroyOwnedBy(owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.byOwner[owner]))
	for id := range m.byOwner[owner] {
		ids = append(ids, id)
	}
	for _, id := range ids {
		m.destroyLocked(id)
	}
}

// ByOwner returns the bridge ids currently owned by owner.
func (m *Manager) ByOwner(owner string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	owned := m.byOwner[owner]
	out := make([]string, 0, len(owned))
	for id := range owned {
		out = append(out, id)
	}
	return out
}

// Get returns the bridge record for id, if it still exists.
func (m *Manager) Get(id string) (Bridge, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bridges[id]
	if !ok {
		return Bridge{}, false
	}
	return *b, true
}

// Endpoints returns, for a given VNET id, every other VNET id reachable
// through a bridge touching it — used by the evaluate phase to compute a
// VNET's bridged contribution.
func (m *Manager) Endpoints(vnetID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, b := range m.bridges {
		if b.A == vnetID {
			out = append(out, b.B)
		} else if b.B == vnetID {
			out = append(out, b.A)
		}
	}
	return out
}

func (m *Manager) attach(vnetID, bridgeID string) {
	if v, ok := m.vnets.Get(vnetID); ok {
		v.AddBridge(bridgeID)
		v.MarkDirty()
	}
}

func (m *Manager) detach(vnetID, bridgeID string) {
	if v, ok := m.vnets.Get(vnetID); ok {
		v.RemoveBridge(bridgeID)
		v.MarkDirty()
	}
}
