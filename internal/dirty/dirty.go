// Package dirty tracks which VNETs need re-evaluation. Membership is a
// property of the VNET itself (its own dirty flag), not a separate index,
// so draining always yields a deterministic, id-ordered snapshot.
package dirty

import "github.com/relaylogic/relaysim/internal/vnet"

// Manager drains dirty VNETs out of a shared Set.
type Manager struct {
	vnets *vnet.Set
}

// NewManager binds a Manager to the VNET set it will drain.
func NewManager(vnets *vnet.Set) *Manager {
	return &Manager{vnets: vnets}
}

// Mark flags a VNET dirty by id; a no-op if the id is unknown.
func (m *Manager) Mark(vnetID string) {
	if v, ok := m.vnets.Get(vnetID); ok {
		v.MarkDirty()
	}
}

// Drain returns every currently dirty VNET, ordered by id, without
// clearing their flags — callers clear a VNET's flag themselves once
// they've applied its newly computed state (vnet.VNET.Apply does this).
func (m *Manager) Drain() []*vnet.VNET {
	var out []*vnet.VNET
	for _, v := range m.vnets.All() {
		if v.Dirty() {
			out = append(out, v)
		}
	}
	return out
}

// AnyDirty reports whether at least one VNET in the set is dirty.
func (m *Manager) AnyDirty() bool {
	for _, v := range m.vnets.All() {
		if v.Dirty() {
			return true
		}
	}
	return false
}
