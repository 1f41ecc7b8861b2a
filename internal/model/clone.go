package model

import "github.com/relaylogic/relaysim/internal/ident"

// IDMap rewrites old identifiers to freshly generated ones, used by the
// sub-circuit instantiator to deep-clone a template with disjoint ids.
// Link names are intentionally absent from the map: they are preserved
// verbatim across a clone.
type IDMap struct {
	space *ident.Space
	m     map[string]string
}

// NewIDMap returns an IDMap allocating fresh ids from space.
func NewIDMap(space *ident.Space) *IDMap {
	return &IDMap{space: space, m: make(map[string]string)}
}

// Map returns the fresh id for old, generating and remembering one on
// first use so repeated references to the same old id land on the same
// new id.
func (m *IDMap) Map(old string) string {
	if fresh, ok := m.m[old]; ok {
		return fresh
	}
	fresh := m.space.Generate()
	m.m[old] = fresh
	return fresh
}

// ClonePage deep-clones a page, rewriting every id through m. Link names
// on components are copied verbatim.
func ClonePage(p *Page, m *IDMap) *Page {
	clone := &Page{
		ID:                 m.Map(p.ID),
		Name:               p.Name,
		CanvasX:            p.CanvasX,
		CanvasY:            p.CanvasY,
		CanvasZoom:         p.CanvasZoom,
		IsSubCircuitPage:   p.IsSubCircuitPage,
		ParentInstanceID:   p.ParentInstanceID,
		ParentSubCircuitID: p.ParentSubCircuitID,
	}
	for _, c := range p.Components {
		clone.Components = append(clone.Components, cloneComponent(c, m))
	}
	for _, w := range p.Wires {
		clone.Wires = append(clone.Wires, cloneWire(w, m))
	}
	return clone
}

func cloneComponent(c *Component, m *IDMap) *Component {
	clone := &Component{
		ID:       m.Map(c.ID),
		Type:     c.Type,
		Position: c.Position,
		Rotation: c.Rotation,
		LinkName: c.LinkName,
	}
	if c.Properties != nil {
		clone.Properties = make(map[string]string, len(c.Properties))
		for k, v := range c.Properties {
			clone.Properties[k] = v
		}
	}
	for _, pin := range c.Pins {
		clone.Pins = append(clone.Pins, clonePin(pin, m))
	}
	return clone
}

func clonePin(p *Pin, m *IDMap) *Pin {
	clone := &Pin{ID: m.Map(p.ID)}
	for _, t := range p.Tabs {
		clone.Tabs = append(clone.Tabs, cloneTab(t, m))
	}
	return clone
}

func cloneTab(t *Tab, m *IDMap) *Tab {
	return &Tab{ID: m.Map(t.ID), Position: t.Position}
}

func cloneWire(w *Wire, m *IDMap) *Wire {
	clone := &Wire{
		ID:         m.Map(w.ID),
		StartTabID: m.Map(w.StartTabID),
	}
	if w.EndTabID != nil {
		end := m.Map(*w.EndTabID)
		clone.EndTabID = &end
	}
	for _, wp := range w.Waypoints {
		clone.Waypoints = append(clone.Waypoints, &Waypoint{ID: m.Map(wp.ID), Position: wp.Position})
	}
	for _, j := range w.Junctions {
		clone.Junctions = append(clone.Junctions, cloneJunction(j, m))
	}
	return clone
}

func cloneJunction(j *Junction, m *IDMap) *Junction {
	clone := &Junction{ID: m.Map(j.ID), Position: j.Position}
	for _, child := range j.ChildWires {
		clone.ChildWires = append(clone.ChildWires, cloneWire(child, m))
	}
	return clone
}
