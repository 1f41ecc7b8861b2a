// Package model defines the persisted identity and topology graph: the
// entities a Document is made of, before any simulation runs. Runtime-only
// aggregates (VNETs, bridges) live in other packages and are never part of
// this tree.
package model

import "github.com/relaylogic/relaysim/internal/signal"

// Point is a 2D position, used for canvas layout only. It has no
// electrical meaning.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ComponentType tags which kernel behavior a Component dispatches to.
type ComponentType string

const (
	TypeSwitch             ComponentType = "switch"
	TypeIndicator          ComponentType = "indicator"
	TypeVcc                ComponentType = "vcc"
	TypeDpdtRelay          ComponentType = "dpdt_relay"
	TypeSubCircuitInstance ComponentType = "sub_circuit_instance"
	TypeLink               ComponentType = "link"
)

// Tab is a physical connection point, owned by exactly one Pin. Its
// runtime State mirrors the owning Pin.
type Tab struct {
	ID       string     `json:"tab_id"`
	Position Point      `json:"position"`
	State    signal.State `json:"-"`
}

// Pin is a logical terminal owning one or more Tabs. Invariant:
// State == High iff any owned Tab.State == High.
type Pin struct {
	ID    string       `json:"pin_id"`
	Tabs  []*Tab       `json:"tabs"`
	State signal.State `json:"-"`
}

// SetState writes state to the Pin and propagates it to every owned Tab.
func (p *Pin) SetState(state signal.State) {
	p.State = state
	for _, t := range p.Tabs {
		t.State = state
	}
}

// Component is a polymorphic schematic element. Behavior is dispatched by
// Type elsewhere (internal/component); this struct only carries identity,
// layout, and owned topology.
type Component struct {
	ID         string            `json:"component_id"`
	Type       ComponentType     `json:"component_type"`
	Position   Point             `json:"position"`
	Rotation   int               `json:"rotation,omitempty"`
	LinkName   string            `json:"link_name,omitempty"`
	Pins       []*Pin            `json:"pins"`
	Properties map[string]string `json:"properties,omitempty"`

	// PageID is set when the component is attached to a page; it is not
	// persisted (the page already owns the component in the file tree)
	// but is convenient for lookups.
	PageID string `json:"-"`
}

// AllTabIDs returns every tab id owned (transitively) by this component.
func (c *Component) AllTabIDs() []string {
	var ids []string
	for _, pin := range c.Pins {
		for _, tab := range pin.Tabs {
			ids = append(ids, tab.ID)
		}
	}
	return ids
}

// Waypoint is a visual-only routing point on a wire.
type Waypoint struct {
	ID       string `json:"waypoint_id"`
	Position Point  `json:"position"`
}

// Junction is a branch point electrically joining every reachable wire.
type Junction struct {
	ID         string  `json:"junction_id"`
	Position   Point   `json:"position"`
	ChildWires []*Wire `json:"child_wires,omitempty"`
}

// Wire is a page-local connection between two tabs, possibly via
// waypoints and junctions. EndTabID is nil when the wire terminates at a
// junction instead.
type Wire struct {
	ID         string      `json:"wire_id"`
	StartTabID string      `json:"start_tab_id"`
	EndTabID   *string     `json:"end_tab_id,omitempty"`
	Waypoints  []*Waypoint `json:"waypoints,omitempty"`
	Junctions  []*Junction `json:"junctions,omitempty"`
}

// Page groups Components and Wires sharing one canvas, plus the
// sub-circuit-instance backlinks when the page is a clone.
type Page struct {
	ID         string       `json:"page_id"`
	Name       string       `json:"name"`
	Components []*Component `json:"components,omitempty"`
	Wires      []*Wire      `json:"wires,omitempty"`

	CanvasX    float64 `json:"canvas_x,omitempty"`
	CanvasY    float64 `json:"canvas_y,omitempty"`
	CanvasZoom float64 `json:"canvas_zoom,omitempty"`

	IsSubCircuitPage   bool   `json:"is_sub_circuit_page,omitempty"`
	ParentInstanceID   string `json:"parent_instance_id,omitempty"`
	ParentSubCircuitID string `json:"parent_sub_circuit_id,omitempty"`
}

// Metadata is free-text document information, never interpreted by the
// kernel.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	Created     string `json:"created,omitempty"`
	Modified    string `json:"modified,omitempty"`
}

// SubCircuitDef is an embedded template: its FOOTPRINT page plus any
// internal pages, and the instances cloned from it.
type SubCircuitDef struct {
	SourcePath string  `json:"source_path"`
	Pages      []*Page `json:"pages"`
}

// Document is the id-space owner: every identifier appearing anywhere
// within it must be unique.
type Document struct {
	Version     string                    `json:"version"`
	Metadata    *Metadata                 `json:"metadata,omitempty"`
	Pages       []*Page                   `json:"pages"`
	SubCircuits map[string]*SubCircuitDef `json:"sub_circuits,omitempty"`
}
