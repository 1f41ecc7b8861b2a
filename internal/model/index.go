package model

import (
	"fmt"

	"github.com/relaylogic/relaysim/internal/ident"
	"github.com/relaylogic/relaysim/internal/simerr"
)

// Index is a set of id-keyed lookup tables built once from a Document, so
// every other kernel package can resolve a bare id in O(1) instead of
// walking the tree.
type Index struct {
	Doc *Document

	Pages      map[string]*Page
	Components map[string]*Component
	Pins       map[string]*Pin
	Tabs       map[string]*Tab
	Wires      map[string]*Wire
	Junctions  map[string]*Junction

	// TabPage/TabComponent/TabPin resolve a tab back up its ownership
	// chain; useful for the net builder and link resolver.
	TabPage      map[string]string
	TabComponent map[string]string
	TabPin       map[string]string

	PageWires map[string][]*Wire // wires belonging to a page, by page id
}

// BuildIndex walks doc once, populating an Index and checking the
// structural invariants every other package relies on: unique ids
// document-wide, and every wire endpoint tab id actually present on its
// page. Dangling tab references are reported but do not stop indexing of
// the rest of the document, matching the net builder's "malformed
// document never panics" contract.
func BuildIndex(doc *Document) (*Index, []error) {
	idx := &Index{
		Doc:          doc,
		Pages:        make(map[string]*Page),
		Components:   make(map[string]*Component),
		Pins:         make(map[string]*Pin),
		Tabs:         make(map[string]*Tab),
		Wires:        make(map[string]*Wire),
		Junctions:    make(map[string]*Junction),
		TabPage:      make(map[string]string),
		TabComponent: make(map[string]string),
		TabPin:       make(map[string]string),
		PageWires:    make(map[string][]*Wire),
	}

	space := ident.NewSpace()
	var errs []error
	reserve := func(id, kind string) {
		if err := space.Reserve(id); err != nil {
			errs = append(errs, simerr.New(simerr.Structural, "index", fmt.Errorf("%s %s: %w", kind, id, err)))
		}
	}

	for _, page := range doc.Pages {
		reserve(page.ID, "page")
		idx.Pages[page.ID] = page
		idx.PageWires[page.ID] = page.Wires

		for _, comp := range page.Components {
			comp.PageID = page.ID
			reserve(comp.ID, "component")
			idx.Components[comp.ID] = comp
			for _, pin := range comp.Pins {
				reserve(pin.ID, "pin")
				idx.Pins[pin.ID] = pin
				for _, tab := range pin.Tabs {
					reserve(tab.ID, "tab")
					idx.Tabs[tab.ID] = tab
					idx.TabPage[tab.ID] = page.ID
					idx.TabComponent[tab.ID] = comp.ID
					idx.TabPin[tab.ID] = pin.ID
				}
			}
		}

		indexWires(idx, page.ID, page.Wires, &errs, reserve)
	}

	for _, page := range doc.Pages {
		for _, wire := range page.Wires {
			checkWireTabs(idx, page.ID, wire, &errs)
		}
	}

	return idx, errs
}

func indexWires(idx *Index, pageID string, wires []*Wire, errs *[]error, reserve func(id, kind string)) {
	for _, wire := range wires {
		reserve(wire.ID, "wire")
		idx.Wires[wire.ID] = wire
		for _, wp := range wire.Waypoints {
			reserve(wp.ID, "waypoint")
		}
		for _, j := range wire.Junctions {
			reserve(j.ID, "junction")
			idx.Junctions[j.ID] = j
			indexWires(idx, pageID, j.ChildWires, errs, reserve)
		}
	}
}

func checkWireTabs(idx *Index, pageID string, wire *Wire, errs *[]error) {
	if idx.TabPage[wire.StartTabID] != pageID {
		*errs = append(*errs, simerr.New(simerr.Structural, "index",
			fmt.Errorf("wire %s references start tab %s not present on page %s", wire.ID, wire.StartTabID, pageID)))
	}
	if wire.EndTabID != nil {
		if idx.TabPage[*wire.EndTabID] != pageID {
			*errs = append(*errs, simerr.New(simerr.Structural, "index",
				fmt.Errorf("wire %s references end tab %s not present on page %s", wire.ID, *wire.EndTabID, pageID)))
		}
	}
	for _, j := range wire.Junctions {
		for _, child := range j.ChildWires {
			checkWireTabs(idx, pageID, child, errs)
		}
	}
}
