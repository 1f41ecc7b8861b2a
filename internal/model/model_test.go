package model

import (
	"testing"

	"github.com/relaylogic/relaysim/internal/ident"
)

func twoTabWire() *Document {
	t1 := &Tab{ID: "t1111111"}
	t2 := &Tab{ID: "t2222222"}
	pin1 := &Pin{ID: "p1111111", Tabs: []*Tab{t1}}
	pin2 := &Pin{ID: "p2222222", Tabs: []*Tab{t2}}
	comp1 := &Component{ID: "c1111111", Type: TypeSwitch, Pins: []*Pin{pin1}}
	comp2 := &Component{ID: "c2222222", Type: TypeIndicator, Pins: []*Pin{pin2}}
	wire := &Wire{ID: "w1111111", StartTabID: "t1111111", EndTabID: strPtr("t2222222")}
	page := &Page{ID: "pg111111", Name: "main", Components: []*Component{comp1, comp2}, Wires: []*Wire{wire}}
	return &Document{Version: "1.0.0", Pages: []*Page{page}}
}

func strPtr(s string) *string { return &s }

func TestBuildIndexNoErrors(t *testing.T) {
	idx, errs := BuildIndex(twoTabWire())
	if len(errs) != 0 {
		t.Fatalf("BuildIndex errors: %v", errs)
	}
	if len(idx.Tabs) != 2 {
		t.Fatalf("len(idx.Tabs) = %d, want 2", len(idx.Tabs))
	}
	if idx.TabPage["t1111111"] != "pg111111" {
		t.Fatalf("TabPage lookup wrong: %v", idx.TabPage["t1111111"])
	}
}

func TestBuildIndexDetectsDanglingTab(t *testing.T) {
	doc := twoTabWire()
	doc.Pages[0].Wires[0].EndTabID = strPtr("doesnotexist")
	_, errs := BuildIndex(doc)
	if len(errs) == 0 {
		t.Fatal("BuildIndex: want dangling-tab error, got none")
	}
}

func TestBuildIndexDetectsDuplicateID(t *testing.T) {
	doc := twoTabWire()
	doc.Pages[0].Components[1].ID = doc.Pages[0].Components[0].ID
	_, errs := BuildIndex(doc)
	if len(errs) == 0 {
		t.Fatal("BuildIndex: want duplicate-id error, got none")
	}
}

func TestPinSetStatePropagatesToTabs(t *testing.T) {
	tabs := []*Tab{{ID: "a1111111"}, {ID: "a2222222"}}
	pin := &Pin{ID: "pxxxxxxx", Tabs: tabs}
	pin.SetState(1)
	for _, tab := range tabs {
		if tab.State != pin.State {
			t.Fatalf("tab.State = %v, want %v", tab.State, pin.State)
		}
	}
}

func TestClonePageProducesDisjointIDs(t *testing.T) {
	doc := twoTabWire()
	space := ident.NewSpace()
	m := NewIDMap(space)
	clone := ClonePage(doc.Pages[0], m)

	if clone.ID == doc.Pages[0].ID {
		t.Fatal("clone page id collides with original")
	}
	for i, comp := range clone.Components {
		if comp.ID == doc.Pages[0].Components[i].ID {
			t.Fatalf("clone component id collides with original at %d", i)
		}
	}
	// cloning twice from the same map reuses the same fresh id.
	if m.Map(doc.Pages[0].ID) != clone.ID {
		t.Fatal("IDMap not stable across repeated Map calls")
	}
}
