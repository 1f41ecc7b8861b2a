package subcircuit

import (
	"fmt"
	"testing"

	"github.com/relaylogic/relaysim/internal/ident"
	"github.com/relaylogic/relaysim/internal/model"
)

func latchTemplate() *Template {
	inTab := &model.Tab{ID: "t1111111"}
	inPin := &model.Pin{ID: "p1111111", Tabs: []*model.Tab{inTab}}
	inLink := &model.Component{ID: "c1111111", Type: model.TypeLink, LinkName: "SUB_IN", Pins: []*model.Pin{inPin}}

	outTab := &model.Tab{ID: "t2222222"}
	outPin := &model.Pin{ID: "p2222222", Tabs: []*model.Tab{outTab}}
	outLink := &model.Component{ID: "c2222222", Type: model.TypeLink, LinkName: "SUB_OUT", Pins: []*model.Pin{outPin}}

	footprint := &model.Page{ID: "pgfoot001", Name: FootprintPageName, Components: []*model.Component{inLink, outLink}}

	internalTab := &model.Tab{ID: "t3333333"}
	internalPin := &model.Pin{ID: "p3333333", Tabs: []*model.Tab{internalTab}}
	internalComp := &model.Component{ID: "c3333333", Type: model.TypeSwitch, Pins: []*model.Pin{internalPin}}
	internalPage := &model.Page{ID: "pgint0001", Name: "internal", Components: []*model.Component{internalComp}}

	return &Template{SourcePath: "Latch.rsub", Pages: []*model.Page{footprint, internalPage}}
}

func TestInstantiateTwiceProducesDisjointIDs(t *testing.T) {
	calls := 0
	loader := func(path string) (*Template, error) {
		calls++
		return latchTemplate(), nil
	}
	in, err := NewInstantiator(loader, 8)
	if err != nil {
		t.Fatalf("NewInstantiator: %v", err)
	}

	space := ident.NewSpace()
	r1, err := in.Instantiate("Latch.rsub", space, model.Point{})
	if err != nil {
		t.Fatalf("Instantiate #1: %v", err)
	}
	r2, err := in.Instantiate("Latch.rsub", space, model.Point{})
	if err != nil {
		t.Fatalf("Instantiate #2: %v", err)
	}

	if calls != 1 {
		t.Fatalf("loader called %d times, want 1 (cache should dedupe)", calls)
	}

	ids1 := collectIDs(r1)
	ids2 := collectIDs(r2)
	for id := range ids1 {
		if ids2[id] {
			t.Fatalf("id %s collides between instances", id)
		}
	}

	if r1.Instance.ID == r2.Instance.ID {
		t.Fatal("instance ids collide")
	}
	if len(r1.Instance.Pins) != 2 || len(r2.Instance.Pins) != 2 {
		t.Fatalf("want 2 synthesized pins per instance, got %d and %d", len(r1.Instance.Pins), len(r2.Instance.Pins))
	}
}

func TestInstantiateRejectsMissingFootprint(t *testing.T) {
	loader := func(path string) (*Template, error) {
		return &Template{SourcePath: path, Pages: []*model.Page{{ID: "pg111111", Name: "not_footprint"}}}, nil
	}
	in, err := NewInstantiator(loader, 8)
	if err != nil {
		t.Fatalf("NewInstantiator: %v", err)
	}
	if _, err := in.Instantiate("bad.rsub", ident.NewSpace(), model.Point{}); err == nil {
		t.Fatal("want error for template missing FOOTPRINT, got nil")
	}
}

func collectIDs(r *Result) map[string]bool {
	ids := make(map[string]bool)
	ids[r.Instance.ID] = true
	for _, p := range r.Instance.Pins {
		ids[p.ID] = true
		for _, tab := range p.Tabs {
			ids[tab.ID] = true
		}
	}
	var walkPage func(p *model.Page)
	walkPage = func(p *model.Page) {
		ids[p.ID] = true
		for _, c := range p.Components {
			ids[c.ID] = true
			for _, pin := range c.Pins {
				ids[pin.ID] = true
				for _, tab := range pin.Tabs {
					ids[tab.ID] = true
				}
			}
		}
	}
	for _, p := range r.ClonedPages {
		walkPage(p)
	}
	return ids
}

func TestInstantiatePreservesLinkNames(t *testing.T) {
	loader := func(path string) (*Template, error) { return latchTemplate(), nil }
	in, err := NewInstantiator(loader, 8)
	if err != nil {
		t.Fatalf("NewInstantiator: %v", err)
	}
	r, err := in.Instantiate("Latch.rsub", ident.NewSpace(), model.Point{})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	var names []string
	for _, p := range r.ClonedPages {
		if p.Name != FootprintPageName {
			continue
		}
		for _, c := range p.Components {
			names = append(names, c.LinkName)
		}
	}
	if fmt.Sprint(names) != fmt.Sprint([]string{"SUB_IN", "SUB_OUT"}) {
		t.Fatalf("link names = %v, want [SUB_IN SUB_OUT]", names)
	}
}
