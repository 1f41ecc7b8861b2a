// Package subcircuit implements the sub-circuit instantiator: deep-cloning
// a template's pages into a host document with fresh identifiers, and
// synthesizing the wrapper component whose pins mirror the template's
// FOOTPRINT links.
package subcircuit

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/relaylogic/relaysim/internal/ident"
	"github.com/relaylogic/relaysim/internal/model"
)

// FootprintPageName is the distinguished page name a template must carry.
const FootprintPageName = "FOOTPRINT"

// Template is a parsed sub-circuit definition: a FOOTPRINT page whose Link
// components define the external interface, plus zero or more internal
// pages.
type Template struct {
	SourcePath string
	Pages      []*model.Page // includes the FOOTPRINT page
}

// Loader fetches a Template from its source path (typically a ".rsub"
// file on disk); it is injected so this package stays decoupled from the
// document-store package.
type Loader func(sourcePath string) (*Template, error)

// Instantiator deep-clones templates into a host document. It caches
// parsed templates by source path in a bounded LRU so a session that
// repeatedly swaps large template libraries in and out does not re-parse
// (or grow memory) without bound.
type Instantiator struct {
	load  Loader
	cache *lru.Cache[string, *Template]
}

// NewInstantiator returns an Instantiator backed by load, caching up to
// capacity distinct templates by source path.
func NewInstantiator(load Loader, capacity int) (*Instantiator, error) {
	cache, err := lru.New[string, *Template](capacity)
	if err != nil {
		return nil, fmt.Errorf("subcircuit: building template cache: %w", err)
	}
	return &Instantiator{load: load, cache: cache}, nil
}

func (in *Instantiator) template(sourcePath string) (*Template, error) {
	if t, ok := in.cache.Get(sourcePath); ok {
		return t, nil
	}
	t, err := in.load(sourcePath)
	if err != nil {
		return nil, err
	}
	if err := validateTemplate(t); err != nil {
		return nil, err
	}
	in.cache.Add(sourcePath, t)
	return t, nil
}

func validateTemplate(t *Template) error {
	for _, p := range t.Pages {
		if p.Name == FootprintPageName {
			for _, c := range p.Components {
				if c.Type == model.TypeLink && c.LinkName == "" {
					return fmt.Errorf("subcircuit: FOOTPRINT link %s has a blank link name", c.ID)
				}
			}
			return nil
		}
	}
	return fmt.Errorf("subcircuit: template %s has no FOOTPRINT page", t.SourcePath)
}

// Result is what Instantiate adds to the host document: the cloned pages
// (including the cloned FOOTPRINT) and the wrapper component to place on
// the page the user instantiated onto.
type Result struct {
	ClonedPages []*model.Page
	Instance    *model.Component
	// PinToInternalTab maps each pin id on Instance to the tab id of the
	// matching Link component on the cloned FOOTPRINT page, for the
	// SubCircuitInstance kernel's on_start bridge wiring.
	PinToInternalTab map[string]string
}

// Instantiate clones sourcePath's template, using space to allocate every
// fresh identifier (cloned ids and the new instance/component/pin/tab ids
// alike) so the result is guaranteed collision-free within the host
// document's id space. The caller adds the returned pages and instance to
// the host document. The instance is placed at the centroid of the
// FOOTPRINT Link positions; position is used only when the FOOTPRINT has
// no Link with a tab.
func (in *Instantiator) Instantiate(sourcePath string, space *ident.Space, position model.Point) (*Result, error) {
	tmpl, err := in.template(sourcePath)
	if err != nil {
		return nil, err
	}

	instanceID := space.Generate()
	idMap := model.NewIDMap(space)

	var clonedPages []*model.Page
	var footprint *model.Page
	for _, p := range tmpl.Pages {
		clone := model.ClonePage(p, idMap)
		clone.IsSubCircuitPage = true
		clone.ParentInstanceID = instanceID
		clone.ParentSubCircuitID = sourcePath
		clonedPages = append(clonedPages, clone)
		if p.Name == FootprintPageName {
			footprint = clone
		}
	}
	if footprint == nil {
		return nil, fmt.Errorf("subcircuit: cloned template %s lost its FOOTPRINT page", sourcePath)
	}

	var pins []*model.Pin
	pinToInternal := make(map[string]string)
	sumX, sumY, n := 0.0, 0.0, 0

	for _, c := range footprint.Components {
		if c.Type != model.TypeLink || len(c.Pins) == 0 || len(c.Pins[0].Tabs) == 0 {
			continue
		}
		internalTabID := c.Pins[0].Tabs[0].ID
		pinID := space.Generate()
		tabID := space.Generate()
		pins = append(pins, &model.Pin{
			ID:   pinID,
			Tabs: []*model.Tab{{ID: tabID, Position: c.Position}},
		})
		pinToInternal[pinID] = internalTabID
		sumX += c.Position.X
		sumY += c.Position.Y
		n++
	}

	pos := position
	if n > 0 {
		pos = model.Point{X: sumX / float64(n), Y: sumY / float64(n)}
	}

	instance := &model.Component{
		ID:       instanceID,
		Type:     model.TypeSubCircuitInstance,
		Position: pos,
		Pins:     pins,
		Properties: map[string]string{
			"source_path": sourcePath,
		},
	}

	return &Result{
		ClonedPages:      clonedPages,
		Instance:         instance,
		PinToInternalTab: pinToInternal,
	}, nil
}
