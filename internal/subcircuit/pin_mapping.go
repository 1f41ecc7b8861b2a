package subcircuit

import (
	"fmt"

	"github.com/relaylogic/relaysim/internal/model"
)

// ResolvePinMapping reconstructs, at simulation start, the pin→internal
// tab map a SubCircuitInstance's kernel needs. The map itself is never
// persisted (it is derivable from the document), so it is rebuilt every
// start by finding the instance's cloned FOOTPRINT page and zipping its
// Link components against the instance's own pins in declared order —
// the same order Instantiate produced them in when the instance was
// first created.
func ResolvePinMapping(doc *model.Document, instance *model.Component) (map[string]string, error) {
	var footprint *model.Page
	for _, p := range doc.Pages {
		if p.IsSubCircuitPage && p.ParentInstanceID == instance.ID && p.Name == FootprintPageName {
			footprint = p
			break
		}
	}
	if footprint == nil {
		return nil, fmt.Errorf("subcircuit: no FOOTPRINT page found for instance %s", instance.ID)
	}

	var links []*model.Component
	for _, c := range footprint.Components {
		if c.Type == model.TypeLink {
			links = append(links, c)
		}
	}
	if len(links) != len(instance.Pins) {
		return nil, fmt.Errorf("subcircuit: instance %s has %d pins but FOOTPRINT has %d links",
			instance.ID, len(instance.Pins), len(links))
	}

	mapping := make(map[string]string, len(links))
	for i, pin := range instance.Pins {
		link := links[i]
		if len(link.Pins) == 0 || len(link.Pins[0].Tabs) == 0 {
			continue
		}
		mapping[pin.ID] = link.Pins[0].Tabs[0].ID
	}
	return mapping, nil
}
