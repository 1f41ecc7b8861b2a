// Package linkresolve merges VNETs across pages by the named link
// attribute carried on components, without merging the VNETs themselves
// into one entity.
package linkresolve

import (
	"fmt"

	"github.com/relaylogic/relaysim/internal/model"
	"github.com/relaylogic/relaysim/internal/simerr"
	"github.com/relaylogic/relaysim/internal/vnet"
)

// Group is every VNET sharing one link name.
type Group struct {
	Name    string
	Members []*vnet.VNET
}

// Result is the outcome of resolving links across a document: the VNETs
// are annotated in place (VNET.AddLinkName), and Groups/Warnings are
// returned for diagnostics and for the evaluate phase to consult.
type Result struct {
	Groups   map[string]*Group
	Warnings []simerr.WarningCondition
}

// Resolve walks every component with a non-empty LinkName, finds the VNET
// containing one of its tabs (via tabToVNET, built per-page by netbuild),
// and adds the link name to that VNET. Every page in doc.Pages is walked,
// so components on cloned sub-circuit instance pages are included.
func Resolve(doc *model.Document, tabToVNET map[string]*vnet.VNET) Result {
	groups := make(map[string]*Group)

	visitPage := func(page *model.Page) {
		for _, comp := range page.Components {
			if comp.LinkName == "" {
				continue
			}
			var target *vnet.VNET
			for _, tabID := range comp.AllTabIDs() {
				if v, ok := tabToVNET[tabID]; ok {
					target = v
					break
				}
			}
			if target == nil {
				continue
			}
			target.AddLinkName(comp.LinkName)

			g, ok := groups[comp.LinkName]
			if !ok {
				g = &Group{Name: comp.LinkName}
				groups[comp.LinkName] = g
			}
			if !containsVNET(g.Members, target) {
				g.Members = append(g.Members, target)
			}
		}
	}

	// doc.Pages already includes every cloned sub-circuit instance page
	// (tagged IsSubCircuitPage); doc.SubCircuits only caches uncloned
	// templates for reuse and is never itself part of the live topology.
	for _, page := range doc.Pages {
		visitPage(page)
	}

	var warnings []simerr.WarningCondition
	for name, g := range groups {
		if len(g.Members) == 1 {
			warnings = append(warnings, simerr.WarningCondition{
				Message: fmt.Sprintf("link %q has only one member (unconnected link)", name),
			})
		}
	}

	return Result{Groups: groups, Warnings: warnings}
}

// Contribution returns every other VNET sharing one of v's link names,
// excluding v itself and without duplicates; callers combine their states.
func Contribution(v *vnet.VNET, groups map[string]*Group) []*vnet.VNET {
	seen := make(map[string]bool)
	var peers []*vnet.VNET
	for _, name := range v.LinkNames() {
		g, ok := groups[name]
		if !ok {
			continue
		}
		for _, member := range g.Members {
			if member.ID == v.ID || seen[member.ID] {
				continue
			}
			seen[member.ID] = true
			peers = append(peers, member)
		}
	}
	return peers
}

func containsVNET(list []*vnet.VNET, v *vnet.VNET) bool {
	for _, m := range list {
		if m.ID == v.ID {
			return true
		}
	}
	return false
}
