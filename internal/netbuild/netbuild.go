// Package netbuild compiles a page's wire/junction forest into the set of
// VNETs (virtual electrical nets) it implies. The connectivity search is
// an undirected breadth-first traversal over an adjacency map whose
// vertices are tab ids and synthetic junction ids.
package netbuild

import (
	"fmt"
	"sort"

	"github.com/relaylogic/relaysim/internal/ident"
	"github.com/relaylogic/relaysim/internal/model"
	"github.com/relaylogic/relaysim/internal/simerr"
	"github.com/relaylogic/relaysim/internal/vnet"
)

// junctionVertex namespaces a junction id so it can't collide with a tab
// id sharing the same 8-hex value in the shared graph vertex space.
func junctionVertex(id string) string { return "j:" + id }

// Result is what BuildPage returns: the VNETs found on the page, a lookup
// from tab id to its VNET, and any structural warnings (dangling tab
// references) encountered while walking the wire tree. A malformed page
// never panics; it yields partial results plus errors.
type Result struct {
	VNETs     []*vnet.VNET
	TabToVNET map[string]*vnet.VNET
	Errors    []error
}

// adjacency is an undirected vertex-to-neighbors map built from the
// page's wire/junction forest.
type adjacency map[string][]string

func (a adjacency) addEdge(u, v string) {
	a[u] = append(a[u], v)
	a[v] = append(a[v], u)
}

func (a adjacency) addVertex(v string) {
	if _, ok := a[v]; !ok {
		a[v] = nil
	}
}

// BuildPage constructs the VNETs implied by a single page's wires and
// junctions. The page's own components supply the set of tab ids that
// exist on it (tabs never mentioned by a wire become singleton VNETs), and
// space allocates the fresh VNET ids. The page need not be validated
// beforehand.
func BuildPage(page *model.Page, space *ident.Space) Result {
	g := adjacency{}
	var errs []error

	tabSeen := make(map[string]bool)
	for _, comp := range page.Components {
		for _, pin := range comp.Pins {
			for _, tab := range pin.Tabs {
				tabSeen[tab.ID] = true
			}
		}
	}

	visitedWire := make(map[string]bool)
	var walk func(w *model.Wire)
	walk = func(w *model.Wire) {
		if visitedWire[w.ID] {
			return
		}
		visitedWire[w.ID] = true

		g.addVertex(w.StartTabID)
		if !tabSeen[w.StartTabID] {
			errs = append(errs, simerr.New(simerr.Structural, "netbuild",
				fmt.Errorf("wire %s references nonexistent start tab %s", w.ID, w.StartTabID)))
		}

		if w.EndTabID != nil {
			g.addVertex(*w.EndTabID)
			if !tabSeen[*w.EndTabID] {
				errs = append(errs, simerr.New(simerr.Structural, "netbuild",
					fmt.Errorf("wire %s references nonexistent end tab %s", w.ID, *w.EndTabID)))
			}
			g.addEdge(w.StartTabID, *w.EndTabID)
		}

		for _, j := range w.Junctions {
			jv := junctionVertex(j.ID)
			g.addVertex(jv)
			g.addEdge(w.StartTabID, jv)
			for _, child := range j.ChildWires {
				g.addVertex(child.StartTabID)
				g.addEdge(jv, child.StartTabID)
				walk(child)
			}
		}
	}

	for _, w := range page.Wires {
		walk(w)
	}

	// Every tab the page knows about gets its own vertex, even ones no
	// wire ever references — they become singleton VNETs below.
	for tabID := range tabSeen {
		g.addVertex(tabID)
	}

	// Sort each vertex's neighbor list so BFS visits (and thus VNET
	// membership order) never depends on map/slice insertion order.
	for v, neighbors := range g {
		sort.Strings(neighbors)
		g[v] = neighbors
	}

	assigned := make(map[string]bool)
	var vnets []*vnet.VNET
	tabToVNET := make(map[string]*vnet.VNET)

	// Deterministic traversal order: seed BFS from tab ids in sorted
	// order so the resulting partition does not depend on map iteration
	// order (reachability determinism, §8).
	seeds := sortedTabIDs(tabSeen)
	for _, seed := range seeds {
		if assigned[seed] {
			continue
		}

		order := bfs(g, seed)

		var members []string
		for _, vtx := range order {
			if !isJunctionVertex(vtx) && tabSeen[vtx] {
				members = append(members, vtx)
			}
		}
		if len(members) == 0 {
			members = []string{seed}
		}

		v := vnet.New(space.Generate(), page.ID, members...)
		vnets = append(vnets, v)
		for _, m := range members {
			tabToVNET[m] = v
			assigned[m] = true
		}
	}

	return Result{VNETs: vnets, TabToVNET: tabToVNET, Errors: errs}
}

// bfs returns every vertex reachable from seed, in visit order. A seed
// absent from g (shouldn't happen, since every seen tab gets a vertex
// above) yields the singleton seed itself rather than panicking.
func bfs(g adjacency, seed string) []string {
	visited := map[string]bool{seed: true}
	queue := []string{seed}
	var order []string
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)
		for _, n := range g[v] {
			if !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}
	return order
}

func isJunctionVertex(id string) bool {
	return len(id) > 2 && id[0] == 'j' && id[1] == ':'
}

func sortedTabIDs(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
