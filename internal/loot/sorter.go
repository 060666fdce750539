package loot

import (
	"container/heap"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bits-and-blooms/bitset"
)

// ErrUndefinedGroup is returned when metadata references a group that is not defined
var ErrUndefinedGroup = errors.New("undefined group")

// CyclicInteractionError is returned when load order constraints contradict each other
type CyclicInteractionError struct {
	Cycle []string
}

func (e *CyclicInteractionError) Error() string {
	return "cyclic interaction detected: " + strings.Join(e.Cycle, " -> ")
}

// sortNode is one plugin in the sorting graph
type sortNode struct {
	name     string
	plugin   *Plugin
	metadata *PluginMetadata
	group    string
}

// SortPlugins returns the plugins in current in load order. current must name loaded
// plugins; its order is kept wherever no constraint says otherwise.
//
// Masters always load before non-masters. Inside each block a plugin loads after its
// masters and after the requirements and load-after files named in its metadata.
// Group ordering is applied last, skipping any edge that would create a cycle.
func (g *Game) SortPlugins(current []string) ([]string, error) {
	start := time.Now()

	nodes := make([]sortNode, len(current))
	index := make(map[string]int, len(current))
	for i, name := range current {
		p, ok := g.loadedPlugin(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPluginNotLoaded, name)
		}
		key := foldName(name)
		if _, dup := index[key]; dup {
			return nil, fmt.Errorf("plugin %q appears more than once", name)
		}
		index[key] = i
		nodes[i] = sortNode{name: name, plugin: p, group: DefaultGroup}
	}

	var groupPreds map[string]map[string]bool
	err := g.database.Read(func(db *Database) error {
		for i := range nodes {
			metadata, err := db.PluginMetadata(nodes[i].name, true, true)
			if err != nil {
				return fmt.Errorf("evaluate metadata for %s: %w", nodes[i].name, err)
			}
			nodes[i].metadata = metadata
			if metadata != nil && metadata.Group != "" {
				nodes[i].group = metadata.Group
			}
		}
		var err error
		groupPreds, err = groupPredecessors(db.Groups(true))
		return err
	})
	if err != nil {
		return nil, err
	}

	graph := newPluginGraph(len(nodes))

	// Hard edges: masters, requirements, load-after.
	for i, n := range nodes {
		if _, ok := groupPreds[n.group]; !ok {
			return nil, fmt.Errorf("%w: %q used by %s", ErrUndefinedGroup, n.group, n.name)
		}

		var before []string
		before = append(before, n.plugin.masters...)
		if n.metadata != nil {
			for _, f := range n.metadata.Requirements {
				before = append(before, f.Name)
			}
			for _, f := range n.metadata.LoadAfter {
				before = append(before, f.Name)
			}
		}
		for _, name := range before {
			j, ok := index[foldName(name)]
			if !ok || j == i {
				continue
			}
			if !nodes[j].plugin.IsMaster() && n.plugin.IsMaster() {
				return nil, &CyclicInteractionError{Cycle: []string{nodes[i].name, nodes[j].name, nodes[i].name}}
			}
			graph.addEdge(j, i)
		}
	}

	// Soft edges: groups, in current order so earlier plugins win conflicts.
	groupIndex := make(map[string]int, len(groupPreds))
	for name := range groupPreds {
		groupIndex[name] = len(groupIndex)
	}
	groupBefore := make([][]bool, len(groupIndex))
	for name, i := range groupIndex {
		groupBefore[i] = make([]bool, len(groupIndex))
		for pred := range groupPreds[name] {
			groupBefore[i][groupIndex[pred]] = true
		}
	}
	nodeGroup := make([]int, len(nodes))
	for i, n := range nodes {
		nodeGroup[i] = groupIndex[n.group]
	}

	for i := range nodes {
		for j := range nodes {
			if i == j || nodes[i].plugin.IsMaster() != nodes[j].plugin.IsMaster() {
				continue
			}
			if !groupBefore[nodeGroup[j]][nodeGroup[i]] {
				continue
			}
			if graph.reachable(i, j) || graph.reachable(j, i) {
				continue
			}
			graph.addEdge(i, j)
		}
	}

	var masters, others []int
	for i, n := range nodes {
		if n.plugin.IsMaster() {
			masters = append(masters, i)
		} else {
			others = append(others, i)
		}
	}

	sorted := make([]string, 0, len(nodes))
	for _, block := range [][]int{masters, others} {
		order, cycle := graph.sort(block)
		if cycle != nil {
			names := make([]string, len(cycle))
			for k, idx := range cycle {
				names[k] = nodes[idx].name
			}
			return nil, &CyclicInteractionError{Cycle: names}
		}
		for _, idx := range order {
			sorted = append(sorted, nodes[idx].name)
		}
	}

	g.logger.Debug("sorted plugins",
		"count", len(sorted),
		"elapsed", time.Since(start).String())
	return sorted, nil
}

// groupPredecessors maps each group to every group it transitively loads after
func groupPredecessors(groups []Group) (map[string]map[string]bool, error) {
	byName := make(map[string]Group, len(groups))
	for _, g := range groups {
		byName[g.Name] = g
	}

	preds := make(map[string]map[string]bool, len(groups))
	var visit func(name string, path []string) (map[string]bool, error)
	visit = func(name string, path []string) (map[string]bool, error) {
		if set, ok := preds[name]; ok {
			return set, nil
		}
		for i, p := range path {
			if p == name {
				cycle := append(append([]string(nil), path[i:]...), name)
				return nil, &CyclicInteractionError{Cycle: cycle}
			}
		}
		group, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUndefinedGroup, name)
		}

		set := make(map[string]bool)
		for _, after := range group.AfterGroups {
			sub, err := visit(after, append(path, name))
			if err != nil {
				return nil, err
			}
			set[after] = true
			for s := range sub {
				set[s] = true
			}
		}
		preds[name] = set
		return set, nil
	}

	for _, g := range groups {
		if _, err := visit(g.Name, nil); err != nil {
			return nil, err
		}
	}
	return preds, nil
}

// ============================================================
// Graph
// ============================================================

// pluginGraph is a directed graph where an edge a -> b means a loads before b.
// It keeps the transitive closure up to date as edges are added.
type pluginGraph struct {
	adj   [][]int
	edges map[[2]int]bool

	// desc[n] holds every node reachable from n, anc[n] every node that reaches n
	desc []*bitset.BitSet
	anc  []*bitset.BitSet
}

func newPluginGraph(n int) *pluginGraph {
	g := &pluginGraph{
		adj:   make([][]int, n),
		edges: make(map[[2]int]bool),
		desc:  make([]*bitset.BitSet, n),
		anc:   make([]*bitset.BitSet, n),
	}
	for i := 0; i < n; i++ {
		g.desc[i] = bitset.New(uint(n))
		g.anc[i] = bitset.New(uint(n))
	}
	return g
}

func (g *pluginGraph) addEdge(from, to int) {
	key := [2]int{from, to}
	if g.edges[key] {
		return
	}
	g.edges[key] = true
	g.adj[from] = append(g.adj[from], to)
	g.link(from, to)
}

// link extends the closure with from -> to
func (g *pluginGraph) link(from, to int) {
	if g.desc[from].Test(uint(to)) {
		return
	}
	sources := g.anc[from].Clone().Set(uint(from))
	targets := g.desc[to].Clone().Set(uint(to))

	for a, ok := sources.NextSet(0); ok; a, ok = sources.NextSet(a + 1) {
		g.desc[a].InPlaceUnion(targets)
	}
	for d, ok := targets.NextSet(0); ok; d, ok = targets.NextSet(d + 1) {
		g.anc[d].InPlaceUnion(sources)
	}
}

// reachable reports whether a path leads from one node to another
func (g *pluginGraph) reachable(from, to int) bool {
	return g.desc[from].Test(uint(to))
}

// sort orders the given nodes with Kahn's algorithm, always taking the ready node with
// the lowest index. Edges leaving the block are ignored. On a cycle the returned slice
// is nil and the second result lists the cycle's nodes.
func (g *pluginGraph) sort(block []int) ([]int, []int) {
	inBlock := make(map[int]bool, len(block))
	for _, n := range block {
		inBlock[n] = true
	}

	inDegree := make(map[int]int, len(block))
	for _, n := range block {
		for _, m := range g.adj[n] {
			if inBlock[m] {
				inDegree[m]++
			}
		}
	}

	ready := &indexHeap{}
	for _, n := range block {
		if inDegree[n] == 0 {
			heap.Push(ready, n)
		}
	}

	order := make([]int, 0, len(block))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		order = append(order, n)
		for _, m := range g.adj[n] {
			if !inBlock[m] {
				continue
			}
			inDegree[m]--
			if inDegree[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}

	if len(order) == len(block) {
		return order, nil
	}
	return nil, g.findCycle(block, inDegree)
}

// findCycle follows predecessors between unsorted nodes until a node repeats.
// Every unsorted node has an unsorted predecessor, so the walk always closes a loop.
// The result is in load order with the first node repeated at the end.
func (g *pluginGraph) findCycle(block []int, inDegree map[int]int) []int {
	preds := make(map[int][]int)
	start := -1
	for _, n := range block {
		if inDegree[n] == 0 {
			continue
		}
		if start < 0 {
			start = n
		}
		for _, m := range g.adj[n] {
			if inDegree[m] > 0 {
				preds[m] = append(preds[m], n)
			}
		}
	}
	if start < 0 {
		return nil
	}

	pos := make(map[int]int)
	var path []int
	for n := start; ; {
		if i, seen := pos[n]; seen {
			loop := path[i:]
			cycle := make([]int, 0, len(loop)+1)
			for k := len(loop) - 1; k >= 0; k-- {
				cycle = append(cycle, loop[k])
			}
			return append(cycle, cycle[0])
		}
		pos[n] = len(path)
		path = append(path, n)
		if len(preds[n]) == 0 {
			return path
		}
		n = preds[n][0]
	}
}

// indexHeap is a min-heap of node indexes
type indexHeap []int

func (h indexHeap) Len() int            { return len(h) }
func (h indexHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() interface{} {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}
