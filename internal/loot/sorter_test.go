package loot

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrreia/lootshim/internal/loot/loottest"
)

// loadPlugins writes the plugins into the game's data dir and loads their headers
func loadPlugins(t *testing.T, g *Game, data string, plugins ...loottest.Plugin) {
	t.Helper()
	paths := make([]string, 0, len(plugins))
	for _, p := range plugins {
		paths = append(paths, loottest.WritePluginFile(t, data, p))
	}
	require.NoError(t, g.LoadPluginHeaders(paths))
}

func TestSortMastersBeforePlugins(t *testing.T) {
	g, data := newTestGame(t)
	loadPlugins(t, g, data,
		loottest.Plugin{Name: "A.esp"},
		loottest.Plugin{Name: "B.esm", Flags: loottest.FlagMaster},
	)

	sorted, err := g.SortPlugins([]string{"A.esp", "B.esm"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B.esm", "A.esp"}, sorted)
}

func TestSortKeepsCurrentOrderWithoutConstraints(t *testing.T) {
	g, data := newTestGame(t)
	loadPlugins(t, g, data,
		loottest.Plugin{Name: "c.esp"},
		loottest.Plugin{Name: "a.esp"},
		loottest.Plugin{Name: "b.esp"},
	)

	sorted, err := g.SortPlugins([]string{"c.esp", "a.esp", "b.esp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c.esp", "a.esp", "b.esp"}, sorted)
}

func TestSortMastersOfPlugin(t *testing.T) {
	g, data := newTestGame(t)
	loadPlugins(t, g, data,
		loottest.Plugin{Name: "Patch.esp", Masters: []string{"Base.esp"}},
		loottest.Plugin{Name: "Other.esp"},
		loottest.Plugin{Name: "Base.esp"},
		loottest.Plugin{Name: "Light.esl"},
	)

	sorted, err := g.SortPlugins([]string{"Patch.esp", "Other.esp", "Base.esp", "Light.esl"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Light.esl", "Other.esp", "Base.esp", "Patch.esp"}, sorted)
}

func TestSortMetadataEdges(t *testing.T) {
	g, data := newTestGame(t)
	loadPlugins(t, g, data,
		loottest.Plugin{Name: "X.esp"},
		loottest.Plugin{Name: "Y.esp"},
		loottest.Plugin{Name: "Z.esp"},
	)
	loadMasterlist(t, g, `
plugins:
  - name: X.esp
    after: [Y.esp]
  - name: Y.esp
    req: [Z.esp]
`)

	sorted, err := g.SortPlugins([]string{"X.esp", "Y.esp", "Z.esp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Z.esp", "Y.esp", "X.esp"}, sorted)
}

func TestSortUserlistEdges(t *testing.T) {
	g, data := newTestGame(t)
	loadPlugins(t, g, data,
		loottest.Plugin{Name: "X.esp"},
		loottest.Plugin{Name: "Y.esp"},
	)
	loadUserlist(t, g, `
plugins:
  - name: X.esp
    after: [Y.esp]
`)

	sorted, err := g.SortPlugins([]string{"X.esp", "Y.esp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Y.esp", "X.esp"}, sorted)
}

func TestSortGroups(t *testing.T) {
	g, data := newTestGame(t)
	loadPlugins(t, g, data,
		loottest.Plugin{Name: "Late.esp"},
		loottest.Plugin{Name: "Plain.esp"},
		loottest.Plugin{Name: "Early.esp"},
	)
	loadMasterlist(t, g, `
groups:
  - name: early
  - name: default
    after: [early]
  - name: late
    after: [default]
plugins:
  - name: Late.esp
    group: late
  - name: Early.esp
    group: early
`)

	sorted, err := g.SortPlugins([]string{"Late.esp", "Plain.esp", "Early.esp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Early.esp", "Plain.esp", "Late.esp"}, sorted)
}

func TestSortGroupEdgeYieldsToHardEdge(t *testing.T) {
	g, data := newTestGame(t)
	loadPlugins(t, g, data,
		loottest.Plugin{Name: "A.esp"},
		loottest.Plugin{Name: "B.esp"},
	)
	loadMasterlist(t, g, `
groups:
  - name: early
  - name: late
    after: [early]
plugins:
  - name: A.esp
    group: early
    after: [B.esp]
  - name: B.esp
    group: late
`)

	sorted, err := g.SortPlugins([]string{"A.esp", "B.esp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B.esp", "A.esp"}, sorted)
}

func TestSortCycle(t *testing.T) {
	g, data := newTestGame(t)
	loadPlugins(t, g, data,
		loottest.Plugin{Name: "X.esp"},
		loottest.Plugin{Name: "Y.esp"},
	)
	loadMasterlist(t, g, `
plugins:
  - name: X.esp
    after: [Y.esp]
  - name: Y.esp
    after: [X.esp]
`)

	_, err := g.SortPlugins([]string{"X.esp", "Y.esp"})
	var cycle *CyclicInteractionError
	require.True(t, errors.As(err, &cycle), "got %v", err)
	assert.Equal(t, []string{"Y.esp", "X.esp", "Y.esp"}, cycle.Cycle)
	assert.Contains(t, err.Error(), "Y.esp -> X.esp -> Y.esp")
}

func TestSortMasterAfterPluginIsCycle(t *testing.T) {
	g, data := newTestGame(t)
	loadPlugins(t, g, data,
		loottest.Plugin{Name: "A.esp"},
		loottest.Plugin{Name: "B.esm", Flags: loottest.FlagMaster},
	)
	loadMasterlist(t, g, `
plugins:
  - name: B.esm
    after: [A.esp]
`)

	_, err := g.SortPlugins([]string{"A.esp", "B.esm"})
	var cycle *CyclicInteractionError
	assert.True(t, errors.As(err, &cycle), "got %v", err)
}

func TestSortManyGroupedPlugins(t *testing.T) {
	const groups, perGroup = 20, 20
	g, data := newTestGame(t)

	var yaml strings.Builder
	yaml.WriteString("groups:\n")
	for k := 1; k <= groups; k++ {
		fmt.Fprintf(&yaml, "  - name: g%02d\n", k)
		if k > 1 {
			fmt.Fprintf(&yaml, "    after: [g%02d]\n", k-1)
		}
	}
	yaml.WriteString("plugins:\n")

	// Current order lists the last group first.
	var current []string
	plugins := make([]loottest.Plugin, 0, groups*perGroup)
	for k := groups; k >= 1; k-- {
		for p := 0; p < perGroup; p++ {
			name := fmt.Sprintf("g%02d_%02d.esp", k, p)
			current = append(current, name)
			plugins = append(plugins, loottest.Plugin{Name: name})
			fmt.Fprintf(&yaml, "  - name: %s\n    group: g%02d\n", name, k)
		}
	}
	loadPlugins(t, g, data, plugins...)
	loadMasterlist(t, g, yaml.String())

	start := time.Now()
	sorted, err := g.SortPlugins(current)
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.Less(t, elapsed, 5*time.Second)

	var want []string
	for k := 1; k <= groups; k++ {
		for p := 0; p < perGroup; p++ {
			want = append(want, fmt.Sprintf("g%02d_%02d.esp", k, p))
		}
	}
	assert.Equal(t, want, sorted)
}

func TestSortGroupCycle(t *testing.T) {
	g, data := newTestGame(t)
	loadPlugins(t, g, data, loottest.Plugin{Name: "A.esp"})
	loadMasterlist(t, g, `
groups:
  - name: one
    after: [two]
  - name: two
    after: [one]
`)

	_, err := g.SortPlugins([]string{"A.esp"})
	var cycle *CyclicInteractionError
	assert.True(t, errors.As(err, &cycle), "got %v", err)
}

func TestSortErrors(t *testing.T) {
	g, data := newTestGame(t)
	loadPlugins(t, g, data, loottest.Plugin{Name: "A.esp"})

	_, err := g.SortPlugins([]string{"Missing.esp"})
	assert.ErrorIs(t, err, ErrPluginNotLoaded)

	_, err = g.SortPlugins([]string{"A.esp", "a.ESP"})
	assert.Error(t, err)

	loadMasterlist(t, g, `
plugins:
  - name: A.esp
    group: nowhere
`)
	_, err = g.SortPlugins([]string{"A.esp"})
	assert.ErrorIs(t, err, ErrUndefinedGroup)

	loadMasterlist(t, g, `
groups:
  - name: dangling
    after: [nowhere]
`)
	_, err = g.SortPlugins([]string{"A.esp"})
	assert.ErrorIs(t, err, ErrUndefinedGroup)
}

func TestSortEmpty(t *testing.T) {
	g, _ := newTestGame(t)
	sorted, err := g.SortPlugins(nil)
	require.NoError(t, err)
	assert.Empty(t, sorted)
}

func TestPluginGraphReachability(t *testing.T) {
	g := newPluginGraph(5)
	g.addEdge(0, 1)
	g.addEdge(2, 3)
	assert.False(t, g.reachable(0, 3))

	g.addEdge(1, 2)
	assert.True(t, g.reachable(0, 3))
	assert.True(t, g.reachable(1, 3))
	assert.False(t, g.reachable(3, 0))
	assert.False(t, g.reachable(0, 4))

	g.addEdge(3, 0)
	assert.True(t, g.reachable(2, 1))
	assert.True(t, g.reachable(0, 0))
}
