package loot

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrreia/lootshim/internal/loot/loottest"
)

// fakeState is a single data directory with a fixed set of loaded plugins
type fakeState struct {
	dir     string
	plugins map[string]*Plugin
}

func (s *fakeState) resolveDataFile(rel string) (string, bool) {
	path := filepath.Join(s.dir, filepath.FromSlash(rel))
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

func (s *fakeState) dataDirs() []string { return []string{s.dir} }

func (s *fakeState) loadedPlugin(name string) (*Plugin, bool) {
	p, ok := s.plugins[foldName(name)]
	return p, ok
}

func (s *fakeState) loadedPluginNames() []string {
	var names []string
	for _, p := range s.plugins {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names
}

func newTestEvaluator(t *testing.T) (*evaluator, string) {
	t.Helper()
	dir := t.TempDir()
	loottest.WriteFile(t, dir, "present.txt", "abc")
	loottest.WriteFile(t, dir, "present2.txt", "def")

	state := &fakeState{
		dir: dir,
		plugins: map[string]*Plugin{
			foldName("Master.esm"): {name: "Master.esm", isMaster: true},
			foldName("Plugin.esp"): {name: "Plugin.esp"},
		},
	}
	return &evaluator{state: state, cache: newConditionCache()}, dir
}

func TestEvaluateConditions(t *testing.T) {
	eval, _ := newTestEvaluator(t)
	crc := fmt.Sprintf("%X", crc32.ChecksumIEEE([]byte("abc")))

	tests := []struct {
		expr string
		want bool
	}{
		{``, true},
		{`   `, true},
		{`file("present.txt")`, true},
		{`file("PRESENT.txt")`, fileSystemIsCaseInsensitive(t)},
		{`file("missing.txt")`, false},
		{`file("Plugin.esp")`, true},
		{`not file("missing.txt")`, true},
		{`readable("present.txt")`, true},
		{`readable("missing.txt")`, false},
		{`active("plugin.ESP")`, true},
		{`active("Other.esp")`, false},
		{`is_master("Master.esm")`, true},
		{`is_master("Plugin.esp")`, false},
		{`many("present.*\.txt")`, true},
		{`many("present2\.txt")`, false},
		{`many_active(".*\.es[mp]")`, true},
		{`many_active("Plugin\.esp")`, false},
		{`checksum("present.txt", ` + crc + `)`, true},
		{`checksum("present.txt", DEADBEEF)`, false},
		{`checksum("missing.txt", ` + crc + `)`, false},
		{`file("present.txt") and file("missing.txt")`, false},
		{`file("missing.txt") or file("present.txt")`, true},
		{`file("missing.txt") or file("present.txt") and active("Other.esp")`, false},
		{`(file("missing.txt") or file("present.txt")) and not active("Other.esp")`, true},
		{`not (file("present.txt") and active("Plugin.esp"))`, false},
	}
	for _, tc := range tests {
		got, err := eval.evaluate(tc.expr)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.want, got, tc.expr)
	}
}

func TestEvaluateInvalidConditions(t *testing.T) {
	eval, _ := newTestEvaluator(t)

	for _, expr := range []string{
		`file("x"`,
		`file("x") file("y")`,
		`unknown("x")`,
		`file("x", "y")`,
		`file("x) `,
		`file("x") & file("y")`,
		`and file("x")`,
		`(file("x")`,
		`many("[")`,
		`checksum("x", nothex)`,
	} {
		_, err := eval.evaluate(expr)
		assert.ErrorIs(t, err, ErrInvalidCondition, expr)
	}
}

func TestConditionCache(t *testing.T) {
	eval, dir := newTestEvaluator(t)

	got, err := eval.evaluate(`file("later.txt")`)
	require.NoError(t, err)
	assert.False(t, got)

	loottest.WriteFile(t, dir, "later.txt", "")

	got, err = eval.evaluate(`file("later.txt")`)
	require.NoError(t, err)
	assert.False(t, got, "result should come from the cache")

	eval.cache.clear()
	got, err = eval.evaluate(`file("later.txt")`)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestChecksumMatches(t *testing.T) {
	eval, dir := newTestEvaluator(t)
	path := loottest.WritePlugin(t, dir, "Plugin.esp", false)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.True(t, eval.checksumMatches("Plugin.esp", crc32.ChecksumIEEE(data)))
	assert.False(t, eval.checksumMatches("Plugin.esp", 0x12345678))
	assert.False(t, eval.checksumMatches("Nowhere.esp", 0))
}

// fileSystemIsCaseInsensitive reports how the temp directory compares names
func fileSystemIsCaseInsensitive(t *testing.T) bool {
	t.Helper()
	dir := t.TempDir()
	loottest.WriteFile(t, dir, "probe", "")
	_, err := os.Stat(filepath.Join(dir, "PROBE"))
	return err == nil
}
