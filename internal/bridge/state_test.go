package bridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/corrreia/lootshim/internal/config"
	"github.com/corrreia/lootshim/internal/loot"
	"github.com/corrreia/lootshim/internal/loot/loottest"
	"github.com/corrreia/lootshim/internal/session"
	"github.com/corrreia/lootshim/internal/shared"
)

func TestNewRegistryWithHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history", "sorts.db")
	r := newRegistry(config.Settings{HistoryEnabled: true, HistoryPath: dbPath, HistoryLimit: 3}, hclog.NewNullLogger())

	install, _ := loottest.GameDir(t)
	content := t.TempDir()
	loottest.WritePlugin(t, content, "A.esp", false)

	h := r.Create(int(loot.GameSkyrimSE), content, install)
	require.NotEqual(t, session.NullHandle, h)
	require.Equal(t, session.StatusOK, r.Sort(h))

	entries := gjson.ParseBytes(r.SortHistory(h, 0)).Array()
	require.Len(t, entries, 1)
	assert.Equal(t, "A.esp", entries[0].Get("plugins.0").String())

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestNewRegistryHistoryUnavailable(t *testing.T) {
	blocker := loottest.WriteFile(t, t.TempDir(), "blocker", "x")
	r := newRegistry(config.Settings{HistoryEnabled: true, HistoryPath: filepath.Join(blocker, "sorts.db")}, hclog.NewNullLogger())

	install, _ := loottest.GameDir(t)
	h := r.Create(int(loot.GameSkyrimSE), "", install)
	require.NotEqual(t, session.NullHandle, h)
	assert.Equal(t, session.StatusOK, r.Sort(h))
	assert.Nil(t, r.SortHistory(h, 0))
}

func TestNewRegistryWithoutHistory(t *testing.T) {
	r := newRegistry(config.Settings{}, hclog.NewNullLogger())
	install, _ := loottest.GameDir(t)
	h := r.Create(int(loot.GameSkyrimSE), "", install)
	assert.Nil(t, r.SortHistory(h, 0))
}

func TestDetectGameType(t *testing.T) {
	assert.Equal(t, detectNoPath, detectGameType(""))

	dir := t.TempDir()
	assert.Equal(t, int(loot.GameSkyrimSE), detectGameType(dir))

	loottest.WriteFile(t, dir, "Fallout4.exe", "")
	assert.Equal(t, int(loot.GameFallout4), detectGameType(dir))
}

func TestHostLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, hostLogLevel(shared.LogLevelDebug))
	assert.Equal(t, LogLevelInfo, hostLogLevel(shared.LogLevelInfo))
	assert.Equal(t, LogLevelWarning, hostLogLevel(shared.LogLevelWarning))
	assert.Equal(t, LogLevelError, hostLogLevel(shared.LogLevelError))
	assert.Equal(t, LogLevelInfo, hostLogLevel(shared.LogLevel(42)))
}
