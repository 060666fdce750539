package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrreia/lootshim/internal/config"
)

type record struct {
	level LogLevel
	tag   string
	msg   string
}

// hostLog registers a callback that collects records
func hostLog(t *testing.T) func() []record {
	t.Helper()
	var mu sync.Mutex
	var records []record
	SetLogCallback(func(level LogLevel, tag, msg string) {
		mu.Lock()
		defer mu.Unlock()
		records = append(records, record{level, tag, msg})
	})
	t.Cleanup(func() { SetLogCallback(nil) })
	return func() []record {
		mu.Lock()
		defer mu.Unlock()
		return append([]record(nil), records...)
	}
}

// withSettings applies s writing to a buffer and restores defaults afterwards
func withSettings(t *testing.T, s config.Settings) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	settingsMu.Lock()
	settings = s
	settingsMu.Unlock()
	ConfigureLogger(s, &buf)
	t.Cleanup(func() {
		def := config.LoadOrDefault("").Settings()
		settingsMu.Lock()
		settings = def
		settingsMu.Unlock()
		ConfigureLogger(def, os.Stderr)
	})
	return &buf
}

// ── logging ─────────────────────────────────────────────────

func TestLogWritesToOutput(t *testing.T) {
	no := false
	buf := withSettings(t, config.Settings{LogLevel: hclog.Info, LogJSON: &no})

	LogDebug("session", "hidden")
	LogInfo("session", "sorted")
	LogError("", "failed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "lootshim.session: sorted")
	assert.Contains(t, out, "lootshim: failed")
}

func TestLogJSONWhenNotTerminal(t *testing.T) {
	buf := withSettings(t, config.Settings{LogLevel: hclog.Info})

	LogWarning("scanner", "skipped")
	assert.Contains(t, buf.String(), `"@message":"skipped"`)
	assert.Contains(t, buf.String(), `"@module":"lootshim.scanner"`)
}

func TestLogCallback(t *testing.T) {
	no := false
	buf := withSettings(t, config.Settings{LogLevel: hclog.Info, LogJSON: &no})
	records := hostLog(t)

	LogDebug("a", "dropped")
	LogInfo("a", "one")
	LogWarning("b", "two")
	LogError("c", "three")
	Logger().Named("d").Info("four", "count", 3, "name", "x.esp")

	assert.Equal(t, []record{
		{LogLevelInfo, "lootshim.a", "one"},
		{LogLevelWarning, "lootshim.b", "two"},
		{LogLevelError, "lootshim.c", "three"},
		{LogLevelInfo, "lootshim.d", "four count=3 name=x.esp"},
	}, records())
	assert.Empty(t, buf.String(), "host callback replaces stream output")

	SetLogCallback(nil)
	LogInfo("a", "back")
	assert.Contains(t, buf.String(), "back")
	assert.Len(t, records(), 4)
}

func TestLogCallbackSurvivesReconfigure(t *testing.T) {
	records := hostLog(t)
	withSettings(t, config.Settings{LogLevel: hclog.Debug})

	LogDebug("x", "visible")
	require.Len(t, records(), 1)
	assert.Equal(t, LogLevelDebug, records()[0].level)
}

func TestDebugLog(t *testing.T) {
	no := false
	buf := withSettings(t, config.Settings{LogLevel: hclog.Debug, LogJSON: &no})
	DebugLog("value %d", 1)
	assert.Empty(t, buf.String())

	buf = withSettings(t, config.Settings{Debug: true, LogLevel: hclog.Debug, LogJSON: &no})
	DebugLog("value %d", 2)
	assert.Contains(t, buf.String(), "lootshim.debug: value 2")
}

func TestFormatRecord(t *testing.T) {
	assert.Equal(t, "m", formatRecord("m", nil))
	assert.Equal(t, "m a=1", formatRecord("m", []interface{}{"a", 1}))
	assert.Equal(t, "m a=1 EXTRA_VALUE_AT_END=b", formatRecord("m", []interface{}{"a", 1, "b"}))
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "warning", LogLevelWarning.String())
	assert.Equal(t, "unknown", LogLevel(9).String())
}

// ── settings ────────────────────────────────────────────────

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"debug": true, "history": {"enabled": true}}`), 0o644))
	t.Setenv(config.EnvPath, path)
	withSettings(t, config.Settings{LogLevel: hclog.Info})

	s := LoadConfig()
	assert.True(t, s.Debug)
	assert.True(t, CurrentSettings().HistoryEnabled)
	assert.Equal(t, path, ConfigPath())
}

// ── last error ──────────────────────────────────────────────

func TestLastError(t *testing.T) {
	ClearLastError()
	assert.Empty(t, LastError())

	SetLastError("sort failed: %s", "cycle")
	assert.Equal(t, "sort failed: cycle", LastError())

	ClearLastError()
	assert.Empty(t, LastError())
}
