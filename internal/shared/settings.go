// This file contains the process settings and the last error store.
package shared

import (
	"fmt"
	"os"
	"sync"

	"github.com/corrreia/lootshim/internal/config"
)

var (
	settingsMu sync.RWMutex
	settings   = config.LoadOrDefault("").Settings()
	configPath string
)

// LoadConfig reads the shim configuration from the first location FindPath reports
// and reconfigures the logger from it. A missing file leaves the defaults in place.
func LoadConfig() config.Settings {
	path := config.FindPath()
	s := config.LoadOrDefault(path).Settings()
	ApplySettings(s)

	settingsMu.Lock()
	configPath = path
	settingsMu.Unlock()

	if path != "" {
		Logger().Named("config").Debug("configuration loaded", "path", path, "debug", s.Debug, "history", s.HistoryEnabled)
	}
	return s
}

// ApplySettings replaces the process settings and reconfigures the logger
func ApplySettings(s config.Settings) {
	settingsMu.Lock()
	settings = s
	settingsMu.Unlock()
	ConfigureLogger(s, os.Stderr)
}

// CurrentSettings returns the process settings
func CurrentSettings() config.Settings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settings
}

// ConfigPath returns the path LoadConfig used, empty when no file was found
func ConfigPath() string {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return configPath
}

// ============================================================
// Last error
// ============================================================

var (
	lastErrorMu sync.Mutex
	lastError   string
)

// SetLastError records a failure message for the host to query
func SetLastError(format string, args ...interface{}) {
	lastErrorMu.Lock()
	lastError = fmt.Sprintf(format, args...)
	lastErrorMu.Unlock()
}

// LastError returns the last recorded failure message
func LastError() string {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	return lastError
}

// ClearLastError resets the last failure message
func ClearLastError() {
	lastErrorMu.Lock()
	lastError = ""
	lastErrorMu.Unlock()
}
