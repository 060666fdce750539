// Package bridge exports the shim's C interface.
// This file contains constants shared between the exports and the pure Go helpers.
package bridge

import "github.com/corrreia/lootshim/internal/shared"

// Log levels matching loot_log_level_t
const (
	LogLevelDebug   = 0
	LogLevelInfo    = 1
	LogLevelWarning = 2
	LogLevelError   = 3
)

// Status codes returned when an export recovers from a panic
const (
	panicSortStatus  = -4
	panicLoadStatus  = -4
	panicClearStatus = -2
)

// detectNoPath is returned by loot_detect_game_type for an empty path
const detectNoPath = -1

// hostLogLevel maps a shared log level to loot_log_level_t
func hostLogLevel(level shared.LogLevel) int {
	switch level {
	case shared.LogLevelDebug:
		return LogLevelDebug
	case shared.LogLevelWarning:
		return LogLevelWarning
	case shared.LogLevelError:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}
