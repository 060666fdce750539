// Package shared holds process-wide state used by the bridge and the packages below it:
// the logger, the loaded settings and the last error message.
package shared

// LogLevel is a log severity as the host sees it
type LogLevel int

// Log levels matching the LOOT_LOG_* constants of loot_shim_types.h
const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

// String returns the level name
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "debug"
	case LogLevelInfo:
		return "info"
	case LogLevelWarning:
		return "warning"
	case LogLevelError:
		return "error"
	default:
		return "unknown"
	}
}

// LogCallback receives log records forwarded to the host
type LogCallback func(level LogLevel, tag, message string)
