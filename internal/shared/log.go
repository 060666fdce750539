// This file contains the process logger and the host log sink.
package shared

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"

	"github.com/corrreia/lootshim/internal/config"
)

// LoggerName is the root logger name; component loggers are named below it
const LoggerName = "lootshim"

var (
	logMu    sync.Mutex
	logger   hclog.InterceptLogger
	logLevel = hclog.Info
	hostSink *callbackSink
)

func init() {
	logger = newLogger(os.Stderr, hclog.Info, !isatty.IsTerminal(os.Stderr.Fd()))
}

func newLogger(w io.Writer, level hclog.Level, json bool) hclog.InterceptLogger {
	return hclog.NewInterceptLogger(&hclog.LoggerOptions{
		Name:       LoggerName,
		Level:      level,
		Output:     w,
		JSONFormat: json,
	})
}

// Logger returns the process logger
func Logger() hclog.InterceptLogger {
	logMu.Lock()
	defer logMu.Unlock()
	return logger
}

// ConfigureLogger rebuilds the process logger from settings, writing to w.
// Without an explicit log.json setting the format is JSON unless w is a terminal.
// A registered host callback stays registered.
func ConfigureLogger(s config.Settings, w io.Writer) {
	json := !isTerminal(w)
	if s.LogJSON != nil {
		json = *s.LogJSON
	}

	logMu.Lock()
	defer logMu.Unlock()

	logLevel = s.LogLevel
	next := newLogger(w, s.LogLevel, json)
	if hostSink != nil {
		logger.DeregisterSink(hostSink)
		hostSink.level = s.LogLevel
		next.RegisterSink(hostSink)
		next.SetLevel(hclog.Off)
	}
	logger = next
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// SetLogCallback routes log records to the host instead of stderr.
// A nil callback removes the route and restores stderr output.
func SetLogCallback(cb LogCallback) {
	logMu.Lock()
	defer logMu.Unlock()

	if hostSink != nil {
		logger.DeregisterSink(hostSink)
		hostSink = nil
	}
	if cb == nil {
		logger.SetLevel(logLevel)
		return
	}

	hostSink = &callbackSink{cb: cb, level: logLevel}
	logger.RegisterSink(hostSink)
	// Sinks see every record regardless of the logger level.
	logger.SetLevel(hclog.Off)
}

// callbackSink forwards hclog records to a host callback
type callbackSink struct {
	cb    LogCallback
	level hclog.Level
}

// Accept implements hclog.SinkAdapter
func (s *callbackSink) Accept(name string, level hclog.Level, msg string, args ...interface{}) {
	if level < s.level || level == hclog.Off {
		return
	}
	s.cb(toLogLevel(level), name, formatRecord(msg, args))
}

func toLogLevel(level hclog.Level) LogLevel {
	switch {
	case level <= hclog.Debug:
		return LogLevelDebug
	case level == hclog.Info:
		return LogLevelInfo
	case level == hclog.Warn:
		return LogLevelWarning
	default:
		return LogLevelError
	}
}

// formatRecord renders "msg key=value key=value"
func formatRecord(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		b.WriteByte(' ')
		if i+1 >= len(args) {
			fmt.Fprintf(&b, "EXTRA_VALUE_AT_END=%v", args[i])
			break
		}
		fmt.Fprintf(&b, "%v=%v", args[i], args[i+1])
	}
	return b.String()
}

// ============================================================
// Tagged logging
// ============================================================

func tagged(tag string) hclog.Logger {
	l := Logger()
	if tag == "" {
		return l
	}
	return l.Named(tag)
}

// LogDebug logs a debug message under tag
func LogDebug(tag, msg string) { tagged(tag).Debug(msg) }

// LogInfo logs an info message under tag
func LogInfo(tag, msg string) { tagged(tag).Info(msg) }

// LogWarning logs a warning under tag
func LogWarning(tag, msg string) { tagged(tag).Warn(msg) }

// LogError logs an error under tag
func LogError(tag, msg string) { tagged(tag).Error(msg) }

// DebugLog logs a formatted message only when the debug setting is on
func DebugLog(format string, args ...interface{}) {
	if !CurrentSettings().Debug {
		return
	}
	tagged("debug").Debug(fmt.Sprintf(format, args...))
}
