package config

import (
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Config keys
const (
	KeyDebug          = "debug"
	KeyLogLevel       = "log.level"
	KeyLogJSON        = "log.json"
	KeyHistoryEnabled = "history.enabled"
	KeyHistoryPath    = "history.path"
	KeyHistoryLimit   = "history.limit"
	KeyPrettyDebug    = "encoder.pretty_debug"
)

// DefaultHistoryLimit is the number of sorts kept per game and data path, and the
// number returned when a caller asks for none
const DefaultHistoryLimit = 20

// Settings is the typed view of a Config
type Settings struct {
	Debug    bool
	LogLevel hclog.Level
	// LogJSON is nil when the config leaves the format to terminal detection
	LogJSON *bool

	HistoryEnabled bool
	HistoryPath    string
	HistoryLimit   int

	PrettyDebug bool
}

// Settings resolves every known key, applying defaults
func (c *Config) Settings() Settings {
	s := Settings{
		Debug:          c.GetBool(KeyDebug, false),
		HistoryEnabled: c.GetBool(KeyHistoryEnabled, false),
		HistoryPath:    c.GetString(KeyHistoryPath, ""),
		HistoryLimit:   c.GetInt(KeyHistoryLimit, DefaultHistoryLimit),
		PrettyDebug:    c.GetBool(KeyPrettyDebug, false),
	}

	level := strings.TrimSpace(c.GetString(KeyLogLevel, ""))
	switch {
	case level != "":
		s.LogLevel = hclog.LevelFromString(level)
		if s.LogLevel == hclog.NoLevel {
			s.LogLevel = hclog.Info
		}
	case s.Debug:
		s.LogLevel = hclog.Debug
	default:
		s.LogLevel = hclog.Info
	}

	if c.Has(KeyLogJSON) {
		v := c.GetBool(KeyLogJSON, false)
		s.LogJSON = &v
	}

	if s.HistoryLimit <= 0 {
		s.HistoryLimit = DefaultHistoryLimit
	}
	if s.HistoryEnabled && s.HistoryPath == "" {
		dir := "."
		if c != nil && c.path != "" {
			dir = filepath.Dir(c.path)
		}
		s.HistoryPath = filepath.Join(dir, "loot_shim_history.db")
	}
	return s
}
