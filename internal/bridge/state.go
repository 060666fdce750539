// Package bridge exports the shim's C interface.
// This file contains the process-wide session registry and its lazy initialization.
package bridge

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/corrreia/lootshim/internal/config"
	"github.com/corrreia/lootshim/internal/history"
	"github.com/corrreia/lootshim/internal/loot"
	"github.com/corrreia/lootshim/internal/runtime"
	"github.com/corrreia/lootshim/internal/session"
	"github.com/corrreia/lootshim/internal/shared"
)

// ============================================================
// Global State
// ============================================================

var (
	initOnce sync.Once
	registry *session.Registry
)

// ensureInit loads the configuration and builds the registry on the first call
func ensureInit() *session.Registry {
	initOnce.Do(func() {
		settings := shared.LoadConfig()

		runtime.SetPanicLogger(func(context string, panicVal interface{}, stack string) {
			shared.SetLastError("panic in %s: %v", context, panicVal)
			shared.Logger().Named("panic").Error(fmt.Sprintf("recovered from panic in %s: %v", context, panicVal), "stack", stack)
		})

		registry = newRegistry(settings, shared.Logger())
		shared.DebugLog("bridge initialized, config=%q", shared.ConfigPath())
	})
	return registry
}

// newRegistry builds a registry from settings. A history database that cannot be
// opened is logged and left out.
func newRegistry(s config.Settings, logger hclog.Logger) *session.Registry {
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithPrettyDebug(s.PrettyDebug),
	}
	if s.HistoryEnabled {
		store, err := history.Open(s.HistoryPath)
		if err != nil {
			logger.Warn("sort history disabled", "path", s.HistoryPath, "error", err)
		} else {
			logger.Debug("sort history enabled", "path", s.HistoryPath, "limit", s.HistoryLimit)
			opts = append(opts, session.WithHistory(store, s.HistoryLimit))
		}
	}
	return session.NewRegistry(opts...)
}

// detectGameType returns the game kind for an install directory, or detectNoPath
func detectGameType(installPath string) int {
	if installPath == "" {
		return detectNoPath
	}
	game, matched := loot.DetectGameType(installPath)
	if !matched {
		shared.LogDebug("detect", fmt.Sprintf("no game marker in %s, assuming %s", installPath, game))
	}
	return int(game)
}
