// This file contains the session and its sort pipeline.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/corrreia/lootshim/internal/history"
	"github.com/corrreia/lootshim/internal/loot"
	"github.com/corrreia/lootshim/internal/marshal"
	"github.com/corrreia/lootshim/internal/scanner"
	"github.com/corrreia/lootshim/internal/shared"
)

// Session is one game handle: an engine instance, the directory its plugins are
// discovered in and the result of the last sort
type Session struct {
	ID uuid.UUID

	game       *loot.Game
	contentDir string
	logger     hclog.Logger

	history      *history.Store
	historyLimit int
	prettyDebug  bool

	mu     sync.Mutex
	sorted []string
}

// Game returns the session's engine instance
func (s *Session) Game() *loot.Game { return s.game }

// ContentDir returns the directory scanned for plugins
func (s *Session) ContentDir() string { return s.contentDir }

// Sort discovers the plugins in the content directory, loads their headers and sorts
// them, caching the result. The cache is cleared first, so a failed sort leaves it
// empty. Returns StatusOK or one of the Sort* codes.
func (s *Session) Sort() int {
	start := time.Now()
	s.setSorted(nil)

	found, err := scanner.Scan(s.contentDir)
	if err != nil {
		return s.fail(SortDirRead, "sort", err)
	}
	if found.Len() == 0 {
		s.logger.Info("no plugins found", "dir", s.contentDir)
		return StatusOK
	}

	if err := s.game.LoadPluginHeaders(found.Paths); err != nil {
		return s.fail(SortHeaderLoad, "sort", err)
	}

	sorted, err := s.game.SortPlugins(found.Names)
	if err != nil {
		var cycle *loot.CyclicInteractionError
		if errors.As(err, &cycle) {
			s.logger.Warn("load order constraints form a cycle", "cycle", cycle.Cycle)
		}
		return s.fail(SortFailed, "sort", err)
	}

	s.setSorted(sorted)
	s.logger.Info("sorted plugins",
		"count", len(sorted),
		"size", humanize.Bytes(uint64(found.TotalSize)),
		"elapsed", time.Since(start).String())

	s.recordSort(sorted)
	return StatusOK
}

// SortedOrder returns the cached order of the last successful sort, without names
// that cannot cross the C boundary. nil when nothing is cached.
func (s *Session) SortedOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return marshal.Terminable(s.sorted)
}

func (s *Session) setSorted(names []string) {
	s.mu.Lock()
	s.sorted = names
	s.mu.Unlock()
}

// fail reports err and returns code
func (s *Session) fail(code int, op string, err error) int {
	s.report(op, err, "code", code)
	return code
}

// report logs a failed operation and records it as the last error
func (s *Session) report(op string, err error, args ...interface{}) {
	s.logger.Error(op+" failed", append(args, "error", err)...)
	shared.SetLastError("%s: %v", op, err)
}

// recordSort stores a successful sort in the history, if one is attached.
// Failures are logged and never change the sort result.
func (s *Session) recordSort(sorted []string) {
	if s.history == nil {
		return
	}
	game := s.game.Type().String()

	id, err := s.history.Record(history.Entry{
		SessionID: s.ID.String(),
		Game:      game,
		DataPath:  s.contentDir,
		Plugins:   sorted,
	})
	if err != nil {
		s.logger.Warn("failed to record sort", "error", err)
		return
	}
	if removed, err := s.history.Prune(game, s.contentDir, s.historyLimit); err != nil {
		s.logger.Warn("failed to prune sort history", "error", err)
	} else if removed > 0 {
		s.logger.Debug("pruned sort history", "removed", removed)
	}
	s.logger.Debug("recorded sort", "id", id, "plugins", humanize.Comma(int64(len(sorted))))
}
