// Package session owns the per-game sessions handed to the host.
// This file contains the handle registry.
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/corrreia/lootshim/internal/config"
	"github.com/corrreia/lootshim/internal/history"
	"github.com/corrreia/lootshim/internal/loot"
	"github.com/corrreia/lootshim/internal/shared"
)

// Handle is the opaque key the host holds for a session
type Handle uintptr

// NullHandle is never assigned to a session
const NullHandle Handle = 0

// Registry maps handles to live sessions
type Registry struct {
	mu       sync.RWMutex
	next     Handle
	sessions map[Handle]*Session

	logger       hclog.Logger
	history      *history.Store
	historyLimit int
	prettyDebug  bool
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger sessions are named under
func WithLogger(logger hclog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithHistory records successful sorts in store, keeping limit sorts per game and
// data path. A limit of zero or less uses config.DefaultHistoryLimit.
func WithHistory(store *history.Store, limit int) Option {
	return func(r *Registry) {
		r.history = store
		if limit > 0 {
			r.historyLimit = limit
		}
	}
}

// WithPrettyDebug indents encoded payloads in debug logs
func WithPrettyDebug(enabled bool) Option {
	return func(r *Registry) {
		r.prettyDebug = enabled
	}
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions:     make(map[Handle]*Session),
		logger:       hclog.NewNullLogger(),
		historyLimit: config.DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create builds a session for a game and registers it.
//
// installPath is the real game directory and must name an existing directory.
// A non-empty dataPath is the virtual content directory: it becomes the engine's local
// path and an additional data path, and it is the directory scanned by Sort. An empty
// dataPath makes installPath serve all three roles. Any failure returns NullHandle and
// registers nothing.
func (r *Registry) Create(gameKind int, dataPath, installPath string) Handle {
	if installPath == "" {
		shared.SetLastError("create: install path is empty")
		return NullHandle
	}
	gameType, err := loot.ParseGameType(gameKind)
	if err != nil {
		shared.SetLastError("create: %v", err)
		return NullHandle
	}

	id := uuid.New()
	logger := r.logger.Named("session").With("session", id.String())

	localPath := installPath
	if dataPath != "" {
		localPath = dataPath
	}
	game, err := loot.NewGame(gameType, installPath, localPath, loot.WithLogger(logger.Named("engine")))
	if err != nil {
		logger.Warn("engine construction failed", "game", gameType, "install", installPath, "error", err)
		shared.SetLastError("create: %v", err)
		return NullHandle
	}

	contentDir := installPath
	if dataPath != "" {
		// Only an empty path is rejected, so this cannot fail.
		_ = game.SetAdditionalDataPaths([]string{dataPath})
		contentDir = dataPath
	}

	s := &Session{
		ID:           id,
		game:         game,
		contentDir:   contentDir,
		logger:       logger,
		history:      r.history,
		historyLimit: r.historyLimit,
		prettyDebug:  r.prettyDebug,
	}

	r.mu.Lock()
	r.next++
	h := r.next
	r.sessions[h] = s
	r.mu.Unlock()

	logger.Info("session created", "game", gameType, "install", installPath, "content", contentDir)
	return h
}

// Destroy removes a session. Unknown handles are ignored.
func (r *Registry) Destroy(h Handle) {
	if h == NullHandle {
		return
	}
	r.mu.Lock()
	s, ok := r.sessions[h]
	delete(r.sessions, h)
	r.mu.Unlock()

	if ok {
		s.logger.Debug("session destroyed")
	}
}

// Get returns the session for a handle
func (r *Registry) Get(h Handle) (*Session, bool) {
	if h == NullHandle {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[h]
	return s, ok
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ============================================================
// Handle operations
// ============================================================

// Sort runs Session.Sort for a handle
func (r *Registry) Sort(h Handle) int {
	s, ok := r.Get(h)
	if !ok {
		return SortNullHandle
	}
	return s.Sort()
}

// SortedOrder returns the cached order for a handle, nil when there is none
func (r *Registry) SortedOrder(h Handle) []string {
	s, ok := r.Get(h)
	if !ok {
		return nil
	}
	return s.SortedOrder()
}

// LoadMasterlist runs Session.LoadMasterlist for a handle
func (r *Registry) LoadMasterlist(h Handle, path, preludePath string) int {
	s, ok := r.Get(h)
	if !ok {
		return LoadNullHandle
	}
	return s.LoadMasterlist(path, preludePath)
}

// LoadUserlist runs Session.LoadUserlist for a handle
func (r *Registry) LoadUserlist(h Handle, path string) int {
	s, ok := r.Get(h)
	if !ok {
		return LoadNullHandle
	}
	return s.LoadUserlist(path)
}

// ClearUserMetadata runs Session.ClearUserMetadata for a handle
func (r *Registry) ClearUserMetadata(h Handle) int {
	s, ok := r.Get(h)
	if !ok {
		return ClearNullHandle
	}
	return s.ClearUserMetadata()
}

// PluginDetails runs Session.PluginDetails for a handle
func (r *Registry) PluginDetails(h Handle, name string) []byte {
	s, ok := r.Get(h)
	if !ok {
		return nil
	}
	return s.PluginDetails(name)
}

// GeneralMessages runs Session.GeneralMessages for a handle
func (r *Registry) GeneralMessages(h Handle) []byte {
	s, ok := r.Get(h)
	if !ok {
		return nil
	}
	return s.GeneralMessages()
}

// SortHistory runs Session.SortHistory for a handle
func (r *Registry) SortHistory(h Handle, limit int) []byte {
	s, ok := r.Get(h)
	if !ok {
		return nil
	}
	return s.SortHistory(limit)
}
