package loot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-hclog"
)

// ErrPluginNotLoaded is returned when sorting a plugin whose header was never loaded
var ErrPluginNotLoaded = errors.New("plugin not loaded")

// Game is the engine instance for one game install
type Game struct {
	gameType    GameType
	installPath string
	localPath   string
	dataPath    string
	logger      hclog.Logger

	mu              sync.RWMutex
	additionalPaths []string
	plugins         map[string]*Plugin // by folded name

	database *DatabaseLock
}

// Option configures a Game
type Option func(*Game)

// WithLogger sets the logger used by the game
func WithLogger(logger hclog.Logger) Option {
	return func(g *Game) {
		g.logger = logger
	}
}

// NewGame creates an engine instance for the game installed at installPath.
// localPath is where the game's local application data would live; it does not
// need to exist.
func NewGame(gameType GameType, installPath, localPath string, opts ...Option) (*Game, error) {
	if _, err := ParseGameType(int(gameType)); err != nil {
		return nil, err
	}
	info, err := os.Stat(installPath)
	if err != nil {
		return nil, fmt.Errorf("game path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("game path %q is not a directory", installPath)
	}

	g := &Game{
		gameType:    gameType,
		installPath: installPath,
		localPath:   localPath,
		dataPath:    gameType.dataPath(installPath),
		logger:      hclog.NewNullLogger(),
		plugins:     make(map[string]*Plugin),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.database = &DatabaseLock{db: newDatabase(g)}
	return g, nil
}

// Type returns the game type
func (g *Game) Type() GameType { return g.gameType }

// InstallPath returns the game install directory
func (g *Game) InstallPath() string { return g.installPath }

// LocalPath returns the game's local data directory
func (g *Game) LocalPath() string { return g.localPath }

// DataPath returns the game's own data directory
func (g *Game) DataPath() string { return g.dataPath }

// Database returns the lock guarding the game's metadata database
func (g *Game) Database() *DatabaseLock { return g.database }

// SetAdditionalDataPaths sets directories searched for data files before the game's
// own data path, highest priority first
func (g *Game) SetAdditionalDataPaths(paths []string) error {
	for _, p := range paths {
		if p == "" {
			return errors.New("additional data path is empty")
		}
	}

	g.mu.Lock()
	g.additionalPaths = append([]string(nil), paths...)
	g.mu.Unlock()

	g.database.db.ClearConditionCache()
	return nil
}

// AdditionalDataPaths returns the configured additional data paths
func (g *Game) AdditionalDataPaths() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.additionalPaths...)
}

// LoadPluginHeaders reads the header of every plugin at paths and replaces the set of
// loaded plugins. Any failure leaves the previous set in place.
func (g *Game) LoadPluginHeaders(paths []string) error {
	start := time.Now()

	loaded := make(map[string]*Plugin, len(paths))
	var total int64
	for _, path := range paths {
		p, err := LoadPluginHeader(g.gameType, path)
		if err != nil {
			return fmt.Errorf("load plugin headers: %w", err)
		}
		key := foldName(p.Name())
		if _, dup := loaded[key]; dup {
			return fmt.Errorf("load plugin headers: %q given more than once", p.Name())
		}
		loaded[key] = p
		total += p.Size()
	}

	g.mu.Lock()
	g.plugins = loaded
	g.mu.Unlock()

	g.database.db.ClearConditionCache()

	g.logger.Debug("loaded plugin headers",
		"count", len(loaded),
		"size", humanize.Bytes(uint64(total)),
		"elapsed", time.Since(start).String())
	return nil
}

// Plugin returns a loaded plugin by name
func (g *Game) Plugin(name string) (*Plugin, bool) {
	return g.loadedPlugin(name)
}

// LoadedPlugins returns every loaded plugin in no particular order
func (g *Game) LoadedPlugins() []*Plugin {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*Plugin, 0, len(g.plugins))
	for _, p := range g.plugins {
		out = append(out, p)
	}
	return out
}

// ============================================================
// gameState
// ============================================================

func (g *Game) dataDirs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	dirs := make([]string, 0, len(g.additionalPaths)+1)
	dirs = append(dirs, g.additionalPaths...)
	return append(dirs, g.dataPath)
}

func (g *Game) resolveDataFile(rel string) (string, bool) {
	for _, dir := range g.dataDirs() {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (g *Game) loadedPlugin(name string) (*Plugin, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.plugins[foldName(name)]
	return p, ok
}

func (g *Game) loadedPluginNames() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.plugins))
	for _, p := range g.plugins {
		names = append(names, p.Name())
	}
	return names
}
