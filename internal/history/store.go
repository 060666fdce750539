// Package history records successful sorts in a SQLite database so a host can show
// how the load order changed between runs.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"
	_ "modernc.org/sqlite"

	"github.com/corrreia/lootshim/internal/jsonenc"
)

// Entry is one recorded sort
type Entry struct {
	ID        int64
	SessionID string
	Game      string
	DataPath  string
	Plugins   []string
	SortedAt  time.Time
}

// Store is a sort history database
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	return newStore(db)
}

// OpenMemory opens a private in-memory history database
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	return newStore(db)
}

func newStore(db *sql.DB) (*Store, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

// migrate creates the history table
func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sort_history (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id   TEXT    NOT NULL,
			game         TEXT    NOT NULL,
			data_path    TEXT    NOT NULL,
			plugins      TEXT    NOT NULL,
			plugin_count INTEGER NOT NULL DEFAULT 0,
			sorted_at    INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS sort_history_target
			ON sort_history(game, data_path, id);
	`)
	return err
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a sort and returns its row ID. A zero SortedAt is set to now.
func (s *Store) Record(e Entry) (int64, error) {
	if e.SortedAt.IsZero() {
		e.SortedAt = time.Now()
	}
	plugins := jsonenc.Encode(jsonenc.Strings(e.Plugins))

	res, err := s.db.Exec(
		`INSERT INTO sort_history (session_id, game, data_path, plugins, plugin_count, sorted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Game, e.DataPath, string(plugins), len(e.Plugins), e.SortedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("record sort: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit sorts for a game and data path, newest first
func (s *Store) Recent(game, dataPath string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, game, data_path, plugins, sorted_at
		 FROM sort_history
		 WHERE game = ? AND data_path = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		game, dataPath, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var plugins string
		var sortedAt int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Game, &e.DataPath, &plugins, &sortedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Plugins = decodePlugins(plugins)
		e.SortedAt = time.UnixMilli(sortedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune keeps only the newest keep sorts for a game and data path.
// It returns the number of rows removed.
func (s *Store) Prune(game, dataPath string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.Exec(
		`DELETE FROM sort_history
		 WHERE game = ? AND data_path = ? AND id NOT IN (
			SELECT id FROM sort_history
			WHERE game = ? AND data_path = ?
			ORDER BY id DESC
			LIMIT ?
		 )`,
		game, dataPath, game, dataPath, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

// decodePlugins reads the stored JSON array of names
func decodePlugins(doc string) []string {
	arr := gjson.Parse(doc).Array()
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		out = append(out, v.String())
	}
	return out
}
