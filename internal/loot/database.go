package loot

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// ErrLockPoisoned is returned when the database lock was held by a writer that panicked
var ErrLockPoisoned = errors.New("database lock poisoned")

// DatabaseLock guards a Database with shared-read and exclusive-write access.
// A panic inside Write poisons the lock; every later acquisition fails with ErrLockPoisoned.
type DatabaseLock struct {
	mu       sync.RWMutex
	poisoned atomic.Bool
	db       *Database
}

// Read runs fn with shared access to the database
func (l *DatabaseLock) Read(fn func(db *Database) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.poisoned.Load() {
		return ErrLockPoisoned
	}
	return fn(l.db)
}

// Write runs fn with exclusive access to the database
func (l *DatabaseLock) Write(fn func(db *Database) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.poisoned.Load() {
		return ErrLockPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			l.poisoned.Store(true)
			panic(r)
		}
	}()
	return fn(l.db)
}

// Poisoned reports whether the lock can no longer be acquired
func (l *DatabaseLock) Poisoned() bool {
	return l.poisoned.Load()
}

// Database holds the masterlist and userlist metadata for one game
type Database struct {
	masterlist *metadataList
	userlist   *metadataList
	eval       *evaluator
}

func newDatabase(state gameState) *Database {
	return &Database{
		masterlist: newMetadataList(),
		userlist:   newMetadataList(),
		eval:       &evaluator{state: state, cache: newConditionCache()},
	}
}

// LoadMasterlist replaces the masterlist with the file at path
func (d *Database) LoadMasterlist(path string) error {
	list, err := readMetadataList(path)
	if err != nil {
		return fmt.Errorf("load masterlist: %w", err)
	}
	d.masterlist = list
	d.eval.cache.clear()
	return nil
}

// LoadMasterlistWithPrelude loads a masterlist whose prelude block is replaced by the
// contents of the prelude file before parsing
func (d *Database) LoadMasterlistWithPrelude(path, preludePath string) error {
	masterlist, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load masterlist: %w", err)
	}
	prelude, err := os.ReadFile(preludePath)
	if err != nil {
		return fmt.Errorf("load prelude: %w", err)
	}

	list, err := parseMetadataList([]byte(replacePrelude(string(masterlist), string(prelude))))
	if err != nil {
		return fmt.Errorf("load masterlist: %w", err)
	}
	d.masterlist = list
	d.eval.cache.clear()
	return nil
}

// LoadUserlist replaces the user metadata with the file at path
func (d *Database) LoadUserlist(path string) error {
	list, err := readMetadataList(path)
	if err != nil {
		return fmt.Errorf("load userlist: %w", err)
	}
	d.userlist = list
	d.eval.cache.clear()
	return nil
}

// DiscardAllUserMetadata drops every userlist entry, group and message
func (d *Database) DiscardAllUserMetadata() {
	d.userlist = newMetadataList()
	d.eval.cache.clear()
}

// ClearConditionCache forgets cached condition results
func (d *Database) ClearConditionCache() {
	d.eval.cache.clear()
}

// KnownBashTags returns the Bash Tags declared by both lists
func (d *Database) KnownBashTags() []string {
	tags := append([]string(nil), d.masterlist.bashTags...)
	return append(tags, d.userlist.bashTags...)
}

// PluginMetadata returns the metadata for a plugin, or nil if no entry matches.
// includeUser layers the userlist on top of the masterlist; evaluate drops entries
// whose conditions are false and cleaning records for other checksums.
func (d *Database) PluginMetadata(name string, includeUser, evaluate bool) (*PluginMetadata, error) {
	metadata, found := d.masterlist.find(name)
	if includeUser {
		if user, ok := d.userlist.find(name); ok {
			if !found {
				metadata, found = user, true
			} else {
				metadata.MergeMetadata(user)
			}
		}
	}
	if !found {
		return nil, nil
	}
	if evaluate {
		return d.evaluateMetadata(metadata)
	}
	return metadata, nil
}

// PluginUserMetadata returns the userlist metadata for a plugin, or nil if none exists
func (d *Database) PluginUserMetadata(name string, evaluate bool) (*PluginMetadata, error) {
	metadata, found := d.userlist.find(name)
	if !found {
		return nil, nil
	}
	if evaluate {
		return d.evaluateMetadata(metadata)
	}
	return metadata, nil
}

// GeneralMessages returns the masterlist and userlist global messages
func (d *Database) GeneralMessages(evaluate bool) ([]Message, error) {
	messages := append([]Message(nil), d.masterlist.messages...)
	messages = append(messages, d.userlist.messages...)
	if !evaluate {
		return messages, nil
	}
	return d.filterMessages(messages)
}

// Groups returns the defined groups with userlist groups layered on top.
// The default group always exists.
func (d *Database) Groups(includeUser bool) []Group {
	groups := []Group{{Name: DefaultGroup}}
	index := map[string]int{DefaultGroup: 0}

	add := func(g Group) {
		if i, ok := index[g.Name]; ok {
			merged := groups[i]
			if g.Description != "" {
				merged.Description = g.Description
			}
			for _, after := range g.AfterGroups {
				if !containsString(merged.AfterGroups, after) {
					merged.AfterGroups = append(merged.AfterGroups, after)
				}
			}
			groups[i] = merged
			return
		}
		index[g.Name] = len(groups)
		groups = append(groups, Group{
			Name:        g.Name,
			Description: g.Description,
			AfterGroups: append([]string(nil), g.AfterGroups...),
		})
	}

	for _, g := range d.masterlist.groups {
		add(g)
	}
	if includeUser {
		for _, g := range d.userlist.groups {
			add(g)
		}
	}
	return groups
}

func (d *Database) evaluateMetadata(m *PluginMetadata) (*PluginMetadata, error) {
	var err error
	if m.LoadAfter, err = d.filterFiles(m.LoadAfter); err != nil {
		return nil, err
	}
	if m.Requirements, err = d.filterFiles(m.Requirements); err != nil {
		return nil, err
	}
	if m.Incompatibilities, err = d.filterFiles(m.Incompatibilities); err != nil {
		return nil, err
	}
	if m.Messages, err = d.filterMessages(m.Messages); err != nil {
		return nil, err
	}

	tags := m.Tags[:0]
	for _, t := range m.Tags {
		ok, err := d.eval.evaluate(t.Condition)
		if err != nil {
			return nil, err
		}
		if ok {
			tags = append(tags, t)
		}
	}
	m.Tags = tags

	m.DirtyInfo = d.filterCleaning(m.Name, m.DirtyInfo)
	m.CleanInfo = d.filterCleaning(m.Name, m.CleanInfo)
	return m, nil
}

func (d *Database) filterFiles(files []File) ([]File, error) {
	out := files[:0]
	for _, f := range files {
		ok, err := d.eval.evaluate(f.Condition)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (d *Database) filterMessages(messages []Message) ([]Message, error) {
	out := messages[:0]
	for _, m := range messages {
		ok, err := d.eval.evaluate(m.Condition)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (d *Database) filterCleaning(pluginName string, records []CleaningData) []CleaningData {
	out := records[:0]
	for _, c := range records {
		if d.eval.checksumMatches(pluginName, c.CRC) {
			out = append(out, c)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
