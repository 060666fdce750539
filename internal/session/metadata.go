// This file contains the metadata operations of a session.
package session

import (
	"github.com/corrreia/lootshim/internal/details"
	"github.com/corrreia/lootshim/internal/history"
	"github.com/corrreia/lootshim/internal/jsonenc"
	"github.com/corrreia/lootshim/internal/loot"
	"github.com/corrreia/lootshim/internal/shared"
)

// LoadMasterlist loads the masterlist at path. A non-empty preludePath is loaded with it
// as a linked pair. Returns StatusOK or one of the Load* codes.
func (s *Session) LoadMasterlist(path, preludePath string) int {
	if path == "" {
		shared.SetLastError("load masterlist: path is empty")
		return LoadEmptyPath
	}

	var loadErr error
	err := s.game.Database().Write(func(db *loot.Database) error {
		if preludePath != "" {
			loadErr = db.LoadMasterlistWithPrelude(path, preludePath)
		} else {
			loadErr = db.LoadMasterlist(path)
		}
		return nil
	})
	if err != nil {
		return s.fail(LoadLockFailed, "load masterlist", err)
	}
	if loadErr != nil {
		return s.fail(LoadFailed, "load masterlist", loadErr)
	}

	s.logger.Info("masterlist loaded", "path", path, "prelude", preludePath)
	return StatusOK
}

// LoadUserlist loads the userlist at path. Returns StatusOK or one of the Load* codes.
func (s *Session) LoadUserlist(path string) int {
	if path == "" {
		shared.SetLastError("load userlist: path is empty")
		return LoadEmptyPath
	}

	var loadErr error
	err := s.game.Database().Write(func(db *loot.Database) error {
		loadErr = db.LoadUserlist(path)
		return nil
	})
	if err != nil {
		return s.fail(LoadLockFailed, "load userlist", err)
	}
	if loadErr != nil {
		return s.fail(LoadFailed, "load userlist", loadErr)
	}

	s.logger.Info("userlist loaded", "path", path)
	return StatusOK
}

// ClearUserMetadata discards every userlist entry. Returns StatusOK or ClearLockFailed.
func (s *Session) ClearUserMetadata() int {
	err := s.game.Database().Write(func(db *loot.Database) error {
		db.DiscardAllUserMetadata()
		return nil
	})
	if err != nil {
		return s.fail(ClearLockFailed, "clear user metadata", err)
	}
	s.logger.Debug("user metadata cleared")
	return StatusOK
}

// PluginDetails returns the encoded details payload for a plugin, or nil when name is
// empty or the database cannot be read
func (s *Session) PluginDetails(name string) []byte {
	if name == "" {
		return nil
	}

	var payload *details.Payload
	err := s.game.Database().Read(func(db *loot.Database) error {
		payload = details.Collect(db, name, s.logger.Named("details"))
		return nil
	})
	if err != nil {
		s.report("plugin details", err)
		return nil
	}

	out := payload.Encode()
	s.debugPayload("plugin details", out)
	return out
}

// GeneralMessages returns the encoded evaluated general messages, or nil when the
// database cannot be locked or the query fails
func (s *Session) GeneralMessages() []byte {
	var entries []details.MessageEntry
	err := s.game.Database().Write(func(db *loot.Database) error {
		var err error
		entries, err = details.CollectMessages(db)
		return err
	})
	if err != nil {
		s.report("general messages", err)
		return nil
	}

	out := details.EncodeMessages(entries)
	s.debugPayload("general messages", out)
	return out
}

// SortHistory returns the encoded recent sorts of this session's game and content
// directory, newest first. A limit of zero or less uses the registry limit. nil when no
// history is attached or the query fails.
func (s *Session) SortHistory(limit int) []byte {
	if s.history == nil {
		return nil
	}
	if limit <= 0 {
		limit = s.historyLimit
	}

	entries, err := s.history.Recent(s.game.Type().String(), s.contentDir, limit)
	if err != nil {
		s.report("sort history", err)
		return nil
	}
	return history.Encode(entries)
}

func (s *Session) debugPayload(what string, doc []byte) {
	if !s.logger.IsTrace() && !s.logger.IsDebug() {
		return
	}
	if s.prettyDebug {
		doc = jsonenc.Indent(doc)
	}
	s.logger.Debug("encoded "+what, "json", string(doc))
}
