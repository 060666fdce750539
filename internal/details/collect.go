package details

import (
	"github.com/hashicorp/go-hclog"

	"github.com/corrreia/lootshim/internal/loot"
)

// Collect builds the payload for one plugin from an already locked database.
//
// The merged, masterlist-only and user-only queries are independent: a failure in any
// of them is logged and treated as "no entry", so the result is always a complete payload.
func Collect(db *loot.Database, name string, logger hclog.Logger) *Payload {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	merged, err := db.PluginMetadata(name, true, true)
	if err != nil {
		logger.Warn("merged metadata query failed", "plugin", name, "error", err)
		merged = nil
	}

	masterlist, err := db.PluginMetadata(name, false, true)
	if err != nil {
		logger.Warn("masterlist metadata query failed", "plugin", name, "error", err)
		masterlist = nil
	}

	user, err := db.PluginUserMetadata(name, true)
	if err != nil {
		logger.Warn("user metadata query failed", "plugin", name, "error", err)
		user = nil
	}

	payload := NewPayload(name, masterlist != nil, user != nil)
	payload.Apply(merged)
	return payload
}

// CollectMessages returns the evaluated general messages from a locked database
func CollectMessages(db *loot.Database) ([]MessageEntry, error) {
	messages, err := db.GeneralMessages(true)
	if err != nil {
		return nil, err
	}
	return MessageEntries(messages), nil
}
