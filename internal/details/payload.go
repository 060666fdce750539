// Package details flattens engine metadata into the plugin details and message payloads
// returned across the C boundary.
//
// This file contains the payload types and their conversion from engine metadata.
package details

import (
	"fmt"

	"github.com/corrreia/lootshim/internal/loot"
)

// Suggestion labels for tags
const (
	SuggestionAdd    = "add"
	SuggestionRemove = "remove"
)

// Message levels, in increasing severity
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// FileEntry is a flattened file reference. Empty optional fields are omitted when encoded.
type FileEntry struct {
	Name       string
	Display    string
	Detail     string
	Condition  string
	Constraint string
}

// TagEntry is a flattened Bash Tag suggestion
type TagEntry struct {
	Name       string
	Suggestion string
	Condition  string
}

// MessageEntry is a flattened message in the selected language
type MessageEntry struct {
	Level     string
	Text      string
	Condition string
}

// CleaningEntry is a flattened cleaning record
type CleaningEntry struct {
	CRC               string
	Utility           string
	ITM               uint32
	DeletedReferences uint32
	DeletedNavmeshes  uint32
	Detail            string
}

// Payload is everything reported for one plugin
type Payload struct {
	Name              string
	HasMasterlist     bool
	HasUserMetadata   bool
	Group             string
	LoadAfter         []FileEntry
	Requirements      []FileEntry
	Incompatibilities []FileEntry
	Tags              []TagEntry
	Messages          []MessageEntry
	Dirty             []CleaningEntry
	Clean             []CleaningEntry
}

// NewPayload creates a payload with no metadata applied
func NewPayload(name string, hasMasterlist, hasUserMetadata bool) *Payload {
	return &Payload{
		Name:            name,
		HasMasterlist:   hasMasterlist,
		HasUserMetadata: hasUserMetadata,
	}
}

// Apply replaces the payload body with the flattened metadata
func (p *Payload) Apply(m *loot.PluginMetadata) {
	if m == nil {
		return
	}
	p.Group = m.Group
	p.LoadAfter = fileEntries(m.LoadAfter)
	p.Requirements = fileEntries(m.Requirements)
	p.Incompatibilities = fileEntries(m.Incompatibilities)
	p.Tags = tagEntries(m.Tags)
	p.Messages = MessageEntries(m.Messages)
	p.Dirty = cleaningEntries(m.DirtyInfo)
	p.Clean = cleaningEntries(m.CleanInfo)
}

// DetailText resolves localized content to one string, preferring the default language.
// It returns "" when there is no variant.
func DetailText(contents []loot.MessageContent) string {
	c, ok := loot.SelectMessageContent(contents, loot.DefaultLanguage)
	if !ok {
		return ""
	}
	return c.Text
}

// Level returns the label for a message type
func Level(t loot.MessageType) string {
	switch t {
	case loot.MessageWarn:
		return LevelWarn
	case loot.MessageError:
		return LevelError
	default:
		return LevelInfo
	}
}

// Suggestion returns the label for a tag direction
func Suggestion(addition bool) string {
	if addition {
		return SuggestionAdd
	}
	return SuggestionRemove
}

// MessageEntries flattens messages. A message without any content is dropped.
func MessageEntries(messages []loot.Message) []MessageEntry {
	out := make([]MessageEntry, 0, len(messages))
	for _, m := range messages {
		if len(m.Content) == 0 {
			continue
		}
		out = append(out, MessageEntry{
			Level:     Level(m.Type),
			Text:      DetailText(m.Content),
			Condition: m.Condition,
		})
	}
	return out
}

// FormatCRC renders a checksum the way cleaning entries carry it
func FormatCRC(crc uint32) string {
	return fmt.Sprintf("0x%08X", crc)
}

func fileEntries(files []loot.File) []FileEntry {
	out := make([]FileEntry, 0, len(files))
	for _, f := range files {
		out = append(out, FileEntry{
			Name:       f.Name,
			Display:    f.DisplayName,
			Detail:     DetailText(f.Detail),
			Condition:  f.Condition,
			Constraint: f.Constraint,
		})
	}
	return out
}

func tagEntries(tags []loot.Tag) []TagEntry {
	out := make([]TagEntry, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagEntry{
			Name:       t.Name,
			Suggestion: Suggestion(t.Addition),
			Condition:  t.Condition,
		})
	}
	return out
}

func cleaningEntries(records []loot.CleaningData) []CleaningEntry {
	out := make([]CleaningEntry, 0, len(records))
	for _, c := range records {
		out = append(out, CleaningEntry{
			CRC:               FormatCRC(c.CRC),
			Utility:           c.CleaningUtility,
			ITM:               c.ITMCount,
			DeletedReferences: c.DeletedReferenceCount,
			DeletedNavmeshes:  c.DeletedNavmeshCount,
			Detail:            DetailText(c.Detail),
		})
	}
	return out
}
