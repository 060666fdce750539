package history

import (
	"time"

	"github.com/corrreia/lootshim/internal/jsonenc"
)

// Encode serializes entries as an array of {id, session, sorted_at, plugins} objects.
// sorted_at is RFC 3339 in UTC.
func Encode(entries []Entry) []byte {
	items := make([]jsonenc.Value, 0, len(entries))
	for _, e := range entries {
		items = append(items, jsonenc.NewObject().
			Number("id", e.ID).
			String("session", e.SessionID).
			String("sorted_at", e.SortedAt.UTC().Format(time.RFC3339)).
			Field("plugins", jsonenc.Strings(e.Plugins)).
			Value())
	}
	return jsonenc.Encode(jsonenc.Array(items...))
}
