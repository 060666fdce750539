package details

import (
	"github.com/corrreia/lootshim/internal/jsonenc"
)

// Value builds the ordered document for the payload
func (p *Payload) Value() jsonenc.Value {
	obj := jsonenc.NewObject().
		String("name", p.Name).
		Bool("has_masterlist", p.HasMasterlist).
		Bool("has_user_metadata", p.HasUserMetadata).
		OptionalString("group", p.Group)

	obj.Array("load_after", fileValues(p.LoadAfter))
	obj.Array("requirements", fileValues(p.Requirements))
	obj.Array("incompatibilities", fileValues(p.Incompatibilities))
	obj.Array("tags", tagValues(p.Tags))
	obj.Array("messages", messageValues(p.Messages))
	obj.Array("dirty", cleaningValues(p.Dirty))
	obj.Array("clean", cleaningValues(p.Clean))
	return obj.Value()
}

// Encode serializes the payload
func (p *Payload) Encode() []byte {
	return jsonenc.Encode(p.Value())
}

// EncodeMessages serializes a bare message array
func EncodeMessages(entries []MessageEntry) []byte {
	return jsonenc.Encode(jsonenc.Array(messageValues(entries)...))
}

func fileValues(entries []FileEntry) []jsonenc.Value {
	out := make([]jsonenc.Value, 0, len(entries))
	for _, e := range entries {
		out = append(out, jsonenc.NewObject().
			String("name", e.Name).
			OptionalString("display", e.Display).
			OptionalString("detail", e.Detail).
			OptionalString("condition", e.Condition).
			OptionalString("constraint", e.Constraint).
			Value())
	}
	return out
}

func tagValues(entries []TagEntry) []jsonenc.Value {
	out := make([]jsonenc.Value, 0, len(entries))
	for _, e := range entries {
		out = append(out, jsonenc.NewObject().
			String("name", e.Name).
			String("suggestion", e.Suggestion).
			OptionalString("condition", e.Condition).
			Value())
	}
	return out
}

func messageValues(entries []MessageEntry) []jsonenc.Value {
	out := make([]jsonenc.Value, 0, len(entries))
	for _, e := range entries {
		out = append(out, jsonenc.NewObject().
			String("level", e.Level).
			String("text", e.Text).
			OptionalString("condition", e.Condition).
			Value())
	}
	return out
}

func cleaningValues(entries []CleaningEntry) []jsonenc.Value {
	out := make([]jsonenc.Value, 0, len(entries))
	for _, e := range entries {
		out = append(out, jsonenc.NewObject().
			String("crc", e.CRC).
			String("utility", e.Utility).
			Number("itm", int64(e.ITM)).
			Number("deleted_references", int64(e.DeletedReferences)).
			Number("deleted_navmeshes", int64(e.DeletedNavmeshes)).
			OptionalString("detail", e.Detail).
			Value())
	}
	return out
}
