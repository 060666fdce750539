package loot

// DefaultLanguage is the language preferred when selecting localized content
const DefaultLanguage = "en"

// DefaultGroup is the group plugins belong to when metadata names none
const DefaultGroup = "default"

// MessageContent is one language variant of a localized text
type MessageContent struct {
	Text     string
	Language string
}

// SelectMessageContent picks the variant for language, falling back to the first one.
// The boolean is false only for an empty list.
func SelectMessageContent(contents []MessageContent, language string) (MessageContent, bool) {
	if len(contents) == 0 {
		return MessageContent{}, false
	}
	for _, c := range contents {
		if c.Language == language {
			return c, true
		}
	}
	return contents[0], true
}

// File is a file reference in plugin metadata
type File struct {
	Name        string
	DisplayName string
	Detail      []MessageContent
	Condition   string
	Constraint  string
}

// Tag is a Bash Tag suggestion
type Tag struct {
	Name      string
	Addition  bool
	Condition string
}

// MessageType is the severity of a message
type MessageType int

const (
	MessageSay MessageType = iota
	MessageWarn
	MessageError
)

// String returns the masterlist keyword for the type
func (t MessageType) String() string {
	switch t {
	case MessageWarn:
		return "warn"
	case MessageError:
		return "error"
	default:
		return "say"
	}
}

// Message is a localized note attached to a plugin or to the whole game
type Message struct {
	Type      MessageType
	Content   []MessageContent
	Condition string
}

// CleaningData records ITM and deleted record counts for one plugin checksum
type CleaningData struct {
	CRC                   uint32
	ITMCount              uint32
	DeletedReferenceCount uint32
	DeletedNavmeshCount   uint32
	CleaningUtility       string
	Detail                []MessageContent
}

// Group is a named plugin group and the groups it loads after
type Group struct {
	Name        string
	Description string
	AfterGroups []string
}

// PluginMetadata is the metadata recorded for a plugin in a metadata list
type PluginMetadata struct {
	Name              string
	Group             string
	LoadAfter         []File
	Requirements      []File
	Incompatibilities []File
	Messages          []Message
	Tags              []Tag
	DirtyInfo         []CleaningData
	CleanInfo         []CleaningData
}

// HasNameOnly reports whether nothing but the name is set
func (m *PluginMetadata) HasNameOnly() bool {
	return m.Group == "" &&
		len(m.LoadAfter) == 0 &&
		len(m.Requirements) == 0 &&
		len(m.Incompatibilities) == 0 &&
		len(m.Messages) == 0 &&
		len(m.Tags) == 0 &&
		len(m.DirtyInfo) == 0 &&
		len(m.CleanInfo) == 0
}

// Clone returns a deep enough copy for independent slice mutation
func (m *PluginMetadata) Clone() *PluginMetadata {
	c := *m
	c.LoadAfter = append([]File(nil), m.LoadAfter...)
	c.Requirements = append([]File(nil), m.Requirements...)
	c.Incompatibilities = append([]File(nil), m.Incompatibilities...)
	c.Messages = append([]Message(nil), m.Messages...)
	c.Tags = append([]Tag(nil), m.Tags...)
	c.DirtyInfo = append([]CleaningData(nil), m.DirtyInfo...)
	c.CleanInfo = append([]CleaningData(nil), m.CleanInfo...)
	return &c
}

// MergeMetadata layers other on top of m. A group in other replaces m's group;
// file and tag lists gain entries they do not already hold, messages are appended and
// cleaning records are unique per checksum.
func (m *PluginMetadata) MergeMetadata(other *PluginMetadata) {
	if other == nil {
		return
	}
	if other.Group != "" {
		m.Group = other.Group
	}
	m.LoadAfter = mergeFiles(m.LoadAfter, other.LoadAfter)
	m.Requirements = mergeFiles(m.Requirements, other.Requirements)
	m.Incompatibilities = mergeFiles(m.Incompatibilities, other.Incompatibilities)
	m.Messages = append(m.Messages, other.Messages...)
	m.Tags = mergeTags(m.Tags, other.Tags)
	m.DirtyInfo = mergeCleaning(m.DirtyInfo, other.DirtyInfo)
	m.CleanInfo = mergeCleaning(m.CleanInfo, other.CleanInfo)
}

func mergeFiles(into, from []File) []File {
	for _, f := range from {
		if !containsFile(into, f) {
			into = append(into, f)
		}
	}
	return into
}

func containsFile(files []File, f File) bool {
	for _, existing := range files {
		if namesEqual(existing.Name, f.Name) &&
			existing.Condition == f.Condition &&
			existing.Constraint == f.Constraint {
			return true
		}
	}
	return false
}

func mergeTags(into, from []Tag) []Tag {
	for _, t := range from {
		found := false
		for _, existing := range into {
			if existing == t {
				found = true
				break
			}
		}
		if !found {
			into = append(into, t)
		}
	}
	return into
}

func mergeCleaning(into, from []CleaningData) []CleaningData {
	for _, c := range from {
		found := false
		for _, existing := range into {
			if existing.CRC == c.CRC {
				found = true
				break
			}
		}
		if !found {
			into = append(into, c)
		}
	}
	return into
}
