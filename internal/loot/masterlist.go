package loot

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// regexChars mark a plugin entry name as a regular expression
const regexChars = `:\*?|`

// metadataList is one parsed masterlist or userlist
type metadataList struct {
	plugins      map[string]PluginMetadata // by folded name
	regexPlugins []regexEntry
	groups       []Group
	messages     []Message
	bashTags     []string
}

// regexEntry is a plugin entry whose name matches several plugins
type regexEntry struct {
	re       *regexp.Regexp
	metadata PluginMetadata
}

func newMetadataList() *metadataList {
	return &metadataList{plugins: make(map[string]PluginMetadata)}
}

// find returns the merged metadata of the exact entry and every matching regex entry
func (l *metadataList) find(name string) (*PluginMetadata, bool) {
	if l == nil {
		return nil, false
	}

	var result *PluginMetadata
	if m, ok := l.plugins[foldName(name)]; ok {
		result = m.Clone()
	}
	for _, entry := range l.regexPlugins {
		if !entry.re.MatchString(name) {
			continue
		}
		if result == nil {
			result = entry.metadata.Clone()
			continue
		}
		result.MergeMetadata(&entry.metadata)
	}
	if result == nil {
		return nil, false
	}
	result.Name = name
	return result, true
}

// ============================================================
// YAML Documents
// ============================================================

type yamlMetadataList struct {
	BashTags []string      `yaml:"bash_tags"`
	Globals  []yamlMessage `yaml:"globals"`
	Groups   []yamlGroup   `yaml:"groups"`
	Plugins  []yamlPlugin  `yaml:"plugins"`
}

type yamlGroup struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	After       []string `yaml:"after"`
}

type yamlPlugin struct {
	Name         string         `yaml:"name"`
	Group        string         `yaml:"group"`
	After        []yamlFile     `yaml:"after"`
	Requirements []yamlFile     `yaml:"req"`
	Incompatible []yamlFile     `yaml:"inc"`
	Messages     []yamlMessage  `yaml:"msg"`
	Tags         []yamlTag      `yaml:"tag"`
	Dirty        []yamlCleaning `yaml:"dirty"`
	Clean        []yamlCleaning `yaml:"clean"`
}

// yamlContent accepts a plain string or a list of {text, lang} variants
type yamlContent []MessageContent

func (c *yamlContent) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*c = yamlContent{{Text: node.Value, Language: DefaultLanguage}}
		return nil
	}
	var variants []struct {
		Text string `yaml:"text"`
		Lang string `yaml:"lang"`
	}
	if err := node.Decode(&variants); err != nil {
		return err
	}
	out := make(yamlContent, 0, len(variants))
	for _, v := range variants {
		out = append(out, MessageContent{Text: v.Text, Language: v.Lang})
	}
	*c = out
	return nil
}

// yamlFile accepts a bare file name or the full map form
type yamlFile File

func (f *yamlFile) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*f = yamlFile{Name: node.Value}
		return nil
	}
	var raw struct {
		Name       string      `yaml:"name"`
		Display    string      `yaml:"display"`
		Detail     yamlContent `yaml:"detail"`
		Condition  string      `yaml:"condition"`
		Constraint string      `yaml:"constraint"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Name == "" {
		return fmt.Errorf("line %d: file entry without a name", node.Line)
	}
	*f = yamlFile{
		Name:        raw.Name,
		DisplayName: raw.Display,
		Detail:      raw.Detail,
		Condition:   raw.Condition,
		Constraint:  raw.Constraint,
	}
	return nil
}

// yamlTag accepts "Name", "-Name" or {name, condition}; a leading '-' marks a removal
type yamlTag Tag

func (t *yamlTag) UnmarshalYAML(node *yaml.Node) error {
	var name, condition string
	if node.Kind == yaml.ScalarNode {
		name = node.Value
	} else {
		var raw struct {
			Name      string `yaml:"name"`
			Condition string `yaml:"condition"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		name, condition = raw.Name, raw.Condition
	}
	addition := !strings.HasPrefix(name, "-")
	name = strings.TrimPrefix(name, "-")
	if name == "" {
		return fmt.Errorf("line %d: tag entry without a name", node.Line)
	}
	*t = yamlTag{Name: name, Addition: addition, Condition: condition}
	return nil
}

type yamlMessage Message

func (m *yamlMessage) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Type      string      `yaml:"type"`
		Content   yamlContent `yaml:"content"`
		Condition string      `yaml:"condition"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	var typ MessageType
	switch raw.Type {
	case "say", "":
		typ = MessageSay
	case "warn":
		typ = MessageWarn
	case "error":
		typ = MessageError
	default:
		return fmt.Errorf("line %d: unknown message type %q", node.Line, raw.Type)
	}
	*m = yamlMessage{Type: typ, Content: raw.Content, Condition: raw.Condition}
	return nil
}

type yamlCleaning CleaningData

func (c *yamlCleaning) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		CRC    yaml.Node   `yaml:"crc"`
		Util   string      `yaml:"util"`
		ITM    uint32      `yaml:"itm"`
		UDR    uint32      `yaml:"udr"`
		Nav    uint32      `yaml:"nav"`
		Detail yamlContent `yaml:"detail"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	crc, err := strconv.ParseUint(raw.CRC.Value, 0, 32)
	if err != nil {
		return fmt.Errorf("line %d: invalid crc %q", node.Line, raw.CRC.Value)
	}
	*c = yamlCleaning{
		CRC:                   uint32(crc),
		ITMCount:              raw.ITM,
		DeletedReferenceCount: raw.UDR,
		DeletedNavmeshCount:   raw.Nav,
		CleaningUtility:       raw.Util,
		Detail:                raw.Detail,
	}
	return nil
}

// ============================================================
// Parsing
// ============================================================

// readMetadataList loads a metadata list file
func readMetadataList(path string) (*metadataList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseMetadataList(data)
}

// parseMetadataList parses masterlist or userlist YAML text
func parseMetadataList(data []byte) (*metadataList, error) {
	var doc yamlMetadataList
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse metadata list: %w", err)
	}

	list := newMetadataList()
	list.bashTags = doc.BashTags

	for _, g := range doc.Groups {
		if g.Name == "" {
			return nil, fmt.Errorf("parse metadata list: group without a name")
		}
		list.groups = append(list.groups, Group{Name: g.Name, Description: g.Description, AfterGroups: g.After})
	}
	for _, m := range doc.Globals {
		list.messages = append(list.messages, Message(m))
	}

	for _, p := range doc.Plugins {
		if p.Name == "" {
			return nil, fmt.Errorf("parse metadata list: plugin entry without a name")
		}
		metadata := p.toMetadata()

		if strings.ContainsAny(p.Name, regexChars) {
			re, err := regexp.Compile("(?i)^" + p.Name + "$")
			if err != nil {
				return nil, fmt.Errorf("parse metadata list: invalid regex entry %q: %w", p.Name, err)
			}
			list.regexPlugins = append(list.regexPlugins, regexEntry{re: re, metadata: metadata})
			continue
		}

		key := foldName(p.Name)
		if _, exists := list.plugins[key]; exists {
			return nil, fmt.Errorf("parse metadata list: more than one entry exists for %q", p.Name)
		}
		list.plugins[key] = metadata
	}

	return list, nil
}

func (p yamlPlugin) toMetadata() PluginMetadata {
	m := PluginMetadata{
		Name:  p.Name,
		Group: p.Group,
	}
	for _, f := range p.After {
		m.LoadAfter = append(m.LoadAfter, File(f))
	}
	for _, f := range p.Requirements {
		m.Requirements = append(m.Requirements, File(f))
	}
	for _, f := range p.Incompatible {
		m.Incompatibilities = append(m.Incompatibilities, File(f))
	}
	for _, msg := range p.Messages {
		m.Messages = append(m.Messages, Message(msg))
	}
	for _, t := range p.Tags {
		m.Tags = append(m.Tags, Tag(t))
	}
	for _, c := range p.Dirty {
		m.DirtyInfo = append(m.DirtyInfo, CleaningData(c))
	}
	for _, c := range p.Clean {
		m.CleanInfo = append(m.CleanInfo, CleaningData(c))
	}
	return m
}

// replacePrelude substitutes the masterlist's top-level prelude block with the
// contents of the prelude file so anchors defined there resolve in the masterlist.
// A masterlist without a prelude block is returned unchanged.
func replacePrelude(masterlist, prelude string) string {
	lines := strings.SplitAfter(masterlist, "\n")

	start := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "prelude:") {
			start = i
			break
		}
	}
	if start < 0 {
		return masterlist
	}

	// The block runs until the next line that starts at column zero.
	end := start + 1
	for end < len(lines) {
		line := lines[end]
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && line[0] != ' ' && line[0] != '\t' && !strings.HasPrefix(trimmed, "#") {
			break
		}
		end++
	}

	var b strings.Builder
	for _, line := range lines[:start] {
		b.WriteString(line)
	}
	b.WriteString("prelude:\n")
	for _, line := range strings.Split(strings.TrimRight(prelude, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	for _, line := range lines[end:] {
		b.WriteString(line)
	}
	return b.String()
}
