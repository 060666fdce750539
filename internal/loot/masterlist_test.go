package loot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMasterlist = `
bash_tags: [Relev, Delev, Names]
globals:
  - type: say
    content: 'Hello'
  - type: warn
    content:
      - text: 'Bonjour'
        lang: fr
      - text: 'Hi'
        lang: en
    condition: 'file("X.esp")'
groups:
  - name: early
  - name: late
    description: 'Loads late'
    after: [early]
plugins:
  - name: X.esp
    group: late
    after:
      - Y.esp
      - name: Z.esp
        display: 'Zed'
        condition: 'active("Z.esp")'
    req: [Base.esm]
    inc: [Bad.esp]
    tag:
      - Relev
      - '-Delev'
      - name: Names
        condition: 'file("N.esp")'
    msg:
      - type: error
        content: 'broken'
    dirty:
      - crc: 0xDEADBEEF
        util: 'SSEEdit v4'
        itm: 3
        udr: 1
        nav: 2
  - name: 'Patch.*\.esp'
    tag: [Names]
`

func TestParseMetadataList(t *testing.T) {
	list, err := parseMetadataList([]byte(sampleMasterlist))
	require.NoError(t, err)

	assert.Equal(t, []string{"Relev", "Delev", "Names"}, list.bashTags)

	require.Len(t, list.messages, 2)
	assert.Equal(t, MessageSay, list.messages[0].Type)
	assert.Equal(t, []MessageContent{{Text: "Hello", Language: DefaultLanguage}}, list.messages[0].Content)
	assert.Equal(t, MessageWarn, list.messages[1].Type)
	assert.Equal(t, `file("X.esp")`, list.messages[1].Condition)
	content, ok := SelectMessageContent(list.messages[1].Content, DefaultLanguage)
	require.True(t, ok)
	assert.Equal(t, "Hi", content.Text)

	require.Len(t, list.groups, 2)
	assert.Equal(t, Group{Name: "late", Description: "Loads late", AfterGroups: []string{"early"}}, list.groups[1])

	x, ok := list.find("x.ESP")
	require.True(t, ok)
	assert.Equal(t, "x.ESP", x.Name)
	assert.Equal(t, "late", x.Group)
	assert.Equal(t, []File{
		{Name: "Y.esp"},
		{Name: "Z.esp", DisplayName: "Zed", Condition: `active("Z.esp")`},
	}, x.LoadAfter)
	assert.Equal(t, []File{{Name: "Base.esm"}}, x.Requirements)
	assert.Equal(t, []File{{Name: "Bad.esp"}}, x.Incompatibilities)
	assert.Equal(t, []Tag{
		{Name: "Relev", Addition: true},
		{Name: "Delev", Addition: false},
		{Name: "Names", Addition: true, Condition: `file("N.esp")`},
	}, x.Tags)
	require.Len(t, x.Messages, 1)
	assert.Equal(t, MessageError, x.Messages[0].Type)
	require.Len(t, x.DirtyInfo, 1)
	assert.Equal(t, CleaningData{
		CRC:                   0xDEADBEEF,
		ITMCount:              3,
		DeletedReferenceCount: 1,
		DeletedNavmeshCount:   2,
		CleaningUtility:       "SSEEdit v4",
	}, x.DirtyInfo[0])
}

func TestMetadataListRegexEntries(t *testing.T) {
	list, err := parseMetadataList([]byte(sampleMasterlist))
	require.NoError(t, err)

	patch, ok := list.find("Patch - Weapons.esp")
	require.True(t, ok)
	assert.Equal(t, "Patch - Weapons.esp", patch.Name)
	assert.Equal(t, []Tag{{Name: "Names", Addition: true}}, patch.Tags)

	_, ok = list.find("Patch.esm")
	assert.False(t, ok)

	_, ok = list.find("Unknown.esp")
	assert.False(t, ok)
}

func TestMetadataListRegexMergesWithExactEntry(t *testing.T) {
	list, err := parseMetadataList([]byte(`
plugins:
  - name: 'Mod.esp'
    tag: [Relev]
  - name: 'Mod\.es[pm]'
    tag: [Delev]
`))
	require.NoError(t, err)

	m, ok := list.find("Mod.esp")
	require.True(t, ok)
	assert.Equal(t, []Tag{{Name: "Relev", Addition: true}, {Name: "Delev", Addition: true}}, m.Tags)
}

func TestParseMetadataListErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"duplicate", "plugins:\n  - name: A.esp\n  - name: a.esp\n"},
		{"no name", "plugins:\n  - group: x\n"},
		{"bad regex", "plugins:\n  - name: 'Bad(*.esp'\n"},
		{"bad message type", "globals:\n  - type: shout\n    content: x\n"},
		{"bad crc", "plugins:\n  - name: A.esp\n    dirty:\n      - crc: nope\n"},
		{"bad yaml", "plugins: [\n"},
		{"unnamed group", "groups:\n  - after: [x]\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseMetadataList([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestReplacePrelude(t *testing.T) {
	masterlist := "prelude:\n  common: []\n\n  # comment\nplugins:\n  - name: A.esp\n"
	prelude := "common:\n  - &note\n    type: say\n    content: 'From prelude'\n"

	got := replacePrelude(masterlist, prelude)
	assert.Equal(t,
		"prelude:\n  common:\n    - &note\n      type: say\n      content: 'From prelude'\nplugins:\n  - name: A.esp\n",
		got)

	assert.Equal(t, "plugins: []\n", replacePrelude("plugins: []\n", prelude))
}

func TestReplacePreludeResolvesAnchors(t *testing.T) {
	masterlist := `prelude:
  common: []
plugins:
  - name: A.esp
    msg:
      - *note
`
	prelude := `common:
  - &note
    type: warn
    content: 'Shared warning'
`
	_, err := parseMetadataList([]byte(masterlist))
	require.Error(t, err, "alias without its anchor must not parse")

	list, err := parseMetadataList([]byte(replacePrelude(masterlist, prelude)))
	require.NoError(t, err)

	a, ok := list.find("A.esp")
	require.True(t, ok)
	require.Len(t, a.Messages, 1)
	assert.Equal(t, MessageWarn, a.Messages[0].Type)
	assert.Equal(t, "Shared warning", a.Messages[0].Content[0].Text)
}

func TestMergeMetadata(t *testing.T) {
	base := &PluginMetadata{
		Name:      "A.esp",
		Group:     "early",
		LoadAfter: []File{{Name: "B.esp"}},
		Tags:      []Tag{{Name: "Relev", Addition: true}},
		DirtyInfo: []CleaningData{{CRC: 1, ITMCount: 5}},
	}
	user := &PluginMetadata{
		Name:      "A.esp",
		Group:     "late",
		LoadAfter: []File{{Name: "b.esp"}, {Name: "C.esp"}},
		Tags:      []Tag{{Name: "Relev", Addition: true}, {Name: "Delev", Addition: false}},
		Messages:  []Message{{Type: MessageSay, Content: []MessageContent{{Text: "x", Language: "en"}}}},
		DirtyInfo: []CleaningData{{CRC: 1, ITMCount: 9}, {CRC: 2}},
	}

	merged := base.Clone()
	merged.MergeMetadata(user)

	assert.Equal(t, "late", merged.Group)
	assert.Equal(t, []File{{Name: "B.esp"}, {Name: "C.esp"}}, merged.LoadAfter)
	assert.Equal(t, []Tag{{Name: "Relev", Addition: true}, {Name: "Delev", Addition: false}}, merged.Tags)
	assert.Len(t, merged.Messages, 1)
	assert.Equal(t, []CleaningData{{CRC: 1, ITMCount: 5}, {CRC: 2}}, merged.DirtyInfo)

	// The original is untouched.
	assert.Equal(t, "early", base.Group)
	assert.Len(t, base.LoadAfter, 1)

	assert.False(t, merged.HasNameOnly())
	assert.True(t, (&PluginMetadata{Name: "Z.esp"}).HasNameOnly())
}

func TestSelectMessageContent(t *testing.T) {
	contents := []MessageContent{{Text: "Hallo", Language: "de"}, {Text: "Hello", Language: "en"}}

	c, ok := SelectMessageContent(contents, "en")
	require.True(t, ok)
	assert.Equal(t, "Hello", c.Text)

	c, ok = SelectMessageContent(contents, "fr")
	require.True(t, ok)
	assert.Equal(t, "Hallo", c.Text)

	_, ok = SelectMessageContent(nil, "en")
	assert.False(t, ok)
}
