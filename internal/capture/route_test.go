package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CaptureRouter/internal/domain"
)

func TestDecideForwardedLink(t *testing.T) {
	t.Parallel()

	parsed := Classify(domain.InboundMessage{
		ForwardFromChat: &domain.ForwardChat{Title: "Tech News"},
		Text:            "check this out https://a.example/x",
	})
	require.Equal(t, domain.CaseForwardURL, parsed.CaseType())

	action := Decide(parsed, domain.TopicOther, RouteOptions{})
	assert.Equal(t, domain.SaveLink, action.Kind)
	assert.Equal(t, "https://a.example/x", action.URL)
	require.NotNil(t, action.Note)
	assert.Equal(t, "Source: Tech News\n\ncheck this out", *action.Note)
	assert.Equal(t, []string{DefaultBaseTag}, action.Tags)
	assert.False(t, action.NeedsTitle)
}

func TestDecideOnlyFirstURLArchived(t *testing.T) {
	t.Parallel()

	parsed := Classify(domain.InboundMessage{
		ForwardFromChat: &domain.ForwardChat{Title: "X"},
		Text:            "https://u1.example/a and https://u2.example/b",
	})

	action := Decide(parsed, domain.TopicAI, RouteOptions{})
	assert.Equal(t, "https://u1.example/a", action.URL)
	require.NotNil(t, action.Note)
	assert.Equal(t, "Source: X\n\nand", *action.Note)
	assert.Equal(t, []string{DefaultBaseTag, "@AI"}, action.Tags)
}

func TestDecideKeepsNoteAfterUnicodeSpace(t *testing.T) {
	t.Parallel()

	parsed := Classify(domain.InboundMessage{Text: "https://a.example/x\u3000看看這篇"})

	action := Decide(parsed, domain.TopicOther, RouteOptions{})
	assert.Equal(t, "https://a.example/x", action.URL)
	require.NotNil(t, action.Note)
	assert.Equal(t, "看看這篇", *action.Note)
}

func TestDecideProvenanceWithoutRemainder(t *testing.T) {
	t.Parallel()

	parsed := Classify(domain.InboundMessage{
		ForwardSenderName: strPtr("Hidden"),
		Text:              "  https://a.example/x  ",
	})

	action := Decide(parsed, domain.TopicOther, RouteOptions{})
	require.NotNil(t, action.Note)
	assert.Equal(t, "Source: Hidden", *action.Note)
}

func TestDecideLinkWithoutNote(t *testing.T) {
	t.Parallel()

	action := Decide(Classify(domain.InboundMessage{Text: "https://a.example/x https://a.example/x"}), domain.TopicOther, RouteOptions{})
	assert.Nil(t, action.Note)
	assert.Equal(t, "", action.NoteText())
	assert.Equal(t, domain.CaseURLOnly, action.CaseType)
}

func TestDecideRemovesPrefixedLinksCleanly(t *testing.T) {
	t.Parallel()

	action := Decide(Classify(domain.InboundMessage{Text: "https://a.example then https://a.example/deep"}), domain.TopicOther, RouteOptions{})
	assert.Equal(t, "https://a.example", action.URL)
	assert.Equal(t, "then", action.NoteText())
}

func TestDecideNote(t *testing.T) {
	t.Parallel()

	parsed := Classify(domain.InboundMessage{Text: "just thinking about ECMO today"})
	action := Decide(parsed, domain.TopicMedicine, RouteOptions{BaseTag: "#inbox"})

	assert.Equal(t, domain.SaveNote, action.Kind)
	assert.Equal(t, "just thinking about ECMO today", action.Content)
	assert.True(t, action.NeedsTitle)
	assert.Nil(t, action.Note)
	assert.Equal(t, []string{"#inbox", "@Medicine"}, action.Tags)
	assert.Equal(t, domain.PersonalNoteLabel, action.SourceLabel)
}

func TestDecideForwardedNoteKeepsSource(t *testing.T) {
	t.Parallel()

	parsed := Classify(domain.InboundMessage{ForwardFromChat: &domain.ForwardChat{Title: "Leslie"}, Text: "market thoughts"})
	action := Decide(parsed, domain.TopicOther, RouteOptions{})

	assert.Equal(t, domain.CaseForwardText, action.CaseType)
	assert.Equal(t, "Leslie", action.SourceLabel)
	assert.Equal(t, []string{DefaultBaseTag}, action.Tags)
}

func TestDecideIgnoresUnknownTopic(t *testing.T) {
	t.Parallel()

	action := Decide(Classify(domain.InboundMessage{Text: "x"}), domain.Topic("Sports"), RouteOptions{})
	assert.Equal(t, []string{DefaultBaseTag}, action.Tags)
}
