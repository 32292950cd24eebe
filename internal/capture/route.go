package capture

import (
	"sort"
	"strings"

	"CaptureRouter/internal/domain"
)

// DefaultBaseTag marks everything archived through the chat capture flow.
const DefaultBaseTag = "#tg-capture"

// RouteOptions tunes tag assembly.
type RouteOptions struct {
	BaseTag string
}

// Decide maps a parsed message and its resolved topic to a save action.
// Only the first URL is archived when a message carries several links.
func Decide(parsed domain.ParsedMessage, topic domain.Topic, opts RouteOptions) domain.SaveAction {
	tags := buildTags(topic, opts)

	if !parsed.HasURL {
		return domain.NewSaveNote(parsed, parsed.Text, tags, topic)
	}

	return domain.NewSaveLink(parsed, parsed.URLs[0], buildNote(parsed), tags, topic)
}

func buildTags(topic domain.Topic, opts RouteOptions) []string {
	base := opts.BaseTag
	if base == "" {
		base = DefaultBaseTag
	}

	tags := []string{base}
	if topic.Valid() && topic != domain.TopicOther {
		tags = append(tags, topic.Tag())
	}
	return tags
}

func buildNote(parsed domain.ParsedMessage) *string {
	remainder := strings.TrimSpace(stripURLs(parsed.Text, parsed.URLs))

	if origin := parsed.Origin(); parsed.IsForward && origin != "" {
		provenance := "Source: " + origin
		if remainder == "" {
			return &provenance
		}
		note := provenance + "\n\n" + remainder
		return &note
	}

	if remainder == "" {
		return nil
	}
	return &remainder
}

// stripURLs removes longer links first so a link that prefixes another one
// cannot leave a dangling path behind.
func stripURLs(text string, urls []string) string {
	ordered := append([]string(nil), urls...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i]) > len(ordered[j])
	})
	for _, u := range ordered {
		text = strings.ReplaceAll(text, u, "")
	}
	return text
}
