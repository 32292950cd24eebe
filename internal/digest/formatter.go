package digest

import (
	"fmt"
	"html"
	"strings"

	"CaptureRouter/internal/domain"
)

const (
	digestTitleWidth = 50
	domainTitleWidth = 60
	replyTitleWidth  = 40
	ellipsis         = "..."
)

var glyphs = map[domain.Topic]string{
	domain.TopicMedicine:      "🏥",
	domain.TopicAI:            "🤖",
	domain.TopicInternational: "🌍",
	domain.TopicKnowledge:     "📚",
	domain.TopicProductivity:  "⚡",
	domain.TopicLife:          "🏠",
	domain.TopicOther:         "📌",
}

// Glyph returns the section marker for a topic.
func Glyph(t domain.Topic) string {
	if g, ok := glyphs[t]; ok {
		return g
	}
	return glyphs[domain.TopicOther]
}

// Format renders scored articles grouped by topic in first-seen order.
func Format(articles []domain.ScoredArticle, label, dateStamp string) string {
	header := fmt.Sprintf("%s %s", esc(dateStamp), esc(label))
	if len(articles) == 0 {
		return fmt.Sprintf("📭 <b>%s</b>\n\nNo new important articles.", header)
	}

	var order []domain.Topic
	groups := map[domain.Topic][]domain.ScoredArticle{}
	for _, a := range articles {
		t := a.Topic
		if !t.Valid() {
			t = domain.TopicOther
		}
		if _, ok := groups[t]; !ok {
			order = append(order, t)
		}
		groups[t] = append(groups[t], a)
	}

	lines := []string{fmt.Sprintf("📰 <b>%s</b> (%d articles)", header, len(articles))}
	for _, t := range order {
		lines = append(lines, "", fmt.Sprintf("%s <b>%s</b>", Glyph(t), t))
		for _, a := range groups[t] {
			lines = append(lines, "• "+esc(clip(titleOr(a.Title), digestTitleWidth)))
			if a.Highlight != "" {
				lines = append(lines, "  → "+esc(a.Highlight))
			}
			if a.SourceName != "" {
				lines = append(lines, "  📍 "+esc(a.SourceName))
			}
			if a.SourceURL != "" {
				lines = append(lines, fmt.Sprintf(`  🔗 <a href="%s">Read</a>`, esc(a.SourceURL)))
			}
		}
	}
	lines = append(lines, "", "⏰ Pushed: "+esc(dateStamp))

	return strings.Join(lines, "\n")
}

// DomainHeader names one per-domain digest.
type DomainHeader struct {
	Name  string
	Glyph string
}

// FormatDomain renders a flat digest for a single domain.
func FormatDomain(articles []domain.ScoredArticle, header DomainHeader, dateStamp string) string {
	glyph := header.Glyph
	if glyph == "" {
		glyph = "📰"
	}
	title := fmt.Sprintf("%s <b>%s - %s</b>", glyph, esc(header.Name), esc(dateStamp))

	if len(articles) == 0 {
		return title + "\n\nNo new content right now."
	}

	lines := []string{fmt.Sprintf("%s (%d articles)", title, len(articles)), ""}
	for _, a := range articles {
		lines = append(lines, fmt.Sprintf("• <b>%s</b>", esc(clip(titleOr(a.Title), domainTitleWidth))))
		if a.SourceName != "" {
			lines = append(lines, "  📍 "+esc(a.SourceName))
		}
		if a.SourceURL != "" {
			lines = append(lines, fmt.Sprintf(`  🔗 <a href="%s">Read</a>`, esc(a.SourceURL)))
		}
		lines = append(lines, "")
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// FormatReply renders the acknowledgment sent after a capture.
func FormatReply(res domain.CaptureResult) string {
	if !res.Success {
		msg := res.Err
		if msg == "" {
			msg = "unknown error"
		}
		return "<b>Error</b> Save failed\n" + esc(msg)
	}

	lines := []string{"<b>OK</b> Saved to Reader"}
	if res.Title != "" {
		lines = append(lines, "<b>"+esc(cut(res.Title, replyTitleWidth))+"</b>")
	}
	if res.Topic != "" {
		lines = append(lines, fmt.Sprintf("%s %s", Glyph(res.Topic), res.Topic))
	}
	if res.SourceLabel != "" && res.SourceLabel != domain.PersonalNoteLabel {
		lines = append(lines, "📍 "+esc(res.SourceLabel))
	}
	return strings.Join(lines, "\n")
}

func titleOr(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Untitled"
	}
	return title
}

// clip shortens s to width-3 runes plus an ellipsis when it exceeds width.
func clip(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-len(ellipsis)]) + ellipsis
}

func cut(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width])
}

func esc(s string) string {
	return html.EscapeString(s)
}
