package triage

import (
	"fmt"
	"strings"

	"CaptureRouter/internal/domain"
)

func buildPrompt(batch []domain.CandidateArticle, interests string) string {
	var b strings.Builder

	b.WriteString("You are an information triage assistant. Rate how important each article below is for the reader.\n\n")
	if interests = strings.TrimSpace(interests); interests != "" {
		b.WriteString(interests)
		b.WriteString("\n\n")
	}

	b.WriteString("Today's articles:\n")
	for i, article := range batch {
		fmt.Fprintf(&b, "\nArticle %d:\n- Title: %s\n- Source: %s\n- Summary: %s\n",
			i+1, article.Title, article.SourceName, truncateRunes(article.Summary, summaryPromptSize))
	}

	labels := make([]string, 0, len(domain.Topics))
	for _, t := range domain.Topics {
		labels = append(labels, string(t))
	}

	fmt.Fprintf(&b, `
Tasks:
1. Score every article from 1 to 5: 5=must read, 4=worth reading, 3=optional, 2=skippable, 1=irrelevant
2. For articles scored 4 or 5 write a one-sentence highlight
3. Assign every article one topic from: %s

Reply with JSON only, in this shape:
{"results":[{"index":1,"importance":5,"topic":"Medicine","highlight":"one sentence"},{"index":2,"importance":3,"topic":"AI","highlight":null}]}`,
		strings.Join(labels, ", "))

	return b.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
