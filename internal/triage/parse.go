package triage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/topic"
)

var (
	errMalformed = errors.New("malformed triage reply")

	legacyExpr  = regexp.MustCompile(`^\d+(\s*,\s*\d+)*$`)
	langTagExpr = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)
)

type replyEnvelope struct {
	Results *[]replyItem `json:"results"`
}

// replyItem accepts both the current field names and the older domain/summary pair.
type replyItem struct {
	Index      looseInt   `json:"index"`
	Importance looseInt   `json:"importance"`
	Topic      looseText  `json:"topic"`
	Domain     looseText  `json:"domain"`
	Highlight  *looseText `json:"highlight"`
	Summary    *looseText `json:"summary"`
}

// looseInt takes integers, floats such as 4.0 (rounded) and numeric strings.
// Anything else decodes to 0, which every bounds check rejects.
type looseInt int

func (n *looseInt) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = looseInt(math.Round(f))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = looseInt(math.Round(f))
			return nil
		}
	}
	*n = 0
	return nil
}

// looseText takes strings verbatim and keeps the JSON text of any other value.
type looseText string

func (t *looseText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = looseText(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	*t = looseText(data)
	return nil
}

// parseReply decodes a structured reply or a legacy comma-separated index list.
func parseReply(reply string, batch []domain.CandidateArticle, taxonomy topic.Taxonomy) ([]rankedArticle, error) {
	body := stripFence(reply)
	if body == "" {
		return nil, fmt.Errorf("%w: empty body", errMalformed)
	}

	if legacyExpr.MatchString(body) {
		return parseLegacy(body, batch, taxonomy), nil
	}

	var envelope replyEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if envelope.Results == nil {
		return nil, fmt.Errorf("%w: missing results", errMalformed)
	}

	seen := make(map[int]bool, len(*envelope.Results))
	ranked := make([]rankedArticle, 0, len(*envelope.Results))
	for _, item := range *envelope.Results {
		idx := int(item.Index) - 1
		if idx < 0 || idx >= len(batch) || seen[idx] {
			continue
		}
		seen[idx] = true

		importance := int(item.Importance)
		if importance > 5 || importance < keepThreshold {
			continue
		}

		label := string(item.Topic)
		if label == "" {
			label = string(item.Domain)
		}
		t := domain.ParseTopic(strings.TrimSpace(label))

		ranked = append(ranked, rankedArticle{
			index: idx,
			scored: domain.ScoredArticle{
				CandidateArticle: batch[idx],
				Importance:       importance,
				Topic:            t,
				Highlight:        highlightOf(item),
			},
		})
	}

	return ranked, nil
}

func parseLegacy(body string, batch []domain.CandidateArticle, taxonomy topic.Taxonomy) []rankedArticle {
	seen := map[int]bool{}
	var ranked []rankedArticle

	for _, part := range strings.Split(body, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		idx := n - 1
		if idx < 0 || idx >= len(batch) || seen[idx] {
			continue
		}
		seen[idx] = true

		t, _ := taxonomy.Match(articleText(batch[idx]))
		ranked = append(ranked, rankedArticle{
			index: idx,
			scored: domain.ScoredArticle{
				CandidateArticle: batch[idx],
				Importance:       legacyScore,
				Topic:            t,
			},
		})
	}

	return ranked
}

func highlightOf(item replyItem) string {
	switch {
	case item.Highlight != nil:
		return strings.TrimSpace(string(*item.Highlight))
	case item.Summary != nil:
		return strings.TrimSpace(string(*item.Summary))
	default:
		return ""
	}
}

// stripFence removes an optional ``` or ```json wrapper around the reply.
func stripFence(reply string) string {
	s := strings.TrimSpace(reply)

	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}

	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && langTagExpr.MatchString(strings.TrimSpace(rest[:nl])) {
		rest = rest[nl+1:]
	} else if nl < 0 {
		rest = strings.TrimPrefix(rest, "json")
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}

	return strings.TrimSpace(rest)
}
