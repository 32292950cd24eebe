package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/topic"
)

func TestStripFence(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```JSON\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"  ```json\n{\"a\":1}":    `{"a":1}`,
		"```{\n\"a\":1\n}```":     "{\n\"a\":1\n}",
		"1,2,3":                   "1,2,3",
		"```\n1, 2\n```":          "1, 2",
	}

	for in, want := range cases {
		assert.Equal(t, want, stripFence(in), "input %q", in)
	}
}

func TestParseReplyToleratesLooseTypes(t *testing.T) {
	t.Parallel()

	batch := []domain.CandidateArticle{{Title: "one"}, {Title: "two"}, {Title: "three"}, {Title: "four"}}
	reply := `{"results":[
		{"index":1.0,"importance":4.0,"topic":"AI","highlight":"float fields"},
		{"index":"2","importance":"5","topic":"Medicine","highlight":42},
		{"index":3,"importance":true,"topic":"Life"},
		{"index":4,"importance":4,"topic":"Tech","highlight":null,"summary":"older field"}
	]}`

	ranked, err := parseReply(reply, batch, topic.DefaultTaxonomy())

	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, 0, ranked[0].index)
	assert.Equal(t, 4, ranked[0].scored.Importance)
	assert.Equal(t, domain.TopicAI, ranked[0].scored.Topic)
	assert.Equal(t, "float fields", ranked[0].scored.Highlight)

	assert.Equal(t, 1, ranked[1].index)
	assert.Equal(t, 5, ranked[1].scored.Importance)
	assert.Equal(t, "42", ranked[1].scored.Highlight)

	assert.Equal(t, 3, ranked[2].index)
	assert.Equal(t, "older field", ranked[2].scored.Highlight)
}

func TestParseReplyMissingResultsIsMalformed(t *testing.T) {
	t.Parallel()

	_, err := parseReply(`{"items":[]}`, []domain.CandidateArticle{{Title: "x"}}, topic.DefaultTaxonomy())
	assert.ErrorIs(t, err, errMalformed)
}
