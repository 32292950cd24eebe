package topic

import (
	"strings"

	"CaptureRouter/internal/domain"
)

// Rule binds a topic to the keywords that select it.
type Rule struct {
	Topic    domain.Topic
	Keywords []string
}

// Taxonomy is the ordered keyword mapping plus the digest priority subset.
// Earlier rules win when a text matches several topics.
type Taxonomy struct {
	Rules    []Rule
	Priority []domain.Topic
}

// DefaultTaxonomy returns the built-in keyword rules.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Rules: []Rule{
			{Topic: domain.TopicMedicine, Keywords: []string{"medicine", "醫學", "ECMO", "VAD", "cardiac", "心臟", "surgery", "NEJM", "Lancet", "LITFL", "EMCrit", "PubMed"}},
			{Topic: domain.TopicAI, Keywords: []string{"AI", "Claude", "GPT", "LLM", "machine learning", "機器學習", "deep learning", "anthropic", "openai"}},
			{Topic: domain.TopicInternational, Keywords: []string{"international", "國際", "politics", "政治", "geopolitics", "china", "taiwan", "war", "economy", "經濟"}},
			{Topic: domain.TopicKnowledge, Keywords: []string{"筆記", "PKM", "Obsidian", "Heptabase", "Notion", "knowledge management", "知識管理", "學習"}},
			{Topic: domain.TopicProductivity, Keywords: []string{"productivity", "生產力", "效率", "workflow", "automation", "工具"}},
			{Topic: domain.TopicLife, Keywords: []string{"理財", "health", "健康", "生活", "investing", "投資"}},
		},
		Priority: []domain.Topic{domain.TopicMedicine, domain.TopicAI, domain.TopicInternational},
	}
}

// Match returns the first topic whose keywords occur in text, ignoring case.
func (t Taxonomy) Match(text string) (domain.Topic, bool) {
	if text == "" {
		return domain.TopicOther, false
	}

	lowered := strings.ToLower(text)
	for _, rule := range t.Rules {
		for _, kw := range rule.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lowered, strings.ToLower(kw)) {
				return rule.Topic, true
			}
		}
	}
	return domain.TopicOther, false
}

// IsPriority reports whether the topic belongs to the priority subset.
func (t Taxonomy) IsPriority(topic domain.Topic) bool {
	for _, p := range t.Priority {
		if p == topic {
			return true
		}
	}
	return false
}
