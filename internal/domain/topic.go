package domain

// Topic is one label of the closed topic taxonomy.
type Topic string

const (
	TopicMedicine      Topic = "Medicine"
	TopicAI            Topic = "AI"
	TopicInternational Topic = "International"
	TopicKnowledge     Topic = "Knowledge"
	TopicProductivity  Topic = "Productivity"
	TopicLife          Topic = "Life"
	TopicOther         Topic = "Other"
)

// Topics lists every label in enumeration order.
var Topics = []Topic{
	TopicMedicine,
	TopicAI,
	TopicInternational,
	TopicKnowledge,
	TopicProductivity,
	TopicLife,
	TopicOther,
}

// ParseTopic maps a raw label onto the taxonomy; unknown values become Other.
func ParseTopic(raw string) Topic {
	for _, t := range Topics {
		if string(t) == raw {
			return t
		}
	}
	return TopicOther
}

// Valid reports whether t belongs to the taxonomy.
func (t Topic) Valid() bool {
	for _, known := range Topics {
		if known == t {
			return true
		}
	}
	return false
}

// Tag renders the topic as a Reader tag.
func (t Topic) Tag() string {
	return "@" + string(t)
}
