package domain

// SaveKind selects the persistence call for a capture.
type SaveKind string

const (
	SaveLink SaveKind = "save_link"
	SaveNote SaveKind = "save_note"
)

// SaveAction is the routing decision for one capture.
type SaveAction struct {
	Kind        SaveKind
	CaseType    CaseType
	URL         string
	Content     string
	Note        *string
	Tags        []string
	SourceLabel string
	Topic       Topic
	NeedsTitle  bool
}

// NewSaveLink builds a link action.
func NewSaveLink(parsed ParsedMessage, url string, note *string, tags []string, topic Topic) SaveAction {
	return SaveAction{
		Kind:        SaveLink,
		CaseType:    parsed.CaseType(),
		URL:         url,
		Note:        note,
		Tags:        tags,
		SourceLabel: parsed.SourceLabel(),
		Topic:       topic,
	}
}

// NewSaveNote builds a note action; notes always need a generated title.
func NewSaveNote(parsed ParsedMessage, content string, tags []string, topic Topic) SaveAction {
	return SaveAction{
		Kind:        SaveNote,
		CaseType:    parsed.CaseType(),
		Content:     content,
		Tags:        tags,
		SourceLabel: parsed.SourceLabel(),
		Topic:       topic,
		NeedsTitle:  true,
	}
}

// NoteText returns the annotation or an empty string.
func (a SaveAction) NoteText() string {
	if a.Note == nil {
		return ""
	}
	return *a.Note
}

// Document is what the persistence service returns after a save.
type Document struct {
	ID    string
	Title string
	URL   string
}

// CaptureResult is the outcome of processing one capture.
type CaptureResult struct {
	Success     bool
	CaseType    CaseType
	Title       string
	Topic       Topic
	SourceLabel string
	URL         string
	DocumentID  string
	Err         string
}
