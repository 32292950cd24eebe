package domain

import "time"

// CandidateArticle is an article offered for digest triage.
type CandidateArticle struct {
	ID          string
	Title       string
	Summary     string
	SourceName  string
	SourceURL   string
	PublishedAt time.Time
}

// ScoredArticle carries triage results for one candidate.
type ScoredArticle struct {
	CandidateArticle
	Importance int
	Topic      Topic
	Highlight  string
}

// CaptureRecord is one audit log entry for a processed capture.
type CaptureRecord struct {
	ID          string
	MessageID   int64
	ChatID      int64
	CaseType    CaseType
	Topic       Topic
	SourceLabel string
	URL         string
	DocumentID  string
	Success     bool
	Error       string
	CreatedAt   time.Time
}
