package model

// ReconciledView is the reviewer-facing projection of a document's
// verification history. It is computed on demand and never stored.
type ReconciledView struct {
	// Verification is the record whose confidence score is shown, or nil
	// when the history is empty.
	Verification    *Verification     `json:"-"`
	ConfidenceScore *int              `json:"confidence"`
	Fields          map[string]string `json:"extracted"`
	Source          ExtractionSource  `json:"extraction_source,omitempty"`
	FeedbackText    string            `json:"feedback,omitempty"`
	Warnings        []string          `json:"warnings"`
	AuditExcerpt    string            `json:"ai_raw_excerpt,omitempty"`
}
