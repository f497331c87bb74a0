package model

import "strings"

// AnnotationKind names an audit annotation on verification feedback.
type AnnotationKind string

const (
	AnnotationParseFailed   AnnotationKind = "parse_failed"
	AnnotationUsedHeuristic AnnotationKind = "used_heuristic"
	AnnotationUsedRetry     AnnotationKind = "used_retry"
)

// Annotation messages.
const (
	NoteParseFailed   = "Quality assessment response was not valid JSON"
	NoteUsedHeuristic = "Structured data produced by heuristic fallback"
	NoteUsedRetry     = "LLM retry used"
)

// Annotation is one named note attached to feedback.
type Annotation struct {
	Kind    AnnotationKind `json:"kind"`
	Message string         `json:"message"`
}

// Feedback is the issue list and audit annotations of a verification.
type Feedback struct {
	Issues      []string     `json:"issues"`
	Annotations []Annotation `json:"annotations,omitempty"`
	// RawExcerpt is a bounded copy of an unparseable reasoning-service
	// response, kept for reviewers only.
	RawExcerpt string `json:"raw,omitempty"`
}

// Has reports whether an annotation of kind k is present.
func (f Feedback) Has(k AnnotationKind) bool {
	for _, a := range f.Annotations {
		if a.Kind == k {
			return true
		}
	}
	return false
}

// Note joins annotation messages with "; ".
func (f Feedback) Note() string {
	msgs := make([]string, len(f.Annotations))
	for i, a := range f.Annotations {
		msgs[i] = a.Message
	}
	return strings.Join(msgs, "; ")
}

// Text joins the issue list with "; ".
func (f Feedback) Text() string {
	return strings.Join(f.Issues, "; ")
}

// FeedbackBuilder accumulates issues and annotations. Annotations are only
// ever appended.
type FeedbackBuilder struct {
	fb Feedback
}

// NewFeedbackBuilder starts feedback with the given issues.
func NewFeedbackBuilder(issues []string) *FeedbackBuilder {
	b := &FeedbackBuilder{}
	b.fb.Issues = append([]string{}, issues...)
	return b
}

// ParseFailed records an unparseable assessment and its raw excerpt.
func (b *FeedbackBuilder) ParseFailed(excerpt string) *FeedbackBuilder {
	b.add(AnnotationParseFailed, NoteParseFailed)
	if b.fb.RawExcerpt == "" {
		b.fb.RawExcerpt = excerpt
	}
	return b
}

// UsedHeuristic records that fields came from the fallback extractor.
func (b *FeedbackBuilder) UsedHeuristic() *FeedbackBuilder {
	return b.add(AnnotationUsedHeuristic, NoteUsedHeuristic)
}

// UsedRetry records that the field extractor needed its retry.
func (b *FeedbackBuilder) UsedRetry() *FeedbackBuilder {
	return b.add(AnnotationUsedRetry, NoteUsedRetry)
}

func (b *FeedbackBuilder) add(kind AnnotationKind, msg string) *FeedbackBuilder {
	if !b.fb.Has(kind) {
		b.fb.Annotations = append(b.fb.Annotations, Annotation{Kind: kind, Message: msg})
	}
	return b
}

// Build returns a copy of the accumulated feedback.
func (b *FeedbackBuilder) Build() Feedback {
	out := Feedback{
		Issues:     append([]string{}, b.fb.Issues...),
		RawExcerpt: b.fb.RawExcerpt,
	}
	if len(b.fb.Annotations) > 0 {
		out.Annotations = append([]Annotation(nil), b.fb.Annotations...)
	}
	return out
}
