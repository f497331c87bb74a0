// Package verification composes analysis outcomes into stored verification
// records and reconciles a document's record history for review.
package verification

import (
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/docverify/internal/analysis"
	"github.com/sells-group/docverify/internal/model"
)

// Builder assembles one Verification. It can be built exactly once.
type Builder struct {
	documentID string
	text       string
	assessment *analysis.Assessment
	extraction *analysis.Extraction
	heuristic  map[string]string
	built      bool

	now   func() time.Time
	newID func() string
}

// NewBuilder starts a record for documentID over the canonical analysis text.
func NewBuilder(documentID, analysisText string) *Builder {
	return &Builder{
		documentID: documentID,
		text:       analysisText,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// WithAssessment sets the quality assessment.
func (b *Builder) WithAssessment(a *analysis.Assessment) *Builder {
	b.assessment = a
	return b
}

// WithExtraction sets the reasoning-service field extraction.
func (b *Builder) WithExtraction(e *analysis.Extraction) *Builder {
	b.extraction = e
	return b
}

// WithHeuristic sets the fallback field map. It is ignored when the
// extraction produced fields.
func (b *Builder) WithHeuristic(fields map[string]string) *Builder {
	b.heuristic = fields
	return b
}

// NeedsHeuristic reports whether the extraction left the field map empty.
func (b *Builder) NeedsHeuristic() bool {
	return b.extraction == nil || b.extraction.Result.Kind != analysis.KindOK
}

// Build returns the finished record.
func (b *Builder) Build() (model.Verification, error) {
	if b.built {
		return model.Verification{}, eris.New("verification: record already built")
	}
	if b.assessment == nil {
		return model.Verification{}, eris.New("verification: assessment is required")
	}
	b.built = true

	retry := b.extraction != nil && b.extraction.RetryUsed
	fb := model.NewFeedbackBuilder(b.assessment.Issues)
	if b.assessment.ParseFailed {
		fb.ParseFailed(b.assessment.RawExcerpt)
	}

	v := model.Verification{
		ID:              b.newID(),
		DocumentID:      b.documentID,
		ConfidenceScore: b.assessment.Score,
		ConfidenceLevel: b.assessment.Level,
		AnalysisText:    b.text,
		CreatedAt:       b.now(),
	}

	switch {
	case !b.NeedsHeuristic():
		v.Source = model.SourceLLM
		v.Fields = &model.ExtractedFieldSet{
			Values: maps.Clone(b.extraction.Result.Fields),
			Meta:   model.FieldMeta{Source: model.SourceLLM, Retry: retry},
		}
		if retry {
			fb.UsedRetry()
		}
	case len(b.heuristic) > 0:
		v.Source = model.SourceHeuristic
		v.Fields = &model.ExtractedFieldSet{
			Values: maps.Clone(b.heuristic),
			Meta:   model.FieldMeta{Source: model.SourceHeuristic, Retry: retry},
		}
		fb.UsedHeuristic()
	default:
		if retry {
			fb.UsedRetry()
		}
	}

	v.Feedback = fb.Build()
	return v, nil
}
