package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docverify/internal/model"
)

// ReviewResult is the reviewer-facing view of one document.
type ReviewResult struct {
	Document model.Document `json:"document"`
	// View is the reconciled best-available verification.
	View model.ReconciledView `json:"verification"`
	// VerifiedAt is when the displayed verification was created.
	VerifiedAt *time.Time `json:"verification_date,omitempty"`
	// RawVerification describes the displayed record without its analysis
	// text or field values.
	RawVerification *model.VerificationSummary `json:"raw_verification,omitempty"`
	History         []model.VerificationSummary `json:"history"`
	Activity        []model.ActivityEvent       `json:"activity"`
}

// Review loads a document and reconciles its verification history. It never
// writes.
func (p *Pipeline) Review(ctx context.Context, documentID string) (*ReviewResult, error) {
	doc, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: review")
	}
	history, err := p.store.ListVerifications(ctx, documentID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: review")
	}
	activity, err := p.store.ListActivity(ctx, documentID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: review")
	}

	res := &ReviewResult{
		Document: *doc,
		View:     p.reconciler.Reconcile(history),
		History:  make([]model.VerificationSummary, len(history)),
		Activity: activity,
	}
	if res.Activity == nil {
		res.Activity = []model.ActivityEvent{}
	}
	for i := range history {
		res.History[i] = history[i].Summary()
	}
	if v := res.View.Verification; v != nil {
		at := v.CreatedAt
		res.VerifiedAt = &at
		sum := v.Summary()
		res.RawVerification = &sum
	}
	return res, nil
}
