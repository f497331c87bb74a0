package verification

import (
	"maps"
	"strings"

	"github.com/sells-group/docverify/internal/analysis"
	"github.com/sells-group/docverify/internal/heuristic"
	"github.com/sells-group/docverify/internal/model"
)

// Reviewer-facing warnings.
const (
	WarnBorrowed  = "Using extracted data from previous verification (verify carefully)"
	WarnTransient = "Transient heuristic extraction applied (verify carefully)"
	WarnNoData    = "AI parsing returned no structured data or encountered an error; raw AI response saved for audit."
	WarnHeuristic = "Structured data produced by heuristic fallback (verify carefully)"
)

// Reconciler builds the review view of a document's verification history.
// It never writes.
type Reconciler struct {
	excerptLimit int
	extract      func(string) map[string]string
}

// NewReconciler returns a Reconciler bounding audit excerpts to excerptLimit
// runes.
func NewReconciler(excerptLimit int) *Reconciler {
	if excerptLimit <= 0 {
		excerptLimit = analysis.DefaultExcerptLimit
	}
	return &Reconciler{excerptLimit: excerptLimit, extract: heuristic.Extract}
}

// Reconcile selects and synthesizes the most useful view of history, which
// must be ordered oldest first.
func (r *Reconciler) Reconcile(history []model.Verification) model.ReconciledView {
	view := model.ReconciledView{
		Fields:   map[string]string{},
		Warnings: []string{},
	}

	idx := selectRecord(history)
	if idx < 0 {
		return view
	}
	chosen := &history[idx]
	view.Verification = chosen
	view.ConfidenceScore = chosen.ConfidenceScore
	view.FeedbackText = chosen.Feedback.Text()
	view.AuditExcerpt = analysis.Excerpt(chosen.Feedback.RawExcerpt, r.excerptLimit)

	switch {
	case chosen.HasFields():
		view.Fields = maps.Clone(chosen.Fields.Values)
		view.Source = sourceOf(chosen)
	default:
		if prev := borrowFrom(history, idx); prev != nil {
			view.Fields = maps.Clone(prev.Fields.Values)
			view.Source = sourceOf(prev)
			view.Warnings = append(view.Warnings, WarnBorrowed)
		} else if strings.TrimSpace(chosen.AnalysisText) != "" {
			if fields := r.extract(chosen.AnalysisText); len(fields) > 0 {
				view.Fields = fields
				view.Source = model.SourceTransient
				view.Warnings = append(view.Warnings, WarnTransient)
			}
		}
	}

	if len(view.Fields) == 0 {
		view.Warnings = append(view.Warnings, WarnNoData)
	}
	if view.Source == model.SourceHeuristic {
		view.Warnings = append(view.Warnings, WarnHeuristic)
	}
	return view
}

// selectRecord returns the index of the latest non-manual record, else the
// latest record, else -1.
func selectRecord(history []model.Verification) int {
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].Manual {
			return i
		}
	}
	return len(history) - 1
}

// borrowFrom returns the most recent record before idx with a field map.
func borrowFrom(history []model.Verification, idx int) *model.Verification {
	for i := idx - 1; i >= 0; i-- {
		if history[i].HasFields() {
			return &history[i]
		}
	}
	return nil
}

func sourceOf(v *model.Verification) model.ExtractionSource {
	if v.Fields != nil && v.Fields.Meta.Source != model.SourceNone {
		return v.Fields.Meta.Source
	}
	return v.Source
}
