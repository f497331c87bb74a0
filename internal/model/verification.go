package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// ExtractionSource records which tier produced a field map.
type ExtractionSource string

const (
	SourceNone      ExtractionSource = ""
	SourceLLM       ExtractionSource = "llm"
	SourceHeuristic ExtractionSource = "heuristic"
	// SourceTransient marks a heuristic map computed for display only.
	SourceTransient ExtractionSource = "heuristic-transient"
)

// metaKey is the reserved key carrying FieldMeta in the flat JSON form.
const metaKey = "_meta"

// FieldMeta describes how an ExtractedFieldSet was produced.
type FieldMeta struct {
	Source ExtractionSource `json:"source,omitempty"`
	Retry  bool             `json:"retry,omitempty"`
}

// ExtractedFieldSet is a flat field name to value map plus its provenance.
// It serializes as the flat map with a "_meta" member.
type ExtractedFieldSet struct {
	Values map[string]string
	Meta   FieldMeta
}

// Empty reports whether the set holds no values.
func (s *ExtractedFieldSet) Empty() bool {
	return s == nil || len(s.Values) == 0
}

// MarshalJSON implements json.Marshaler.
func (s ExtractedFieldSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Values)+1)
	for k, v := range s.Values {
		out[k] = v
	}
	out[metaKey] = s.Meta
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ExtractedFieldSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: unmarshal extracted fields")
	}
	s.Values = make(map[string]string, len(raw))
	s.Meta = FieldMeta{}
	for k, v := range raw {
		if k == metaKey {
			if err := json.Unmarshal(v, &s.Meta); err != nil {
				return eris.Wrap(err, "model: unmarshal extraction meta")
			}
			continue
		}
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			str = string(v)
		}
		s.Values[k] = str
	}
	return nil
}

// Verification is one immutable analysis pass over a document.
type Verification struct {
	ID              string             `json:"id"`
	DocumentID      string             `json:"document_id"`
	ConfidenceScore *int               `json:"confidence_score"`
	ConfidenceLevel string             `json:"confidence_level,omitempty"`
	AnalysisText    string             `json:"analysis_text,omitempty"`
	Fields          *ExtractedFieldSet `json:"extracted,omitempty"`
	Source          ExtractionSource   `json:"extraction_source,omitempty"`
	Feedback        Feedback           `json:"feedback"`
	// Manual marks a record entered by an administrator rather than produced
	// by analysis.
	Manual    bool      `json:"manual,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasFields reports whether the record carries a non-empty field map.
func (v *Verification) HasFields() bool {
	return v != nil && !v.Fields.Empty()
}

// VerificationSummary is the caller-facing part of a Verification. It omits
// raw analysis text and field values.
type VerificationSummary struct {
	ID              string           `json:"id"`
	ConfidenceScore *int             `json:"confidence_score"`
	Feedback        Feedback         `json:"feedback"`
	Source          ExtractionSource `json:"extraction_source,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Summary returns the caller-facing descriptor of v.
func (v *Verification) Summary() VerificationSummary {
	return VerificationSummary{
		ID:              v.ID,
		ConfidenceScore: v.ConfidenceScore,
		Feedback:        v.Feedback,
		Source:          v.Source,
		CreatedAt:       v.CreatedAt,
	}
}
