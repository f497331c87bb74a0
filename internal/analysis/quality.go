package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docverify/internal/audit"
	"github.com/sells-group/docverify/internal/config"
	"github.com/sells-group/docverify/pkg/anthropic"
)

// IssueInvalidResponse is the synthesized issue recorded when the quality
// response cannot be parsed.
const IssueInvalidResponse = "invalid AI response"

// Defaults used when the configuration leaves a value unset.
const (
	DefaultConfidenceThreshold = 80
	DefaultExcerptLimit        = 2000
)

// Assessment is the parsed outcome of a quality assessment.
type Assessment struct {
	// Score is nil when the document could not be assessed.
	Score       *int
	Level       string
	Issues      []string
	ParseFailed bool
	// RawExcerpt holds the bounded raw response when ParseFailed is set.
	RawExcerpt string
}

// AssessInput is the material sent for quality assessment.
type AssessInput struct {
	DocumentID string
	UserID     string
	MimeType   string
	Text       string
}

type qualityPayload struct {
	ConfidenceScore *float64 `json:"confidence_score"`
	ConfidenceLevel *string  `json:"confidence_level"`
	Feedback        *struct {
		Issues []string `json:"issues"`
	} `json:"feedback"`
}

// ParseQuality decodes a quality response. Code fences and surrounding prose
// are tolerated; anything that does not match the expected shape is an error.
func ParseQuality(raw string) (*Assessment, error) {
	_, cleaned, err := decodeValidated(qualitySchema, raw)
	if err != nil {
		return nil, err
	}

	var p qualityPayload
	if err := json.Unmarshal(cleaned, &p); err != nil {
		return nil, eris.Wrap(err, "analysis: decode quality")
	}

	a := &Assessment{Issues: []string{}}
	if p.ConfidenceScore != nil {
		score := int(math.Round(*p.ConfidenceScore))
		a.Score = &score
	}
	if p.ConfidenceLevel != nil {
		a.Level = *p.ConfidenceLevel
	}
	if p.Feedback != nil && p.Feedback.Issues != nil {
		a.Issues = p.Feedback.Issues
	}
	return a, nil
}

// Assessor scores how trustworthy a document's text looks.
type Assessor struct {
	client       anthropic.Client
	model        string
	maxTokens    int64
	sink         audit.Sink
	threshold    int
	excerptLimit int
}

// NewAssessor creates an Assessor. A nil sink discards audit entries.
func NewAssessor(client anthropic.Client, aiCfg config.AnthropicConfig, cfg config.AnalysisConfig, sink audit.Sink) *Assessor {
	if sink == nil {
		sink = audit.Discard
	}
	threshold := cfg.ConfidenceThreshold
	if threshold == 0 {
		threshold = DefaultConfidenceThreshold
	}
	limit := cfg.ExcerptLimit
	if limit <= 0 {
		limit = DefaultExcerptLimit
	}
	maxTokens := aiCfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Assessor{
		client:       client,
		model:        aiCfg.Model,
		maxTokens:    maxTokens,
		sink:         sink,
		threshold:    threshold,
		excerptLimit: limit,
	}
}

// Assess sends the text for quality scoring. A malformed response degrades
// to an unassessable result; only a failed service call returns an error.
func (a *Assessor) Assess(ctx context.Context, in AssessInput) (*Assessment, error) {
	log := zap.L().With(zap.String("document_id", in.DocumentID), zap.String("stage", "assess"))

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    []anthropic.SystemBlock{{Text: qualitySystemPrompt}},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(qualityUserPrompt, in.MimeType, in.Text)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "analysis: assess quality")
	}
	resp.Usage.LogCost(a.model, "quality")

	raw := resp.Text()
	result, perr := ParseQuality(raw)
	if perr != nil {
		excerpt := Excerpt(raw, a.excerptLimit)
		log.Warn("analysis: quality response not valid JSON", zap.Error(perr))
		a.sink.Log(ctx, audit.Entry{
			Level:      audit.LevelError,
			Module:     audit.ModuleAIService,
			Message:    "reasoning service returned invalid JSON",
			DocumentID: in.DocumentID,
			UserID:     in.UserID,
			Metadata:   map[string]string{"response": excerpt},
		})
		result = &Assessment{
			Issues:      []string{IssueInvalidResponse},
			ParseFailed: true,
			RawExcerpt:  excerpt,
		}
	}

	if result.Score != nil && *result.Score < a.threshold {
		a.sink.Log(ctx, audit.Entry{
			Level:      audit.LevelWarn,
			Module:     audit.ModuleAIService,
			Message:    fmt.Sprintf("AI confidence score below threshold (%d%%) for %s", *result.Score, in.DocumentID),
			DocumentID: in.DocumentID,
			UserID:     in.UserID,
		})
	}

	log.Debug("analysis: quality assessed",
		zap.Bool("parse_failed", result.ParseFailed),
		zap.Int("issues", len(result.Issues)),
	)
	return result, nil
}
