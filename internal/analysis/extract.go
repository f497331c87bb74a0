package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/docverify/internal/config"
	"github.com/sells-group/docverify/pkg/anthropic"
)

// Extraction is the outcome of field extraction including the retry flag.
type Extraction struct {
	Result    Result
	RetryUsed bool
}

// ParseExtraction decodes an extraction response into a tagged Result.
func ParseExtraction(raw string) Result {
	return parseExtraction(raw, DefaultExcerptLimit)
}

func parseExtraction(raw string, limit int) Result {
	v, _, err := decodeValidated(extractionSchema, raw)
	if err != nil {
		return ParseError(Excerpt(raw, limit))
	}

	root, _ := v.(map[string]any)
	obj, _ := root["extracted"].(map[string]any)
	fields := make(map[string]string, len(obj))
	for k, val := range obj {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		if s, ok := stringify(val); ok {
			fields[key] = s
		}
	}
	if len(fields) == 0 {
		return Empty()
	}
	return OK(fields)
}

// stringify renders a decoded JSON value as a field value. Nulls and blank
// strings are dropped.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

// Extractor asks the reasoning service for structured fields.
type Extractor struct {
	client       anthropic.Client
	model        string
	maxTokens    int64
	excerptLimit int
}

// NewExtractor creates an Extractor.
func NewExtractor(client anthropic.Client, aiCfg config.AnthropicConfig, cfg config.AnalysisConfig) *Extractor {
	limit := cfg.ExcerptLimit
	if limit <= 0 {
		limit = DefaultExcerptLimit
	}
	maxTokens := aiCfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Extractor{
		client:       client,
		model:        aiCfg.Model,
		maxTokens:    maxTokens,
		excerptLimit: limit,
	}
}

// Extract runs field extraction with at most one clarifying retry. It never
// returns an error: failures are reported through the Result kind.
func (e *Extractor) Extract(ctx context.Context, text string) *Extraction {
	first := e.attempt(ctx, extractionPrompt, text)
	if !first.Retryable() {
		return &Extraction{Result: first}
	}

	zap.L().Warn("analysis: extraction failed, retrying once",
		zap.Stringer("kind", first.Kind),
		zap.Error(first.Err),
	)
	second := e.attempt(ctx, extractionRetryPrompt+"\n\n"+extractionPrompt, text)
	if second.Retryable() {
		zap.L().Warn("analysis: extraction retry failed",
			zap.Stringer("kind", second.Kind),
			zap.Error(second.Err),
		)
	}
	return &Extraction{Result: second, RetryUsed: true}
}

func (e *Extractor) attempt(ctx context.Context, prompt, text string) Result {
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(extractionUserPrompt, prompt, text)},
		},
	})
	if err != nil {
		return Unavailable(err)
	}
	resp.Usage.LogCost(e.model, "extract")
	return parseExtraction(resp.Text(), e.excerptLimit)
}
