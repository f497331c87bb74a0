// Package audit records compliance-relevant events raised while documents are
// analyzed. Persisting entries is left to the Sink implementation.
package audit

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the severity of an audit entry.
type Level string

// Audit levels.
const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Modules that emit audit entries.
const (
	ModuleAIService      = "AI Service"
	ModuleDocumentUpload = "Document Upload"
)

// Entry is a single audit record.
type Entry struct {
	Level      Level
	Module     string
	Message    string
	DocumentID string
	UserID     string
	Metadata   map[string]string
}

// Sink receives audit entries. Implementations must not fail the caller.
type Sink interface {
	Log(ctx context.Context, e Entry)
}

// ZapSink writes audit entries as structured zap log lines.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink returns a Sink backed by logger. A nil logger uses the global one
// at the time of each call.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

// Log implements Sink.
func (s *ZapSink) Log(_ context.Context, e Entry) {
	logger := s.logger
	if logger == nil {
		logger = zap.L()
	}

	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("module", e.Module),
	}
	if e.DocumentID != "" {
		fields = append(fields, zap.String("document_id", e.DocumentID))
	}
	if e.UserID != "" {
		fields = append(fields, zap.String("user_id", e.UserID))
	}
	if len(e.Metadata) > 0 {
		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields = append(fields, zap.String("meta."+k, e.Metadata[k]))
		}
	}

	logger.Log(e.Level.zapLevel(), e.Message, fields...)
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Discard drops every entry.
var Discard Sink = discard{}

type discard struct{}

func (discard) Log(context.Context, Entry) {}
