package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapSink_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewZapSink(zap.New(core))

	ctx := context.Background()
	sink.Log(ctx, Entry{Level: LevelInfo, Module: ModuleDocumentUpload, Message: "uploaded"})
	sink.Log(ctx, Entry{Level: LevelWarn, Module: ModuleAIService, Message: "low"})
	sink.Log(ctx, Entry{Level: LevelError, Module: ModuleAIService, Message: "bad"})
	sink.Log(ctx, Entry{Level: "BOGUS", Message: "unknown"})

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[3].Level)
}

func TestZapSink_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewZapSink(zap.New(core))

	sink.Log(context.Background(), Entry{
		Level:      LevelError,
		Module:     ModuleAIService,
		Message:    "reasoning service returned invalid JSON",
		DocumentID: "doc-1",
		UserID:     "user-1",
		Metadata:   map[string]string{"response": "not json"},
	})

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, true, ctx["audit"])
	assert.Equal(t, ModuleAIService, ctx["module"])
	assert.Equal(t, "doc-1", ctx["document_id"])
	assert.Equal(t, "user-1", ctx["user_id"])
	assert.Equal(t, "not json", ctx["meta.response"])
}

func TestZapSink_OmitsEmptyIDs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	NewZapSink(zap.New(core)).Log(context.Background(), Entry{Message: "x"})

	ctx := logs.All()[0].ContextMap()
	assert.NotContains(t, ctx, "document_id")
	assert.NotContains(t, ctx, "user_id")
}

func TestZapSink_NilLoggerUsesGlobal(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	undo := zap.ReplaceGlobals(zap.New(core))
	defer undo()

	NewZapSink(nil).Log(context.Background(), Entry{Level: LevelWarn, Message: "global"})
	assert.Equal(t, 1, logs.FilterMessage("global").Len())
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard.Log(context.Background(), Entry{Message: "dropped"})
	})
}
