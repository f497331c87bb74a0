package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docverify/internal/analysis"
	"github.com/sells-group/docverify/internal/audit"
	"github.com/sells-group/docverify/internal/blob"
	"github.com/sells-group/docverify/internal/imageprep"
	"github.com/sells-group/docverify/internal/ocr"
	"github.com/sells-group/docverify/internal/pipeline"
	"github.com/sells-group/docverify/internal/store"
	"github.com/sells-group/docverify/internal/verification"
	anthropicpkg "github.com/sells-group/docverify/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "docverify.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// pipelineEnv holds the store and the pipeline built on it.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates config for mode, opens and migrates the store and
// wires the pipeline. Review mode gets no reasoning, OCR or blob clients.
// Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	sink := audit.NewZapSink(nil)
	reconciler := verification.NewReconciler(cfg.Analysis.ExcerptLimit)

	if mode != "analyze" {
		return &pipelineEnv{
			Store:    st,
			Pipeline: pipeline.New(nil, nil, nil, nil, nil, st, sink, reconciler),
		}, nil
	}

	storage, err := blob.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	engine, err := ocr.NewEngine(cfg.OCR)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	ai := anthropicpkg.WithRateLimit(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.RateLimit)
	if cfg.Anthropic.RateLimit > 0 {
		zap.L().Info("anthropic rate limit enabled", zap.Float64("per_second", cfg.Anthropic.RateLimit))
	}

	p := pipeline.New(
		storage,
		imageprep.NewNormalizer(cfg.Image),
		engine,
		analysis.NewAssessor(ai, cfg.Anthropic, cfg.Analysis, sink),
		analysis.NewExtractor(ai, cfg.Anthropic, cfg.Analysis),
		st,
		sink,
		reconciler,
	)
	return &pipelineEnv{Store: st, Pipeline: p}, nil
}
