// Package pipeline runs a document upload through preprocessing, OCR,
// analysis and persistence, and assembles the reviewer view.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docverify/internal/analysis"
	"github.com/sells-group/docverify/internal/audit"
	"github.com/sells-group/docverify/internal/blob"
	"github.com/sells-group/docverify/internal/heuristic"
	"github.com/sells-group/docverify/internal/imageprep"
	"github.com/sells-group/docverify/internal/model"
	"github.com/sells-group/docverify/internal/ocr"
	"github.com/sells-group/docverify/internal/store"
	"github.com/sells-group/docverify/internal/textnorm"
	"github.com/sells-group/docverify/internal/verification"
)

// Normalizer prepares image bytes for OCR.
type Normalizer interface {
	Normalize(data []byte, mimeType string) imageprep.Result
}

// QualityAssessor scores the analysis text.
type QualityAssessor interface {
	Assess(ctx context.Context, in analysis.AssessInput) (*analysis.Assessment, error)
}

// FieldExtractor pulls structured fields from the analysis text.
type FieldExtractor interface {
	Extract(ctx context.Context, text string) *analysis.Extraction
}

// Upload is one submitted document.
type Upload struct {
	Name     string
	Type     string
	MimeType string
	Data     []byte
	UserID   string
}

// UploadResult is what the uploader gets back.
type UploadResult struct {
	Document     model.Document            `json:"document"`
	Verification model.VerificationSummary `json:"verification"`
}

// Pipeline orchestrates the upload stages.
type Pipeline struct {
	storage    blob.Storage
	normalizer Normalizer
	ocr        ocr.Engine
	assessor   QualityAssessor
	extractor  FieldExtractor
	store      store.Store
	sink       audit.Sink
	reconciler *verification.Reconciler

	now   func() time.Time
	newID func() string
}

// New creates a new Pipeline with all dependencies. A nil sink discards
// audit entries.
func New(
	storage blob.Storage,
	normalizer Normalizer,
	engine ocr.Engine,
	assessor QualityAssessor,
	extractor FieldExtractor,
	st store.Store,
	sink audit.Sink,
	reconciler *verification.Reconciler,
) *Pipeline {
	if sink == nil {
		sink = audit.Discard
	}
	if reconciler == nil {
		reconciler = verification.NewReconciler(analysis.DefaultExcerptLimit)
	}
	return &Pipeline{
		storage:    storage,
		normalizer: normalizer,
		ocr:        engine,
		assessor:   assessor,
		extractor:  extractor,
		store:      st,
		sink:       sink,
		reconciler: reconciler,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// Process runs one upload to completion. Stages run strictly in sequence and
// any external failure fails the whole upload; nothing is persisted unless
// every stage succeeds.
func (p *Pipeline) Process(ctx context.Context, up Upload) (*UploadResult, error) {
	if err := up.validate(); err != nil {
		return nil, err
	}
	if up.MimeType == "" {
		up.MimeType = http.DetectContentType(up.Data)
	}

	docID := p.newID()
	log := zap.L().With(zap.String("document_id", docID), zap.String("name", up.Name))
	log.Info("pipeline: processing upload", zap.String("type", up.Type), zap.Int("bytes", len(up.Data)))

	url, err := p.storage.Put(ctx, up.Name, up.Data)
	if err != nil {
		return nil, p.fail(log, StageStorage, err)
	}
	persisted := false
	defer func() {
		if !persisted {
			p.discard(ctx, log, url)
		}
	}()

	prepared := p.normalizer.Normalize(up.Data, up.MimeType)

	rawText, err := p.ocr.Recognize(ctx, prepared.Data)
	if err != nil {
		return nil, p.fail(log, StageOCR, err)
	}
	text := textnorm.Canonicalize(rawText)
	log.Debug("pipeline: text recognized",
		zap.Bool("normalized", prepared.Normalized),
		zap.Int("raw_chars", len(rawText)),
		zap.Int("chars", len(text)),
	)

	assessment, err := p.assessor.Assess(ctx, analysis.AssessInput{
		DocumentID: docID,
		UserID:     up.UserID,
		MimeType:   up.MimeType,
		Text:       text,
	})
	if err != nil {
		return nil, p.fail(log, StageAssess, err)
	}

	extraction := p.extractor.Extract(ctx, text)
	if extraction == nil {
		extraction = &analysis.Extraction{Result: analysis.Empty()}
	}

	builder := verification.NewBuilder(docID, text).
		WithAssessment(assessment).
		WithExtraction(extraction)
	if builder.NeedsHeuristic() {
		fields := heuristic.Extract(text)
		log.Info("pipeline: heuristic fallback",
			zap.Stringer("extraction", extraction.Result.Kind),
			zap.Int("fields", len(fields)),
		)
		builder.WithHeuristic(fields)
	}
	v, err := builder.Build()
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: build verification")
	}

	now := p.now()
	doc := model.Document{
		ID:         docID,
		Name:       up.Name,
		Type:       up.Type,
		MimeType:   up.MimeType,
		URL:        url,
		FileSize:   int64(len(up.Data)),
		UploadedBy: up.UserID,
		Status:     model.DocumentStatusPending,
		UploadedAt: now,
	}
	events := []model.ActivityEvent{
		{
			ID:          p.newID(),
			DocumentID:  docID,
			Action:      model.ActivityUpload,
			Details:     fmt.Sprintf("Document '%s' uploaded", up.Name),
			PerformedBy: up.UserID,
			CreatedAt:   now,
		},
		{
			ID:          p.newID(),
			DocumentID:  docID,
			Action:      model.ActivityVerify,
			Details:     fmt.Sprintf("Document '%s' sent for AI verification", up.Name),
			PerformedBy: up.UserID,
			CreatedAt:   now,
		},
	}

	if err := p.store.SaveUpload(ctx, doc, v, events); err != nil {
		return nil, p.fail(log, StagePersist, err)
	}
	persisted = true

	p.sink.Log(ctx, audit.Entry{
		Level:      audit.LevelInfo,
		Module:     audit.ModuleDocumentUpload,
		Message:    "New document uploaded - " + docID,
		DocumentID: docID,
		UserID:     up.UserID,
	})

	var score any
	if v.ConfidenceScore != nil {
		score = *v.ConfidenceScore
	}
	log.Info("pipeline: upload complete",
		zap.Any("confidence_score", score),
		zap.String("extraction_source", string(v.Source)),
		zap.Bool("retry_used", extraction.RetryUsed),
	)

	// Raw reasoning-service excerpts are for reviewers only.
	summary := v.Summary()
	summary.Feedback.RawExcerpt = ""
	return &UploadResult{Document: doc, Verification: summary}, nil
}

// discard removes the stored original of an upload that was not persisted.
// The caller's context may already be canceled, so cleanup ignores it.
func (p *Pipeline) discard(ctx context.Context, log *zap.Logger, ref string) {
	if err := p.storage.Delete(context.WithoutCancel(ctx), ref); err != nil {
		log.Warn("pipeline: stored object left behind", zap.String("url", ref), zap.Error(err))
	}
}

func (p *Pipeline) fail(log *zap.Logger, stage Stage, err error) error {
	log.Error("pipeline: upload failed",
		zap.String("stage", string(stage)),
		zap.Bool("transient", IsTransient(err)),
		zap.Error(err),
	)
	return &StageError{Stage: stage, Err: err}
}

func (up Upload) validate() error {
	var problems []string
	if strings.TrimSpace(up.Name) == "" {
		problems = append(problems, "file name is required")
	}
	if strings.TrimSpace(up.Type) == "" {
		problems = append(problems, "document type is required")
	}
	if len(up.Data) == 0 {
		problems = append(problems, "file is empty")
	}
	if len(problems) > 0 {
		return eris.Errorf("pipeline: invalid upload: %s", strings.Join(problems, "; "))
	}
	return nil
}
