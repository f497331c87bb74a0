package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docverify/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func sampleUpload() (model.Document, model.Verification, []model.ActivityEvent) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	score := 88
	doc := model.Document{
		ID:         "doc-1",
		Name:       "passport.jpg",
		Type:       "passport",
		MimeType:   "image/jpeg",
		URL:        "file:///tmp/uploads/abc.jpg",
		FileSize:   1024,
		UploadedBy: "user-7",
		Status:     model.DocumentStatusPending,
		UploadedAt: now,
	}
	v := model.Verification{
		ID:              "ver-1",
		DocumentID:      "doc-1",
		ConfidenceScore: &score,
		ConfidenceLevel: "High",
		AnalysisText:    "PASSPORT NO: X1234567",
		Fields: &model.ExtractedFieldSet{
			Values: map[string]string{"passport_number": "X1234567"},
			Meta:   model.FieldMeta{Source: model.SourceLLM},
		},
		Source:    model.SourceLLM,
		Feedback:  model.Feedback{Issues: []string{}},
		CreatedAt: now,
	}
	events := []model.ActivityEvent{
		{ID: "act-1", DocumentID: "doc-1", Action: model.ActivityUpload, Details: "Document uploaded", PerformedBy: "user-7", CreatedAt: now},
		{ID: "act-2", DocumentID: "doc-1", Action: model.ActivityVerify, Details: "AI verification completed", CreatedAt: now},
	}
	return doc, v, events
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS documents`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveUpload_SingleTransaction(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	doc, v, events := sampleUpload()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO documents`).
		WithArgs("doc-1", "passport.jpg", "passport", "image/jpeg", "file:///tmp/uploads/abc.jpg", int64(1024),
			"user-7", "pending", "", doc.UploadedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO verifications`).
		WithArgs("ver-1", "doc-1", pgxmock.AnyArg(), "High", "PASSPORT NO: X1234567",
			pgxmock.AnyArg(), "llm", pgxmock.AnyArg(), false, v.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO activity`).
		WithArgs("act-1", "doc-1", "upload", "Document uploaded", "user-7", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO activity`).
		WithArgs("act-2", "doc-1", "verify", "AI verification completed", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveUpload(context.Background(), doc, v, events))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveUpload_RollsBackOnFailure(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	doc, v, events := sampleUpload()

	anyArgs := func(n int) []any {
		args := make([]any, n)
		for i := range args {
			args[i] = pgxmock.AnyArg()
		}
		return args
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO documents`).
		WithArgs(anyArgs(10)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO verifications`).
		WithArgs(anyArgs(10)...).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := s.SaveUpload(context.Background(), doc, v, events)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert verification ver-1")
	assert.Contains(t, err.Error(), "constraint violation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDocument(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, name, type, mime_type, url, file_size, uploaded_by, status, admin_remarks, uploaded_at FROM documents WHERE id = \$1`).
		WithArgs("doc-1").
		WillReturnRows(mock.NewRows([]string{"id", "name", "type", "mime_type", "url", "file_size", "uploaded_by", "status", "admin_remarks", "uploaded_at"}).
			AddRow("doc-1", "id.png", "national_id", "image/png", "file:///x.png", int64(10), "u", "pending", "", now))

	doc, err := s.GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "id.png", doc.Name)
	assert.Equal(t, model.DocumentStatusPending, doc.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDocument_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM documents WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetDocument(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListVerifications(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cols := []string{"id", "document_id", "confidence_score", "confidence_level", "analysis_text", "fields", "extraction_source", "feedback", "manual", "created_at"}
	mock.ExpectQuery(`FROM verifications WHERE document_id = \$1 ORDER BY created_at, seq`).
		WithArgs("doc-1").
		WillReturnRows(mock.NewRows(cols).
			AddRow("v1", "doc-1", int64(72), "Medium", "text", []byte(`{"full_name":"JANE DOE","_meta":{"source":"llm"}}`), "llm", []byte(`{"issues":["glare"]}`), false, t0).
			AddRow("v2", "doc-1", nil, "", "", []byte(nil), "", []byte(`{"issues":[]}`), true, t0.Add(time.Hour)))

	out, err := s.ListVerifications(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, out, 2)

	require.NotNil(t, out[0].ConfidenceScore)
	assert.Equal(t, 72, *out[0].ConfidenceScore)
	assert.Equal(t, "JANE DOE", out[0].Fields.Values["full_name"])
	assert.Equal(t, model.SourceLLM, out[0].Fields.Meta.Source)
	assert.Equal(t, []string{"glare"}, out[0].Feedback.Issues)

	assert.Nil(t, out[1].ConfidenceScore)
	assert.Nil(t, out[1].Fields)
	assert.True(t, out[1].Manual)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListVerifications_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM verifications`).WillReturnError(errors.New("connection reset"))

	_, err := s.ListVerifications(context.Background(), "doc-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: list verifications")
}

func TestPostgresStore_ListActivity(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM activity WHERE document_id = \$1`).
		WithArgs("doc-1").
		WillReturnRows(mock.NewRows([]string{"id", "document_id", "action", "details", "performed_by", "created_at"}).
			AddRow("a1", "doc-1", "upload", "Document uploaded", "u", now).
			AddRow("a2", "doc-1", "verify", "AI verification completed", "", now))

	out, err := s.ListActivity(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, model.ActivityUpload, out[0].Action)
	assert.Equal(t, model.ActivityVerify, out[1].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}
