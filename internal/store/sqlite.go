package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/docverify/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	type          TEXT NOT NULL DEFAULT '',
	mime_type     TEXT NOT NULL,
	url           TEXT NOT NULL,
	file_size     INTEGER NOT NULL DEFAULT 0,
	uploaded_by   TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'pending',
	admin_remarks TEXT NOT NULL DEFAULT '',
	uploaded_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS verifications (
	id                TEXT PRIMARY KEY,
	document_id       TEXT NOT NULL REFERENCES documents(id),
	confidence_score  INTEGER,
	confidence_level  TEXT NOT NULL DEFAULT '',
	analysis_text     TEXT NOT NULL DEFAULT '',
	fields            TEXT,
	extraction_source TEXT NOT NULL DEFAULT '',
	feedback          TEXT NOT NULL,
	manual            INTEGER NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS activity (
	id           TEXT PRIMARY KEY,
	document_id  TEXT NOT NULL REFERENCES documents(id),
	action       TEXT NOT NULL,
	details      TEXT NOT NULL DEFAULT '',
	performed_by TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_verifications_document_id ON verifications(document_id, created_at);
CREATE INDEX IF NOT EXISTS idx_activity_document_id ON activity(document_id, created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) SaveUpload(ctx context.Context, doc model.Document, v model.Verification, events []model.ActivityEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, name, type, mime_type, url, file_size, uploaded_by, status, admin_remarks, uploaded_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, doc.Type, doc.MimeType, doc.URL, doc.FileSize,
		doc.UploadedBy, string(doc.Status), doc.AdminRemarks, doc.UploadedAt,
	); err != nil {
		return eris.Wrapf(err, "sqlite: insert document %s", doc.ID)
	}
	if err := insertVerification(ctx, tx, v); err != nil {
		return err
	}
	for _, ev := range events {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO activity (id, document_id, action, details, performed_by, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.DocumentID, string(ev.Action), ev.Details, ev.PerformedBy, ev.CreatedAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert activity %s", ev.Action)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit tx")
}

func insertVerification(ctx context.Context, ex execer, v model.Verification) error {
	row, err := encodeVerification(v)
	if err != nil {
		return err
	}
	var fields any
	if row.fields != nil {
		fields = string(row.fields)
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO verifications (id, document_id, confidence_score, confidence_level, analysis_text, fields, extraction_source, feedback, manual, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.DocumentID, v.ConfidenceScore, v.ConfidenceLevel, v.AnalysisText,
		fields, string(v.Source), string(row.feedback), v.Manual, v.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert verification %s", v.ID)
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var d model.Document
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, mime_type, url, file_size, uploaded_by, status, admin_remarks, uploaded_at FROM documents WHERE id = ?`,
		id,
	).Scan(&d.ID, &d.Name, &d.Type, &d.MimeType, &d.URL, &d.FileSize, &d.UploadedBy, &status, &d.AdminRemarks, &d.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get document %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get document %s", id)
	}
	d.Status = model.DocumentStatus(status)
	return &d, nil
}

func (s *SQLiteStore) ListVerifications(ctx context.Context, documentID string) ([]model.Verification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, confidence_score, confidence_level, analysis_text, fields, extraction_source, feedback, manual, created_at FROM verifications WHERE document_id = ? ORDER BY created_at, rowid`,
		documentID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list verifications")
	}
	defer rows.Close()

	var out []model.Verification
	for rows.Next() {
		var v model.Verification
		var score sql.NullInt64
		var fields sql.NullString
		var source, feedback string
		if err := rows.Scan(
			&v.ID, &v.DocumentID, &score, &v.ConfidenceLevel, &v.AnalysisText,
			&fields, &source, &feedback, &v.Manual, &v.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan verification")
		}
		if score.Valid {
			n := int(score.Int64)
			v.ConfidenceScore = &n
		}
		v.Source = model.ExtractionSource(source)
		row := verificationRow{feedback: []byte(feedback)}
		if fields.Valid {
			row.fields = []byte(fields.String)
		}
		if err := decodeVerification(&v, row); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate verifications")
}

func (s *SQLiteStore) ListActivity(ctx context.Context, documentID string) ([]model.ActivityEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, action, details, performed_by, created_at FROM activity WHERE document_id = ? ORDER BY created_at, rowid`,
		documentID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list activity")
	}
	defer rows.Close()

	var out []model.ActivityEvent
	for rows.Next() {
		var ev model.ActivityEvent
		var action string
		if err := rows.Scan(&ev.ID, &ev.DocumentID, &action, &ev.Details, &ev.PerformedBy, &ev.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan activity")
		}
		ev.Action = model.ActivityAction(action)
		out = append(out, ev)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate activity")
}
