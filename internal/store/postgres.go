package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/docverify/internal/db"
	"github.com/sells-group/docverify/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	sqlInsertDocument     = `INSERT INTO documents (id, name, type, mime_type, url, file_size, uploaded_by, status, admin_remarks, uploaded_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	sqlInsertVerification = `INSERT INTO verifications (id, document_id, confidence_score, confidence_level, analysis_text, fields, extraction_source, feedback, manual, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	sqlInsertActivity     = `INSERT INTO activity (id, document_id, action, details, performed_by, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	sqlGetDocument        = `SELECT id, name, type, mime_type, url, file_size, uploaded_by, status, admin_remarks, uploaded_at FROM documents WHERE id = $1`
	sqlListVerifications  = `SELECT id, document_id, confidence_score, confidence_level, analysis_text, fields, extraction_source, feedback, manual, created_at FROM verifications WHERE document_id = $1 ORDER BY created_at, seq`
	sqlListActivity       = `SELECT id, document_id, action, details, performed_by, created_at FROM activity WHERE document_id = $1 ORDER BY created_at, seq`
)

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"get_document":       sqlGetDocument,
	"list_verifications": sqlListVerifications,
	"list_activity":      sqlListActivity,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	type          TEXT NOT NULL DEFAULT '',
	mime_type     TEXT NOT NULL,
	url           TEXT NOT NULL,
	file_size     BIGINT NOT NULL DEFAULT 0,
	uploaded_by   TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'pending',
	admin_remarks TEXT NOT NULL DEFAULT '',
	uploaded_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS verifications (
	seq               BIGSERIAL,
	id                TEXT PRIMARY KEY,
	document_id       TEXT NOT NULL REFERENCES documents(id),
	confidence_score  INTEGER,
	confidence_level  TEXT NOT NULL DEFAULT '',
	analysis_text     TEXT NOT NULL DEFAULT '',
	fields            JSONB,
	extraction_source TEXT NOT NULL DEFAULT '',
	feedback          JSONB NOT NULL,
	manual            BOOLEAN NOT NULL DEFAULT false,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS activity (
	seq          BIGSERIAL,
	id           TEXT PRIMARY KEY,
	document_id  TEXT NOT NULL REFERENCES documents(id),
	action       TEXT NOT NULL,
	details      TEXT NOT NULL DEFAULT '',
	performed_by TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_verifications_document_id ON verifications(document_id, created_at);
CREATE INDEX IF NOT EXISTS idx_activity_document_id ON activity(document_id, created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveUpload(ctx context.Context, doc model.Document, v model.Verification, events []model.ActivityEvent) error {
	row, err := encodeVerification(v)
	if err != nil {
		return err
	}

	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, sqlInsertDocument,
			doc.ID, doc.Name, doc.Type, doc.MimeType, doc.URL, doc.FileSize,
			doc.UploadedBy, string(doc.Status), doc.AdminRemarks, doc.UploadedAt,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert document %s", doc.ID)
		}
		if _, err := tx.Exec(ctx, sqlInsertVerification,
			v.ID, v.DocumentID, v.ConfidenceScore, v.ConfidenceLevel, v.AnalysisText,
			row.fields, string(v.Source), row.feedback, v.Manual, v.CreatedAt,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert verification %s", v.ID)
		}
		for _, ev := range events {
			if _, err := tx.Exec(ctx, sqlInsertActivity,
				ev.ID, ev.DocumentID, string(ev.Action), ev.Details, ev.PerformedBy, ev.CreatedAt,
			); err != nil {
				return eris.Wrapf(err, "postgres: insert activity %s", ev.Action)
			}
		}
		return nil
	})
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var d model.Document
	var status string
	err := s.pool.QueryRow(ctx, sqlGetDocument, id).Scan(
		&d.ID, &d.Name, &d.Type, &d.MimeType, &d.URL, &d.FileSize,
		&d.UploadedBy, &status, &d.AdminRemarks, &d.UploadedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get document %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get document %s", id)
	}
	d.Status = model.DocumentStatus(status)
	return &d, nil
}

func (s *PostgresStore) ListVerifications(ctx context.Context, documentID string) ([]model.Verification, error) {
	rows, err := s.pool.Query(ctx, sqlListVerifications, documentID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list verifications")
	}
	defer rows.Close()

	var out []model.Verification
	for rows.Next() {
		var v model.Verification
		var score sql.NullInt64
		var source string
		var row verificationRow
		if err := rows.Scan(
			&v.ID, &v.DocumentID, &score, &v.ConfidenceLevel, &v.AnalysisText,
			&row.fields, &source, &row.feedback, &v.Manual, &v.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan verification")
		}
		if score.Valid {
			n := int(score.Int64)
			v.ConfidenceScore = &n
		}
		v.Source = model.ExtractionSource(source)
		if err := decodeVerification(&v, row); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate verifications")
}

func (s *PostgresStore) ListActivity(ctx context.Context, documentID string) ([]model.ActivityEvent, error) {
	rows, err := s.pool.Query(ctx, sqlListActivity, documentID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list activity")
	}
	defer rows.Close()

	var out []model.ActivityEvent
	for rows.Next() {
		var ev model.ActivityEvent
		var action string
		if err := rows.Scan(&ev.ID, &ev.DocumentID, &action, &ev.Details, &ev.PerformedBy, &ev.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan activity")
		}
		ev.Action = model.ActivityAction(action)
		out = append(out, ev)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate activity")
}
