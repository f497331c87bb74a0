// Package store persists documents, their verification history and activity
// timeline. Verifications are append-only.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docverify/internal/model"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = eris.New("store: document not found")

// Store defines the persistence interface for document verification.
type Store interface {
	// SaveUpload writes a new document, its first verification and its
	// activity events in a single transaction.
	SaveUpload(ctx context.Context, doc model.Document, v model.Verification, events []model.ActivityEvent) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	// ListVerifications returns the document's verifications oldest first.
	ListVerifications(ctx context.Context, documentID string) ([]model.Verification, error)
	ListActivity(ctx context.Context, documentID string) ([]model.ActivityEvent, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// verificationRow holds the encoded JSON columns of a verification.
type verificationRow struct {
	fields   []byte
	feedback []byte
}

func encodeVerification(v model.Verification) (verificationRow, error) {
	var row verificationRow
	if v.Fields != nil {
		data, err := json.Marshal(v.Fields)
		if err != nil {
			return row, eris.Wrap(err, "store: marshal fields")
		}
		row.fields = data
	}
	fb := v.Feedback
	if fb.Issues == nil {
		fb.Issues = []string{}
	}
	data, err := json.Marshal(fb)
	if err != nil {
		return row, eris.Wrap(err, "store: marshal feedback")
	}
	row.feedback = data
	return row, nil
}

func decodeVerification(v *model.Verification, row verificationRow) error {
	if len(row.fields) > 0 {
		v.Fields = &model.ExtractedFieldSet{}
		if err := json.Unmarshal(row.fields, v.Fields); err != nil {
			return eris.Wrap(err, "store: unmarshal fields")
		}
	}
	if len(row.feedback) > 0 {
		if err := json.Unmarshal(row.feedback, &v.Feedback); err != nil {
			return eris.Wrap(err, "store: unmarshal feedback")
		}
	}
	return nil
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
