package model

import "time"

// DocumentStatus is the reviewer decision state of a document.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusApproved DocumentStatus = "approved"
	DocumentStatusRejected DocumentStatus = "rejected"
)

// Document is an uploaded identity document. Status and AdminRemarks belong
// to the review workflow and are never derived from AI analysis.
type Document struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	MimeType     string         `json:"mime_type"`
	URL          string         `json:"url"`
	FileSize     int64          `json:"file_size"`
	UploadedBy   string         `json:"uploaded_by,omitempty"`
	Status       DocumentStatus `json:"status"`
	AdminRemarks string         `json:"admin_remarks,omitempty"`
	UploadedAt   time.Time      `json:"uploaded_at"`
}

// ActivityAction names an entry in a document's activity timeline.
type ActivityAction string

const (
	ActivityUpload ActivityAction = "upload"
	ActivityVerify ActivityAction = "verify"
)

// ActivityEvent is one timeline entry for a document.
type ActivityEvent struct {
	ID          string         `json:"id"`
	DocumentID  string         `json:"document_id"`
	Action      ActivityAction `json:"action"`
	Details     string         `json:"details"`
	PerformedBy string         `json:"performed_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
