package models

import "time"

// UploadStatus is the processing state of an uploaded kardex.
type UploadStatus string

const (
	UploadStatusValid      UploadStatus = "valid"
	UploadStatusRejected   UploadStatus = "rejected"
	UploadStatusProcessing UploadStatus = "processing"
)

// UploadRecord is one entry of the backend's kardex upload history.
type UploadRecord struct {
	ID         string       `json:"id"`
	UploadedAt string       `json:"uploadedAt"`
	Filename   string       `json:"filename"`
	Status     UploadStatus `json:"status"`
}

// UploadResult is the backend's response to a kardex upload.
type UploadResult struct {
	OK      bool         `json:"ok"`
	Message string       `json:"message,omitempty"`
	Summary *UserSummary `json:"summary,omitempty"`
}

// UploadAudit records one upload attempt on the gateway side.
type UploadAudit struct {
	ID         string    `db:"id" json:"id"`
	Expediente string    `db:"expediente" json:"expediente"`
	Filename   string    `db:"filename" json:"filename"`
	SizeBytes  int64     `db:"size_bytes" json:"size_bytes"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	Outcome    string    `db:"outcome" json:"outcome"`
	Detail     *string   `db:"detail" json:"detail,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

const (
	// AuditOutcomeAccepted marks uploads the backend acknowledged.
	AuditOutcomeAccepted = "ACCEPTED"
	// AuditOutcomeRejected marks uploads refused locally or upstream.
	AuditOutcomeRejected = "REJECTED"
	// AuditOutcomeTimeout marks uploads that hit the forwarding deadline.
	AuditOutcomeTimeout = "TIMEOUT"
)
