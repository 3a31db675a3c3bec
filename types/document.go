package types

import "time"

// StudentDocument is the metadata of one uploaded file. The stored object
// key is never persisted; it is recovered from S3URL.
type StudentDocument struct {
	// ID is the unique identifier of the document row.
	ID int `json:"id" db:"id"`

	// StudentID references the owning student. Rows are removed with
	// the student.
	StudentID int `json:"student_id" db:"student_id"`

	// DocumentName is the trimmed display name, also the last segment
	// of the storage key.
	DocumentName string `json:"document_name" db:"document_name"`

	// DocumentType is a free-form category.
	DocumentType string `json:"document_type" db:"document_type"`

	// S3URL is the canonical object URL returned by the storage gateway.
	S3URL string `json:"s3_url" db:"s3_url"`

	// UploadedAt is assigned by the database on insert.
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`

	// DownloadURL is a presigned link attached to list responses when
	// one could be generated.
	DownloadURL *string `json:"download_url" db:"-"`
}
