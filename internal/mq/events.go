package mq

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/schoolhub/apiserver/types"
)

const EventDocumentUploaded = "document.uploaded"

// DocumentUploaded is the payload published after a document row is stored.
type DocumentUploaded struct {
	Event        string    `json:"event"`
	DocumentID   int       `json:"document_id"`
	StudentID    int       `json:"student_id"`
	DocumentName string    `json:"document_name"`
	DocumentType string    `json:"document_type"`
	S3URL        string    `json:"s3_url"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// DocumentEvents publishes document lifecycle events to one channel.
type DocumentEvents struct {
	publisher Publisher
	channel   string
}

func NewDocumentEvents(publisher Publisher, channel string) *DocumentEvents {
	return &DocumentEvents{publisher: publisher, channel: channel}
}

// Uploaded publishes a document.uploaded event and returns the broker message id.
func (e *DocumentEvents) Uploaded(ctx context.Context, doc types.StudentDocument) (string, error) {
	data, err := json.Marshal(DocumentUploaded{
		Event:        EventDocumentUploaded,
		DocumentID:   doc.ID,
		StudentID:    doc.StudentID,
		DocumentName: doc.DocumentName,
		DocumentType: doc.DocumentType,
		S3URL:        doc.S3URL,
		UploadedAt:   doc.UploadedAt,
	})
	if err != nil {
		return "", err
	}
	return e.publisher.Publish(ctx, e.channel, data, map[string]string{
		"event":      EventDocumentUploaded,
		"student_id": strconv.Itoa(doc.StudentID),
	})
}
