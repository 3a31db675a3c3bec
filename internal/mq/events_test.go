package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/schoolhub/apiserver/config"
	"github.com/schoolhub/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type recordingPublisher struct {
	messages []published
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	p.messages = append(p.messages, published{channel: channel, data: data, attrs: attrs})
	return "msg-1", nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestDocumentEventsUploaded(t *testing.T) {
	pub := &recordingPublisher{}
	events := NewDocumentEvents(pub, "student-documents")
	uploaded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := events.Uploaded(context.Background(), types.StudentDocument{
		ID:           5,
		StudentID:    7,
		DocumentName: "report.pdf",
		DocumentType: "report",
		S3URL:        "http://minio:9000/docs/students/7/report.pdf",
		UploadedAt:   uploaded,
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	assert.Equal(t, "student-documents", msg.channel)
	assert.Equal(t, map[string]string{"event": EventDocumentUploaded, "student_id": "7"}, msg.attrs)

	var payload DocumentUploaded
	require.NoError(t, json.Unmarshal(msg.data, &payload))
	assert.Equal(t, EventDocumentUploaded, payload.Event)
	assert.Equal(t, 5, payload.DocumentID)
	assert.Equal(t, "report.pdf", payload.DocumentName)
	assert.True(t, uploaded.Equal(payload.UploadedAt))
}

func TestNewDisabledAndUnknown(t *testing.T) {
	pub, err := New(context.Background(), config.MQConfig{})
	assert.NoError(t, err)
	assert.Nil(t, pub)

	_, err = New(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.Error(t, err)
}

func TestNewRabbitMQRequiresURL(t *testing.T) {
	_, err := New(context.Background(), config.MQConfig{Backend: config.MQBackendRabbitMQ})
	assert.EqualError(t, err, "rabbitmq url is required")
}
