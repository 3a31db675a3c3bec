package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/schoolhub/apiserver/internal/apperr"
	"github.com/schoolhub/apiserver/internal/storage"
	"github.com/schoolhub/apiserver/internal/store"
	"github.com/schoolhub/apiserver/types"
	"go.uber.org/zap"
)

// MaxDocumentSize is the largest accepted upload, in bytes.
const MaxDocumentSize int64 = 5 << 20

// Column widths of student_documents, in characters.
const (
	MaxDocumentNameLength = 255
	MaxDocumentTypeLength = 50
)

// DocumentRepository defines persistence operations for document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc types.StudentDocument) (types.StudentDocument, error)
	ListByStudent(ctx context.Context, studentID int) ([]types.StudentDocument, error)
}

// StudentChecker reports whether a student exists.
type StudentChecker interface {
	Exists(ctx context.Context, id int) (bool, error)
}

// DocumentStorage is the blob store used for document bytes.
type DocumentStorage interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	PresignDownload(ctx context.Context, key string, ttl time.Duration, filename, contentType string) (string, error)
	Open(ctx context.Context, key string) (*storage.Object, error)
	KeyFromURL(rawURL string) (string, error)
}

// DocumentEvents receives notifications about stored documents.
type DocumentEvents interface {
	Uploaded(ctx context.Context, doc types.StudentDocument) (string, error)
}

// UploadInput is one document upload request.
type UploadInput struct {
	StudentID    int
	DocumentName string
	DocumentType string
	File         io.Reader
	// Size is the declared file size, or a negative value when unknown.
	Size        int64
	ContentType string
}

// Download is the latest document of a student, opened for streaming.
type Download struct {
	Document types.StudentDocument
	Object   *storage.Object
}

// DocumentService orchestrates document uploads, listings and downloads.
type DocumentService struct {
	docs     DocumentRepository
	students StudentChecker
	storage  DocumentStorage
	events   DocumentEvents
	logger   *zap.Logger
	maxSize  int64
}

type DocumentOption func(*DocumentService)

// WithDocumentStorage configures the blob store. Without it uploads and
// downloads fail with a storage error.
func WithDocumentStorage(s DocumentStorage) DocumentOption {
	return func(svc *DocumentService) {
		svc.storage = s
	}
}

func WithDocumentEvents(e DocumentEvents) DocumentOption {
	return func(svc *DocumentService) {
		svc.events = e
	}
}

func WithMaxDocumentSize(n int64) DocumentOption {
	return func(svc *DocumentService) {
		svc.maxSize = n
	}
}

func NewDocumentService(docs DocumentRepository, students StudentChecker, logger *zap.Logger, opts ...DocumentOption) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &DocumentService{
		docs:     docs,
		students: students,
		logger:   logger,
		maxSize:  MaxDocumentSize,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Upload stores the file under the student's key and records its metadata.
// If the metadata insert fails the stored object is left in place.
func (s *DocumentService) Upload(ctx context.Context, in UploadInput) (types.StudentDocument, error) {
	if err := validateID(in.StudentID, "student_id", "Student"); err != nil {
		return types.StudentDocument{}, err
	}
	name := strings.TrimSpace(in.DocumentName)
	if name == "" {
		return types.StudentDocument{}, apperr.Validation("Document name is required", "document_name")
	}
	if utf8.RuneCountInString(name) > MaxDocumentNameLength {
		return types.StudentDocument{}, apperr.Validation(
			fmt.Sprintf("Document name must be at most %d characters", MaxDocumentNameLength), "document_name")
	}
	docType := strings.TrimSpace(in.DocumentType)
	if docType == "" {
		return types.StudentDocument{}, apperr.Validation("Document type is required", "document_type")
	}
	if utf8.RuneCountInString(docType) > MaxDocumentTypeLength {
		return types.StudentDocument{}, apperr.Validation(
			fmt.Sprintf("Document type must be at most %d characters", MaxDocumentTypeLength), "document_type")
	}
	if in.File == nil {
		return types.StudentDocument{}, apperr.Validation("File is required", "file")
	}
	if s.storage == nil {
		return types.StudentDocument{}, apperr.Storage("upload", "Storage bucket not configured (AWS_S3_BUCKET)", nil)
	}
	if err := s.ensureStudent(ctx, in.StudentID); err != nil {
		return types.StudentDocument{}, err
	}

	if in.Size > s.maxSize {
		return types.StudentDocument{}, apperr.FileTooLarge(s.maxSize, in.Size)
	}
	content, err := io.ReadAll(io.LimitReader(in.File, s.maxSize+1))
	if err != nil {
		return types.StudentDocument{}, apperr.Internal("Failed to read uploaded file", err)
	}
	if size := int64(len(content)); size > s.maxSize {
		return types.StudentDocument{}, apperr.FileTooLarge(s.maxSize, max(size, in.Size))
	}

	key := storage.DeriveKey(in.StudentID, name)
	objectURL, err := s.storage.Upload(ctx, key, bytes.NewReader(content), int64(len(content)), in.ContentType)
	if err != nil {
		s.logger.Error("document upload failed", zap.String("key", key), zap.Error(err))
		return types.StudentDocument{}, apperr.Storage("upload", "Failed to upload file to storage: "+err.Error(), err)
	}

	doc, err := s.docs.Create(ctx, types.StudentDocument{
		StudentID:    in.StudentID,
		DocumentName: name,
		DocumentType: docType,
		S3URL:        objectURL,
	})
	if err != nil {
		s.logger.Warn("document metadata not saved, stored object left orphaned",
			zap.String("key", key),
			zap.Int("student_id", in.StudentID),
			zap.Error(err),
		)
		if errors.Is(err, store.ErrReferenced) {
			return types.StudentDocument{}, apperr.NotFound("Student", in.StudentID)
		}
		return types.StudentDocument{}, apperr.Persistence("create_document", err)
	}

	if s.events != nil {
		if _, err := s.events.Uploaded(ctx, doc); err != nil {
			s.logger.Warn("failed to publish document event", zap.Int("document_id", doc.ID), zap.Error(err))
		}
	}
	return doc, nil
}

// List returns the student's documents, newest first. Each entry gets a
// presigned download URL when one can be produced; failures leave it nil.
func (s *DocumentService) List(ctx context.Context, studentID int) ([]types.StudentDocument, error) {
	if err := validateID(studentID, "student_id", "Student"); err != nil {
		return nil, err
	}
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}

	docs, err := s.docs.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, apperr.Persistence("list_documents", err)
	}
	if s.storage == nil {
		return docs, nil
	}

	for i := range docs {
		downloadURL, err := s.presign(ctx, docs[i])
		if err != nil {
			s.logger.Warn("failed to generate download url", zap.Int("document_id", docs[i].ID), zap.Error(err))
			continue
		}
		docs[i].DownloadURL = &downloadURL
	}
	return docs, nil
}

// DownloadLatest opens the most recently uploaded document of a student.
// The caller must close the returned object.
func (s *DocumentService) DownloadLatest(ctx context.Context, studentID int) (Download, error) {
	if err := validateID(studentID, "student_id", "Student"); err != nil {
		return Download{}, err
	}
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return Download{}, err
	}
	if s.storage == nil {
		return Download{}, apperr.Storage("download", "Storage bucket not configured", nil)
	}

	docs, err := s.docs.ListByStudent(ctx, studentID)
	if err != nil {
		return Download{}, apperr.Persistence("get_documents", err)
	}
	if len(docs) == 0 {
		return Download{}, apperr.NotFound("Document", "student_id="+strconv.Itoa(studentID))
	}
	doc := docs[0]

	key, err := s.storage.KeyFromURL(doc.S3URL)
	if err != nil {
		return Download{}, apperr.Storage("download", "Invalid stored object URL", err)
	}
	obj, err := s.storage.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return Download{}, apperr.NotFound("File", key)
		}
		s.logger.Error("document fetch failed", zap.String("key", key), zap.Error(err))
		return Download{}, apperr.Storage("download", "Failed to fetch file from storage: "+err.Error(), err)
	}
	return Download{Document: doc, Object: obj}, nil
}

func (s *DocumentService) presign(ctx context.Context, doc types.StudentDocument) (string, error) {
	key, err := s.storage.KeyFromURL(doc.S3URL)
	if err != nil {
		return "", err
	}
	return s.storage.PresignDownload(ctx, key, 0, doc.DocumentName, "")
}

func (s *DocumentService) ensureStudent(ctx context.Context, id int) error {
	exists, err := s.students.Exists(ctx, id)
	if err != nil {
		return apperr.Persistence("get_student", err)
	}
	if !exists {
		return apperr.NotFound("Student", id)
	}
	return nil
}
