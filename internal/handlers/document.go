package handlers

import (
	"errors"
	"net/http"

	"github.com/schoolhub/apiserver/internal/apperr"
	"github.com/schoolhub/apiserver/internal/services"
	"github.com/schoolhub/apiserver/internal/storage"
	"go.uber.org/zap"
)

const (
	maxMultipartMemory = 8 << 20
	maxUploadBody      = 64 << 20

	formFieldFile         = "file"
	formFieldDocumentName = "document_name"
	formFieldDocumentType = "document_type"
)

// UploadDocument stores a multipart file for the student and returns its
// metadata.
func (h *StudentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseID(r, "studentID", "student_id", "Student")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, h.logger, apperr.FileTooLarge(services.MaxDocumentSize, r.ContentLength))
			return
		}
		writeError(w, r, h.logger, apperr.Validation("Invalid multipart form", "body"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := services.UploadInput{
		StudentID:    studentID,
		DocumentName: r.FormValue(formFieldDocumentName),
		DocumentType: r.FormValue(formFieldDocumentType),
		Size:         -1,
	}

	file, header, err := r.FormFile(formFieldFile)
	switch {
	case err == nil:
		defer file.Close()
		in.File = file
		in.Size = header.Size
		in.ContentType = header.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile):
	default:
		writeError(w, r, h.logger, apperr.Validation("Invalid file upload", formFieldFile))
		return
	}
	if header != nil && header.Filename == "" {
		in.File = nil
	}

	h.logger.Info("document upload",
		zap.Int("student_id", studentID),
		zap.String("document_name", in.DocumentName),
		zap.String("document_type", in.DocumentType),
	)

	doc, err := h.documents.Upload(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// ListDocuments returns the student's documents, newest first.
func (h *StudentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseID(r, "studentID", "student_id", "Student")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	docs, err := h.documents.List(r.Context(), studentID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// DownloadLatestDocument streams the most recent document as an attachment.
func (h *StudentHandler) DownloadLatestDocument(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseID(r, "studentID", "student_id", "Student")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	dl, err := h.documents.DownloadLatest(r.Context(), studentID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer dl.Object.Close()

	w.Header().Set("Content-Type", dl.Object.ContentType)
	w.Header().Set("Content-Disposition", storage.ContentDisposition("attachment", dl.Document.DocumentName))
	w.WriteHeader(http.StatusOK)

	for chunk, err := range dl.Object.Chunks() {
		if err != nil {
			h.logger.Error("document stream interrupted", zap.Int("document_id", dl.Document.ID), zap.Error(err))
			return
		}
		if _, err := w.Write(chunk); err != nil {
			return
		}
	}
}

