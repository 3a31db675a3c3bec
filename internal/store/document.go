package store

import (
	"context"
	"database/sql"

	"github.com/schoolhub/apiserver/types"
)

// DocumentRepository handles persistence for student document metadata.
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a document row. uploaded_at is assigned by the database.
func (r *DocumentRepository) Create(ctx context.Context, doc types.StudentDocument) (types.StudentDocument, error) {
	const query = `
		INSERT INTO student_documents (student_id, document_name, document_type, s3_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, uploaded_at`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		doc.StudentID,
		doc.DocumentName,
		doc.DocumentType,
		doc.S3URL,
	).Scan(&doc.ID, &doc.UploadedAt); err != nil {
		return types.StudentDocument{}, translate(err)
	}
	return doc, nil
}

// ListByStudent returns the student's documents, most recent first.
func (r *DocumentRepository) ListByStudent(ctx context.Context, studentID int) ([]types.StudentDocument, error) {
	const query = `
		SELECT id, student_id, document_name, document_type, s3_url, uploaded_at
		FROM student_documents
		WHERE student_id = $1
		ORDER BY uploaded_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]types.StudentDocument, 0)
	for rows.Next() {
		var doc types.StudentDocument
		if err := rows.Scan(
			&doc.ID,
			&doc.StudentID,
			&doc.DocumentName,
			&doc.DocumentType,
			&doc.S3URL,
			&doc.UploadedAt,
		); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
