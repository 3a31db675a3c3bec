package store

import (
	"context"
	"database/sql"

	"github.com/schoolhub/apiserver/types"
)

const studentColumns = `s.id, s.name, s.grade, s.email, s.phone, s.date_of_birth, s.enrollment_date, s.address`

// StudentRepository handles persistence for students and their teacher links.
type StudentRepository struct {
	db *sql.DB
}

func NewStudentRepository(db *sql.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns one page of students matching filter, ordered by id.
func (r *StudentRepository) List(ctx context.Context, filter types.StudentFilter, offset, limit int) ([]types.Student, error) {
	var b filterBuilder
	if filter.Grade != nil {
		b.add("s.grade = $%d", *filter.Grade)
	}
	if filter.Name != nil {
		b.add("s.name ILIKE $%d", "%"+*filter.Name+"%")
	}
	if filter.TeacherID != nil {
		b.add("EXISTS (SELECT 1 FROM student_teacher st WHERE st.student_id = s.id AND st.teacher_id = $%d)", *filter.TeacherID)
	}
	query := `SELECT ` + studentColumns + ` FROM students s` + b.where() + ` ORDER BY s.id` + b.page(offset, limit)
	return r.query(ctx, query, b.args...)
}

// ListByTeacher returns every student taught by the teacher.
func (r *StudentRepository) ListByTeacher(ctx context.Context, teacherID int) ([]types.Student, error) {
	const query = `
		SELECT ` + studentColumns + `
		FROM students s
		JOIN student_teacher st ON st.student_id = s.id
		WHERE st.teacher_id = $1
		ORDER BY s.id`
	return r.query(ctx, query, teacherID)
}

func (r *StudentRepository) Get(ctx context.Context, id int) (types.Student, error) {
	const query = `SELECT ` + studentColumns + ` FROM students s WHERE s.id = $1`
	student, err := scanStudent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return types.Student{}, notFoundOr(err, sql.ErrNoRows)
	}
	return student, nil
}

// Exists reports whether a student row with the id is present.
func (r *StudentRepository) Exists(ctx context.Context, id int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *StudentRepository) Create(ctx context.Context, student types.Student) (types.Student, error) {
	const query = `
		INSERT INTO students (name, grade, email, phone, date_of_birth, enrollment_date, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		student.Name,
		student.Grade,
		student.Email,
		student.Phone,
		student.DateOfBirth,
		student.EnrollmentDate,
		student.Address,
	).Scan(&student.ID); err != nil {
		return types.Student{}, translate(err)
	}
	return student, nil
}

func (r *StudentRepository) Update(ctx context.Context, student types.Student) (types.Student, error) {
	const query = `
		UPDATE students
		SET name = $1,
			grade = $2,
			email = $3,
			phone = $4,
			date_of_birth = $5,
			enrollment_date = $6,
			address = $7
		WHERE id = $8`
	result, err := r.db.ExecContext(
		ctx,
		query,
		student.Name,
		student.Grade,
		student.Email,
		student.Phone,
		student.DateOfBirth,
		student.EnrollmentDate,
		student.Address,
		student.ID,
	)
	if err != nil {
		return types.Student{}, translate(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Student{}, err
	}
	if affected == 0 {
		return types.Student{}, ErrNotFound
	}
	return student, nil
}

// Delete removes a student; documents and teacher links cascade.
func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM students WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return translate(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignTeacher links a teacher to a student. Linking an existing pair is a no-op.
func (r *StudentRepository) AssignTeacher(ctx context.Context, studentID, teacherID int) error {
	const query = `
		INSERT INTO student_teacher (student_id, teacher_id)
		VALUES ($1, $2)
		ON CONFLICT (student_id, teacher_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, studentID, teacherID); err != nil {
		return translate(err)
	}
	return nil
}

func (r *StudentRepository) query(ctx context.Context, query string, args ...any) ([]types.Student, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return students, nil
}

func scanStudent(row rowScanner) (types.Student, error) {
	var student types.Student
	err := row.Scan(
		&student.ID,
		&student.Name,
		&student.Grade,
		&student.Email,
		&student.Phone,
		&student.DateOfBirth,
		&student.EnrollmentDate,
		&student.Address,
	)
	return student, err
}
