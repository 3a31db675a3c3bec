package store

import (
	"context"
	"database/sql"

	"github.com/schoolhub/apiserver/types"
)

const teacherColumns = `t.id, t.name, t.subject, t.school_id, t.salary, t.email, t.phone, t.hire_date, t.years_experience, t.qualification`

// TeacherRepository handles persistence for teachers.
type TeacherRepository struct {
	db *sql.DB
}

func NewTeacherRepository(db *sql.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns one page of teachers matching filter, ordered by id.
func (r *TeacherRepository) List(ctx context.Context, filter types.TeacherFilter, offset, limit int) ([]types.Teacher, error) {
	var b filterBuilder
	if filter.Qualification != nil {
		b.add("t.qualification = $%d", *filter.Qualification)
	}
	if filter.YearsExperience != nil {
		b.add("t.years_experience = $%d", *filter.YearsExperience)
	}
	if filter.Subject != nil {
		b.add("t.subject = $%d", *filter.Subject)
	}
	query := `SELECT ` + teacherColumns + ` FROM teachers t` + b.where() + ` ORDER BY t.id` + b.page(offset, limit)
	return r.query(ctx, query, b.args...)
}

// ListBySchool returns every teacher employed by the school.
func (r *TeacherRepository) ListBySchool(ctx context.Context, schoolID int) ([]types.Teacher, error) {
	const query = `SELECT ` + teacherColumns + ` FROM teachers t WHERE t.school_id = $1 ORDER BY t.id`
	return r.query(ctx, query, schoolID)
}

// ListByStudent returns every teacher assigned to the student.
func (r *TeacherRepository) ListByStudent(ctx context.Context, studentID int) ([]types.Teacher, error) {
	const query = `
		SELECT ` + teacherColumns + `
		FROM teachers t
		JOIN student_teacher st ON st.teacher_id = t.id
		WHERE st.student_id = $1
		ORDER BY t.id`
	return r.query(ctx, query, studentID)
}

func (r *TeacherRepository) Get(ctx context.Context, id int) (types.Teacher, error) {
	const query = `SELECT ` + teacherColumns + ` FROM teachers t WHERE t.id = $1`
	teacher, err := scanTeacher(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return types.Teacher{}, notFoundOr(err, sql.ErrNoRows)
	}
	return teacher, nil
}

func (r *TeacherRepository) Create(ctx context.Context, teacher types.Teacher) (types.Teacher, error) {
	const query = `
		INSERT INTO teachers (name, subject, school_id, salary, email, phone, hire_date, years_experience, qualification)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		teacher.Name,
		teacher.Subject,
		teacher.SchoolID,
		teacher.Salary,
		teacher.Email,
		teacher.Phone,
		teacher.HireDate,
		teacher.YearsExperience,
		teacher.Qualification,
	).Scan(&teacher.ID); err != nil {
		return types.Teacher{}, translate(err)
	}
	return teacher, nil
}

func (r *TeacherRepository) Update(ctx context.Context, teacher types.Teacher) (types.Teacher, error) {
	const query = `
		UPDATE teachers
		SET name = $1,
			subject = $2,
			school_id = $3,
			salary = $4,
			email = $5,
			phone = $6,
			hire_date = $7,
			years_experience = $8,
			qualification = $9
		WHERE id = $10`
	result, err := r.db.ExecContext(
		ctx,
		query,
		teacher.Name,
		teacher.Subject,
		teacher.SchoolID,
		teacher.Salary,
		teacher.Email,
		teacher.Phone,
		teacher.HireDate,
		teacher.YearsExperience,
		teacher.Qualification,
		teacher.ID,
	)
	if err != nil {
		return types.Teacher{}, translate(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Teacher{}, err
	}
	if affected == 0 {
		return types.Teacher{}, ErrNotFound
	}
	return teacher, nil
}

func (r *TeacherRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM teachers WHERE id = $1`
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

func (r *TeacherRepository) query(ctx context.Context, query string, args ...any) ([]types.Teacher, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teachers := make([]types.Teacher, 0)
	for rows.Next() {
		teacher, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, teacher)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return teachers, nil
}

func scanTeacher(row rowScanner) (types.Teacher, error) {
	var teacher types.Teacher
	err := row.Scan(
		&teacher.ID,
		&teacher.Name,
		&teacher.Subject,
		&teacher.SchoolID,
		&teacher.Salary,
		&teacher.Email,
		&teacher.Phone,
		&teacher.HireDate,
		&teacher.YearsExperience,
		&teacher.Qualification,
	)
	return teacher, err
}
