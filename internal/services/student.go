package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/schoolhub/apiserver/internal/apperr"
	"github.com/schoolhub/apiserver/internal/store"
	"github.com/schoolhub/apiserver/types"
)

// StudentRepository defines persistence operations for students.
type StudentRepository interface {
	List(ctx context.Context, filter types.StudentFilter, offset, limit int) ([]types.Student, error)
	Get(ctx context.Context, id int) (types.Student, error)
	Create(ctx context.Context, student types.Student) (types.Student, error)
	Update(ctx context.Context, student types.Student) (types.Student, error)
	Delete(ctx context.Context, id int) error
	AssignTeacher(ctx context.Context, studentID, teacherID int) error
}

// StudentTeachers resolves teachers for assignment and listing.
type StudentTeachers interface {
	Get(ctx context.Context, id int) (types.Teacher, error)
	ListByStudent(ctx context.Context, studentID int) ([]types.Teacher, error)
}

// StudentService encapsulates student use-cases.
type StudentService struct {
	repo     StudentRepository
	teachers StudentTeachers
}

func NewStudentService(repo StudentRepository, teachers StudentTeachers) *StudentService {
	return &StudentService{repo: repo, teachers: teachers}
}

func (s *StudentService) Create(ctx context.Context, student types.Student) (types.Student, error) {
	student.Name = strings.TrimSpace(student.Name)
	if student.Name == "" {
		return types.Student{}, apperr.Validation("Student name is required", "name")
	}
	if err := validateGrade(student.Grade); err != nil {
		return types.Student{}, err
	}
	created, err := s.repo.Create(ctx, student)
	if err != nil {
		return types.Student{}, studentWriteError(err, student.ID, "create_student")
	}
	return created, nil
}

func (s *StudentService) List(ctx context.Context, page Page) ([]types.Student, error) {
	return s.Search(ctx, types.StudentFilter{}, page)
}

// Search filters by exact grade, case-insensitive name substring and
// assigned teacher. A blank name is ignored.
func (s *StudentService) Search(ctx context.Context, filter types.StudentFilter, page Page) ([]types.Student, error) {
	if err := validateGrade(filter.Grade); err != nil {
		return nil, err
	}
	if filter.Name != nil && strings.TrimSpace(*filter.Name) == "" {
		filter.Name = nil
	}

	students, err := s.repo.List(ctx, filter, page.Offset(), page.PerPage)
	if err != nil {
		return nil, apperr.Persistence("list_students", err)
	}
	return students, nil
}

func (s *StudentService) Get(ctx context.Context, id int) (types.Student, error) {
	if err := validateID(id, "student_id", "Student"); err != nil {
		return types.Student{}, err
	}
	student, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Student{}, lookupError(err, "Student", id, "get_student")
	}
	return student, nil
}

// Update applies the non-nil fields of patch.
func (s *StudentService) Update(ctx context.Context, id int, patch types.StudentPatch) (types.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return types.Student{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return types.Student{}, apperr.Validation("Student name cannot be empty", "name")
		}
		student.Name = name
	}
	if patch.Grade != nil {
		if err := validateGrade(patch.Grade); err != nil {
			return types.Student{}, err
		}
		student.Grade = patch.Grade
	}
	if patch.Email != nil {
		student.Email = patch.Email
	}
	if patch.Phone != nil {
		student.Phone = patch.Phone
	}
	if patch.DateOfBirth != nil {
		student.DateOfBirth = patch.DateOfBirth
	}
	if patch.EnrollmentDate != nil {
		student.EnrollmentDate = patch.EnrollmentDate
	}
	if patch.Address != nil {
		student.Address = patch.Address
	}

	updated, err := s.repo.Update(ctx, student)
	if err != nil {
		return types.Student{}, studentWriteError(err, id, "update_student")
	}
	return updated, nil
}

// Delete removes a student together with its documents and teacher links.
func (s *StudentService) Delete(ctx context.Context, id int) error {
	if err := validateID(id, "student_id", "Student"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "Student", id, "delete_student")
	}
	return nil
}

// AssignTeacher links a teacher to a student. Repeating it is a no-op.
func (s *StudentService) AssignTeacher(ctx context.Context, studentID, teacherID int) error {
	if _, err := s.Get(ctx, studentID); err != nil {
		return err
	}
	if err := validateID(teacherID, "teacher_id", "Teacher"); err != nil {
		return err
	}
	if _, err := s.teachers.Get(ctx, teacherID); err != nil {
		return lookupError(err, "Teacher", teacherID, "get_teacher")
	}

	if err := s.repo.AssignTeacher(ctx, studentID, teacherID); err != nil {
		if errors.Is(err, store.ErrReferenced) {
			return apperr.NotFound("Student", studentID)
		}
		return apperr.Persistence("assign_teacher", err)
	}
	return nil
}

func (s *StudentService) Teachers(ctx context.Context, id int) ([]types.Teacher, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	teachers, err := s.teachers.ListByStudent(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("list_student_teachers", err)
	}
	return teachers, nil
}

func validateGrade(grade *string) error {
	if grade != nil && !slices.Contains(types.Grades, *grade) {
		return apperr.Validation("Invalid grade. Use one of A, B, C, D.", "grade")
	}
	return nil
}

func studentWriteError(err error, id int, operation string) error {
	switch {
	case errors.Is(err, store.ErrConflict):
		return apperr.Conflict("Email already exists", "student")
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("Student", id)
	default:
		return apperr.Persistence(operation, err)
	}
}
