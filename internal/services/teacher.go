package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/schoolhub/apiserver/internal/apperr"
	"github.com/schoolhub/apiserver/internal/store"
	"github.com/schoolhub/apiserver/types"
)

// TeacherRepository defines persistence operations for teachers.
type TeacherRepository interface {
	List(ctx context.Context, filter types.TeacherFilter, offset, limit int) ([]types.Teacher, error)
	Get(ctx context.Context, id int) (types.Teacher, error)
	Create(ctx context.Context, teacher types.Teacher) (types.Teacher, error)
	Update(ctx context.Context, teacher types.Teacher) (types.Teacher, error)
	Delete(ctx context.Context, id int) error
}

// TeacherStudents lists the students taught by a teacher.
type TeacherStudents interface {
	ListByTeacher(ctx context.Context, teacherID int) ([]types.Student, error)
}

// TeacherService encapsulates teacher use-cases.
type TeacherService struct {
	repo     TeacherRepository
	students TeacherStudents
}

func NewTeacherService(repo TeacherRepository, students TeacherStudents) *TeacherService {
	return &TeacherService{repo: repo, students: students}
}

func (s *TeacherService) Create(ctx context.Context, teacher types.Teacher) (types.Teacher, error) {
	teacher.Name = strings.TrimSpace(teacher.Name)
	if teacher.Name == "" {
		return types.Teacher{}, apperr.Validation("Teacher name is required", "name")
	}
	if teacher.SchoolID <= 0 {
		return types.Teacher{}, apperr.Validation("Associated school not found", "school_id")
	}
	created, err := s.repo.Create(ctx, teacher)
	if err != nil {
		return types.Teacher{}, teacherWriteError(err, teacher.ID, "create_teacher")
	}
	return created, nil
}

func (s *TeacherService) List(ctx context.Context, page Page) ([]types.Teacher, error) {
	return s.Search(ctx, types.TeacherFilter{}, page)
}

// Search filters teachers by exact matches against the fixed choice lists.
func (s *TeacherService) Search(ctx context.Context, filter types.TeacherFilter, page Page) ([]types.Teacher, error) {
	if filter.Qualification != nil && !slices.Contains(types.QualificationChoices, *filter.Qualification) {
		return nil, apperr.Validation(
			"Invalid qualification. Use one of "+strings.Join(types.QualificationChoices, ", ")+".",
			"qualification",
		)
	}
	if filter.YearsExperience != nil && !slices.Contains(types.YearsExperienceChoices, *filter.YearsExperience) {
		return nil, apperr.Validation(
			fmt.Sprintf("Invalid years_experience. Use one of %v.", types.YearsExperienceChoices),
			"years_experience",
		)
	}
	if filter.Subject != nil && !slices.Contains(types.SubjectChoices, *filter.Subject) {
		return nil, apperr.Validation(
			"Invalid subject. Use one of "+strings.Join(types.SubjectChoices, ", ")+".",
			"subject",
		)
	}

	teachers, err := s.repo.List(ctx, filter, page.Offset(), page.PerPage)
	if err != nil {
		return nil, apperr.Persistence("list_teachers", err)
	}
	return teachers, nil
}

func (s *TeacherService) Get(ctx context.Context, id int) (types.Teacher, error) {
	if err := validateID(id, "teacher_id", "Teacher"); err != nil {
		return types.Teacher{}, err
	}
	teacher, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Teacher{}, lookupError(err, "Teacher", id, "get_teacher")
	}
	return teacher, nil
}

func (s *TeacherService) Salary(ctx context.Context, id int) (types.TeacherSalary, error) {
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return types.TeacherSalary{}, err
	}
	return types.TeacherSalary{TeacherID: teacher.ID, Salary: teacher.Salary}, nil
}

// Update applies the non-nil fields of patch.
func (s *TeacherService) Update(ctx context.Context, id int, patch types.TeacherPatch) (types.Teacher, error) {
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return types.Teacher{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return types.Teacher{}, apperr.Validation("Teacher name cannot be empty", "name")
		}
		teacher.Name = name
	}
	if patch.SchoolID != nil {
		if *patch.SchoolID <= 0 {
			return types.Teacher{}, apperr.Validation("Associated school not found", "school_id")
		}
		teacher.SchoolID = *patch.SchoolID
	}
	if patch.Subject != nil {
		teacher.Subject = patch.Subject
	}
	if patch.Salary != nil {
		teacher.Salary = patch.Salary
	}
	if patch.Email != nil {
		teacher.Email = patch.Email
	}
	if patch.Phone != nil {
		teacher.Phone = patch.Phone
	}
	if patch.HireDate != nil {
		teacher.HireDate = patch.HireDate
	}
	if patch.YearsExperience != nil {
		teacher.YearsExperience = patch.YearsExperience
	}
	if patch.Qualification != nil {
		teacher.Qualification = patch.Qualification
	}

	updated, err := s.repo.Update(ctx, teacher)
	if err != nil {
		return types.Teacher{}, teacherWriteError(err, id, "update_teacher")
	}
	return updated, nil
}

func (s *TeacherService) Delete(ctx context.Context, id int) error {
	if err := validateID(id, "teacher_id", "Teacher"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "Teacher", id, "delete_teacher")
	}
	return nil
}

func (s *TeacherService) Students(ctx context.Context, id int) ([]types.Student, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	students, err := s.students.ListByTeacher(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("list_teacher_students", err)
	}
	return students, nil
}

func teacherWriteError(err error, id int, operation string) error {
	switch {
	case errors.Is(err, store.ErrConflict):
		return apperr.Conflict("Email already exists", "teacher")
	case errors.Is(err, store.ErrReferenced):
		return apperr.Validation("Associated school not found", "school_id")
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("Teacher", id)
	default:
		return apperr.Persistence(operation, err)
	}
}
