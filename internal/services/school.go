package services

import (
	"context"
	"errors"
	"strings"

	"github.com/schoolhub/apiserver/internal/apperr"
	"github.com/schoolhub/apiserver/internal/store"
	"github.com/schoolhub/apiserver/types"
)

// SchoolRepository defines persistence operations for schools.
type SchoolRepository interface {
	List(ctx context.Context) ([]types.School, error)
	Get(ctx context.Context, id int) (types.School, error)
	Create(ctx context.Context, school types.School) (types.School, error)
	Update(ctx context.Context, school types.School) (types.School, error)
	Delete(ctx context.Context, id int) error
}

// SchoolTeachers lists the teachers employed by a school.
type SchoolTeachers interface {
	ListBySchool(ctx context.Context, schoolID int) ([]types.Teacher, error)
}

// SchoolService encapsulates school use-cases.
type SchoolService struct {
	repo     SchoolRepository
	teachers SchoolTeachers
}

func NewSchoolService(repo SchoolRepository, teachers SchoolTeachers) *SchoolService {
	return &SchoolService{repo: repo, teachers: teachers}
}

func (s *SchoolService) Create(ctx context.Context, school types.School) (types.School, error) {
	school.Name = strings.TrimSpace(school.Name)
	if school.Name == "" {
		return types.School{}, apperr.Validation("School name is required", "name")
	}
	created, err := s.repo.Create(ctx, school)
	if err != nil {
		return types.School{}, schoolWriteError(err, "create_school")
	}
	return created, nil
}

func (s *SchoolService) List(ctx context.Context) ([]types.School, error) {
	schools, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Persistence("list_schools", err)
	}
	return schools, nil
}

func (s *SchoolService) Get(ctx context.Context, id int) (types.School, error) {
	if err := validateID(id, "school_id", "School"); err != nil {
		return types.School{}, err
	}
	school, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.School{}, lookupError(err, "School", id, "get_school")
	}
	return school, nil
}

// Update applies the non-nil fields of patch.
func (s *SchoolService) Update(ctx context.Context, id int, patch types.SchoolPatch) (types.School, error) {
	school, err := s.Get(ctx, id)
	if err != nil {
		return types.School{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return types.School{}, apperr.Validation("School name cannot be empty", "name")
		}
		school.Name = name
	}
	if patch.Address != nil {
		school.Address = patch.Address
	}

	updated, err := s.repo.Update(ctx, school)
	if err != nil {
		return types.School{}, schoolWriteError(err, "update_school")
	}
	return updated, nil
}

// Delete removes a school. Schools that still employ teachers are kept.
func (s *SchoolService) Delete(ctx context.Context, id int) error {
	if err := validateID(id, "school_id", "School"); err != nil {
		return err
	}
	err := s.repo.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("School", id)
	case errors.Is(err, store.ErrReferenced):
		return apperr.Conflict("School still has teachers assigned", "school")
	default:
		return apperr.Persistence("delete_school", err)
	}
}

func (s *SchoolService) Teachers(ctx context.Context, id int) ([]types.Teacher, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	teachers, err := s.teachers.ListBySchool(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("list_school_teachers", err)
	}
	return teachers, nil
}

func schoolWriteError(err error, operation string) error {
	switch {
	case errors.Is(err, store.ErrConflict):
		return apperr.Conflict("School with this name already exists", "school")
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("School", nil)
	default:
		return apperr.Persistence(operation, err)
	}
}
