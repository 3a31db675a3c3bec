package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/schoolhub/apiserver/internal/apperr"
	"github.com/schoolhub/apiserver/internal/store"
	"github.com/lib/pq"
	"github.com/schoolhub/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewPage(t *testing.T) {
	tests := []struct {
		page, perPage int
		want          Page
		offset        int
	}{
		{1, 20, Page{1, 20}, 0},
		{3, 10, Page{3, 10}, 20},
		{0, 0, Page{1, 20}, 0},
		{-4, -1, Page{1, 20}, 0},
		{2, 500, Page{2, 100}, 100},
	}
	for _, tt := range tests {
		got := NewPage(tt.page, tt.perPage)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.offset, got.Offset())
	}
}

func TestSchoolServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := &memSchools{schools: map[int]types.School{}}
	svc := NewSchoolService(repo, &stubTeachers{})

	_, err := svc.Create(ctx, types.School{Name: "  "})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	school, err := svc.Create(ctx, types.School{Name: "Central High"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, types.School{Name: "Central High"})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	_, err = svc.Update(ctx, school.ID, types.SchoolPatch{Name: ptr("")})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	updated, err := svc.Update(ctx, school.ID, types.SchoolPatch{Address: ptr("1 Main St")})
	require.NoError(t, err)
	assert.Equal(t, "Central High", updated.Name)
	assert.Equal(t, "1 Main St", *updated.Address)

	_, err = svc.Get(ctx, 0)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = svc.Get(ctx, 99)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	repo.deleteErr = store.ErrReferenced
	err = svc.Delete(ctx, school.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	repo.deleteErr = nil
	assert.NoError(t, svc.Delete(ctx, school.ID))
	assert.True(t, apperr.IsKind(svc.Delete(ctx, school.ID), apperr.KindNotFound))
}

func TestTeacherSearchValidatesChoices(t *testing.T) {
	ctx := context.Background()
	repo := &stubTeachers{}
	svc := NewTeacherService(repo, nil)

	_, err := svc.Search(ctx, types.TeacherFilter{Qualification: ptr("Wizard")}, NewPage(1, 20))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = svc.Search(ctx, types.TeacherFilter{YearsExperience: ptr(4)}, NewPage(1, 20))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = svc.Search(ctx, types.TeacherFilter{Subject: ptr("Alchemy")}, NewPage(1, 20))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Empty(t, repo.listed)

	filter := types.TeacherFilter{Qualification: ptr("PhD"), YearsExperience: ptr(5), Subject: ptr("Math")}
	_, err = svc.Search(ctx, filter, NewPage(2, 10))
	require.NoError(t, err)
	assert.Equal(t, []types.TeacherFilter{filter}, repo.listed)
	assert.Equal(t, [][2]int{{10, 10}}, repo.pages)
}

func TestTeacherCreateMissingSchool(t *testing.T) {
	svc := NewTeacherService(&stubTeachers{err: store.ErrReferenced}, nil)
	_, err := svc.Create(context.Background(), types.Teacher{Name: "Ada", SchoolID: 42})
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, "Associated school not found", appErr.Message)
}

func TestTeacherSalary(t *testing.T) {
	repo := &stubTeachers{teachers: map[int]types.Teacher{3: {ID: 3, Name: "Ada", Salary: ptr(51000.0)}}}
	svc := NewTeacherService(repo, nil)

	salary, err := svc.Salary(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, salary.TeacherID)
	assert.Equal(t, 51000.0, *salary.Salary)

	_, err = svc.Salary(context.Background(), 4)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

type stubStudents struct {
	students map[int]types.Student
	assigned [][2]int
	filters  []types.StudentFilter
	writeErr error
}

func (s *stubStudents) List(ctx context.Context, filter types.StudentFilter, offset, limit int) ([]types.Student, error) {
	s.filters = append(s.filters, filter)
	return []types.Student{}, nil
}

func (s *stubStudents) Get(ctx context.Context, id int) (types.Student, error) {
	st, ok := s.students[id]
	if !ok {
		return types.Student{}, store.ErrNotFound
	}
	return st, nil
}

func (s *stubStudents) Create(ctx context.Context, student types.Student) (types.Student, error) {
	if s.writeErr != nil {
		return types.Student{}, s.writeErr
	}
	student.ID = len(s.students) + 1
	s.students[student.ID] = student
	return student, nil
}

func (s *stubStudents) Update(ctx context.Context, student types.Student) (types.Student, error) {
	if s.writeErr != nil {
		return types.Student{}, s.writeErr
	}
	s.students[student.ID] = student
	return student, nil
}

func (s *stubStudents) Delete(ctx context.Context, id int) error {
	if _, ok := s.students[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.students, id)
	return nil
}

func (s *stubStudents) AssignTeacher(ctx context.Context, studentID, teacherID int) error {
	s.assigned = append(s.assigned, [2]int{studentID, teacherID})
	return nil
}

func TestStudentCreatePersistsAllFields(t *testing.T) {
	repo := &stubStudents{students: map[int]types.Student{}}
	svc := NewStudentService(repo, &stubTeachers{})
	dob := types.NewDate(2010, 5, 1)

	created, err := svc.Create(context.Background(), types.Student{
		Name:        "Alice",
		Grade:       ptr("A"),
		Email:       ptr("alice@example.com"),
		DateOfBirth: &dob,
	})
	require.NoError(t, err)
	stored := repo.students[created.ID]
	assert.Equal(t, "alice@example.com", *stored.Email)
	assert.Equal(t, "2010-05-01", stored.DateOfBirth.String())

	_, err = svc.Create(context.Background(), types.Student{Name: "Bob", Grade: ptr("F")})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestStudentSearch(t *testing.T) {
	repo := &stubStudents{students: map[int]types.Student{}}
	svc := NewStudentService(repo, &stubTeachers{})

	_, err := svc.Search(context.Background(), types.StudentFilter{Grade: ptr("E")}, NewPage(1, 20))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Search(context.Background(), types.StudentFilter{Name: ptr("  "), TeacherID: ptr(2)}, NewPage(1, 20))
	require.NoError(t, err)
	require.Len(t, repo.filters, 1)
	assert.Nil(t, repo.filters[0].Name)
	assert.Equal(t, 2, *repo.filters[0].TeacherID)
}

func TestStudentAssignTeacher(t *testing.T) {
	repo := &stubStudents{students: map[int]types.Student{1: {ID: 1, Name: "Alice"}}}
	teachers := &stubTeachers{teachers: map[int]types.Teacher{2: {ID: 2, Name: "Ada"}}}
	svc := NewStudentService(repo, teachers)
	ctx := context.Background()

	require.NoError(t, svc.AssignTeacher(ctx, 1, 2))
	require.NoError(t, svc.AssignTeacher(ctx, 1, 2))
	assert.Len(t, repo.assigned, 2)

	assert.True(t, apperr.IsKind(svc.AssignTeacher(ctx, 9, 2), apperr.KindNotFound))
	assert.True(t, apperr.IsKind(svc.AssignTeacher(ctx, 1, 9), apperr.KindNotFound))
}

func uniqueViolation() error {
	return fmt.Errorf("insert: %w", errors.Join(store.ErrConflict, &pq.Error{Code: "23505"}))
}

func assertEmailConflict(t *testing.T, err error, resource string) {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, apperr.KindConflict, appErr.Kind)
	assert.Equal(t, http.StatusConflict, appErr.Status())
	assert.Equal(t, "Email already exists", appErr.Message)
	assert.Equal(t, resource, appErr.Details["resource"])
}

func TestStudentDuplicateEmail(t *testing.T) {
	repo := &stubStudents{
		students: map[int]types.Student{1: {ID: 1, Name: "Alice"}},
		writeErr: uniqueViolation(),
	}
	svc := NewStudentService(repo, &stubTeachers{})
	ctx := context.Background()

	_, err := svc.Create(ctx, types.Student{Name: "Bob", Email: ptr("alice@example.com")})
	assertEmailConflict(t, err, "student")

	_, err = svc.Update(ctx, 1, types.StudentPatch{Email: ptr("bob@example.com")})
	assertEmailConflict(t, err, "student")

	repo.writeErr = store.ErrNotFound
	_, err = svc.Update(ctx, 1, types.StudentPatch{Email: ptr("bob@example.com")})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	repo.writeErr = errors.New("connection reset")
	_, err = svc.Create(ctx, types.Student{Name: "Bob"})
	assert.True(t, apperr.IsKind(err, apperr.KindPersistence))
}

func TestTeacherDuplicateEmail(t *testing.T) {
	repo := &stubTeachers{
		teachers: map[int]types.Teacher{3: {ID: 3, Name: "Ada", SchoolID: 1}},
		err:      uniqueViolation(),
	}
	svc := NewTeacherService(repo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, types.Teacher{Name: "Grace", SchoolID: 1, Email: ptr("ada@example.com")})
	assertEmailConflict(t, err, "teacher")

	_, err = svc.Update(ctx, 3, types.TeacherPatch{Email: ptr("grace@example.com")})
	assertEmailConflict(t, err, "teacher")
}
