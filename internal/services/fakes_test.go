package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/schoolhub/apiserver/internal/store"
	"github.com/schoolhub/apiserver/types"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]types.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]types.User)}
}

func (m *memUsers) GetByUsername(ctx context.Context, username string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memUsers) Create(ctx context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Username]; ok {
		return types.User{}, store.ErrConflict
	}
	user.ID = len(m.users) + 1
	m.users[user.Username] = user
	return user, nil
}

type memStudents struct {
	ids map[int]bool
	err error
}

func (m *memStudents) Exists(ctx context.Context, id int) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.ids[id], nil
}

type memDocs struct {
	mu        sync.Mutex
	rows      []types.StudentDocument
	clock     time.Time
	createErr error
}

func newMemDocs() *memDocs {
	return &memDocs{clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memDocs) Create(ctx context.Context, doc types.StudentDocument) (types.StudentDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return types.StudentDocument{}, m.createErr
	}
	m.clock = m.clock.Add(time.Second)
	doc.ID = len(m.rows) + 1
	doc.UploadedAt = m.clock
	m.rows = append(m.rows, doc)
	return doc, nil
}

func (m *memDocs) ListByStudent(ctx context.Context, studentID int) ([]types.StudentDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.StudentDocument
	for _, row := range m.rows {
		if row.StudentID == studentID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

type recordingEvents struct {
	docs []types.StudentDocument
	err  error
}

func (r *recordingEvents) Uploaded(ctx context.Context, doc types.StudentDocument) (string, error) {
	r.docs = append(r.docs, doc)
	return "id", r.err
}

type memSchools struct {
	schools   map[int]types.School
	deleteErr error
}

func (m *memSchools) List(ctx context.Context) ([]types.School, error) {
	var out []types.School
	for _, s := range m.schools {
		out = append(out, s)
	}
	return out, nil
}

func (m *memSchools) Get(ctx context.Context, id int) (types.School, error) {
	s, ok := m.schools[id]
	if !ok {
		return types.School{}, store.ErrNotFound
	}
	return s, nil
}

func (m *memSchools) Create(ctx context.Context, school types.School) (types.School, error) {
	for _, s := range m.schools {
		if s.Name == school.Name {
			return types.School{}, store.ErrConflict
		}
	}
	school.ID = len(m.schools) + 1
	m.schools[school.ID] = school
	return school, nil
}

func (m *memSchools) Update(ctx context.Context, school types.School) (types.School, error) {
	m.schools[school.ID] = school
	return school, nil
}

func (m *memSchools) Delete(ctx context.Context, id int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.schools[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.schools, id)
	return nil
}

type stubTeachers struct {
	listed   []types.TeacherFilter
	pages    [][2]int
	teachers map[int]types.Teacher
	err      error
}

func (s *stubTeachers) List(ctx context.Context, filter types.TeacherFilter, offset, limit int) ([]types.Teacher, error) {
	s.listed = append(s.listed, filter)
	s.pages = append(s.pages, [2]int{offset, limit})
	return []types.Teacher{}, nil
}

func (s *stubTeachers) Get(ctx context.Context, id int) (types.Teacher, error) {
	t, ok := s.teachers[id]
	if !ok {
		return types.Teacher{}, store.ErrNotFound
	}
	return t, nil
}

func (s *stubTeachers) Create(ctx context.Context, teacher types.Teacher) (types.Teacher, error) {
	if s.err != nil {
		return types.Teacher{}, s.err
	}
	teacher.ID = 1
	return teacher, nil
}

func (s *stubTeachers) Update(ctx context.Context, teacher types.Teacher) (types.Teacher, error) {
	if s.err != nil {
		return types.Teacher{}, s.err
	}
	s.teachers[teacher.ID] = teacher
	return teacher, nil
}

func (s *stubTeachers) Delete(ctx context.Context, id int) error {
	if _, ok := s.teachers[id]; !ok {
		return store.ErrNotFound
	}
	return nil
}

func (s *stubTeachers) ListBySchool(ctx context.Context, schoolID int) ([]types.Teacher, error) {
	return []types.Teacher{}, nil
}

func (s *stubTeachers) ListByStudent(ctx context.Context, studentID int) ([]types.Teacher, error) {
	return []types.Teacher{}, nil
}

var errBoom = errors.New("boom")

func (in UploadInput) toDoc(objectURL string) types.StudentDocument {
	return types.StudentDocument{
		StudentID:    in.StudentID,
		DocumentName: in.DocumentName,
		DocumentType: in.DocumentType,
		S3URL:        objectURL,
	}
}
