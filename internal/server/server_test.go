package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/schoolhub/apiserver/config"
	"github.com/schoolhub/apiserver/internal/auth"
	"github.com/schoolhub/apiserver/internal/handlers"
	"github.com/schoolhub/apiserver/internal/services"
	"github.com/schoolhub/apiserver/internal/storage"
	"github.com/schoolhub/apiserver/internal/store"
	"github.com/schoolhub/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type userRepo struct {
	mu    sync.Mutex
	users map[string]types.User
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *userRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return types.User{}, store.ErrConflict
	}
	user.ID = len(r.users) + 1
	user.CreatedAt = time.Now()
	r.users[user.Username] = user
	return user, nil
}

type studentSet map[int]bool

func (s studentSet) Exists(ctx context.Context, id int) (bool, error) {
	return s[id], nil
}

type documentRepo struct {
	mu   sync.Mutex
	rows []types.StudentDocument
}

func (r *documentRepo) Create(ctx context.Context, doc types.StudentDocument) (types.StudentDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc.ID = len(r.rows) + 1
	doc.UploadedAt = time.Date(2026, 1, 1, 0, 0, doc.ID, 0, time.UTC)
	r.rows = append(r.rows, doc)
	return doc, nil
}

func (r *documentRepo) ListByStudent(ctx context.Context, studentID int) ([]types.StudentDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.StudentDocument
	for _, row := range r.rows {
		if row.StudentID == studentID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type teacherRepo map[int]types.Teacher

func (r teacherRepo) List(ctx context.Context, filter types.TeacherFilter, offset, limit int) ([]types.Teacher, error) {
	return []types.Teacher{}, nil
}

func (r teacherRepo) Get(ctx context.Context, id int) (types.Teacher, error) {
	t, ok := r[id]
	if !ok {
		return types.Teacher{}, store.ErrNotFound
	}
	return t, nil
}

func (r teacherRepo) Create(ctx context.Context, t types.Teacher) (types.Teacher, error) {
	return t, nil
}

func (r teacherRepo) Update(ctx context.Context, t types.Teacher) (types.Teacher, error) {
	return t, nil
}

func (r teacherRepo) Delete(ctx context.Context, id int) error {
	return nil
}

func (r teacherRepo) ListByStudent(ctx context.Context, studentID int) ([]types.Teacher, error) {
	return []types.Teacher{}, nil
}

func (r teacherRepo) ListByTeacher(ctx context.Context, teacherID int) ([]types.Student, error) {
	return []types.Student{}, nil
}

type testEnv struct {
	router  http.Handler
	tokens  *auth.TokenService
	backend *storage.MemoryBackend
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	backend := storage.NewMemoryBackend("school-docs")
	gateway, err := storage.NewGateway(backend, config.StorageConfig{Bucket: "school-docs", Region: "us-east-1"})
	require.NoError(t, err)

	salary := 52000.0
	teachers := teacherRepo{3: {ID: 3, Name: "Ms. Frizzle", SchoolID: 1, Salary: &salary}}
	l := zap.NewNop()

	svc := Services{
		Tokens:    tokens,
		Users:     services.NewUserService(&userRepo{users: map[string]types.User{}}, tokens, bcrypt.MinCost),
		Teachers:  services.NewTeacherService(teachers, teachers),
		Documents: services.NewDocumentService(&documentRepo{}, studentSet{7: true}, l, services.WithDocumentStorage(gateway)),
	}
	return testEnv{router: NewRouter(svc, l), tokens: tokens, backend: backend}
}

func (e testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, jsonRequest(t, http.MethodPost, "/auth/register", map[string]any{
		"username": "alice",
		"password": "Pw1!",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decodeBody[handlers.UserResponse](t, rec)
	assert.Equal(t, "alice", registered.Username)
	assert.NotZero(t, registered.ID)

	form := url.Values{"username": {"alice"}, "password": {"Pw1!"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeBody[handlers.TokenResponse](t, rec)
	assert.Equal(t, "bearer", login.TokenType)
	assert.Equal(t, int64(60), login.ExpiresIn)
	require.NotEmpty(t, login.AccessToken)
	require.NotEmpty(t, login.RefreshToken)

	rec = env.do(t, jsonRequest(t, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": login.RefreshToken,
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	refreshed := decodeBody[handlers.TokenResponse](t, rec)
	assert.False(t, refreshed.IsAdmin)

	rec = env.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/auth/me", nil), refreshed.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decodeBody[types.User](t, rec)
	assert.Equal(t, "alice", me.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/auth/me", nil), login.RefreshToken))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, jsonRequest(t, http.MethodPost, "/auth/register", map[string]any{
		"username": "bob",
		"password": "right",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)

	form := url.Values{"username": {"bob"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = env.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, jsonRequest(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": "garbage"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/students/7/documents", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeBody[handlers.ErrorResponse](t, rec)
	assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
	assert.Equal(t, "/students/7/documents", body.Path)
	assert.Equal(t, "Could not validate credentials", body.Error)
}

func TestAdminSalary(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.tokens.IssuePair("carol", false)
	require.NoError(t, err)
	rec := env.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/admin/teachers/3/salary", nil), user.AccessToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin, err := env.tokens.IssuePair("root", true)
	require.NoError(t, err)
	rec = env.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/admin/teachers/3/salary", nil), admin.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "52000")

	rec = env.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/admin/teachers/99/salary", nil), admin.AccessToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func uploadRequest(t *testing.T, studentID, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/students/"+studentID+"/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestDocumentUploadAndDownload(t *testing.T) {
	env := newTestEnv(t)
	pair, err := env.tokens.IssuePair("alice", false)
	require.NoError(t, err)

	data := []byte("0123456789")
	req := uploadRequest(t, "7", "report.pdf", data, map[string]string{
		"document_name": "report.pdf",
		"document_type": "report",
	})
	rec := env.do(t, withBearer(req, pair.AccessToken))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	doc := decodeBody[types.StudentDocument](t, rec)
	assert.Equal(t, 7, doc.StudentID)
	assert.Equal(t, "report.pdf", doc.DocumentName)
	assert.True(t, strings.HasSuffix(doc.S3URL, "students/7/report.pdf"), doc.S3URL)
	assert.Equal(t, 1, env.backend.Len())

	rec = env.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/students/7/documents", nil), pair.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeBody[[]types.StudentDocument](t, rec)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].DownloadURL)
	assert.Contains(t, *listed[0].DownloadURL, "students/7/report.pdf")

	rec = env.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/students/7/download-document", nil), pair.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `attachment; filename="report.pdf"`, rec.Header().Get("Content-Disposition"))
	got, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDocumentUploadErrors(t *testing.T) {
	env := newTestEnv(t)
	pair, err := env.tokens.IssuePair("alice", false)
	require.NoError(t, err)

	req := uploadRequest(t, "8", "a.txt", []byte("x"), map[string]string{
		"document_name": "a.txt",
		"document_type": "note",
	})
	rec := env.do(t, withBearer(req, pair.AccessToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = uploadRequest(t, "7", "a.txt", []byte("x"), map[string]string{"document_type": "note"})
	rec = env.do(t, withBearer(req, pair.AccessToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	big := bytes.Repeat([]byte{'a'}, int(services.MaxDocumentSize)+1)
	req = uploadRequest(t, "7", "big.bin", big, map[string]string{
		"document_name": "big.bin",
		"document_type": "blob",
	})
	rec = env.do(t, withBearer(req, pair.AccessToken))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, env.backend.Len())

	rec = env.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/students/7/download-document", nil), pair.AccessToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/students/abc/documents", nil), pair.AccessToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadQuotesFilename(t *testing.T) {
	env := newTestEnv(t)
	pair, err := env.tokens.IssuePair("alice", false)
	require.NoError(t, err)

	name := `term "final" report.pdf`
	req := uploadRequest(t, "7", "report.pdf", []byte("abc"), map[string]string{
		"document_name": name,
		"document_type": "report",
	})
	rec := env.do(t, withBearer(req, pair.AccessToken))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, withBearer(httptest.NewRequest(http.MethodGet, "/students/7/download-document", nil), pair.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	header := rec.Header().Get("Content-Disposition")
	assert.Equal(t, `attachment; filename="term \"final\" report.pdf"`, header)
	_, params, err := mime.ParseMediaType(header)
	require.NoError(t, err)
	assert.Equal(t, name, params["filename"])
}
