package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/schoolhub/apiserver/internal/services"
	"github.com/schoolhub/apiserver/types"
	"go.uber.org/zap"
)

// TeacherHandler provides HTTP handlers for teachers.
type TeacherHandler struct {
	teachers *services.TeacherService
	logger   *zap.Logger
}

func NewTeacherHandler(teachers *services.TeacherService, l *zap.Logger) *TeacherHandler {
	return &TeacherHandler{teachers: teachers, logger: l}
}

// TeacherRouter registers teacher routes on the given router.
func TeacherRouter(r chi.Router, teachers *services.TeacherService, l *zap.Logger) {
	handler := NewTeacherHandler(teachers, l)

	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Get("/search", handler.Search)
	r.Route("/{teacherID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Patch("/", handler.Update)
		r.Delete("/", handler.Delete)
		r.Get("/students", handler.Students)
	})
}

// AdminTeacherRouter registers admin-only teacher routes. Callers must wrap
// r with RequireAuth and RequireAdmin.
func AdminTeacherRouter(r chi.Router, teachers *services.TeacherService, l *zap.Logger) {
	handler := NewTeacherHandler(teachers, l)

	r.Get("/{teacherID}/salary", handler.Salary)
}

func (h *TeacherHandler) List(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.teachers.List(r.Context(), parsePage(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, teachers)
}

func (h *TeacherHandler) Search(w http.ResponseWriter, r *http.Request) {
	years, err := optionalInt(r, "years_experience")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	filter := types.TeacherFilter{
		Qualification:   optionalString(r, "qualification"),
		YearsExperience: years,
		Subject:         optionalString(r, "subject"),
	}

	teachers, err := h.teachers.Search(r.Context(), filter, parsePage(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, teachers)
}

func (h *TeacherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var teacher types.Teacher
	if err := decodeJSON(r, &teacher); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	teacher.ID = 0

	created, err := h.teachers.Create(r.Context(), teacher)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *TeacherHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "teacherID", "teacher_id", "Teacher")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	teacher, err := h.teachers.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, teacher)
}

func (h *TeacherHandler) Salary(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "teacherID", "teacher_id", "Teacher")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	salary, err := h.teachers.Salary(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, salary)
}

func (h *TeacherHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "teacherID", "teacher_id", "Teacher")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var patch types.TeacherPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	teacher, err := h.teachers.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, teacher)
}

func (h *TeacherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "teacherID", "teacher_id", "Teacher")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.teachers.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeacherHandler) Students(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "teacherID", "teacher_id", "Teacher")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	students, err := h.teachers.Students(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}
