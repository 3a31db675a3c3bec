package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/schoolhub/apiserver/internal/services"
	"github.com/schoolhub/apiserver/types"
	"go.uber.org/zap"
)

// StudentHandler provides HTTP handlers for students and their documents.
type StudentHandler struct {
	students  *services.StudentService
	documents *services.DocumentService
	logger    *zap.Logger
}

func NewStudentHandler(students *services.StudentService, documents *services.DocumentService, l *zap.Logger) *StudentHandler {
	return &StudentHandler{students: students, documents: documents, logger: l}
}

// StudentRouter registers student and document routes on the given router.
func StudentRouter(r chi.Router, students *services.StudentService, documents *services.DocumentService, l *zap.Logger) {
	handler := NewStudentHandler(students, documents, l)

	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Get("/search", handler.Search)
	r.Route("/{studentID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Patch("/", handler.Update)
		r.Delete("/", handler.Delete)
		r.Get("/teachers", handler.Teachers)
		r.Post("/teachers/{teacherID}", handler.AssignTeacher)
		r.Post("/documents", handler.UploadDocument)
		r.Get("/documents", handler.ListDocuments)
		r.Get("/download-document", handler.DownloadLatestDocument)
	})
}

func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.List(r.Context(), parsePage(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *StudentHandler) Search(w http.ResponseWriter, r *http.Request) {
	teacherID, err := optionalInt(r, "teacher_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	filter := types.StudentFilter{
		Grade:     optionalString(r, "grade"),
		Name:      optionalString(r, "name"),
		TeacherID: teacherID,
	}

	students, err := h.students.Search(r.Context(), filter, parsePage(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var student types.Student
	if err := decodeJSON(r, &student); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	student.ID = 0

	created, err := h.students.Create(r.Context(), student)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "studentID", "student_id", "Student")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	student, err := h.students.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "studentID", "student_id", "Student")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var patch types.StudentPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	student, err := h.students.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "studentID", "student_id", "Student")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.students.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StudentHandler) Teachers(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "studentID", "student_id", "Student")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	teachers, err := h.students.Teachers(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, teachers)
}

func (h *StudentHandler) AssignTeacher(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseID(r, "studentID", "student_id", "Student")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	teacherID, err := parseID(r, "teacherID", "teacher_id", "Teacher")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.students.AssignTeacher(r.Context(), studentID, teacherID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
