package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/schoolhub/apiserver/internal/services"
	"github.com/schoolhub/apiserver/types"
	"go.uber.org/zap"
)

// SchoolHandler provides HTTP handlers for schools.
type SchoolHandler struct {
	schools *services.SchoolService
	logger  *zap.Logger
}

func NewSchoolHandler(schools *services.SchoolService, l *zap.Logger) *SchoolHandler {
	return &SchoolHandler{schools: schools, logger: l}
}

// SchoolRouter registers school routes on the given router.
func SchoolRouter(r chi.Router, schools *services.SchoolService, l *zap.Logger) {
	handler := NewSchoolHandler(schools, l)

	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Route("/{schoolID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Patch("/", handler.Update)
		r.Delete("/", handler.Delete)
		r.Get("/teachers", handler.Teachers)
	})
}

func (h *SchoolHandler) List(w http.ResponseWriter, r *http.Request) {
	schools, err := h.schools.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, schools)
}

func (h *SchoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	var school types.School
	if err := decodeJSON(r, &school); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	school.ID = 0

	created, err := h.schools.Create(r.Context(), school)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *SchoolHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "schoolID", "school_id", "School")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	school, err := h.schools.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, school)
}

func (h *SchoolHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "schoolID", "school_id", "School")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var patch types.SchoolPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	school, err := h.schools.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, school)
}

func (h *SchoolHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "schoolID", "school_id", "School")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.schools.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SchoolHandler) Teachers(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "schoolID", "school_id", "School")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	teachers, err := h.schools.Teachers(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, teachers)
}
