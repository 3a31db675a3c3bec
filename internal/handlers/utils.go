package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/schoolhub/apiserver/internal/apperr"
	"github.com/schoolhub/apiserver/internal/auth"
	"github.com/schoolhub/apiserver/internal/services"
	"go.uber.org/zap"
)

type contextKey string

const contextPrincipalKey contextKey = "principal"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error      string         `json:"error"`
	Kind       apperr.Kind    `json:"kind"`
	StatusCode int            `json:"status_code"`
	Details    map[string]any `json:"details,omitempty"`
	Path       string         `json:"path"`
}

func withPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, contextPrincipalKey, p)
}

// PrincipalFromContext returns the caller set by RequireAuth.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(contextPrincipalKey).(auth.Principal)
	return p, ok
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeError renders err as an ErrorResponse. Errors without a kind are
// logged and reported as a generic internal error.
func writeError(w http.ResponseWriter, r *http.Request, l *zap.Logger, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Internal("", err)
	}
	status := appErr.Status()
	if status >= http.StatusInternalServerError {
		l.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("kind", string(appErr.Kind)),
			zap.Error(err),
		)
	}
	writeJSON(w, status, ErrorResponse{
		Error:      appErr.Message,
		Kind:       appErr.Kind,
		StatusCode: status,
		Details:    appErr.Details,
		Path:       r.URL.Path,
	})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("Invalid request body", "body")
	}
	return nil
}

// parseID reads a positive integer path parameter.
func parseID(r *http.Request, param, field, label string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || id < 1 {
		return 0, apperr.Validation(label+" ID must be a positive integer", field)
	}
	return id, nil
}

// parsePage reads page and per_page. Unparseable values fall back to defaults.
func parsePage(r *http.Request) services.Page {
	query := r.URL.Query()
	page, _ := strconv.Atoi(strings.TrimSpace(query.Get("page")))
	perPage, _ := strconv.Atoi(strings.TrimSpace(query.Get("per_page")))
	return services.NewPage(page, perPage)
}

func optionalString(r *http.Request, key string) *string {
	if !r.URL.Query().Has(key) {
		return nil
	}
	value := r.URL.Query().Get(key)
	return &value
}

func optionalInt(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.Validation("Invalid "+key, key)
	}
	return &value, nil
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
