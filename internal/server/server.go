package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/schoolhub/apiserver/config"
	"github.com/schoolhub/apiserver/internal/auth"
	"github.com/schoolhub/apiserver/internal/db"
	"github.com/schoolhub/apiserver/internal/handlers"
	"github.com/schoolhub/apiserver/internal/mq"
	"github.com/schoolhub/apiserver/internal/services"
	"github.com/schoolhub/apiserver/internal/storage"
	"github.com/schoolhub/apiserver/internal/store"
	"go.uber.org/zap"
)

// Services groups everything the router dispatches to.
type Services struct {
	Tokens    *auth.TokenService
	Users     *services.UserService
	Schools   *services.SchoolService
	Teachers  *services.TeacherService
	Students  *services.StudentService
	Documents *services.DocumentService
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  mq.Publisher
	logger     *zap.Logger
}

// New opens the database, storage and broker connections described by cfg
// and constructs a Server.
func New(ctx context.Context, cfg config.Config, l *zap.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gateway, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if gateway == nil {
		l.Warn("AWS_S3_BUCKET not set, document upload and download are disabled")
	}

	publisher, err := mq.New(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init mq: %w", err)
	}

	userRepo := store.NewUserRepository(dbConn)
	schoolRepo := store.NewSchoolRepository(dbConn)
	teacherRepo := store.NewTeacherRepository(dbConn)
	studentRepo := store.NewStudentRepository(dbConn)
	documentRepo := store.NewDocumentRepository(dbConn)

	var docOpts []services.DocumentOption
	if gateway != nil {
		docOpts = append(docOpts, services.WithDocumentStorage(gateway))
	}
	if publisher != nil {
		docOpts = append(docOpts, services.WithDocumentEvents(mq.NewDocumentEvents(publisher, cfg.MQ.DocumentChannel)))
	}

	router := NewRouter(Services{
		Tokens:    tokens,
		Users:     services.NewUserService(userRepo, tokens, cfg.Auth.BcryptCost),
		Schools:   services.NewSchoolService(schoolRepo, teacherRepo),
		Teachers:  services.NewTeacherService(teacherRepo, studentRepo),
		Students:  services.NewStudentService(studentRepo, teacherRepo),
		Documents: services.NewDocumentService(documentRepo, studentRepo, l.Named("documents"), docOpts...),
	}, l)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
		logger:     l,
	}, nil
}

// NewRouter mounts every route on a fresh chi router.
func NewRouter(svc Services, l *zap.Logger) *chi.Mux {
	requireAuth := handlers.RequireAuth(svc.Tokens, l)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		handlers.Recover(l.Named("http")),
		handlers.RequestLogger(l.Named("http")),
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, svc.Users, requireAuth, l.Named("auth"))
	})
	router.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Route("/schools", func(r chi.Router) {
			handlers.SchoolRouter(r, svc.Schools, l)
		})
		r.Route("/teachers", func(r chi.Router) {
			handlers.TeacherRouter(r, svc.Teachers, l)
		})
		r.Route("/students", func(r chi.Router) {
			handlers.StudentRouter(r, svc.Students, svc.Documents, l)
		})
		r.Route("/admin/teachers", func(r chi.Router) {
			r.Use(handlers.RequireAdmin(l))
			handlers.AdminTeacherRouter(r, svc.Teachers, l)
		})
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and closes the backing connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.publisher != nil {
		if closeErr := s.publisher.Close(); closeErr != nil {
			s.logger.Warn("failed to close mq publisher", zap.Error(closeErr))
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
