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
	"github.com/jotnotes/apiserver/config"
	"github.com/jotnotes/apiserver/internal/auth"
	"github.com/jotnotes/apiserver/internal/cache"
	"github.com/jotnotes/apiserver/internal/db"
	"github.com/jotnotes/apiserver/internal/events"
	"github.com/jotnotes/apiserver/internal/handlers"
	"github.com/jotnotes/apiserver/internal/mq"
	"github.com/jotnotes/apiserver/internal/services"
	"github.com/jotnotes/apiserver/internal/storage"
	"github.com/jotnotes/apiserver/internal/store"
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"
)

const (
	defaultPort            = 8080
	requestTimeout         = 60 * time.Second
	newRelicShutdownWindow = 10 * time.Second
)

// Server wraps the HTTP server, router and the process wide resources
// behind it.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *zap.SugaredLogger

	db      *sql.DB
	cache   *cache.NoteCache
	queue   *mq.MQ
	objects *storage.Storage
	nrApp   *newrelic.Application
}

// RouterDeps are the services mounted by NewRouter. ExportService and
// NewRelic are optional.
type RouterDeps struct {
	DB            handlers.Pinger
	UserService   *services.UserService
	NoteService   *services.NoteService
	ExportService *services.ExportService
	NewRelic      *newrelic.Application
	Log           *zap.SugaredLogger
}

// New opens every configured resource and wires the HTTP API. Resources
// opened before a failure are released.
func New(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (_ *Server, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, cfg, log, db.Up); err != nil {
			return nil, err
		}
	}

	s := &Server{log: log}
	defer func() {
		if err != nil {
			s.closeResources()
		}
	}()

	s.db, err = db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Infow("startup", "database", cfg.Database.Host, "driver", cfg.Database.Driver)

	var noteOpts []services.NoteOption

	s.cache, err = cache.New(ctx, cfg.Cache, log)
	switch {
	case err == nil:
		noteOpts = append(noteOpts, services.WithNoteCache(s.cache))
		log.Infow("startup", "cache", cfg.Cache.Addr)
	case errors.Is(err, cache.ErrNotConfigured):
		s.cache = nil
	default:
		return nil, err
	}

	s.queue, err = mq.Open(ctx, cfg.MQ)
	switch {
	case err == nil:
		noteOpts = append(noteOpts, services.WithEventPublisher(events.NewPublisher(s.queue, cfg.MQ.EventsChannel, log)))
		log.Infow("startup", "mq", cfg.MQ.Backend, "events_channel", cfg.MQ.EventsChannel)
	case errors.Is(err, mq.ErrNotConfigured):
		s.queue = nil
	default:
		return nil, err
	}

	noteRepo := store.NewNoteRepository(s.db)
	userRepo := store.NewUserRepository(s.db)

	deps := RouterDeps{
		DB:          s.db,
		UserService: services.NewUserService(userRepo, tokens, cfg.Auth.BcryptCost),
		NoteService: services.NewNoteService(noteRepo, noteOpts...),
		Log:         log,
	}

	s.objects, err = storage.New(ctx, cfg.Storage)
	switch {
	case err == nil:
		deps.ExportService = services.NewExportService(noteRepo, s.objects)
		log.Infow("startup", "storage", cfg.Storage.Backend, "bucket", s.objects.Bucket())
	case errors.Is(err, storage.ErrNotConfigured):
		s.objects = nil
	default:
		return nil, err
	}

	if cfg.NewRelic.Enabled {
		s.nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.License),
			newrelic.ConfigEnabled(true),
		)
		if err != nil {
			return nil, fmt.Errorf("new relic: %w", err)
		}
		deps.NewRelic = s.nrApp
	}

	s.router = NewRouter(deps)

	port := cfg.ServerPort
	if port == 0 {
		port = defaultPort
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// NewRouter builds the chi router for the API.
func NewRouter(deps RouterDeps) *chi.Mux {
	authMiddleware := handlers.RequireAuth(deps.UserService, deps.Log)
	authHandler := handlers.NewAuthHandler(deps.UserService, deps.Log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		handlers.RequestLogger(deps.Log),
		middleware.Recoverer,
		handlers.NewRelic(deps.NewRelic),
		middleware.Timeout(requestTimeout),
	)
	router.Get("/healthz", handlers.Healthz(deps.DB, deps.Log))
	router.Post("/token", authHandler.Token)
	router.Route("/users", func(r chi.Router) {
		handlers.UsersRouter(r, deps.UserService, deps.Log)
	})
	router.Route("/notes", func(r chi.Router) {
		handlers.NotesRouter(r, deps.NoteService, authMiddleware, deps.Log)
	})
	if deps.ExportService != nil {
		router.Route("/exports", func(r chi.Router) {
			handlers.ExportsRouter(r, deps.ExportService, authMiddleware, deps.Log)
		})
	}
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Addr is the listen address of the HTTP server.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Infow("startup", "status", "listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the database, cache,
// broker, storage and APM resources.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeResources()
	return err
}

func (s *Server) closeResources() {
	if s.nrApp != nil {
		s.nrApp.Shutdown(newRelicShutdownWindow)
	}
	if s.objects != nil {
		if err := s.objects.Close(); err != nil {
			s.log.Errorw("shutdown", "resource", "storage", "error", err)
		}
	}
	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			s.log.Errorw("shutdown", "resource", "mq", "error", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.log.Errorw("shutdown", "resource", "cache", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Errorw("shutdown", "resource", "database", "error", err)
		}
	}
}
