package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/eduwrite/apiserver/config"
	"github.com/eduwrite/apiserver/internal/ai"
	"github.com/eduwrite/apiserver/internal/db"
	"github.com/eduwrite/apiserver/internal/handlers"
	"github.com/eduwrite/apiserver/internal/logging"
	"github.com/eduwrite/apiserver/internal/mq"
	"github.com/eduwrite/apiserver/internal/services"
	"github.com/eduwrite/apiserver/internal/session"
	"github.com/eduwrite/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 60 * time.Second

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	logger     logrus.FieldLogger
}

type repositories struct {
	users  services.UserRepository
	usage  services.UsageRepository
	logins services.LoginRepository
}

// New wires the store, services and routes. The admin account is created
// when ADMIN_PASSWORD is set and the account does not exist.
func New(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*Server, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("SECRET_KEY is required")
	}
	sessions, err := session.NewManager(cfg.SecretKey, session.DefaultTTL)
	if err != nil {
		return nil, err
	}

	repos, dbConn, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	generator, err := ai.New(cfg.AI)
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			closeDB(dbConn)
			return nil, err
		}
		logger.Warn("GROQ_API_KEY not set, content requests will return fallback text")
	}

	var publisher services.UsagePublisher
	var queue *mq.MQ
	backend, err := mq.NewBackend(ctx, cfg.MQ)
	switch {
	case errors.Is(err, mq.ErrDisabled):
	case err != nil:
		closeDB(dbConn)
		return nil, fmt.Errorf("connect mq: %w", err)
	default:
		queue = mq.New(backend, cfg.MQ.UsageChannel, logger)
		publisher = queue
	}

	credits := services.NewCreditAccountant(repos.users, config.DailyCredits, logger)
	userService := services.NewUserService(repos.users, repos.logins, credits, logger)
	historyService := services.NewHistoryService(repos.usage, repos.logins)
	contentService := services.NewContentService(repos.users, repos.usage, credits, generator, publisher, logger)

	created, err := userService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		logger.WithError(err).Error("admin bootstrap failed")
	} else if created {
		logger.WithField("username", cfg.Admin.Username).Info("admin account created")
	}

	var pinger handlers.Pinger
	if dbConn != nil {
		pinger = dbConn
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logging.RequestLogger(logger),
		middleware.Timeout(requestTimeout),
	)
	router.Get("/healthz", handlers.Healthz(pinger))
	router.Get("/about", handlers.About)
	router.Handle("/metrics", promhttp.Handler())

	auth := handlers.NewAuthHandler(userService, sessions, logger)
	auth.Routes(router)
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireSession)
		handlers.NewPageHandler(userService, historyService, sessions, logger).Routes(r)
		handlers.NewGenerateHandler(contentService, logger).Routes(r)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 5001
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
		logger:     logger,
	}, nil
}

func openStore(ctx context.Context, cfg config.Config) (repositories, *sql.DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StoreBackend)) {
	case "memory":
		mem := store.NewMemory()
		return repositories{
			users:  mem.Users(),
			usage:  mem.Usage(),
			logins: mem.Logins(),
		}, nil, nil
	case "", "postgres":
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return repositories{}, nil, err
		}
		return repositories{
			users:  store.NewUserRepository(dbConn),
			usage:  store.NewUsageRepository(dbConn),
			logins: store.NewLoginRepository(dbConn),
		}, dbConn, nil
	default:
		return repositories{}, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func closeDB(dbConn *sql.DB) {
	if dbConn != nil {
		_ = dbConn.Close()
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases the queue and database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.queue != nil {
		if cerr := s.queue.Close(); cerr != nil {
			s.logger.WithError(cerr).Warn("close mq")
		}
	}
	closeDB(s.db)
	return err
}
