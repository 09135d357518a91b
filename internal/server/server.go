package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/patitas-adopcion/apiserver/config"
	"github.com/patitas-adopcion/apiserver/internal/db"
	_ "github.com/patitas-adopcion/apiserver/internal/docs"
	"github.com/patitas-adopcion/apiserver/internal/handlers"
	"github.com/patitas-adopcion/apiserver/internal/logging"
	"github.com/patitas-adopcion/apiserver/internal/metrics"
	"github.com/patitas-adopcion/apiserver/internal/mq"
	"github.com/patitas-adopcion/apiserver/internal/services"
	"github.com/patitas-adopcion/apiserver/internal/storage"
	"github.com/patitas-adopcion/apiserver/internal/store"
	"github.com/patitas-adopcion/apiserver/internal/store/memory"
	"github.com/patitas-adopcion/apiserver/types"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Administrators services.AdministratorRepository
	Shelters       services.ShelterRepository
	Listings       services.ListingRepository
	Uploads        services.UploadRepository
	Images         services.ImageStore
	Events         services.EventPublisher

	// DB backs /healthz; nil reports healthy.
	DB handlers.Pinger
	// Files serves in-process objects under /files/ when set.
	Files http.Handler
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     *zap.Logger
	closers    []io.Closer
}

// New opens the database, object storage and event backend selected by cfg
// and builds the API on top of them. DB_DRIVER=memory keeps everything in
// process.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		deps    Deps
		closers []io.Closer
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 5000
	}

	if strings.EqualFold(cfg.Database.Driver, "memory") {
		logger.Warn("usando almacenamiento en memoria; los datos se pierden al reiniciar")
		mem := memory.New()
		if err := seedMemory(ctx, mem, cfg.Seed, logger); err != nil {
			return nil, err
		}
		deps.Administrators = mem.Administrators
		deps.Shelters = mem.Shelters
		deps.Listings = mem.Listings
		deps.Uploads = mem.Uploads

		if !hasStorageCredentials(cfg.Storage) {
			logger.Warn("sin credenciales de almacenamiento; las imágenes se guardan en memoria",
				zap.String("backend", cfg.Storage.Backend))
			cfg.Storage.Backend = "memory"
			if strings.TrimSpace(cfg.Storage.PublicBaseURL) == "" {
				cfg.Storage.PublicBaseURL = fmt.Sprintf("http://localhost:%d/files", port)
			}
		}
	} else {
		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		closers = append(closers, dbConn)
		deps.Administrators = store.NewAdministratorRepository(dbConn)
		deps.Shelters = store.NewShelterRepository(dbConn)
		deps.Listings = store.NewListingRepository(dbConn)
		deps.Uploads = store.NewUploadRepository(dbConn)
		deps.DB = dbConn
	}

	images, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if err := images.EnsureBucket(ctx); err != nil {
		logger.Warn("no se pudo verificar el bucket", zap.String("backend", images.Backend()), zap.Error(err))
	}
	deps.Images = images
	if files, ok := images.Files(); ok {
		deps.Files = files
	}

	events, err := mq.Open(ctx, cfg.MQ, logger)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init mq: %w", err)
	}
	closers = append(closers, events)
	deps.Events = events

	router := NewRouter(deps, metrics.New(), logger)

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
		logger:     logger,
		closers:    closers,
	}, nil
}

// NewRouter builds the full route tree over deps. m and logger may be nil.
func NewRouter(deps Deps, m *metrics.Metrics, logger *zap.Logger) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}

	authService := services.NewAuthService(deps.Administrators)
	listingService := services.NewListingService(deps.Listings, deps.Events, logger, m)
	shelterService := services.NewShelterService(deps.Shelters)
	uploadService := services.NewUploadService(deps.Uploads, deps.Images, logger, m)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logging.Middleware(logger),
	)
	if m != nil {
		router.Use(m.Middleware)
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", handlers.Health(deps.DB))
	if m != nil {
		router.Handle("/metrics", m.Handler())
	}
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	if deps.Files != nil {
		router.Handle("/files/*", http.StripPrefix("/files/", deps.Files))
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		handlers.AuthRouter(r, authService, logger)
		r.Route("/listings", func(r chi.Router) {
			handlers.ListingRouter(r, listingService, logger)
		})
		r.Route("/shelters", func(r chi.Router) {
			handlers.ShelterRouter(r, shelterService, logger)
		})
		r.Route("/upload", func(r chi.Router) {
			handlers.UploadRouter(r, uploadService, logger)
		})
	})

	return router
}

// hasStorageCredentials reports whether the selected backend has what it
// needs to connect.
func hasStorageCredentials(cfg config.StorageConfig) bool {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "minio":
		return cfg.Minio.AccessKey != "" && cfg.Minio.SecretKey != ""
	case "gcs":
		return cfg.GCS.Bucket != ""
	case "cloudinary":
		return cfg.Cloudinary.CloudName != "" && cfg.Cloudinary.APIKey != "" && cfg.Cloudinary.APISecret != ""
	default:
		return true
	}
}

// seedMemory loads the development administrator and shelters.
func seedMemory(ctx context.Context, mem *memory.Store, seed config.SeedConfig, logger *zap.Logger) error {
	for _, shelter := range seed.Shelters {
		mem.Shelters.Put(types.Shelter{Code: shelter.Code, Name: shelter.Name})
	}
	if strings.TrimSpace(seed.AdminUsername) == "" {
		return nil
	}
	if _, err := services.NewAuthService(mem.Administrators).Provision(ctx, seed.AdminUsername, seed.AdminPassword, ""); err != nil {
		return fmt.Errorf("seed administrator: %w", err)
	}
	logger.Info("administrador de desarrollo creado",
		zap.String("username", seed.AdminUsername),
		zap.Int("shelters", len(seed.Shelters)))
	return nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("servidor escuchando", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("apagando servidor")
		return s.Shutdown()
	})

	return g.Wait()
}

// Shutdown drains the HTTP server and closes every backend.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	for i := len(s.closers) - 1; i >= 0; i-- {
		if cerr := s.closers[i].Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	s.closers = nil
	return err
}
