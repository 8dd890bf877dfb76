// FilePath: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itsatony/sensorhub/api"
	"github.com/itsatony/sensorhub/internal/config"
	"github.com/itsatony/sensorhub/internal/database"
	"github.com/itsatony/sensorhub/internal/hubservice"
	"github.com/itsatony/sensorhub/internal/monitoring"
	"github.com/itsatony/sensorhub/internal/repository/memory"
	"github.com/itsatony/sensorhub/internal/repository/postgres"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	router     *api.Router
	config     *config.Config
	srv        *http.Server
	db         database.DB
	hubservice *hubservice.HubService
	monitoring *monitoring.Service
}

// New creates a new server instance with all dependencies wired
func New(cfg *config.Config) (*Server, error) {
	s := &Server{config: cfg}

	svc, db, err := OpenHubService(cfg)
	if err != nil {
		return nil, err
	}
	s.hubservice = svc
	s.db = db
	s.monitoring = monitoring.NewService(cfg.Redis)

	// Set up lifecycle event handlers
	if err := s.setupEventHandlers(); err != nil {
		s.close()
		return nil, err
	}

	s.router = api.NewRouter(svc, cfg.Server)
	s.router.Resources().SetHealthCheck(s.handleHealth())

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for requests and blocks until shutdown
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	return s.waitForShutdown(errCh)
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown(errCh <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		s.close()
		return fmt.Errorf("error starting server: %w", err)
	}

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	s.close()

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

func (s *Server) close() {
	if err := s.monitoring.Close(); err != nil {
		nuts.L.Warnf("[Server] Failed to close monitoring: %v", err)
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			nuts.L.Warnf("[Server] Failed to close database: %v", err)
		}
	}
}

// handleHealth reports status, version and the recorded event counts
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]interface{}{
			"status":  "ok",
			"version": nuts.GetVersion(),
			"events":  s.monitoring.GetEventMetrics(),
		}
		if s.db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := s.db.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		writeJSON(w, body)
	}
}

func (s *Server) setupEventHandlers() error {
	record := func(event, name, label string) error {
		return s.hubservice.On(event, func(id string) {
			s.monitoring.RecordEvent(name, map[string]string{label: id})
		})
	}
	handlers := []struct{ event, name, label string }{
		{hubservice.EventUserRegistered, "user_registration", "user_id"},
		{hubservice.EventSensorCreated, "sensor_creation", "sensor_id"},
		{hubservice.EventSensorUpdated, "sensor_update", "sensor_id"},
		{hubservice.EventReadingCreated, "reading_creation", "reading_id"},
		{hubservice.EventReadingsImported, "readings_import", "count"},
	}
	for _, h := range handlers {
		if err := record(h.event, h.name, h.label); err != nil {
			return err
		}
	}

	// Handle sensor deletion events
	return s.hubservice.Cleanup.OnCleanup(hubservice.EventSensorDeleted, func(id string) {
		nuts.L.Infof("[Cleanup] Sensor %s and all associated readings deleted", id)
		s.monitoring.RecordEvent("sensor_deletion", map[string]string{
			"sensor_id": id,
		})
	})
}

// OpenHubService opens the configured store and creates the hub service.
// The returned DB is nil for the memory driver.
func OpenHubService(cfg *config.Config) (*hubservice.HubService, database.DB, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		nuts.L.Warnf("[Server] Using the in-memory store; data is lost on exit")
		store := memory.NewStore()
		svc := hubservice.New(store.Users(), store.Sensors(), store.Readings(), cfg.Auth, cfg.Pagination)
		return svc, nil, svc.Validate()
	case config.DriverPostgres:
		db, err := initAppDB(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		svc := hubservice.New(
			postgres.NewUserRepository(db),
			postgres.NewSensorRepository(db),
			postgres.NewReadingRepository(db),
			cfg.Auth,
			cfg.Pagination,
		)
		return svc, db, svc.Validate()
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func initAppDB(cfg config.DatabaseConfig) (database.DB, error) {
	db, err := database.NewPostgresDB(cfg.Postgres)
	if err != nil {
		return nil, err
	}

	// Set up connection timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		nuts.L.Infof("[Server] Database schema is up to date")
	}
	return db, nil
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		nuts.L.Warnf("[Server] Failed to write response: %v", err)
	}
}
