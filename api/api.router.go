package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	apimw "github.com/itsatony/sensorhub/api/middleware"
	"github.com/itsatony/sensorhub/api/resources"
	"github.com/itsatony/sensorhub/internal/config"
	"github.com/itsatony/sensorhub/internal/hubservice"
)

type Router struct {
	router    *mux.Router
	auth      *apimw.AuthMiddleware
	resources *resources.Resources
	handler   http.Handler
}

func NewRouter(svc *hubservice.HubService, cfg config.ServerConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      apimw.NewAuthMiddleware(svc),
		resources: resources.NewResources(svc),
	}

	r.setupRoutes()
	r.handler = r.wrap(cfg)
	return r
}

// Resources exposes the handlers, e.g. to replace the health check
func (r *Router) Resources() *resources.Resources {
	return r.resources
}

func (r *Router) setupRoutes() {
	api := r.router.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		r.resources.HealthCheck(w, req)
	}).Methods(http.MethodGet)
	api.HandleFunc("/docs/swagger.json", r.resources.Docs).Methods(http.MethodGet)

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", r.resources.Auth.Register).Methods(http.MethodPost)
	auth.HandleFunc("/token", r.resources.Auth.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh", r.resources.Auth.Refresh).Methods(http.MethodPost)
	auth.Handle("/me", r.auth.Authenticate(http.HandlerFunc(r.resources.Auth.Me))).Methods(http.MethodGet)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.auth.Authenticate)

	// Sensors
	sensors := protected.PathPrefix("/sensors").Subrouter()
	sensors.HandleFunc("", r.resources.Sensors.ListSensors).Methods(http.MethodGet)
	sensors.HandleFunc("", r.resources.Sensors.CreateSensor).Methods(http.MethodPost)
	sensors.HandleFunc("/{id:[0-9]+}", r.resources.Sensors.GetSensor).Methods(http.MethodGet)
	sensors.HandleFunc("/{id:[0-9]+}", r.resources.Sensors.UpdateSensor).Methods(http.MethodPut)
	sensors.HandleFunc("/{id:[0-9]+}", r.resources.Sensors.DeleteSensor).Methods(http.MethodDelete)

	// Readings
	sensors.HandleFunc("/{id:[0-9]+}/readings", r.resources.Readings.ListReadings).Methods(http.MethodGet)
	sensors.HandleFunc("/{id:[0-9]+}/readings", r.resources.Readings.CreateReading).Methods(http.MethodPost)
}

// wrap installs the outer middleware. StripSlashes runs before routing so
// "/api/sensors/" and "/api/sensors" are the same route.
func (r *Router) wrap(cfg config.ServerConfig) http.Handler {
	var h http.Handler = r.router
	if cfg.AccessLog {
		h = handlers.LoggingHandler(os.Stdout, h)
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	h = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.ExposedHeaders([]string{apimw.HeaderRequestID}),
	)(h)
	h = middleware.Recoverer(h)
	h = apimw.RequestID(h)
	h = middleware.RealIP(h)
	h = middleware.StripSlashes(h)
	return h
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}
