// FilePath: api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/itsatony/sensorhub/api/middleware"
	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/hubservice"
	"github.com/itsatony/sensorhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const maxBodyBytes = 1 << 20

// Resources holds all HTTP resource handlers
type Resources struct {
	Auth        *AuthHandlers
	Sensors     *SensorHandlers
	Readings    *ReadingHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Docs        func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance
func NewResources(svc *hubservice.HubService) *Resources {
	return &Resources{
		Auth:        &AuthHandlers{hubservice: svc},
		Sensors:     &SensorHandlers{hubservice: svc},
		Readings:    &ReadingHandlers{hubservice: svc},
		HealthCheck: defaultHealthCheck,
		Docs:        ServeDocs,
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func defaultHealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": nuts.GetVersion(),
	})
}

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func decodeQuery(dst interface{}, r *http.Request) *errors.APIError {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return errors.NewValidationError("invalid query parameters", err)
	}
	return nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) *errors.APIError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.NewValidationError("invalid request body", err)
	}
	return nil
}

// pathID parses the numeric {id} route variable. Ids that do not fit are
// reported like any other missing sensor.
func pathID(r *http.Request) (int64, *errors.APIError) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewNotFoundError("sensor not found", err)
	}
	return id, nil
}

// currentUser returns the user placed in the context by the auth middleware
func currentUser(r *http.Request) (*models.User, *errors.APIError) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return nil, errors.NewAuthError("authentication credentials were not provided", nil)
	}
	return user, nil
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := errors.AsAPIError(err).WithRequestID(middleware.RequestIDFromContext(r.Context()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	json.NewEncoder(w).Encode(apiErr)
	nuts.L.Errorf("[API] %s %s: %s", r.Method, r.URL.Path, apiErr.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
