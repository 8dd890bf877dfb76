package hubservice

import (
	"fmt"

	"github.com/itsatony/sensorhub/internal/auth"
	"github.com/itsatony/sensorhub/internal/cleanup"
	"github.com/itsatony/sensorhub/internal/config"
	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Lifecycle events emitted on HubService.Events
const (
	EventUserRegistered   = "user.registered"
	EventSensorCreated    = "sensor.created"
	EventSensorUpdated    = "sensor.updated"
	EventSensorDeleted    = cleanup.EventSensorDeleted
	EventReadingCreated   = "reading.created"
	EventReadingsImported = "readings.imported"
)

// HubService contains all repositories and service-wide dependencies
type HubService struct {
	Users      repository.UserRepository
	Sensors    repository.SensorRepository
	Readings   repository.ReadingRepository
	Tokens     *auth.TokenIssuer
	Passwords  *auth.PasswordHasher
	Cleanup    *cleanup.CleanupService
	Events     *nuts.EventEmitter
	Pagination config.PaginationConfig
}

// New creates a new HubService instance
func New(
	users repository.UserRepository,
	sensors repository.SensorRepository,
	readings repository.ReadingRepository,
	authCfg config.AuthConfig,
	pagination config.PaginationConfig,
) *HubService {
	svc := &HubService{
		Users:      users,
		Sensors:    sensors,
		Readings:   readings,
		Tokens:     auth.NewTokenIssuer(authCfg),
		Passwords:  auth.NewPasswordHasher(authCfg.BcryptCost),
		Events:     nuts.NewEventEmitter(),
		Pagination: pagination,
	}
	svc.Cleanup = cleanup.New(sensors, readings, svc.Events)
	return svc
}

// Validate checks if all required repositories are initialized
func (s *HubService) Validate() error {
	if s.Users == nil {
		return ErrMissingRepository("users")
	}
	if s.Sensors == nil {
		return ErrMissingRepository("sensors")
	}
	if s.Readings == nil {
		return ErrMissingRepository("readings")
	}
	return nil
}

// On registers handler for a lifecycle event. Every event carries a single
// string argument: the id of the affected entity, or the row count for
// EventReadingsImported.
func (s *HubService) On(event string, handler func(id string)) error {
	if _, err := s.Events.On(event, nuts.NID("hub", 8), handler); err != nil {
		return fmt.Errorf("failed to register %s listener: %w", event, err)
	}
	return nil
}

// Emit publishes a lifecycle event. Listener failures are logged and never
// reach the caller.
func (s *HubService) Emit(event, id string) {
	if err := s.Events.Emit(event, id); err != nil {
		nuts.L.Warnf("[HubService] Failed to emit %s for %s: %v", event, id, err)
	}
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}
