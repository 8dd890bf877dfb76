package cleanup

import (
	"context"
	"fmt"
	"strconv"

	"github.com/itsatony/sensorhub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

const (
	EventSensorDeleted   = "sensor.deleted"
	EventReadingsDeleted = "readings.deleted"
)

// CleanupService coordinates deletion of a sensor and its readings
type CleanupService struct {
	sensors  repository.SensorRepository
	readings repository.ReadingRepository
	events   *nuts.EventEmitter
}

// New creates a new CleanupService. Events are emitted on the given
// emitter; a nil emitter gets a private one.
func New(
	sensors repository.SensorRepository,
	readings repository.ReadingRepository,
	events *nuts.EventEmitter,
) *CleanupService {
	if events == nil {
		events = nuts.NewEventEmitter()
	}
	return &CleanupService{
		sensors:  sensors,
		readings: readings,
		events:   events,
	}
}

// DeleteSensor deletes an owned sensor and all its readings in one
// transaction. A sensor of another owner is reported as not found and
// nothing is deleted.
func (s *CleanupService) DeleteSensor(ctx context.Context, ownerID, sensorID int64) error {
	// Verify ownership
	if _, err := s.sensors.GetOwned(ctx, ownerID, sensorID); err != nil {
		return err
	}

	// Start transaction
	tx, err := s.sensors.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be ignored if transaction is committed

	// Delete readings
	deleted, err := s.readings.DeleteBySensorID(ctx, sensorID, tx)
	if err != nil {
		return fmt.Errorf("failed to delete readings: %w", err)
	}

	// Delete the sensor
	if err := s.sensors.DeleteOwned(ctx, ownerID, sensorID, tx); err != nil {
		return err
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Emit events after successful deletion
	id := strconv.FormatInt(sensorID, 10)
	if deleted > 0 {
		nuts.L.Infof("[Cleanup] Deleted %d reading(s) of sensor %s", deleted, id)
		s.emit(EventReadingsDeleted, id)
	}
	s.emit(EventSensorDeleted, id)
	return nil
}

// OnCleanup registers a callback for cleanup events. The callback receives
// the id of the deleted sensor.
func (s *CleanupService) OnCleanup(event string, handler func(id string)) error {
	if _, err := s.events.On(event, nuts.NID("cleanup", 8), handler); err != nil {
		return fmt.Errorf("failed to register %s listener: %w", event, err)
	}
	return nil
}

func (s *CleanupService) emit(event, id string) {
	if err := s.events.Emit(event, id); err != nil {
		nuts.L.Warnf("[Cleanup] Failed to emit %s for %s: %v", event, id, err)
	}
}
