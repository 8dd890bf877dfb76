package memory

import (
	"context"
	"sort"
	"time"

	"github.com/itsatony/sensorhub/internal/database"
	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/models"
)

type ReadingRepo struct {
	s *Store
}

func (r *ReadingRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return r.s.BeginTx(ctx)
}

// Create checks and inserts under one lock, the in-memory equivalent of the
// unique constraint
func (r *ReadingRepo) Create(ctx context.Context, reading *models.Reading) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.sensors[reading.SensorID]; !ok {
		return errors.NewNotFoundError("sensor not found", nil)
	}
	reading.Timestamp = normalizeTimestamp(reading.Timestamp)
	if _, ok := r.lookup(reading.SensorID, reading.Timestamp); ok {
		return errors.NewConflictError("a reading with this timestamp already exists for this sensor", nil)
	}

	r.s.data.nextReading++
	reading.ID = r.s.data.nextReading
	r.s.data.readings[reading.ID] = *reading
	return nil
}

func (r *ReadingRepo) List(ctx context.Context, sensorID int64, filters models.ReadingFilters, page models.Pagination) (int64, []*models.Reading, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := []*models.Reading{}
	for _, reading := range r.s.data.readings {
		if reading.SensorID != sensorID || !filters.Includes(reading.Timestamp) {
			continue
		}
		rd := reading
		matched = append(matched, &rd)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp.Before(matched[j].Timestamp) })

	return int64(len(matched)), paginate(matched, page), nil
}

func (r *ReadingRepo) Upsert(ctx context.Context, reading *models.Reading, tx database.Transaction) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.sensors[reading.SensorID]; !ok {
		return false, errors.NewNotFoundError("sensor not found", nil)
	}
	reading.Timestamp = normalizeTimestamp(reading.Timestamp)
	if existing, ok := r.lookup(reading.SensorID, reading.Timestamp); ok {
		existing.Temperature = reading.Temperature
		existing.Humidity = reading.Humidity
		r.s.data.readings[existing.ID] = existing
		reading.ID = existing.ID
		return false, nil
	}

	r.s.data.nextReading++
	reading.ID = r.s.data.nextReading
	r.s.data.readings[reading.ID] = *reading
	return true, nil
}

func (r *ReadingRepo) DeleteBySensorID(ctx context.Context, sensorID int64, tx database.Transaction) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for id, reading := range r.s.data.readings {
		if reading.SensorID == sensorID {
			delete(r.s.data.readings, id)
			deleted++
		}
	}
	return deleted, nil
}

// lookup must be called with the lock held
func (r *ReadingRepo) lookup(sensorID int64, ts time.Time) (models.Reading, bool) {
	for _, reading := range r.s.data.readings {
		if reading.SensorID == sensorID && ts.Equal(reading.Timestamp) {
			return reading, true
		}
	}
	return models.Reading{}, false
}
