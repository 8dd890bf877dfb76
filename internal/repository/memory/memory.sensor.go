package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/itsatony/sensorhub/internal/database"
	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/models"
)

type SensorRepo struct {
	s *Store
}

func (r *SensorRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return r.s.BeginTx(ctx)
}

func (r *SensorRepo) Create(ctx context.Context, sensor *models.Sensor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.users[sensor.OwnerID]; !ok {
		return errors.NewNotFoundError("owner not found", nil)
	}

	r.s.data.nextSensor++
	sensor.ID = r.s.data.nextSensor
	now := time.Now().UTC()
	sensor.CreatedAt = now
	sensor.UpdatedAt = now
	r.s.data.sensors[sensor.ID] = copySensor(*sensor)
	return nil
}

func (r *SensorRepo) GetOwned(ctx context.Context, ownerID, id int64) (*models.Sensor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sensor, ok := r.s.data.sensors[id]
	if !ok || sensor.OwnerID != ownerID {
		return nil, errors.NewNotFoundError("sensor not found", nil)
	}
	out := copySensor(sensor)
	return &out, nil
}

func (r *SensorRepo) Update(ctx context.Context, sensor *models.Sensor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.data.sensors[sensor.ID]
	if !ok || existing.OwnerID != sensor.OwnerID {
		return errors.NewNotFoundError("sensor not found", nil)
	}
	existing.Name = sensor.Name
	existing.Model = sensor.Model
	existing.Description = sensor.Description
	existing.UpdatedAt = time.Now().UTC()
	sensor.CreatedAt = existing.CreatedAt
	sensor.UpdatedAt = existing.UpdatedAt
	r.s.data.sensors[sensor.ID] = copySensor(existing)
	return nil
}

// DeleteOwned removes the sensor and, like ON DELETE CASCADE, its readings
func (r *SensorRepo) DeleteOwned(ctx context.Context, ownerID, id int64, tx database.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sensor, ok := r.s.data.sensors[id]
	if !ok || sensor.OwnerID != ownerID {
		return errors.NewNotFoundError("sensor not found", nil)
	}
	delete(r.s.data.sensors, id)
	for rid, reading := range r.s.data.readings {
		if reading.SensorID == id {
			delete(r.s.data.readings, rid)
		}
	}
	return nil
}

func (r *SensorRepo) List(ctx context.Context, ownerID int64, filters models.SensorFilters, page models.Pagination) (int64, []*models.Sensor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	q := strings.ToLower(filters.Query)
	matched := []*models.Sensor{}
	for _, sensor := range r.s.data.sensors {
		if sensor.OwnerID != ownerID {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(sensor.Name), q) &&
			!strings.Contains(strings.ToLower(sensor.Model), q) {
			continue
		}
		s := copySensor(sensor)
		matched = append(matched, &s)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	return int64(len(matched)), paginate(matched, page), nil
}

func (r *SensorRepo) FindByName(ctx context.Context, name string, ownerID int64) ([]*models.Sensor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	found := []*models.Sensor{}
	for _, sensor := range r.s.data.sensors {
		if sensor.Name != name || (ownerID != 0 && sensor.OwnerID != ownerID) {
			continue
		}
		s := copySensor(sensor)
		found = append(found, &s)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, nil
}

func copySensor(s models.Sensor) models.Sensor {
	if s.Description != nil {
		d := *s.Description
		s.Description = &d
	}
	return s
}

func paginate[T any](items []T, page models.Pagination) []T {
	if page.PageSize <= 0 {
		return items
	}
	start := page.Offset()
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + page.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
