package hubservice

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const maxSensorFieldLength = 100

func validateSensorInput(in models.SensorInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.NewValidationError("sensor name is required", nil)
	}
	if strings.TrimSpace(in.Model) == "" {
		return errors.NewValidationError("sensor model is required", nil)
	}
	if utf8.RuneCountInString(in.Name) > maxSensorFieldLength || utf8.RuneCountInString(in.Model) > maxSensorFieldLength {
		return errors.NewValidationError("sensor name and model must not exceed 100 characters", nil)
	}
	return nil
}

// ListSensors returns one page of the owner's sensors ordered by id
func (s *HubService) ListSensors(ctx context.Context, ownerID int64, filters models.SensorFilters, page models.Pagination) (*models.Page[*models.Sensor], error) {
	page = page.Normalize(s.Pagination.DefaultPageSize, s.Pagination.MaxPageSize)

	total, sensors, err := s.Sensors.List(ctx, ownerID, filters, page)
	if err != nil {
		return nil, err
	}
	return &models.Page[*models.Sensor]{
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
		Results:  sensors,
	}, nil
}

// CreateSensor registers a new sensor for the owner
func (s *HubService) CreateSensor(ctx context.Context, ownerID int64, in models.SensorInput) (*models.Sensor, error) {
	if err := validateSensorInput(in); err != nil {
		return nil, err
	}

	sensor := &models.Sensor{
		OwnerID:     ownerID,
		Name:        in.Name,
		Model:       in.Model,
		Description: in.Description,
	}
	if err := s.Sensors.Create(ctx, sensor); err != nil {
		return nil, err
	}

	nuts.L.Infof("[SensorService] Created sensor %s (%d) for user %d", sensor.Name, sensor.ID, ownerID)
	s.Emit(EventSensorCreated, strconv.FormatInt(sensor.ID, 10))
	return sensor, nil
}

// GetSensor returns an owned sensor
func (s *HubService) GetSensor(ctx context.Context, ownerID, sensorID int64) (*models.Sensor, error) {
	return s.Sensors.GetOwned(ctx, ownerID, sensorID)
}

// UpdateSensor replaces name, model and description of an owned sensor. An
// omitted description clears it.
func (s *HubService) UpdateSensor(ctx context.Context, ownerID, sensorID int64, in models.SensorInput) (*models.Sensor, error) {
	sensor, err := s.Sensors.GetOwned(ctx, ownerID, sensorID)
	if err != nil {
		return nil, err
	}
	if err := validateSensorInput(in); err != nil {
		return nil, err
	}

	sensor.Name = in.Name
	sensor.Model = in.Model
	sensor.Description = in.Description
	if err := s.Sensors.Update(ctx, sensor); err != nil {
		return nil, err
	}

	s.Emit(EventSensorUpdated, strconv.FormatInt(sensor.ID, 10))
	return sensor, nil
}

// DeleteSensor removes an owned sensor together with its readings
func (s *HubService) DeleteSensor(ctx context.Context, ownerID, sensorID int64) error {
	if err := s.Cleanup.DeleteSensor(ctx, ownerID, sensorID); err != nil {
		return err
	}
	nuts.L.Infof("[SensorService] Deleted sensor %d of user %d", sensorID, ownerID)
	return nil
}
