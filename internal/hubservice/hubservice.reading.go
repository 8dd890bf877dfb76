package hubservice

import (
	"context"
	"strconv"

	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/models"
)

// ListReadings returns the readings of an owned sensor in ascending
// timestamp order. A nil page returns every matching reading.
func (s *HubService) ListReadings(ctx context.Context, ownerID, sensorID int64, filters models.ReadingFilters, page *models.Pagination) (*models.Page[*models.Reading], error) {
	if _, err := s.Sensors.GetOwned(ctx, ownerID, sensorID); err != nil {
		return nil, err
	}

	var p models.Pagination
	if page != nil {
		p = page.Normalize(s.Pagination.DefaultPageSize, s.Pagination.MaxPageSize)
	}
	if filters.From != nil && filters.To != nil && filters.From.After(*filters.To) {
		if page == nil {
			p = models.Pagination{Page: 1}
		}
		return &models.Page[*models.Reading]{Page: p.Page, PageSize: p.PageSize, Results: []*models.Reading{}}, nil
	}

	total, readings, err := s.Readings.List(ctx, sensorID, filters, p)
	if err != nil {
		return nil, err
	}
	if page == nil {
		p = models.Pagination{Page: 1, PageSize: len(readings)}
	}
	return &models.Page[*models.Reading]{
		Total:    total,
		Page:     p.Page,
		PageSize: p.PageSize,
		Results:  readings,
	}, nil
}

// CreateReading stores a measurement for an owned sensor. A reading that
// already exists for the timestamp is a conflict; nothing is overwritten.
func (s *HubService) CreateReading(ctx context.Context, ownerID, sensorID int64, in models.ReadingInput) (*models.Reading, error) {
	if _, err := s.Sensors.GetOwned(ctx, ownerID, sensorID); err != nil {
		return nil, err
	}

	switch {
	case in.Temperature == nil:
		return nil, errors.NewValidationError("temperature is required", nil)
	case in.Humidity == nil:
		return nil, errors.NewValidationError("humidity is required", nil)
	case in.Timestamp == nil || *in.Timestamp == "":
		return nil, errors.NewValidationError("timestamp is required", nil)
	}
	ts, err := models.ParseTimestamp(*in.Timestamp)
	if err != nil {
		return nil, errors.NewValidationError("timestamp is not a valid datetime", err)
	}

	reading := &models.Reading{
		SensorID:    sensorID,
		Temperature: *in.Temperature,
		Humidity:    *in.Humidity,
		Timestamp:   ts,
	}
	if err := s.Readings.Create(ctx, reading); err != nil {
		return nil, err
	}

	s.Emit(EventReadingCreated, strconv.FormatInt(reading.ID, 10))
	return reading, nil
}
