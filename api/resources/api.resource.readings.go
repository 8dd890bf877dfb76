package resources

import (
	"net/http"

	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/hubservice"
	"github.com/itsatony/sensorhub/internal/models"
)

// ReadingHandlers encapsulates the reading-related HTTP handlers
type ReadingHandlers struct {
	hubservice *hubservice.HubService
}

type readingRangeQuery struct {
	From string `schema:"timestamp_from"`
	To   string `schema:"timestamp_to"`
}

func (q readingRangeQuery) filters() (models.ReadingFilters, *errors.APIError) {
	var f models.ReadingFilters
	if q.From != "" {
		from, err := models.ParseTimestamp(q.From)
		if err != nil {
			return f, errors.NewValidationError("timestamp_from is not a valid datetime", err)
		}
		f.From = &from
	}
	if q.To != "" {
		to, err := models.ParseTimestamp(q.To)
		if err != nil {
			return f, errors.NewValidationError("timestamp_to is not a valid datetime", err)
		}
		f.To = &to
	}
	return f, nil
}

// @Summary List readings
// @Description Readings of a sensor in ascending timestamp order. Bounds are inclusive.
// @Description Without page or page_size a plain array is returned, otherwise a page envelope.
// @Tags readings
// @Produce json
// @Param id path int true "Sensor ID"
// @Param timestamp_from query string false "Lower bound (ISO 8601)"
// @Param timestamp_to query string false "Upper bound (ISO 8601)"
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size"
// @Success 200 {array} models.Reading
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id}/readings [get]
// @Security BearerAuth
func (h *ReadingHandlers) ListReadings(w http.ResponseWriter, r *http.Request) {
	user, apiErr := currentUser(r)
	if apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}
	id, apiErr := pathID(r)
	if apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}

	var rng readingRangeQuery
	if apiErr := decodeQuery(&rng, r); apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}
	filters, apiErr := rng.filters()
	if apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}

	var page *models.Pagination
	query := r.URL.Query()
	if query.Has("page") || query.Has("page_size") {
		page = &models.Pagination{}
		if apiErr := decodeQuery(page, r); apiErr != nil {
			respondWithError(w, r, apiErr)
			return
		}
	}

	result, err := h.hubservice.ListReadings(r.Context(), user.ID, id, filters, page)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	if page == nil {
		respondWithJSON(w, http.StatusOK, result.Results)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// @Summary Create a reading
// @Description Fails with a conflict when the sensor already has a reading at the timestamp
// @Tags readings
// @Accept json
// @Produce json
// @Param id path int true "Sensor ID"
// @Param reading body models.ReadingInput true "Measurement"
// @Success 201 {object} models.Reading
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id}/readings [post]
// @Security BearerAuth
func (h *ReadingHandlers) CreateReading(w http.ResponseWriter, r *http.Request) {
	user, apiErr := currentUser(r)
	if apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}
	id, apiErr := pathID(r)
	if apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}

	var in models.ReadingInput
	if apiErr := decodeBody(w, r, &in); apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}

	reading, err := h.hubservice.CreateReading(r.Context(), user.ID, id, in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, reading)
}
