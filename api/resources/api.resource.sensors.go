package resources

import (
	"net/http"

	"github.com/itsatony/sensorhub/internal/hubservice"
	"github.com/itsatony/sensorhub/internal/models"
)

// SensorHandlers encapsulates the sensor-related HTTP handlers
type SensorHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary List sensors
// @Description Paginated list of the caller's sensors, optionally filtered by name or model
// @Tags sensors
// @Produce json
// @Param q query string false "Case-insensitive substring of name or model"
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.Sensor]
// @Failure 401 {object} errors.APIError
// @Router /sensors [get]
// @Security BearerAuth
func (h *SensorHandlers) ListSensors(w http.ResponseWriter, r *http.Request) {
	user, apiErr := currentUser(r)
	if apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}

	var filters models.SensorFilters
	var page models.Pagination
	if apiErr := decodeQuery(&filters, r); apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}
	if apiErr := decodeQuery(&page, r); apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}

	result, err := h.hubservice.ListSensors(r.Context(), user.ID, filters, page)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// @Summary Create a sensor
// @Tags sensors
// @Accept json
// @Produce json
// @Param sensor body models.SensorInput true "Sensor details"
// @Success 201 {object} models.Sensor
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Router /sensors [post]
// @Security BearerAuth
func (h *SensorHandlers) CreateSensor(w http.ResponseWriter, r *http.Request) {
	user, apiErr := currentUser(r)
	if apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}

	var in models.SensorInput
	if apiErr := decodeBody(w, r, &in); apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}

	sensor, err := h.hubservice.CreateSensor(r.Context(), user.ID, in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, sensor)
}

// @Summary Get a sensor
// @Tags sensors
// @Produce json
// @Param id path int true "Sensor ID"
// @Success 200 {object} models.Sensor
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id} [get]
// @Security BearerAuth
func (h *SensorHandlers) GetSensor(w http.ResponseWriter, r *http.Request) {
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

	sensor, err := h.hubservice.GetSensor(r.Context(), user.ID, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sensor)
}

// @Summary Replace a sensor
// @Description Full replace of name, model and description
// @Tags sensors
// @Accept json
// @Produce json
// @Param id path int true "Sensor ID"
// @Param sensor body models.SensorInput true "Sensor details"
// @Success 200 {object} models.Sensor
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id} [put]
// @Security BearerAuth
func (h *SensorHandlers) UpdateSensor(w http.ResponseWriter, r *http.Request) {
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

	var in models.SensorInput
	if apiErr := decodeBody(w, r, &in); apiErr != nil {
		respondWithError(w, r, apiErr)
		return
	}

	sensor, err := h.hubservice.UpdateSensor(r.Context(), user.ID, id, in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sensor)
}

// @Summary Delete a sensor
// @Description Delete a sensor and all of its readings
// @Tags sensors
// @Param id path int true "Sensor ID"
// @Success 204 "No Content"
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id} [delete]
// @Security BearerAuth
func (h *SensorHandlers) DeleteSensor(w http.ResponseWriter, r *http.Request) {
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

	if err := h.hubservice.DeleteSensor(r.Context(), user.ID, id); err != nil {
		respondWithError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
