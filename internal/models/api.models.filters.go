// FilePath: internal/models/api.models.filters.go
package models

import "time"

// SensorFilters defines the available filter options for sensors
type SensorFilters struct {
	// Query matches name or model, case-insensitively
	Query string `json:"q" schema:"q"`
}

// ReadingFilters restricts readings to an inclusive timestamp range
type ReadingFilters struct {
	From *time.Time `json:"timestamp_from"`
	To   *time.Time `json:"timestamp_to"`
}

// Includes reports whether ts lies inside the range
func (f ReadingFilters) Includes(ts time.Time) bool {
	if f.From != nil && ts.Before(*f.From) {
		return false
	}
	if f.To != nil && ts.After(*f.To) {
		return false
	}
	return true
}
