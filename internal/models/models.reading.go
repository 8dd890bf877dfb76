// FilePath: internal/models/models.reading.go
package models

import "time"

// Reading represents a single temperature/humidity measurement.
// (sensor_id, timestamp) is unique.
type Reading struct {
	ID          int64     `json:"id" db:"id"`
	SensorID    int64     `json:"sensor_id" db:"sensor_id"`
	Temperature float64   `json:"temperature" db:"temperature"`
	Humidity    float64   `json:"humidity" db:"humidity"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

// ReadingInput is the body of a reading create request. Pointers distinguish
// a missing field from a zero measurement.
type ReadingInput struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Timestamp   *string  `json:"timestamp"`
}
