// FilePath: internal/models/models.sensor.go
package models

import "time"

type Sensor struct {
	ID          int64     `json:"id" db:"id"`
	OwnerID     int64     `json:"-" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	Model       string    `json:"model" db:"model"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"-" db:"created_at"`
	UpdatedAt   time.Time `json:"-" db:"updated_at"`
}

// SensorInput carries the mutable sensor fields for create and full-replace update
type SensorInput struct {
	Name        string  `json:"name"`
	Model       string  `json:"model"`
	Description *string `json:"description"`
}

// SensorTemplate names a sensor provisioned by the seeding commands
type SensorTemplate struct {
	Name  string
	Model string
}

// DefaultSensors are the devices the seed commands provision for a user
var DefaultSensors = []SensorTemplate{
	{Name: "device-001", Model: "EnviroSense"},
	{Name: "device-002", Model: "ClimaTrack"},
	{Name: "device-003", Model: "AeroMonitor"},
	{Name: "device-004", Model: "HydroTherm"},
	{Name: "device-005", Model: "EcoStat"},
}
