// FilePath: internal/repository/repository.go
package repository

import (
	"context"

	"github.com/itsatony/sensorhub/internal/database"
	"github.com/itsatony/sensorhub/internal/models"
)

// UserRepository defines the interface for account storage.
// Create fails with a conflict error when username or email is taken.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	First(ctx context.Context) (*models.User, error)
}

// SensorRepository defines the interface for sensor data operations.
// Every owner-scoped method reports a sensor of another owner as not found.
type SensorRepository interface {
	database.Repository
	Create(ctx context.Context, sensor *models.Sensor) error
	GetOwned(ctx context.Context, ownerID, id int64) (*models.Sensor, error)
	Update(ctx context.Context, sensor *models.Sensor) error
	DeleteOwned(ctx context.Context, ownerID, id int64, tx database.Transaction) error
	List(ctx context.Context, ownerID int64, filters models.SensorFilters, page models.Pagination) (int64, []*models.Sensor, error)
	// FindByName is the privileged, unscoped lookup used by the bulk loader.
	// An ownerID of 0 searches across all owners.
	FindByName(ctx context.Context, name string, ownerID int64) ([]*models.Sensor, error)
}

// ReadingRepository defines the interface for sensor measurements
type ReadingRepository interface {
	database.Repository
	// Create fails with a conflict error if (sensor, timestamp) exists
	Create(ctx context.Context, reading *models.Reading) error
	// List returns readings ascending by timestamp. A zero PageSize returns all rows.
	List(ctx context.Context, sensorID int64, filters models.ReadingFilters, page models.Pagination) (int64, []*models.Reading, error)
	// Upsert overwrites temperature and humidity when (sensor, timestamp) exists
	Upsert(ctx context.Context, reading *models.Reading, tx database.Transaction) (created bool, err error)
	DeleteBySensorID(ctx context.Context, sensorID int64, tx database.Transaction) (int64, error)
}
