// FilePath: internal/repository/postgres/postgres.reading.go
package postgres

import (
	"context"
	"fmt"

	"github.com/itsatony/sensorhub/internal/database"
	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type ReadingRepo struct {
	PostgresBaseRepo
}

func NewReadingRepository(db database.DB) *ReadingRepo {
	return &ReadingRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
}

// Create relies on readings_sensor_timestamp_key, so two racing inserts for
// the same key end with exactly one row and one conflict.
func (r *ReadingRepo) Create(ctx context.Context, reading *models.Reading) error {
	query := `
		INSERT INTO readings (sensor_id, temperature, humidity, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	reading.Timestamp = reading.Timestamp.UTC()
	err := r.db.GetDB().QueryRowxContext(ctx, query,
		reading.SensorID,
		reading.Temperature,
		reading.Humidity,
		reading.Timestamp,
	).Scan(&reading.ID)
	if err != nil {
		switch pqCode(err) {
		case pqUniqueViolation:
			return errors.NewConflictError("a reading with this timestamp already exists for this sensor", err)
		case pqForeignKeyViolation:
			return errors.NewNotFoundError("sensor not found", err)
		}
		return errors.NewDatabaseError("failed to insert reading", err)
	}
	return nil
}

func (r *ReadingRepo) List(ctx context.Context, sensorID int64, filters models.ReadingFilters, page models.Pagination) (int64, []*models.Reading, error) {
	where := ` WHERE sensor_id = $1`
	args := []interface{}{sensorID}
	if filters.From != nil {
		args = append(args, filters.From.UTC())
		where += fmt.Sprintf(` AND timestamp >= $%d`, len(args))
	}
	if filters.To != nil {
		args = append(args, filters.To.UTC())
		where += fmt.Sprintf(` AND timestamp <= $%d`, len(args))
	}

	query := `SELECT id, sensor_id, temperature, humidity, timestamp FROM readings` + where + ` ORDER BY timestamp ASC`

	var total int64
	if page.PageSize > 0 {
		if err := r.db.GetDB().GetContext(ctx, &total, `SELECT COUNT(*) FROM readings`+where, args...); err != nil {
			return 0, nil, errors.NewDatabaseError("failed to count readings", err)
		}
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, page.PageSize, page.Offset())
	}

	readings := []*models.Reading{}
	if err := r.db.GetDB().SelectContext(ctx, &readings, query, args...); err != nil {
		return 0, nil, errors.NewDatabaseError("failed to list readings", err)
	}
	for _, reading := range readings {
		reading.Timestamp = reading.Timestamp.UTC()
	}
	if page.PageSize <= 0 {
		total = int64(len(readings))
	}

	return total, readings, nil
}

func (r *ReadingRepo) Upsert(ctx context.Context, reading *models.Reading, tx database.Transaction) (bool, error) {
	query := `
		INSERT INTO readings (sensor_id, temperature, humidity, timestamp)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sensor_id, timestamp) DO UPDATE SET
			temperature = EXCLUDED.temperature,
			humidity = EXCLUDED.humidity
		RETURNING id, (xmax = 0) AS created`

	reading.Timestamp = reading.Timestamp.UTC()
	var created bool
	err := r.ext(tx).QueryRowxContext(ctx, query,
		reading.SensorID,
		reading.Temperature,
		reading.Humidity,
		reading.Timestamp,
	).Scan(&reading.ID, &created)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return false, errors.NewNotFoundError("sensor not found", err)
		}
		return false, errors.NewDatabaseError("failed to upsert reading", err)
	}
	return created, nil
}

func (r *ReadingRepo) DeleteBySensorID(ctx context.Context, sensorID int64, tx database.Transaction) (int64, error) {
	query := `DELETE FROM readings WHERE sensor_id = $1`

	result, err := r.ext(tx).ExecContext(ctx, query, sensorID)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to delete readings", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to get rows affected", err)
	}

	nuts.L.Infof("[ReadingRepo] Deleted %d readings for sensor %d", rows, sensorID)
	return rows, nil
}
