// FilePath: internal/repository/postgres/postgres.sensor.go
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/itsatony/sensorhub/internal/database"
	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/models"
	"github.com/jmoiron/sqlx"
	nuts "github.com/vaudience/go-nuts"
)

const sensorColumns = `id, owner_id, name, model, description, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type SensorRepo struct {
	PostgresBaseRepo
}

func NewSensorRepository(db database.DB) *SensorRepo {
	return &SensorRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
}

func (r *SensorRepo) Create(ctx context.Context, sensor *models.Sensor) error {
	query := `
		INSERT INTO sensors (owner_id, name, model, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	now := time.Now().UTC()
	sensor.CreatedAt = now
	sensor.UpdatedAt = now

	err := r.db.GetDB().QueryRowxContext(ctx, query,
		sensor.OwnerID,
		sensor.Name,
		sensor.Model,
		sensor.Description,
		sensor.CreatedAt,
		sensor.UpdatedAt,
	).Scan(&sensor.ID)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return errors.NewNotFoundError("owner not found", err)
		}
		return errors.NewDatabaseError("failed to create sensor", err)
	}
	return nil
}

func (r *SensorRepo) GetOwned(ctx context.Context, ownerID, id int64) (*models.Sensor, error) {
	sensor := &models.Sensor{}
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE id = $1 AND owner_id = $2`

	err := r.db.GetDB().GetContext(ctx, sensor, query, id, ownerID)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.NewNotFoundError("sensor not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get sensor", err)
	}
	return sensor, nil
}

func (r *SensorRepo) Update(ctx context.Context, sensor *models.Sensor) error {
	query := `
		UPDATE sensors SET
			name = :name,
			model = :model,
			description = :description,
			updated_at = :updated_at
		WHERE id = :id AND owner_id = :owner_id`

	sensor.UpdatedAt = time.Now().UTC()

	result, err := r.db.GetDB().NamedExecContext(ctx, query, sensor)
	if err != nil {
		return errors.NewDatabaseError("failed to update sensor", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("sensor not found", nil)
	}

	return nil
}

func (r *SensorRepo) DeleteOwned(ctx context.Context, ownerID, id int64, tx database.Transaction) error {
	query := `DELETE FROM sensors WHERE id = $1 AND owner_id = $2`

	result, err := r.ext(tx).ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return errors.NewDatabaseError("failed to delete sensor", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("sensor not found", nil)
	}

	return nil
}

func (r *SensorRepo) List(ctx context.Context, ownerID int64, filters models.SensorFilters, page models.Pagination) (int64, []*models.Sensor, error) {
	where := ` WHERE owner_id = $1`
	args := []interface{}{ownerID}
	if filters.Query != "" {
		args = append(args, "%"+likeEscaper.Replace(filters.Query)+"%")
		where += fmt.Sprintf(` AND (name ILIKE $%d OR model ILIKE $%d)`, len(args), len(args))
	}

	var total int64
	if err := r.db.GetDB().GetContext(ctx, &total, `SELECT COUNT(*) FROM sensors`+where, args...); err != nil {
		return 0, nil, errors.NewDatabaseError("failed to count sensors", err)
	}

	query := `SELECT ` + sensorColumns + ` FROM sensors` + where + ` ORDER BY id`
	if page.PageSize > 0 {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, page.PageSize, page.Offset())
	}

	sensors := []*models.Sensor{}
	if err := r.db.GetDB().SelectContext(ctx, &sensors, query, args...); err != nil {
		return 0, nil, errors.NewDatabaseError("failed to list sensors", err)
	}

	return total, sensors, nil
}

func (r *SensorRepo) FindByName(ctx context.Context, name string, ownerID int64) ([]*models.Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE name = $1`
	args := []interface{}{name}
	if ownerID != 0 {
		query += ` AND owner_id = $2`
		args = append(args, ownerID)
	}
	query += ` ORDER BY id`

	sensors := []*models.Sensor{}
	if err := sqlx.SelectContext(ctx, r.db.GetDB(), &sensors, query, args...); err != nil {
		return nil, errors.NewDatabaseError("failed to find sensors by name", err)
	}

	nuts.L.Infof("[SensorRepo] Resolved name %q to %d sensor(s)", name, len(sensors))
	return sensors, nil
}
