// FilePath: internal/database/schema.go
package database

import (
	"context"
	"fmt"

	nuts "github.com/vaudience/go-nuts"
)

// schema is applied in order; every statement is idempotent.
// The (sensor_id, timestamp) constraint is what serializes racing reading inserts.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT users_username_key UNIQUE (username),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS sensors (
		id          BIGSERIAL PRIMARY KEY,
		owner_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name        VARCHAR(100) NOT NULL,
		model       VARCHAR(100) NOT NULL,
		description TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sensors_owner ON sensors(owner_id, id)`,
	`CREATE INDEX IF NOT EXISTS idx_sensors_name ON sensors(name)`,
	`CREATE TABLE IF NOT EXISTS readings (
		id          BIGSERIAL PRIMARY KEY,
		sensor_id   BIGINT NOT NULL REFERENCES sensors(id) ON DELETE CASCADE,
		temperature DOUBLE PRECISION NOT NULL,
		humidity    DOUBLE PRECISION NOT NULL,
		timestamp   TIMESTAMPTZ NOT NULL,
		CONSTRAINT readings_sensor_timestamp_key UNIQUE (sensor_id, timestamp)
	)`,
}

// Migrate creates the tables and indexes if they do not exist yet
func Migrate(ctx context.Context, db DB) error {
	for _, stmt := range schema {
		if _, err := db.GetDB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error applying schema: %w", err)
		}
	}
	nuts.L.Infof("[PostgresDB] Schema up to date (%d statements)", len(schema))
	return nil
}
