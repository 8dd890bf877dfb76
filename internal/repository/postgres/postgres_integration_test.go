//go:build integration

package postgres

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/itsatony/sensorhub/internal/config"
	"github.com/itsatony/sensorhub/internal/database"
	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) database.DB {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "sensorhub",
				"POSTGRES_PASSWORD": "sensorhub",
				"POSTGRES_DB":       "sensorhub",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	db, err := database.NewPostgresDB(config.PostgresConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "sensorhub",
		Password: "sensorhub",
		DBName:   "sensorhub",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(ctx, db))
	// Migrate is idempotent
	require.NoError(t, database.Migrate(ctx, db))
	return db
}

func TestPostgresRepositories(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping container-based test in short mode")
	}
	ctx := context.Background()
	db := startPostgres(t)
	users := NewUserRepository(db)
	sensors := NewSensorRepository(db)
	readings := NewReadingRepository(db)

	alice := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h"}
	require.NoError(t, users.Create(ctx, alice))
	bob := &models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "h"}
	require.NoError(t, users.Create(ctx, bob))

	t.Run("user conflicts", func(t *testing.T) {
		err := users.Create(ctx, &models.User{Username: "alice", Email: "x@example.com", PasswordHash: "h"})
		require.True(t, errors.IsConflict(err))
		assert.Contains(t, err.Error(), "username already exists")

		err = users.Create(ctx, &models.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "h"})
		require.True(t, errors.IsConflict(err))
		assert.Contains(t, err.Error(), "email already registered")

		_, err = users.GetByEmail(ctx, "nobody@example.com")
		assert.True(t, errors.IsNotFound(err))

		first, err := users.First(ctx)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, first.ID)
	})

	office := &models.Sensor{OwnerID: alice.ID, Name: "Office Temp", Model: "DHT22"}
	require.NoError(t, sensors.Create(ctx, office))
	lab := &models.Sensor{OwnerID: alice.ID, Name: "Lab 100%_", Model: "DHT11"}
	require.NoError(t, sensors.Create(ctx, lab))
	foreign := &models.Sensor{OwnerID: bob.ID, Name: "Office Temp", Model: "BME280"}
	require.NoError(t, sensors.Create(ctx, foreign))

	t.Run("sensor scoping and search", func(t *testing.T) {
		_, err := sensors.GetOwned(ctx, alice.ID, foreign.ID)
		assert.True(t, errors.IsNotFound(err))

		err = sensors.Update(ctx, &models.Sensor{ID: foreign.ID, OwnerID: alice.ID, Name: "x", Model: "y"})
		assert.True(t, errors.IsNotFound(err))

		total, list, err := sensors.List(ctx, alice.ID, models.SensorFilters{Query: "dht"}, models.Pagination{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, list, 2)

		total, _, err = sensors.List(ctx, alice.ID, models.SensorFilters{Query: "%_"}, models.Pagination{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total, "LIKE wildcards match literally")

		found, err := sensors.FindByName(ctx, "Office Temp", 0)
		require.NoError(t, err)
		assert.Len(t, found, 2)

		err = sensors.Create(ctx, &models.Sensor{OwnerID: 999999, Name: "x", Model: "y"})
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("reading conflict and range", func(t *testing.T) {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			require.NoError(t, readings.Create(ctx, &models.Reading{
				SensorID: office.ID, Temperature: 20, Humidity: 40, Timestamp: base.Add(time.Duration(i) * time.Hour),
			}))
		}
		err := readings.Create(ctx, &models.Reading{SensorID: office.ID, Timestamp: base})
		assert.True(t, errors.IsConflict(err))

		from, to := base.Add(time.Hour), base.Add(2*time.Hour)
		total, list, err := readings.List(ctx, office.ID, models.ReadingFilters{From: &from, To: &to}, models.Pagination{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, list, 2)
		assert.True(t, list[0].Timestamp.Equal(from))

		total, list, err = readings.List(ctx, office.ID, models.ReadingFilters{}, models.Pagination{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, list, 1)

		far := models.Pagination{Page: math.MaxInt, PageSize: 10}.Normalize(10, 100)
		total, list, err = readings.List(ctx, office.ID, models.ReadingFilters{}, far)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Empty(t, list)

		total, sensorList, err := sensors.List(ctx, alice.ID, models.SensorFilters{}, far)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Empty(t, sensorList)
	})

	t.Run("concurrent duplicate inserts", func(t *testing.T) {
		ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = readings.Create(ctx, &models.Reading{SensorID: lab.ID, Temperature: 1, Humidity: 1, Timestamp: ts})
			}(i)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.True(t, errors.IsConflict(err), err)
		}
		assert.Equal(t, 1, ok)
	})

	t.Run("upsert in transaction", func(t *testing.T) {
		ts := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
		tx, err := readings.BeginTx(ctx)
		require.NoError(t, err)
		created, err := readings.Upsert(ctx, &models.Reading{SensorID: lab.ID, Temperature: 10, Humidity: 10, Timestamp: ts}, tx)
		require.NoError(t, err)
		assert.True(t, created)
		created, err = readings.Upsert(ctx, &models.Reading{SensorID: lab.ID, Temperature: 11, Humidity: 12, Timestamp: ts}, tx)
		require.NoError(t, err)
		assert.False(t, created)
		require.NoError(t, tx.Rollback())

		at := ts
		total, _, err := readings.List(ctx, lab.ID, models.ReadingFilters{From: &at, To: &at}, models.Pagination{})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("transactional delete cascades", func(t *testing.T) {
		tx, err := sensors.BeginTx(ctx)
		require.NoError(t, err)
		n, err := readings.DeleteBySensorID(ctx, office.ID, tx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		require.NoError(t, sensors.DeleteOwned(ctx, alice.ID, office.ID, tx))
		require.NoError(t, tx.Commit())

		_, err = sensors.GetOwned(ctx, alice.ID, office.ID)
		assert.True(t, errors.IsNotFound(err))
		err = sensors.DeleteOwned(ctx, alice.ID, office.ID, nil)
		assert.True(t, errors.IsNotFound(err))
	})
}
