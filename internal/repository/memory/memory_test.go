package memory

import (
	"context"
	"testing"
	"time"

	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, s *Store, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestUserRepo_Uniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice := seedUser(t, s, "alice")
	assert.Equal(t, int64(1), alice.ID)

	err := s.Users().Create(ctx, &models.User{Username: "alice", Email: "other@example.com"})
	assert.True(t, errors.IsConflict(err))

	err = s.Users().Create(ctx, &models.User{Username: "bob", Email: "alice@example.com"})
	assert.True(t, errors.IsConflict(err))

	got, err := s.Users().GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = s.Users().GetByUsername(ctx, "nobody")
	assert.True(t, errors.IsNotFound(err))

	first, err := s.Users().First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", first.Username)
}

func TestSensorRepo_OwnershipAndSearch(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	for _, in := range []models.Sensor{
		{Name: "Office", Model: "DHT22"},
		{Name: "Kitchen", Model: "dht11"},
		{Name: "Garage", Model: "BME280"},
	} {
		sensor := in
		sensor.OwnerID = alice.ID
		require.NoError(t, s.Sensors().Create(ctx, &sensor))
	}
	other := &models.Sensor{OwnerID: bob.ID, Name: "Office", Model: "DHT22"}
	require.NoError(t, s.Sensors().Create(ctx, other))

	total, list, err := s.Sensors().List(ctx, alice.ID, models.SensorFilters{Query: "DHT"}, models.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, "Office", list[0].Name)
	assert.Equal(t, "Kitchen", list[1].Name)

	_, err = s.Sensors().GetOwned(ctx, alice.ID, other.ID)
	assert.True(t, errors.IsNotFound(err))

	err = s.Sensors().Update(ctx, &models.Sensor{ID: other.ID, OwnerID: alice.ID, Name: "x", Model: "y"})
	assert.True(t, errors.IsNotFound(err))

	all, err := s.Sensors().FindByName(ctx, "Office", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := s.Sensors().FindByName(ctx, "Office", bob.ID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, other.ID, scoped[0].ID)
}

func TestSensorRepo_Pagination(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice := seedUser(t, s, "alice")
	for i := 0; i < 16; i++ {
		require.NoError(t, s.Sensors().Create(ctx, &models.Sensor{OwnerID: alice.ID, Name: "s", Model: "m"}))
	}

	total, list, err := s.Sensors().List(ctx, alice.ID, models.SensorFilters{}, models.Pagination{Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(16), total)
	require.Len(t, list, 5)
	assert.Equal(t, int64(6), list[0].ID)

	_, list, err = s.Sensors().List(ctx, alice.ID, models.SensorFilters{}, models.Pagination{Page: 9, PageSize: 5})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReadingRepo_ConflictRangeAndCascade(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice := seedUser(t, s, "alice")
	sensor := &models.Sensor{OwnerID: alice.ID, Name: "Office", Model: "DHT22"}
	require.NoError(t, s.Sensors().Create(ctx, sensor))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 2; i >= 0; i-- {
		r := &models.Reading{SensorID: sensor.ID, Temperature: float64(20 + i), Humidity: 40, Timestamp: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, s.Readings().Create(ctx, r))
	}

	err := s.Readings().Create(ctx, &models.Reading{SensorID: sensor.ID, Timestamp: base})
	assert.True(t, errors.IsConflict(err))

	err = s.Readings().Create(ctx, &models.Reading{SensorID: 999, Timestamp: base})
	assert.True(t, errors.IsNotFound(err))

	from := base.Add(time.Hour)
	total, list, err := s.Readings().List(ctx, sensor.ID, models.ReadingFilters{From: &from}, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.True(t, list[0].Timestamp.Equal(from))

	_, list, err = s.Readings().List(ctx, sensor.ID, models.ReadingFilters{}, models.Pagination{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].Timestamp.Before(list[1].Timestamp))

	require.NoError(t, s.Sensors().DeleteOwned(ctx, alice.ID, sensor.ID, nil))
	_, list, err = s.Readings().List(ctx, sensor.ID, models.ReadingFilters{}, models.Pagination{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReadingRepo_Upsert(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice := seedUser(t, s, "alice")
	sensor := &models.Sensor{OwnerID: alice.ID, Name: "Office", Model: "DHT22"}
	require.NoError(t, s.Sensors().Create(ctx, sensor))
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	created, err := s.Readings().Upsert(ctx, &models.Reading{SensorID: sensor.ID, Temperature: 20, Humidity: 40, Timestamp: ts}, nil)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Readings().Upsert(ctx, &models.Reading{SensorID: sensor.ID, Temperature: 25, Humidity: 45, Timestamp: ts}, nil)
	require.NoError(t, err)
	assert.False(t, created)

	_, list, err := s.Readings().List(ctx, sensor.ID, models.ReadingFilters{}, models.Pagination{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 25.0, list[0].Temperature)
}

func TestTransaction_RollbackRestores(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice := seedUser(t, s, "alice")
	sensor := &models.Sensor{OwnerID: alice.ID, Name: "Office", Model: "DHT22"}
	require.NoError(t, s.Sensors().Create(ctx, sensor))

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = s.Readings().Upsert(ctx, &models.Reading{SensorID: sensor.ID, Timestamp: time.Now()}, tx)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	assert.ErrorIs(t, tx.Commit(), ErrTxDone)

	total, _, err := s.Readings().List(ctx, sensor.ID, models.ReadingFilters{}, models.Pagination{})
	require.NoError(t, err)
	assert.Zero(t, total)

	tx, err = s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = s.Readings().Upsert(ctx, &models.Reading{SensorID: sensor.ID, Timestamp: time.Now()}, tx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.ErrorIs(t, tx.Rollback(), ErrTxDone)

	total, _, err = s.Readings().List(ctx, sensor.ID, models.ReadingFilters{}, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
