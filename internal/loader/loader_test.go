package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/itsatony/sensorhub/internal/config"
	"github.com/itsatony/sensorhub/internal/hubservice"
	"github.com/itsatony/sensorhub/internal/models"
	"github.com/itsatony/sensorhub/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T) (*Loader, *hubservice.HubService) {
	t.Helper()
	store := memory.NewStore()
	svc := hubservice.New(store.Users(), store.Sensors(), store.Readings(),
		config.AuthConfig{Secret: "s", Issuer: "sensorhub", AccessTTL: time.Minute, RefreshTTL: time.Hour, BcryptCost: 4},
		config.PaginationConfig{DefaultPageSize: 10, MaxPageSize: 100},
	)
	return New(svc), svc
}

func allReadings(t *testing.T, svc *hubservice.HubService, sensorID int64) []*models.Reading {
	t.Helper()
	_, list, err := svc.Readings.List(context.Background(), sensorID, models.ReadingFilters{}, models.Pagination{})
	require.NoError(t, err)
	return list
}

func TestLoadCSV_UpsertsAndSkips(t *testing.T) {
	ctx := context.Background()
	l, svc := newTestLoader(t)
	user, created, err := l.SeedUser(ctx, "testuser", "password123")
	require.NoError(t, err)
	assert.True(t, created)
	n, err := l.SeedSensors(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	csvData := strings.Join([]string{
		"timestamp,device_id,temperature,humidity",
		"2024-01-01T00:00:00Z,device-001,21.5,40",
		"2024-01-01 01:00:00+00:00,device-001,22.0,41",
		"2024-01-01T00:00:00,device-002,19.0,55",
		",device-001,20,40",
		"2024-01-01T02:00:00Z,device-999,20,40",
		"not-a-date,device-001,20,40",
		"2024-01-01T03:00:00Z,device-001,warm,40",
		"2024-01-01T04:00:00Z,device-001,20,",
		"2024-01-01T00:00:00Z,device-001,25.0,45",
	}, "\n")

	var imported []string
	require.NoError(t, svc.On(hubservice.EventReadingsImported, func(count string) {
		imported = append(imported, count)
	}))

	res, err := l.LoadCSV(ctx, strings.NewReader(csvData), Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 3, Updated: 1, Skipped: 5}, res)
	assert.Equal(t, []string{"4"}, imported)

	sensors, err := svc.Sensors.FindByName(ctx, "device-001", user.ID)
	require.NoError(t, err)
	require.Len(t, sensors, 1)
	readings := allReadings(t, svc, sensors[0].ID)
	require.Len(t, readings, 2)
	assert.Equal(t, 25.0, readings[0].Temperature)
	assert.Equal(t, 45.0, readings[0].Humidity)

	// Re-running the same file only updates
	res, err = l.LoadCSV(ctx, strings.NewReader(csvData), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 4, res.Updated)
	assert.Len(t, allReadings(t, svc, sensors[0].ID), 2)
}

func TestLoadCSV_AmbiguousNameNeedsOwner(t *testing.T) {
	ctx := context.Background()
	l, svc := newTestLoader(t)
	alice, _, err := l.SeedUser(ctx, "alice", "pw")
	require.NoError(t, err)
	bob, _, err := l.SeedUser(ctx, "bob", "pw")
	require.NoError(t, err)
	_, err = l.SeedSensors(ctx, alice)
	require.NoError(t, err)
	_, err = l.SeedSensors(ctx, bob)
	require.NoError(t, err)

	csvData := "device_id,timestamp,temperature,humidity\ndevice-003,2024-01-01T00:00:00Z,1,2\n"

	res, err := l.LoadCSV(ctx, strings.NewReader(csvData), Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 1}, res)

	res, err = l.LoadCSV(ctx, strings.NewReader(csvData), Options{Owner: "bob"})
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 1}, res)

	bobs, err := svc.Sensors.FindByName(ctx, "device-003", bob.ID)
	require.NoError(t, err)
	assert.Len(t, allReadings(t, svc, bobs[0].ID), 1)

	_, err = l.LoadCSV(ctx, strings.NewReader(csvData), Options{Owner: "carol"})
	assert.Error(t, err)
}

func TestLoadCSV_Unrecoverable(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLoader(t)

	_, err := l.LoadCSV(ctx, strings.NewReader("timestamp,device_id,temperature\n"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "humidity")

	_, err = l.LoadCSV(ctx, strings.NewReader(""), Options{})
	assert.Error(t, err)

	_, err = l.LoadFile(ctx, filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	l, svc := newTestLoader(t)

	_, err := l.Seed(ctx, SeedOptions{CSVPath: filepath.Join(t.TempDir(), "missing.csv")})
	require.Error(t, err)
	_, err = svc.Users.GetByUsername(ctx, DefaultSeedUsername)
	assert.Error(t, err, "nothing is written when the csv is missing")

	path := filepath.Join(t.TempDir(), "readings.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"timestamp,device_id,temperature,humidity\n"+
			"2024-01-01T00:00:00Z,device-005,18.5,60\n"+
			"2024-01-01T00:10:00Z,device-005,18.7,61\n"), 0o600))

	res, err := l.Seed(ctx, SeedOptions{CSVPath: path})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	sess, err := svc.Login(ctx, hubservice.LoginInput{Email: "testuser@example.com", Password: DefaultSeedPassword})
	require.NoError(t, err)
	page, err := svc.ListSensors(ctx, sess.ID, models.SensorFilters{}, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)

	// Seeding again is idempotent
	res, err = l.Seed(ctx, SeedOptions{CSVPath: path})
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 2}, res)
	page, err = svc.ListSensors(ctx, sess.ID, models.SensorFilters{}, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
}

func TestSeedSensorsFor(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLoader(t)

	n, err := l.SeedSensorsFor(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, _, err = l.SeedUser(ctx, "first", "pw")
	require.NoError(t, err)
	n, err = l.SeedSensorsFor(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = l.SeedSensorsFor(ctx, "first")
	require.NoError(t, err)
	assert.Zero(t, n)
}
