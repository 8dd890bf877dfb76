package loader

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/hubservice"
	"github.com/itsatony/sensorhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	DefaultSeedUsername = "testuser"
	DefaultSeedPassword = "password123"
	DefaultSeedCSV      = "seed/sensor_readings_wide.csv"
)

// SeedOptions configure Seed
type SeedOptions struct {
	CSVPath  string
	Username string
	Password string
}

// SeedUser returns the named user, creating it with the given password and
// an <username>@example.com address when missing
func (l *Loader) SeedUser(ctx context.Context, username, password string) (*models.User, bool, error) {
	user, err := l.svc.Users.GetByUsername(ctx, username)
	if err == nil {
		nuts.L.Infof("[Loader] User '%s' already exists", username)
		return user, false, nil
	}
	if !errors.IsNotFound(err) {
		return nil, false, err
	}

	hash, err := l.svc.Passwords.Hash(password)
	if err != nil {
		return nil, false, err
	}
	user = &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := l.svc.Users.Create(ctx, user); err != nil {
		return nil, false, err
	}

	nuts.L.Infof("[Loader] Created user %s", username)
	l.svc.Emit(hubservice.EventUserRegistered, strconv.FormatInt(user.ID, 10))
	return user, true, nil
}

// SeedSensors makes sure user owns the default sensors and returns how many
// were created
func (l *Loader) SeedSensors(ctx context.Context, user *models.User) (int, error) {
	created := 0
	for _, tmpl := range models.DefaultSensors {
		existing, err := l.svc.Sensors.FindByName(ctx, tmpl.Name, user.ID)
		if err != nil {
			return created, err
		}
		if len(existing) > 0 {
			nuts.L.Infof("[Loader] Sensor %s already exists", tmpl.Name)
			continue
		}
		if _, err := l.svc.CreateSensor(ctx, user.ID, models.SensorInput{Name: tmpl.Name, Model: tmpl.Model}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// SeedSensorsFor seeds the default sensors for the named user, or for the
// first user when username is empty. Without any user it does nothing.
func (l *Loader) SeedSensorsFor(ctx context.Context, username string) (int, error) {
	var (
		user *models.User
		err  error
	)
	if username == "" {
		user, err = l.svc.Users.First(ctx)
	} else {
		user, err = l.svc.Users.GetByUsername(ctx, username)
	}
	if errors.IsNotFound(err) {
		nuts.L.Warnf("[Loader] No users found. Create a user first.")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return l.SeedSensors(ctx, user)
}

// Seed creates the demo user and sensors, then imports the CSV scoped to
// that user. The CSV is checked before anything is written.
func (l *Loader) Seed(ctx context.Context, opts SeedOptions) (Result, error) {
	if opts.CSVPath == "" {
		opts.CSVPath = DefaultSeedCSV
	}
	if opts.Username == "" {
		opts.Username = DefaultSeedUsername
	}
	if opts.Password == "" {
		opts.Password = DefaultSeedPassword
	}

	if _, err := os.Stat(opts.CSVPath); err != nil {
		return Result{}, fmt.Errorf("csv file not found: %s: %w", opts.CSVPath, err)
	}

	user, _, err := l.SeedUser(ctx, opts.Username, opts.Password)
	if err != nil {
		return Result{}, fmt.Errorf("failed to seed user: %w", err)
	}
	if _, err := l.SeedSensors(ctx, user); err != nil {
		return Result{}, fmt.Errorf("failed to seed sensors: %w", err)
	}
	nuts.L.Infof("[Loader] Sensors created or verified for %s", user.Username)

	return l.LoadFile(ctx, opts.CSVPath, Options{Owner: user.Username})
}
