package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_EnvOverrides(t *testing.T) {
	t.Setenv("SENSORHUB_DATABASE__DRIVER", "memory")
	t.Setenv("SENSORHUB_AUTH__SECRET", "s3cret")
	t.Setenv("SENSORHUB_AUTH__ACCESS_TTL", "1m")
	t.Setenv("SENSORHUB_SERVER__PORT", "9001")

	cfg, err := LoadWith(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Pagination.DefaultPageSize)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadWith_MissingSecret(t *testing.T) {
	t.Setenv("SENSORHUB_DATABASE__DRIVER", "memory")

	_, err := LoadWith(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth secret is required")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{
				Driver:   DriverPostgres,
				Postgres: PostgresConfig{Host: "db", DBName: "sensors"},
			},
			Auth: AuthConfig{
				Secret:     "x",
				AccessTTL:  5 * time.Minute,
				RefreshTTL: time.Hour,
			},
			Pagination: PaginationConfig{DefaultPageSize: 10, MaxPageSize: 100},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing host", mutate: func(c *Config) { c.Database.Postgres.Host = "" }, wantErr: "postgres host"},
		{name: "missing dbname", mutate: func(c *Config) { c.Database.Postgres.DBName = "" }, wantErr: "postgres dbname"},
		{name: "memory needs no host", mutate: func(c *Config) {
			c.Database.Driver = DriverMemory
			c.Database.Postgres = PostgresConfig{}
		}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "sqlite" }, wantErr: "unknown database driver"},
		{name: "access outlives refresh", mutate: func(c *Config) { c.Auth.AccessTTL = 2 * time.Hour }, wantErr: "access_ttl"},
		{name: "bad pagination", mutate: func(c *Config) { c.Pagination.MaxPageSize = 5 }, wantErr: "pagination"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
