package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "memory", QueryTimeout: time.Second},
		JWT:      JWTConfig{Secret: "s3cret", ExpiryMinutes: 60},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }},
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }},
		{"zero expiry", func(c *Config) { c.JWT.ExpiryMinutes = 0 }},
		{"zero query timeout", func(c *Config) { c.Database.QueryTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "pw", Name: "consultorio", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=consultorio sslmode=disable", c.DSN())

	c.URL = "postgres://app:pw@db/consultorio"
	assert.Equal(t, c.URL, c.DSN())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiry())
	assert.Equal(t, "consultorio.appointments", cfg.Outbox.Channel)
}
