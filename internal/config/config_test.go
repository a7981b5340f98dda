package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                 "development",
		JWTSecret:           "secure-secret-at-least-32-chars-long",
		DBPassword:          "secure-password",
		DBSSLMode:           "disable",
		Port:                "8080",
		DefaultPageSize:     10,
		MaxPostLength:       10000,
		TracingSamplerRatio: 1,
		RedisURL:            "redis://localhost:6379",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with empty SSL mode", "prod", "", true},
		{"Prod with disable SSL mode", "prod", "disable", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Port = "" }},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"page size too large", func(c *Config) { c.DefaultPageSize = 500 }},
		{"negative post length", func(c *Config) { c.MaxPostLength = -1 }},
		{"sampler above one", func(c *Config) { c.TracingSamplerRatio = 1.5 }},
		{"unknown exporter", func(c *Config) { c.TracingExporter = "jaeger" }},
		{"default secret in production", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.JWTSecret = "your-secret-key-change-in-production"
		}},
		{"admin bootstrap in production", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.DevBootstrapAdmin = true
		}},
		{"seed preset in production", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.DevSeedPreset = "demo"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	assert.NoError(t, validConfig().Validate())
}

func TestLoadConfig_SSLModeNormalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer viper.Reset()

	os.Setenv("APP_ENV", "test")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10, c.DefaultPageSize)
	assert.Equal(t, 10000, c.MaxPostLength)
	assert.Equal(t, "hybrid", c.DBSchemaMode)
	assert.Equal(t, 25, c.DBMaxOpenConns)
	assert.False(t, c.TracingEnabled)
	assert.False(t, c.DevBootstrapAdmin)
	assert.Equal(t, "admin", c.DevAdminUsername)
}
