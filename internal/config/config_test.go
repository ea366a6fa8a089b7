package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DB_PATH", "/tmp/asset.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 10, cfg.MaxBackups)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, "/tmp/asset.db", cfg.DBPath)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"missing secret", Config{DBDriver: "sqlite", DBPath: "x.db"}, false},
		{"short secret", Config{JWTSecret: "short", DBDriver: "sqlite", DBPath: "x.db"}, false},
		{"postgres without dsn", Config{JWTSecret: "0123456789abcdef0123456789abcdef", DBDriver: "postgres"}, false},
		{"unknown driver", Config{JWTSecret: "0123456789abcdef0123456789abcdef", DBDriver: "mysql"}, false},
		{"sqlite ok", Config{JWTSecret: "0123456789abcdef0123456789abcdef", DBDriver: "sqlite", DBPath: "x.db"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
