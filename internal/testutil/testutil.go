// Package testutil builds throwaway stores and fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"asset-tracker/internal/config"
	"asset-tracker/internal/database"
	"asset-tracker/internal/logger"
	"asset-tracker/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const Secret = "test-secret-test-secret-test-secret-0123"

func Config(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		HTTPPort:      "0",
		DBDriver:      config.DriverSQLite,
		DBPath:        filepath.Join(dir, "asset.db"),
		JWTSecret:     Secret,
		JWTExpiresIn:  time.Hour,
		LogLevel:      "error",
		BackupDir:     filepath.Join(dir, "backups"),
		MaxBackups:    3,
		CacheTTL:      time.Minute,
		AdminUsername: "admin",
		AdminPassword: "admin123",
	}
}

// Store opens a migrated and seeded SQLite store in a temp dir.
func Store(t *testing.T) (*database.Store, *config.Config) {
	t.Helper()
	cfg := Config(t)
	store, err := database.Open(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, cfg
}

func Admin(t *testing.T, store *database.Store) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, store.DB().Where("role = ?", models.RoleAdmin).First(&u).Error)
	return u
}

func CreateUser(t *testing.T, store *database.Store, username string, role models.UserRole) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	u := models.User{Username: username, PasswordHash: string(hash), Name: username, Role: role}
	require.NoError(t, store.DB().Create(&u).Error)
	return u
}

func CreateAsset(t *testing.T, store *database.Store, name, typ, department string) models.Asset {
	t.Helper()
	a := models.Asset{Name: name, Type: typ, Department: department, Status: models.StatusInStock}
	require.NoError(t, store.DB().Create(&a).Error)
	return a
}
