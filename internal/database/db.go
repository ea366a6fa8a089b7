package database

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/config"
	"asset-tracker/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrBackupUnsupported = apperr.Validation("backup is only supported for sqlite")

// Store owns the live database handle. Restore swaps the handle under the
// write lock; everything else reads it through DB().
type Store struct {
	mu  sync.RWMutex
	db  *gorm.DB
	cfg *config.Config
	log *logrus.Logger
}

func Open(cfg *config.Config, log *logrus.Logger) (*Store, error) {
	db, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		closeDB(db)
		return nil, err
	}
	if err := seed(db, cfg, log); err != nil {
		closeDB(db)
		return nil, err
	}

	log.WithFields(logrus.Fields{"driver": cfg.DBDriver}).Info("database ready")
	return &Store{db: db, cfg: cfg, log: log}, nil
}

func connect(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}

	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), gcfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return db, nil
	default:
		if dir := filepath.Dir(cfg.DBPath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		db, err := gorm.Open(sqlite.Open(cfg.DBPath+"?_foreign_keys=on&_busy_timeout=5000"), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.DBPath, err)
		}
		// a single writer connection avoids SQLITE_BUSY between pooled conns
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			closeDB(db)
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
		return db, nil
	}
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// DB returns the current handle.
func (s *Store) DB() *gorm.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

func (s *Store) Ping() error {
	sqlDB, err := s.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *Store) SupportsBackup() bool {
	return s.cfg.DBDriver != config.DriverPostgres
}

// Snapshot writes a consistent copy of the SQLite database to dst.
func (s *Store) Snapshot(dst string) error {
	if !s.SupportsBackup() {
		return ErrBackupUnsupported
	}
	if _, err := os.Stat(dst); err == nil {
		return apperr.Conflict("backup file already exists")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.db.Exec("VACUUM INTO ?", dst).Error; err != nil {
		return apperr.Internal("snapshot failed", err)
	}
	return nil
}

// Restore replaces the database file with src and swaps in a fresh handle.
// Requests still holding the previous handle fail once it is closed. The
// live file is kept as <db>.prev until the new handle is migrated, and put
// back if anything after the copy fails.
func (s *Store) Restore(src string) error {
	if !s.SupportsBackup() {
		return ErrBackupUnsupported
	}
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.NotFound("backup not found")
		}
		return apperr.Internal("stat backup", err)
	}
	if err := checkSQLite(src); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cfg.DBPath + ".prev"
	closeDB(s.db)
	if err := copyFile(s.cfg.DBPath, prev); err != nil {
		s.reopen()
		return apperr.Internal("keep current database", err)
	}

	if err := copyFile(src, s.cfg.DBPath); err != nil {
		s.rollback(prev)
		return apperr.Internal("restore copy failed", err)
	}

	db, err := connect(s.cfg)
	if err != nil {
		s.rollback(prev)
		return apperr.Internal("reopen after restore", err)
	}
	if err := migrate(db); err != nil {
		closeDB(db)
		s.rollback(prev)
		return apperr.Internal("migrate restored database", err)
	}
	s.db = db
	if err := os.Remove(prev); err != nil {
		s.log.WithError(err).Warn("remove previous database copy failed")
	}

	s.log.WithField("source", filepath.Base(src)).Warn("database restored from backup")
	return nil
}

// checkSQLite opens path on its own handle and runs an integrity check.
func checkSQLite(path string) error {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return apperr.Validation("backup is not a valid sqlite database")
	}
	defer closeDB(db)

	var result string
	if err := db.Raw("PRAGMA integrity_check").Row().Scan(&result); err != nil || result != "ok" {
		return apperr.Validation("backup is not a valid sqlite database")
	}
	return nil
}

// rollback puts the saved file back and reopens it. Callers hold the write lock.
func (s *Store) rollback(prev string) {
	if err := os.Rename(prev, s.cfg.DBPath); err != nil {
		s.log.WithError(err).Error("put back previous database failed")
	}
	s.reopen()
}

// reopen connects to the current file so s.db never stays closed.
func (s *Store) reopen() {
	db, err := connect(s.cfg)
	if err != nil {
		s.log.WithError(err).Error("reopen database failed")
		return
	}
	s.db = db
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".restore"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
