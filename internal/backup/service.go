// Package backup manages file-level snapshots of the SQLite database.
package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/database"

	"github.com/sirupsen/logrus"
)

const (
	prefix     = "backup-"
	suffix     = ".db"
	nameLayout = "20060102-150405.000"
)

type Info struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	store *database.Store
	dir   string
	max   int
	log   *logrus.Logger
	now   func() time.Time
}

func NewService(store *database.Store, dir string, max int, log *logrus.Logger) *Service {
	return &Service{store: store, dir: dir, max: max, log: log, now: time.Now}
}

func (s *Service) Create() (*Info, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, apperr.Internal("create backup dir", err)
	}
	name := prefix + s.now().Format(nameLayout) + suffix
	path := filepath.Join(s.dir, name)
	if err := s.store.Snapshot(path); err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, apperr.Internal("stat backup", err)
	}
	s.log.WithFields(logrus.Fields{"name": name, "size": fi.Size()}).Info("backup created")
	return &Info{Name: name, Size: fi.Size(), CreatedAt: fi.ModTime()}, nil
}

// List returns the backups in the directory, newest first.
func (s *Service) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, apperr.Internal("read backup dir", err)
	}

	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isBackupName(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{Name: e.Name(), Size: fi.Size(), CreatedAt: fi.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name > out[j].Name
	})
	return out, nil
}

func (s *Service) Restore(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := s.store.Restore(filepath.Join(s.dir, name)); err != nil {
		return err
	}
	s.log.WithField("name", name).Warn("backup restored")
	return nil
}

// Prune keeps the newest max backups and removes the rest.
func (s *Service) Prune() (int, error) {
	list, err := s.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for i := s.max; i < len(list); i++ {
		if err := os.Remove(filepath.Join(s.dir, list[i].Name)); err != nil {
			s.log.WithError(err).WithField("name", list[i].Name).Warn("remove old backup failed")
			continue
		}
		removed++
	}
	return removed, nil
}

// ValidateName accepts only plain backup file names inside the backup dir.
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) || strings.Contains(name, "..") {
		return apperr.Validation("invalid backup name")
	}
	if !isBackupName(name) {
		return apperr.Validation(fmt.Sprintf("backup names look like %s<timestamp>%s", prefix, suffix))
	}
	return nil
}

func isBackupName(name string) bool {
	return strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix)
}
