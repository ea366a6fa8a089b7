package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/database"
	"asset-tracker/internal/logger"
	"asset-tracker/internal/models"
	"asset-tracker/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *database.Store) {
	t.Helper()
	store, cfg := testutil.Store(t)
	svc := NewService(store, cfg.BackupDir, cfg.MaxBackups, logger.Discard())
	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, store
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"backup-20240501-080000.000.db", true},
		{"", false},
		{"../backup-20240501-080000.000.db", false},
		{"sub/backup-1.db", false},
		{`sub\backup-1.db`, false},
		{"backup-..db", false},
		{"asset.db", false},
		{"backup-1.sqlite", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}

func TestCreateListPrune(t *testing.T) {
	svc, _ := newService(t)

	list, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	var names []string
	for i := 0; i < 5; i++ {
		info, err := svc.Create()
		require.NoError(t, err)
		assert.Positive(t, info.Size)
		names = append(names, info.Name)
	}
	// unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(svc.dir, "notes.txt"), []byte("x"), 0o644))

	list, err = svc.List()
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, names[4], list[0].Name)

	removed, err := svc.Prune()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	list, err = svc.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{names[4], names[3], names[2]}, []string{list[0].Name, list[1].Name, list[2].Name})
}

func TestRestoreBringsBackData(t *testing.T) {
	svc, store := newService(t)
	a := testutil.CreateAsset(t, store, "Laptop", "computer", "Eng")

	info, err := svc.Create()
	require.NoError(t, err)

	require.NoError(t, store.DB().Delete(&models.Asset{}, a.ID).Error)
	testutil.CreateAsset(t, store, "After backup", "monitor", "")

	require.NoError(t, svc.Restore(info.Name))

	var assets []models.Asset
	require.NoError(t, store.DB().Find(&assets).Error)
	require.Len(t, assets, 1)
	assert.Equal(t, "Laptop", assets[0].Name)

	// the swapped handle accepts writes
	testutil.CreateAsset(t, store, "Post restore", "host", "")
}

func TestRestoreRejectsBadNames(t *testing.T) {
	svc, _ := newService(t)

	assert.True(t, apperr.Is(svc.Restore("../asset.db"), apperr.KindValidation))
	assert.True(t, apperr.Is(svc.Restore("backup-20990101-000000.000.db"), apperr.KindNotFound))
}

func TestRestoreRejectsCorruptFileAndKeepsDatabase(t *testing.T) {
	svc, store := newService(t)
	testutil.CreateAsset(t, store, "Laptop", "computer", "Eng")

	require.NoError(t, os.MkdirAll(svc.dir, 0o755))
	junk := []byte("this is not a sqlite database, just some bytes in a file")
	require.NoError(t, os.WriteFile(filepath.Join(svc.dir, "backup-corrupt.db"), junk, 0o644))

	err := svc.Restore("backup-corrupt.db")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	require.NoError(t, store.Ping())
	var count int64
	require.NoError(t, store.DB().Model(&models.Asset{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	testutil.CreateAsset(t, store, "Still writable", "monitor", "")

	_, err = os.Stat(filepath.Join(filepath.Dir(svc.dir), "asset.db.prev"))
	assert.True(t, os.IsNotExist(err))
}
