package scheduler

import (
	"fmt"
	"strings"
	"time"

	"asset-tracker/internal/backup"
	"asset-tracker/internal/config"
	"asset-tracker/internal/database"
	"asset-tracker/internal/models"
	"asset-tracker/internal/notifications"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the periodic jobs: backup with pruning, low-stock alerts
// and overdue stock-out alerts. A failing job logs and waits for its next tick.
type Scheduler struct {
	cron    *cron.Cron
	store   *database.Store
	backups *backup.Service
	notify  *notifications.Service
	log     *logrus.Logger
	now     func() time.Time
}

func New(store *database.Store, backups *backup.Service, notify *notifications.Service, log *logrus.Logger) *Scheduler {
	c := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(log))))
	return &Scheduler{cron: c, store: store, backups: backups, notify: notify, log: log, now: time.Now}
}

// Register adds every job whose schedule is non-empty.
func (s *Scheduler) Register(cfg *config.Config) error {
	jobs := []struct {
		name string
		spec string
		fn   func()
	}{
		{"backup", cfg.BackupSchedule, s.RunBackup},
		{"low_stock", cfg.LowStockSchedule, s.CheckLowStock},
		{"overdue", cfg.OverdueSchedule, s.CheckOverdue},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if j.name == "backup" && !s.store.SupportsBackup() {
			s.log.Info("backup job disabled for this database driver")
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, j.fn); err != nil {
			return fmt.Errorf("schedule %s job %q: %w", j.name, j.spec, err)
		}
		s.log.WithFields(logrus.Fields{"job": j.name, "spec": j.spec}).Info("job scheduled")
	}
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) RunBackup() {
	info, err := s.backups.Create()
	if err != nil {
		s.log.WithError(err).Error("scheduled backup failed")
		return
	}
	removed, err := s.backups.Prune()
	if err != nil {
		s.log.WithError(err).Error("backup prune failed")
		return
	}
	s.log.WithFields(logrus.Fields{"name": info.Name, "pruned": removed}).Info("scheduled backup done")
}

type lowStockRow struct {
	Code      string
	Name      string
	Threshold int
	InStock   int64
}

// CheckLowStock alerts every admin about asset types at or below their threshold.
func (s *Scheduler) CheckLowStock() {
	db := s.store.DB()

	var rows []lowStockRow
	err := db.Table("asset_types AS t").
		Select(`t.code, t.name, t.threshold,
			(SELECT COUNT(*) FROM assets a WHERE a.type = t.code AND a.status = ?) AS in_stock`, models.StatusInStock).
		Where("t.threshold > 0").
		Scan(&rows).Error
	if err != nil {
		s.log.WithError(err).Error("low-stock query failed")
		return
	}

	var low []string
	for _, r := range rows {
		if r.InStock <= int64(r.Threshold) {
			low = append(low, fmt.Sprintf("%s: %d in stock (threshold %d)", r.Name, r.InStock, r.Threshold))
		}
	}
	if len(low) == 0 {
		return
	}

	var admins []uint
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Pluck("id", &admins).Error; err != nil {
		s.log.WithError(err).Error("load admins failed")
		return
	}
	if err := s.notify.Notify(db, admins, models.NotificationLowStock, "Low stock", strings.Join(low, "\n")); err != nil {
		s.log.WithError(err).Error("low-stock notification failed")
		return
	}
	s.log.WithField("types", len(low)).Info("low-stock alert sent")
}

type overdueRow struct {
	ID                 uint
	BatchNo            string
	Recipient          string
	OperatorID         uint
	ExpectedReturnDate time.Time
	InUse              int64
}

// CheckOverdue notifies the operator of each batch past its expected return
// date that still has assets out. Each batch is reported once.
func (s *Scheduler) CheckOverdue() {
	db := s.store.DB()
	y, m, d := s.now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.Local)

	var rows []overdueRow
	err := db.Table("stock_out_batches AS s").
		Select(`s.id, s.batch_no, s.recipient, s.operator_id, s.expected_return_date,
			(SELECT COUNT(*) FROM assets a WHERE a.last_stock_out_id = s.id AND a.status = ?) AS in_use`, models.StatusInUse).
		Where("s.expected_return_date IS NOT NULL AND s.expected_return_date < ? AND s.overdue_notified = ?", today, false).
		Scan(&rows).Error
	if err != nil {
		s.log.WithError(err).Error("overdue query failed")
		return
	}

	for _, r := range rows {
		if r.InUse == 0 {
			continue
		}
		content := fmt.Sprintf("Batch %s (%s): %d assets were due back on %s",
			r.BatchNo, r.Recipient, r.InUse, r.ExpectedReturnDate.In(time.Local).Format("2006-01-02"))
		if err := s.notify.Notify(db, []uint{r.OperatorID}, models.NotificationOverdue, "Overdue assets", content); err != nil {
			s.log.WithError(err).WithField("batch_no", r.BatchNo).Error("overdue notification failed")
			continue
		}
		if err := db.Model(&models.StockOutBatch{}).Where("id = ?", r.ID).Update("overdue_notified", true).Error; err != nil {
			s.log.WithError(err).WithField("batch_no", r.BatchNo).Error("mark overdue notified failed")
		}
	}
}
