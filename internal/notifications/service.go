package notifications

import (
	"asset-tracker/internal/apperr"
	"asset-tracker/internal/database"
	"asset-tracker/internal/models"

	"gorm.io/gorm"
)

type Service struct {
	store *database.Store
}

func NewService(store *database.Store) *Service {
	return &Service{store: store}
}

// Notify writes one notification per recipient in a single insert.
func (s *Service) Notify(db *gorm.DB, userIDs []uint, typ models.NotificationType, title, content string) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, models.Notification{UserID: id, Type: typ, Title: title, Content: content})
	}
	return db.Create(&rows).Error
}

func (s *Service) Unread(userID uint) ([]models.Notification, error) {
	rows := make([]models.Notification, 0)
	err := s.store.DB().
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal("list notifications", err)
	}
	return rows, nil
}

func (s *Service) MarkRead(id, userID uint) error {
	res := s.store.DB().Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return apperr.Internal("mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (s *Service) MarkAllRead(userID uint) (int64, error) {
	res := s.store.DB().Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, apperr.Internal("mark notifications read", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Service) Delete(id, userID uint) error {
	res := s.store.DB().Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return apperr.Internal("delete notification", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}
