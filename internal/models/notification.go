package models

import "time"

type NotificationType string

const (
	NotificationLowStock NotificationType = "low_stock"
	NotificationOverdue  NotificationType = "overdue"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"index;not null" json:"user_id"`
	Type      NotificationType `gorm:"size:20;not null" json:"type"`
	Title     string           `gorm:"size:100;not null" json:"title"`
	Content   string           `gorm:"size:2000" json:"content"`
	Read      bool             `gorm:"column:is_read;not null;default:false;index" json:"read"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
}
