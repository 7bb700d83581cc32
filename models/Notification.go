package models

import (
	"time"

	"gorm.io/gorm"
)

const NotificationPremiumActivated = "premium_activated"

type Notification struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	Kind      string    `gorm:"size:64;not null" json:"kind"`
	Message   string    `gorm:"text;not null" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) SaveNotification(db *gorm.DB) (*Notification, error) {
	if err := db.Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

func FindUserNotifications(db *gorm.DB, userID string, limit int) ([]Notification, error) {
	var out []Notification
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
