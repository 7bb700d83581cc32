package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Badge struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_badge_user_tag" json:"user_id"`
	Tag       string    `gorm:"size:64;not null;uniqueIndex:idx_badge_user_tag" json:"tag"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// GrantBadge stores the badge unless the user already holds it.
// It reports whether a new row was written.
func GrantBadge(db *gorm.DB, userID, tag string) (bool, error) {
	b := Badge{UserID: userID, Tag: strings.TrimSpace(tag)}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&b)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func FindBadgeTags(db *gorm.DB, userID string) ([]string, error) {
	var tags []string
	err := db.Model(&Badge{}).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Pluck("tag", &tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}
