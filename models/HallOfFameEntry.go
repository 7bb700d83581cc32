package models

import (
	"time"

	"Agora/gamification"

	"gorm.io/gorm"
)

// HallOfFameEntry is written by the weekly ranking job; the API only reads it.
// At most one rank-1 entry exists per (week_number, year).
type HallOfFameEntry struct {
	ID           uint      `gorm:"primary_key;autoIncrement" json:"id"`
	PostID       uint      `gorm:"not null;index" json:"post_id"`
	UserID       string    `gorm:"size:64;not null;index" json:"user_id"`
	DiscussionID uint      `gorm:"not null" json:"discussion_id"`
	Rank         int       `gorm:"not null" json:"rank"`
	LikesCount   int       `gorm:"not null;default:0" json:"likes_count"`
	WeekNumber   int       `gorm:"not null;index:idx_hall_of_fame_week" json:"week_number"`
	Year         int       `gorm:"not null;index:idx_hall_of_fame_week" json:"year"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (HallOfFameEntry) TableName() string { return "hall_of_fame_entries" }

func (h HallOfFameEntry) Entry() gamification.Entry {
	return gamification.Entry{
		PostID:       h.PostID,
		UserID:       h.UserID,
		DiscussionID: h.DiscussionID,
		Rank:         h.Rank,
		LikesCount:   h.LikesCount,
		WeekNumber:   h.WeekNumber,
		Year:         h.Year,
	}
}

func ToEntries(rows []HallOfFameEntry) []gamification.Entry {
	out := make([]gamification.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Entry())
	}
	return out
}

func FindHallOfFameByUser(db *gorm.DB, userID string) ([]HallOfFameEntry, error) {
	var rows []HallOfFameEntry
	err := db.Where("user_id = ?", userID).
		Order("year DESC, week_number DESC, rank ASC").
		Find(&rows).Error
	return rows, err
}

func FindHallOfFameByWeek(db *gorm.DB, week, year int) ([]HallOfFameEntry, error) {
	var rows []HallOfFameEntry
	err := db.Where("week_number = ? AND year = ?", week, year).
		Order("rank ASC").
		Find(&rows).Error
	return rows, err
}

// ensureHallOfFameConstraints adds the one-winner-per-week index, which gorm
// tags cannot express.
func ensureHallOfFameConstraints(db *gorm.DB) error {
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_hall_of_fame_week_winner ON hall_of_fame_entries (week_number, year) WHERE rank = 1",
	).Error
}
