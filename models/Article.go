package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Article struct {
	ID           uint      `gorm:"primary_key;autoIncrement" json:"id"`
	Slug         string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Excerpt      string    `gorm:"text" json:"excerpt"`
	Body         string    `gorm:"text" json:"body,omitempty"`
	ImageURL     string    `gorm:"size:512" json:"image_url"`
	IsPremium    bool      `gorm:"not null;default:false" json:"is_premium"`
	SourceVoteID *uint     `gorm:"index" json:"source_vote_id,omitempty"`
	PublishedAt  time.Time `gorm:"not null;index" json:"published_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Article) FindArticleBySlug(db *gorm.DB, slug string) (*Article, error) {
	if err := db.Where("slug = ?", slug).First(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// FindPublishedArticles returns articles published at or after since, newest first.
// A zero since returns everything.
func FindPublishedArticles(db *gorm.DB, since time.Time, limit int) ([]Article, error) {
	q := db.Select("id", "slug", "title", "excerpt", "image_url", "published_at", "updated_at").
		Order("published_at DESC")
	if !since.IsZero() {
		q = q.Where("published_at >= ?", since.UTC())
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []Article
	err := q.Find(&out).Error
	return out, err
}

// ProcessedPayment is the idempotency ledger for payment webhook deliveries.
type ProcessedPayment struct {
	EventID     string    `gorm:"primaryKey;size:255" json:"event_id"`
	UserID      string    `gorm:"size:64;not null;index" json:"user_id"`
	ProcessedAt time.Time `gorm:"not null" json:"processed_at"`
}

// RecordPayment stores the event id and reports false when it was already seen.
func RecordPayment(db *gorm.DB, eventID, userID string, now time.Time) (bool, error) {
	p := ProcessedPayment{EventID: eventID, UserID: userID, ProcessedAt: now.UTC()}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&p)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
