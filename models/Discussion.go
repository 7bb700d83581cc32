package models

import (
	"errors"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Discussion carries one argument round. RoundEndsAt == nil means the round
// has been archived and never reopens.
type Discussion struct {
	ID          uint       `gorm:"primary_key;autoIncrement" json:"id"`
	Slug        string     `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Body        string     `gorm:"text;not null" json:"body"`
	AuthorID    string     `gorm:"size:64;not null;index" json:"author_id"`
	RoundEndsAt *time.Time `gorm:"index" json:"round_ends_at"`
	Posts       []Post     `gorm:"foreignKey:DiscussionID" json:"posts,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *Discussion) Prepare() {
	d.ID = 0
	d.Title = html.EscapeString(strings.TrimSpace(d.Title))
	d.Body = html.EscapeString(strings.TrimSpace(d.Body))
	d.Slug = strings.TrimSpace(d.Slug)
	if d.Slug == "" && d.Title != "" {
		d.Slug = Slugify(html.UnescapeString(d.Title)) + "-" + uuid.NewString()[:6]
	}
	d.Posts = nil
}

func (d *Discussion) Validate() map[string]string {
	var errorMessages = make(map[string]string)

	if d.Title == "" {
		errorMessages["Required_title"] = "required title"
	}
	if d.Body == "" {
		errorMessages["Required_body"] = "required body"
	}
	if d.AuthorID == "" {
		errorMessages["Required_author"] = "required author"
	}
	return errorMessages
}

func (d *Discussion) SaveDiscussion(db *gorm.DB) (*Discussion, error) {
	if err := db.Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Discussion) FindDiscussionByID(db *gorm.DB, id uint) (*Discussion, error) {
	err := db.Preload("Posts", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("likes_count DESC, created_at ASC")
	}).First(d, id).Error
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Discussion) FindDiscussionBySlug(db *gorm.DB, slug string) (*Discussion, error) {
	var found Discussion
	if err := db.Where("slug = ?", slug).First(&found).Error; err != nil {
		return nil, err
	}
	return d.FindDiscussionByID(db, found.ID)
}

func FindDiscussions(db *gorm.DB, offset, limit int) ([]Discussion, int64, error) {
	var total int64
	if err := db.Model(&Discussion{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	discussions := []Discussion{}
	err := db.Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&discussions).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, err
	}
	return discussions, total, nil
}

// ArchiveDiscussion ends the round for good.
func ArchiveDiscussion(db *gorm.DB, id uint) (int64, error) {
	result := db.Model(&Discussion{}).Where("id = ?", id).Update("round_ends_at", nil)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
