package models

import (
	"errors"
	"html"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDoubleLike = errors.New("double like")

const (
	SidePro    = "pro"
	SideContra = "contra"
)

// Post is one argument submitted to a discussion round.
type Post struct {
	ID           uint      `gorm:"primary_key;autoIncrement" json:"id"`
	DiscussionID uint      `gorm:"not null;index" json:"discussion_id"`
	UserID       string    `gorm:"size:64;not null;index" json:"user_id"`
	Side         string    `gorm:"size:16;not null" json:"side"`
	Body         string    `gorm:"text;not null" json:"body"`
	LikesCount   int       `gorm:"not null;default:0" json:"likes_count"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type PostLike struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_like_user_post" json:"post_id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_post_like_user_post" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *Post) Prepare() {
	p.ID = 0
	p.Body = html.EscapeString(strings.TrimSpace(p.Body))
	p.Side = strings.ToLower(strings.TrimSpace(p.Side))
	p.LikesCount = 0
}

func (p *Post) Validate() map[string]string {
	var errorMessages = make(map[string]string)

	if p.Body == "" {
		errorMessages["Required_body"] = "Body is required"
	}
	if p.Side != SidePro && p.Side != SideContra {
		errorMessages["Invalid_side"] = "Side must be pro or contra"
	}
	if p.UserID == "" {
		errorMessages["Required_user"] = "User is required"
	}
	if p.DiscussionID == 0 {
		errorMessages["Required_discussion"] = "Discussion is required"
	}
	return errorMessages
}

func (p *Post) SavePost(db *gorm.DB) (*Post, error) {
	if err := db.Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// SavePostLike records the like once and credits the post and its author.
func (l *PostLike) SavePostLike(db *gorm.DB) (*Post, error) {
	var post Post
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, l.PostID).Error; err != nil {
			return err
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(l)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDoubleLike
		}

		if err := tx.Model(&Post{}).
			Where("id = ?", post.ID).
			Update("likes_count", gorm.Expr("likes_count + 1")).Error; err != nil {
			return err
		}
		if post.UserID != l.UserID {
			if err := AddKarma(tx, post.UserID, 1); err != nil {
				return err
			}
		}
		post.LikesCount++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}
