package models

import (
	"errors"
	"html"
	"sort"
	"strings"
	"time"

	"Agora/tally"

	"gorm.io/gorm"
)

// ContentVote is a time-boxed poll whose expiry triggers article generation.
// IsActive is the claim flag: it goes from true to false exactly once, set by
// whoever wins the claim.
type ContentVote struct {
	ID        uint                `gorm:"primary_key;autoIncrement" json:"id"`
	Title     string              `gorm:"size:255;not null" json:"title"`
	EndsAt    *time.Time          `gorm:"index" json:"ends_at"`
	IsActive  bool                `gorm:"not null;index" json:"is_active"`
	Options   []ContentVoteOption `gorm:"foreignKey:VoteID" json:"options"`
	Ballots   []Ballot            `gorm:"foreignKey:VoteID" json:"-"`
	CreatedAt time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type ContentVoteOption struct {
	ID       uint   `gorm:"primary_key;autoIncrement" json:"id"`
	VoteID   uint   `gorm:"not null;uniqueIndex:idx_vote_option_position" json:"vote_id"`
	Position int    `gorm:"not null;uniqueIndex:idx_vote_option_position" json:"position"`
	Text     string `gorm:"size:255;not null" json:"text"`
}

func (v *ContentVote) Prepare() {
	v.ID = 0
	v.Title = html.EscapeString(strings.TrimSpace(v.Title))
	v.IsActive = true
	v.Ballots = nil
	for i := range v.Options {
		v.Options[i].ID = 0
		v.Options[i].Position = i
		v.Options[i].Text = html.EscapeString(strings.TrimSpace(v.Options[i].Text))
	}
}

func (v *ContentVote) Validate(now time.Time) map[string]string {
	var errorMessages = make(map[string]string)

	if v.Title == "" {
		errorMessages["Required_title"] = "required title"
	}
	if len(v.Options) < 2 {
		errorMessages["Required_options"] = "at least two options are required"
	}
	for _, o := range v.Options {
		if o.Text == "" {
			errorMessages["Invalid_option"] = "options must not be empty"
			break
		}
	}
	if v.EndsAt == nil {
		errorMessages["Required_ends_at"] = "required end time"
	} else if !v.EndsAt.After(now) {
		errorMessages["Invalid_ends_at"] = "end time must be in the future"
	}
	return errorMessages
}

func (v *ContentVote) SaveContentVote(db *gorm.DB) (*ContentVote, error) {
	if err := db.Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

// OptionTexts returns the option labels in display order.
func (v *ContentVote) OptionTexts() []string {
	opts := append([]ContentVoteOption(nil), v.Options...)
	sort.Slice(opts, func(i, j int) bool { return opts[i].Position < opts[j].Position })
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Text
	}
	return out
}

func (v *ContentVote) TallyBallots() []tally.Ballot {
	out := make([]tally.Ballot, len(v.Ballots))
	for i, b := range v.Ballots {
		out[i] = tally.Ballot{UserID: b.UserID, OptionIndex: b.OptionIndex}
	}
	return out
}

// Tally reduces the loaded ballots for the given viewer.
func (v *ContentVote) Tally(viewerID string) tally.Result {
	return tally.Compute(v.OptionTexts(), v.TallyBallots(), viewerID)
}

func preloadVote(db *gorm.DB) *gorm.DB {
	return db.Preload("Options", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	}).Preload("Ballots")
}

func (v *ContentVote) FindContentVoteByID(db *gorm.DB, id uint) (*ContentVote, error) {
	if err := preloadVote(db).First(v, id).Error; err != nil {
		return nil, err
	}
	return v, nil
}

func FindContentVotes(db *gorm.DB, limit int) ([]ContentVote, error) {
	votes := []ContentVote{}
	err := preloadVote(db).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&votes).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return votes, nil
}

// FindExpiredActiveVotes lists votes past their end time that still hold the
// claim flag and have at least one ballot.
func FindExpiredActiveVotes(db *gorm.DB, now time.Time) ([]ContentVote, error) {
	var votes []ContentVote
	err := preloadVote(db).
		Where("is_active = ? AND ends_at IS NOT NULL AND ends_at < ?", true, now.UTC()).
		Where("EXISTS (SELECT 1 FROM ballots WHERE ballots.vote_id = content_votes.id)").
		Order("ends_at ASC").
		Find(&votes).Error
	return votes, err
}

// IsContentVoteActive reads the claim flag without any caching.
func IsContentVoteActive(db *gorm.DB, id uint) (bool, error) {
	var v ContentVote
	if err := db.Select("id", "is_active").First(&v, id).Error; err != nil {
		return false, err
	}
	return v.IsActive, nil
}

// ClaimContentVote flips the claim flag from true to false. Only the caller
// whose update touched the row gets true.
func ClaimContentVote(db *gorm.DB, id uint) (bool, error) {
	result := db.Model(&ContentVote{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func ReleaseContentVote(db *gorm.DB, id uint) error {
	return db.Model(&ContentVote{}).
		Where("id = ? AND is_active = ?", id, false).
		Update("is_active", true).Error
}
