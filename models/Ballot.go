package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ballot is unique per (vote_id, user_id); casting again changes the choice.
type Ballot struct {
	ID          uint      `gorm:"primary_key;autoIncrement" json:"id"`
	VoteID      uint      `gorm:"not null;uniqueIndex:idx_ballot_vote_user" json:"vote_id"`
	UserID      string    `gorm:"size:64;not null;uniqueIndex:idx_ballot_vote_user" json:"user_id"`
	OptionIndex int       `gorm:"not null" json:"option_index"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *Ballot) Validate(optionCount int) map[string]string {
	var errorMessages = make(map[string]string)

	if b.UserID == "" {
		errorMessages["Required_user"] = "User is required"
	}
	if b.OptionIndex < 0 || b.OptionIndex >= optionCount {
		errorMessages["Invalid_option"] = "Option does not exist"
	}
	return errorMessages
}

// SaveBallot upserts on (vote_id, user_id).
func (b *Ballot) SaveBallot(db *gorm.DB) (*Ballot, error) {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "vote_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"option_index", "updated_at"}),
	}).Create(b).Error
	if err != nil {
		return nil, err
	}
	return b, nil
}
