package generation

import (
	"context"
	"html"

	"Agora/models"

	"gorm.io/gorm"
)

// GormStore keeps the claim flag in the content_votes table.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) IsActive(ctx context.Context, voteID uint) (bool, error) {
	return models.IsContentVoteActive(s.DB.WithContext(ctx), voteID)
}

func (s *GormStore) Claim(ctx context.Context, voteID uint) (bool, error) {
	return models.ClaimContentVote(s.DB.WithContext(ctx), voteID)
}

func (s *GormStore) Release(ctx context.Context, voteID uint) error {
	return models.ReleaseContentVote(s.DB.WithContext(ctx), voteID)
}

// CandidateFromVote builds the check input from a vote loaded with its options and ballots.
func CandidateFromVote(v *models.ContentVote) Candidate {
	res := v.Tally("")
	cand := Candidate{
		VoteID:       v.ID,
		EndsAt:       v.EndsAt,
		TotalBallots: res.Total,
	}
	if res.Winner != nil {
		cand.WinnerText = html.UnescapeString(res.Winner.Text)
		cand.WinnerCount = res.Winner.Count
		cand.WinnerPct = res.Winner.Percentage
	}
	return cand
}
