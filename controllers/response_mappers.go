package controllers

import (
	"time"

	"Agora/countdown"
	"Agora/models"
	"Agora/rounds"
)

func toPostDTO(p models.Post) PostDTO {
	return PostDTO{
		ID:         p.ID,
		UserID:     p.UserID,
		Side:       p.Side,
		Body:       p.Body,
		LikesCount: p.LikesCount,
		CreatedAt:  p.CreatedAt,
	}
}

func toDiscussionDTO(d *models.Discussion, now time.Time) DiscussionDTO {
	dto := DiscussionDTO{
		ID:          d.ID,
		Slug:        d.Slug,
		Title:       d.Title,
		Body:        d.Body,
		AuthorID:    d.AuthorID,
		RoundEndsAt: d.RoundEndsAt,
		Round:       rounds.Resolve(d.RoundEndsAt, now),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if len(d.Posts) > 0 {
		dto.Posts = make([]PostDTO, 0, len(d.Posts))
		for _, p := range d.Posts {
			dto.Posts = append(dto.Posts, toPostDTO(p))
		}
	}
	return dto
}

// voteIsOpen reports whether ballots are still accepted.
func voteIsOpen(v *models.ContentVote, now time.Time) bool {
	return v.IsActive && v.EndsAt != nil && v.EndsAt.After(now)
}

func toVoteDTO(v *models.ContentVote, viewerID string, now time.Time) VoteDTO {
	dto := VoteDTO{
		ID:        v.ID,
		Title:     v.Title,
		Options:   v.OptionTexts(),
		EndsAt:    v.EndsAt,
		IsActive:  v.IsActive,
		IsOpen:    voteIsOpen(v, now),
		Tally:     v.Tally(viewerID),
		CreatedAt: v.CreatedAt,
	}
	if v.EndsAt != nil {
		dto.Countdown = countdown.FormatClock(countdown.Remaining(now, *v.EndsAt))
	} else {
		dto.Countdown = countdown.FormatClock(0)
	}
	return dto
}
