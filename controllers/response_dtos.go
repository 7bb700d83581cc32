package controllers

import (
	"time"

	"Agora/rounds"
	"Agora/tally"
)

type PostDTO struct {
	ID         uint      `json:"id"`
	UserID     string    `json:"user_id"`
	Side       string    `json:"side"`
	Body       string    `json:"body"`
	LikesCount int       `json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type DiscussionDTO struct {
	ID          uint         `json:"id"`
	Slug        string       `json:"slug"`
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	AuthorID    string       `json:"author_id"`
	RoundEndsAt *time.Time   `json:"round_ends_at"`
	Round       rounds.State `json:"round"`
	Posts       []PostDTO    `json:"posts,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type VoteDTO struct {
	ID        uint         `json:"id"`
	Title     string       `json:"title"`
	Options   []string     `json:"options"`
	EndsAt    *time.Time   `json:"ends_at"`
	IsActive  bool         `json:"is_active"`
	IsOpen    bool         `json:"is_open"`
	Countdown string       `json:"countdown"`
	Tally     tally.Result `json:"tally"`
	CreatedAt time.Time    `json:"created_at"`
}

type DiscussionCreateRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	// OpensAt schedules the round; the round is open immediately when empty.
	OpensAt *time.Time `json:"opens_at"`
}

type PostCreateRequest struct {
	Side string `json:"side"`
	Body string `json:"body"`
}

type VoteCreateRequest struct {
	Title   string     `json:"title"`
	Options []string   `json:"options"`
	EndsAt  *time.Time `json:"ends_at"`
}

type BallotRequest struct {
	OptionIndex *int `json:"option_index"`
}
