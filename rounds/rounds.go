package rounds

import (
	"time"

	"Agora/countdown"
)

// Duration is the fixed length of an argument round.
const Duration = 72 * time.Hour

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// State is the derived, display-ready view of a round at one instant.
type State struct {
	Status      Status        `json:"status"`
	Remaining   time.Duration `json:"remaining_ns"`
	ProgressPct float64       `json:"progress_pct"`
	Days        int           `json:"days"`
	Hours       int           `json:"hours"`
	Label       string        `json:"label"`
}

// Resolve classifies a round ending at endsAt as seen at now.
// A nil endsAt is an archived round and always resolves to expired.
func Resolve(endsAt *time.Time, now time.Time) State {
	if endsAt == nil || !endsAt.After(now) {
		return State{Status: StatusExpired, ProgressPct: 100, Label: countdown.FormatRound(0)}
	}

	remaining := endsAt.Sub(now)
	parts := countdown.Split(remaining)
	state := State{
		Remaining: remaining,
		Days:      parts.Days,
		Hours:     parts.Hours,
		Label:     countdown.FormatRound(remaining),
	}

	// Scheduled but the window has not opened yet.
	if remaining > Duration {
		state.Status = StatusPending
		return state
	}

	state.Status = StatusActive
	state.ProgressPct = clamp(float64(Duration-remaining)/float64(Duration)*100, 0, 100)
	return state
}

// IsOpen reports whether the round accepts new replies and votes.
func IsOpen(endsAt *time.Time, now time.Time) bool {
	return Resolve(endsAt, now).Status == StatusActive
}

// NewWindow returns the end of a round opened at now.
func NewWindow(now time.Time) time.Time {
	return now.Add(Duration)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
