package countdown

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the time source shared by every timer in the service.
type Clock = clockwork.Clock

// Parts is a duration broken into whole units for display.
type Parts struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Elapsed returns the time passed between from and to, never negative.
func Elapsed(from, to time.Time) time.Duration {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return d
}

// Remaining returns the time left until end, clamped at zero.
func Remaining(now, end time.Time) time.Duration {
	d := end.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func Split(d time.Duration) Parts {
	if d <= 0 {
		return Parts{}
	}
	total := int64(d / time.Second)
	return Parts{
		Days:    int(total / 86400),
		Hours:   int(total % 86400 / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}

// FormatRound renders a round countdown as "2d 5h", or "5h" once less than a day is left.
func FormatRound(d time.Duration) string {
	p := Split(d)
	if p.Days == 0 {
		return fmt.Sprintf("%dh", p.Hours)
	}
	return fmt.Sprintf("%dd %dh", p.Days, p.Hours)
}

// FormatClock renders a vote countdown as "HH:MM:SS" with a "Nd " prefix when a day or more is left.
func FormatClock(d time.Duration) string {
	p := Split(d)
	clock := fmt.Sprintf("%02d:%02d:%02d", p.Hours, p.Minutes, p.Seconds)
	if p.Days > 0 {
		return fmt.Sprintf("%dd %s", p.Days, clock)
	}
	return clock
}
