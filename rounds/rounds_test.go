package rounds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestResolveArchivedRound(t *testing.T) {
	state := Resolve(nil, now)

	assert.Equal(t, StatusExpired, state.Status)
	assert.Equal(t, float64(100), state.ProgressPct)
	assert.Equal(t, time.Duration(0), state.Remaining)
}

func TestResolvePastEndIsAlwaysExpired(t *testing.T) {
	for _, ago := range []time.Duration{0, time.Nanosecond, time.Hour, 400 * time.Hour} {
		state := Resolve(ptr(now.Add(-ago)), now)
		assert.Equal(t, StatusExpired, state.Status, "ended %s ago", ago)
		assert.Equal(t, float64(100), state.ProgressPct)
		assert.Equal(t, time.Duration(0), state.Remaining)
	}
}

func TestResolveHalfwayThrough(t *testing.T) {
	state := Resolve(ptr(now.Add(36*time.Hour)), now)

	assert.Equal(t, StatusActive, state.Status)
	assert.InDelta(t, 50, state.ProgressPct, 0.5)
	assert.Equal(t, 1, state.Days)
	assert.Equal(t, 12, state.Hours)
	assert.Equal(t, "1d 12h", state.Label)
}

func TestResolveFreshRound(t *testing.T) {
	state := Resolve(ptr(NewWindow(now)), now)

	assert.Equal(t, StatusActive, state.Status)
	assert.Equal(t, float64(0), state.ProgressPct)
	assert.Equal(t, Duration, state.Remaining)
}

func TestResolveLastHoursShowHoursOnly(t *testing.T) {
	state := Resolve(ptr(now.Add(5*time.Hour+20*time.Minute)), now)

	assert.Equal(t, StatusActive, state.Status)
	assert.Equal(t, 0, state.Days)
	assert.Equal(t, 5, state.Hours)
	assert.Equal(t, "5h", state.Label)
	assert.Greater(t, state.ProgressPct, 90.0)
}

func TestResolveScheduledRoundIsPending(t *testing.T) {
	state := Resolve(ptr(now.Add(Duration+2*time.Hour)), now)

	assert.Equal(t, StatusPending, state.Status)
	assert.Equal(t, float64(0), state.ProgressPct)
	assert.False(t, IsOpen(ptr(now.Add(Duration+2*time.Hour)), now))
}

func TestIsOpen(t *testing.T) {
	assert.True(t, IsOpen(ptr(now.Add(time.Minute)), now))
	assert.False(t, IsOpen(ptr(now), now))
	assert.False(t, IsOpen(nil, now))
}
