package presence

import (
	"errors"
	"time"
)

var (
	ErrChannelClosed  = errors.New("presence channel closed")
	ErrInvalidJoin    = errors.New("presence channel and key are required")
	ErrAlreadyStarted = errors.New("presence aggregator already started")
)

type Status string

const (
	StatusSubscribed Status = "SUBSCRIBED"
	StatusClosed     Status = "CLOSED"
)

// Payload is what a session announces about itself once subscribed.
type Payload struct {
	OnlineAt   time.Time `json:"online_at"`
	ClientMeta string    `json:"client_meta"`
}

// Snapshot is the full membership of a channel, keyed by session key.
// A key may carry several payloads when the same session joined twice.
type Snapshot map[string][]Payload

// Channel is one session's membership in a named presence channel.
type Channel interface {
	// Subscribe registers the sync and status callbacks. onStatus receives
	// StatusSubscribed once the channel is ready to accept Track.
	Subscribe(onSync func(Snapshot), onStatus func(Status)) error
	Track(p Payload) error
	Leave() error
}

// Transport owns the wire side of presence channels.
type Transport interface {
	Join(channel, key string) (Channel, error)
}

// CountKeys returns the number of distinct sessions present in s.
func CountKeys(s Snapshot) int {
	n := 0
	for _, payloads := range s {
		if len(payloads) > 0 {
			n++
		}
	}
	return n
}

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = append([]Payload(nil), v...)
	}
	return out
}
