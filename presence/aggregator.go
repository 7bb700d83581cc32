package presence

import (
	"context"
	"fmt"
	"sync"

	"Agora/metrics"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Aggregator keeps a live count of the distinct sessions in one channel.
// The count is always rebuilt from the latest full snapshot.
type Aggregator struct {
	transport Transport
	channel   string
	meta      string
	clock     clockwork.Clock
	onChange  func(count int)

	mu        sync.Mutex
	key       string
	ch        Channel
	count     int
	stopWatch func() bool
}

type Option func(*Aggregator)

func WithClientMeta(meta string) Option {
	return func(a *Aggregator) { a.meta = meta }
}

func WithClock(clock clockwork.Clock) Option {
	return func(a *Aggregator) { a.clock = clock }
}

// WithOnChange registers a callback fired whenever the count changes.
func WithOnChange(fn func(count int)) Option {
	return func(a *Aggregator) { a.onChange = fn }
}

func NewAggregator(transport Transport, channel string, opts ...Option) *Aggregator {
	a := &Aggregator{
		transport: transport,
		channel:   channel,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start joins the channel under a fresh session key. The session leaves the
// channel when ctx is cancelled or Stop is called.
func (a *Aggregator) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.ch != nil {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	key := uuid.NewString()
	ch, err := a.transport.Join(a.channel, key)
	if err != nil {
		a.mu.Unlock()
		return fmt.Errorf("join presence channel %q: %w", a.channel, err)
	}
	a.key = key
	a.ch = ch
	a.count = 0
	a.mu.Unlock()

	if err := ch.Subscribe(a.handleSync, a.handleStatus); err != nil {
		_ = a.Stop()
		return fmt.Errorf("subscribe presence channel %q: %w", a.channel, err)
	}

	stop := context.AfterFunc(ctx, func() { _ = a.Stop() })
	a.mu.Lock()
	a.stopWatch = stop
	a.mu.Unlock()

	log.Debug().Str("channel", a.channel).Str("key", key).Msg("presence session started")
	return nil
}

func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

func (a *Aggregator) Key() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.key
}

// Stop leaves the channel. It is safe to call more than once.
func (a *Aggregator) Stop() error {
	a.mu.Lock()
	ch := a.ch
	stop := a.stopWatch
	a.ch = nil
	a.stopWatch = nil
	a.count = 0
	a.mu.Unlock()

	if stop != nil {
		stop()
	}
	if ch == nil {
		return nil
	}
	return ch.Leave()
}

// handleStatus announces this session only after the channel confirms the subscription.
func (a *Aggregator) handleStatus(status Status) {
	if status != StatusSubscribed {
		return
	}
	a.mu.Lock()
	ch := a.ch
	a.mu.Unlock()
	if ch == nil {
		return
	}

	payload := Payload{OnlineAt: a.clock.Now().UTC(), ClientMeta: a.meta}
	if err := ch.Track(payload); err != nil {
		log.Warn().Err(err).Str("channel", a.channel).Msg("presence track failed")
	}
}

func (a *Aggregator) handleSync(snap Snapshot) {
	n := CountKeys(snap)

	a.mu.Lock()
	if a.ch == nil {
		a.mu.Unlock()
		return
	}
	changed := n != a.count
	a.count = n
	fn := a.onChange
	a.mu.Unlock()

	metrics.PresenceOnline.WithLabelValues(a.channel).Set(float64(n))
	if changed && fn != nil {
		fn(n)
	}
}
