package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	active   map[uint]bool
	reads    int
	claims   int
	releases int
	readErr  error
}

func newFakeStore(ids ...uint) *fakeStore {
	s := &fakeStore{active: make(map[uint]bool)}
	for _, id := range ids {
		s.active[id] = true
	}
	return s
}

func (s *fakeStore) IsActive(_ context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.readErr != nil {
		return false, s.readErr
	}
	return s.active[id], nil
}

func (s *fakeStore) Claim(_ context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims++
	if !s.active[id] {
		return false, nil
	}
	s.active[id] = false
	return true, nil
}

func (s *fakeStore) Release(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases++
	s.active[id] = true
	return nil
}

func (s *fakeStore) isActive(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[id]
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls []uint
	err   error
}

func (g *fakeGenerator) Generate(_ context.Context, id uint) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, id)
	return g.err
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

var t0 = time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

func expired(id uint, ballots int) Candidate {
	ends := t0.Add(-time.Minute)
	return Candidate{VoteID: id, EndsAt: &ends, TotalBallots: ballots, WinnerText: "Yes"}
}

func newTestCoordinator(store Store, gen Generator, opts ...Option) *Coordinator {
	base := []Option{WithClock(clockwork.NewFakeClockAt(t0)), WithSettleDelay(0)}
	return NewCoordinator(store, gen, append(base, opts...)...)
}

func TestCheckSkipsVotesWithoutBallots(t *testing.T) {
	store, gen := newFakeStore(1), &fakeGenerator{}
	c := newTestCoordinator(store, gen)

	out := c.Check(context.Background(), NewSession(), expired(1, 0))

	assert.Equal(t, OutcomeSkipped, out.Kind)
	assert.Equal(t, ReasonNoBallots, out.Reason)
	assert.Equal(t, 0, gen.callCount())
	assert.Equal(t, 0, store.reads)
	assert.True(t, store.isActive(1))
}

func TestCheckSkipsVotesStillRunning(t *testing.T) {
	store, gen := newFakeStore(1), &fakeGenerator{}
	c := newTestCoordinator(store, gen)
	ends := t0.Add(time.Hour)

	out := c.Check(context.Background(), NewSession(), Candidate{VoteID: 1, EndsAt: &ends, TotalBallots: 4})
	assert.Equal(t, ReasonNotExpired, out.Reason)

	out = c.Check(context.Background(), NewSession(), Candidate{VoteID: 1, EndsAt: &t0, TotalBallots: 4})
	assert.Equal(t, ReasonNotExpired, out.Reason, "end time equal to now is not past")

	out = c.Check(context.Background(), NewSession(), Candidate{VoteID: 1, TotalBallots: 4})
	assert.Equal(t, ReasonNotExpired, out.Reason)

	assert.Equal(t, 0, gen.callCount())
}

func TestCheckTrustsFreshReadOverCachedState(t *testing.T) {
	store, gen := newFakeStore(), &fakeGenerator{}
	store.active[1] = false
	c := newTestCoordinator(store, gen)

	out := c.Check(context.Background(), NewSession(), expired(1, 5))

	assert.Equal(t, OutcomeAlreadyHandled, out.Kind)
	assert.Equal(t, 1, store.reads)
	assert.Equal(t, 0, store.claims)
	assert.Equal(t, 0, gen.callCount())
}

func TestCheckGeneratesOnceAndReportsWinner(t *testing.T) {
	store, gen := newFakeStore(7), &fakeGenerator{}
	c := newTestCoordinator(store, gen)

	out := c.Check(context.Background(), NewSession(), expired(7, 10))

	assert.Equal(t, OutcomeGenerated, out.Kind)
	assert.Equal(t, `Article generated for "Yes"`, out.Message)
	assert.Equal(t, []uint{7}, gen.calls)
	assert.False(t, store.isActive(7))
}

func TestCheckTwiceInSameSessionGeneratesOnce(t *testing.T) {
	store, gen := newFakeStore(3), &fakeGenerator{}
	c := newTestCoordinator(store, gen)
	session := NewSession()

	first := c.Check(context.Background(), session, expired(3, 2))
	second := c.Check(context.Background(), session, expired(3, 2))

	assert.Equal(t, OutcomeGenerated, first.Kind)
	assert.Equal(t, OutcomeSkipped, second.Kind)
	assert.Equal(t, ReasonAlreadyAttempted, second.Reason)
	assert.Equal(t, 1, gen.callCount())
}

func TestConcurrentSessionsClaimExactlyOnce(t *testing.T) {
	store, gen := newFakeStore(9), &fakeGenerator{}
	c := newTestCoordinator(store, gen)

	const observers = 16
	outcomes := make([]Outcome, observers)
	var wg sync.WaitGroup
	for i := 0; i < observers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = c.Check(context.Background(), NewSession(), expired(9, 3))
		}(i)
	}
	wg.Wait()

	generated := 0
	for _, out := range outcomes {
		if out.Kind == OutcomeGenerated {
			generated++
		} else {
			assert.Equal(t, OutcomeAlreadyHandled, out.Kind)
		}
	}
	assert.Equal(t, 1, generated)
	assert.Equal(t, 1, gen.callCount())
}

func TestRetryableFailureReleasesClaim(t *testing.T) {
	store := newFakeStore(4)
	gen := &fakeGenerator{err: errors.New("upstream 502")}
	c := newTestCoordinator(store, gen, WithFailurePolicy(FailureRetryable))
	session := NewSession()

	out := c.Check(context.Background(), session, expired(4, 1))

	assert.Equal(t, OutcomeFailed, out.Kind)
	assert.NotEmpty(t, out.Message)
	assert.EqualError(t, out.Err, "upstream 502")
	assert.True(t, store.isActive(4))
	assert.Equal(t, 1, store.releases)

	// no automatic retry inside the same session
	again := c.Check(context.Background(), session, expired(4, 1))
	assert.Equal(t, ReasonAlreadyAttempted, again.Reason)
	assert.Equal(t, 1, gen.callCount())

	// the next observer picks it up
	gen.err = nil
	next := c.Check(context.Background(), NewSession(), expired(4, 1))
	assert.Equal(t, OutcomeGenerated, next.Kind)
	assert.Equal(t, 2, gen.callCount())
	assert.False(t, store.isActive(4))
}

func TestTerminalFailureKeepsVoteProcessed(t *testing.T) {
	store := newFakeStore(5)
	gen := &fakeGenerator{err: errors.New("boom")}
	c := newTestCoordinator(store, gen, WithFailurePolicy(FailureTerminal))

	out := c.Check(context.Background(), NewSession(), expired(5, 1))
	assert.Equal(t, OutcomeFailed, out.Kind)
	assert.False(t, store.isActive(5))
	assert.Equal(t, 0, store.releases)

	next := c.Check(context.Background(), NewSession(), expired(5, 1))
	assert.Equal(t, OutcomeAlreadyHandled, next.Kind)
	assert.Equal(t, 1, gen.callCount())
}

func TestStoreReadFailureLeavesSessionUnlatched(t *testing.T) {
	store, gen := newFakeStore(6), &fakeGenerator{}
	store.readErr = errors.New("connection reset")
	c := newTestCoordinator(store, gen)
	session := NewSession()

	out := c.Check(context.Background(), session, expired(6, 1))
	assert.Equal(t, OutcomeFailed, out.Kind)
	assert.False(t, session.Attempted(6))

	store.readErr = nil
	out = c.Check(context.Background(), session, expired(6, 1))
	assert.Equal(t, OutcomeGenerated, out.Kind)
}

func TestSettleDelayRunsBeforeFreshRead(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	store, gen := newFakeStore(8), &fakeGenerator{}
	c := NewCoordinator(store, gen, WithClock(clock), WithSettleDelay(DefaultSettleDelay))

	done := make(chan Outcome, 1)
	go func() { done <- c.Check(context.Background(), NewSession(), expired(8, 2)) }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 0, store.reads)

	// another observer claims the vote while this one is settling
	_, err := store.Claim(context.Background(), 8)
	require.NoError(t, err)
	clock.Advance(DefaultSettleDelay)

	select {
	case out := <-done:
		assert.Equal(t, OutcomeAlreadyHandled, out.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("check did not finish after the settle delay")
	}
	assert.Equal(t, 0, gen.callCount())
}

func TestCancelledDuringSettle(t *testing.T) {
	store, gen := newFakeStore(2), &fakeGenerator{}
	c := NewCoordinator(store, gen, WithClock(clockwork.NewFakeClockAt(t0)), WithSettleDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := c.Check(ctx, NewSession(), expired(2, 2))

	assert.Equal(t, OutcomeSkipped, out.Kind)
	assert.Equal(t, ReasonCancelled, out.Reason)
	assert.Equal(t, 0, store.reads)
}

func TestParseFailurePolicy(t *testing.T) {
	p, err := ParseFailurePolicy("")
	require.NoError(t, err)
	assert.Equal(t, FailureRetryable, p)

	p, err = ParseFailurePolicy(" Terminal ")
	require.NoError(t, err)
	assert.Equal(t, FailureTerminal, p)

	_, err = ParseFailurePolicy("sometimes")
	assert.Error(t, err)
}
