package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"Agora/metrics"

	"github.com/getsentry/sentry-go"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultSettleDelay is the pause between noticing expiry and re-reading the
// claim flag, so ballots that are still in flight land first.
const DefaultSettleDelay = 3 * time.Second

// Store is the persisted side of the claim flag.
type Store interface {
	// IsActive reads the flag straight from the store.
	IsActive(ctx context.Context, voteID uint) (bool, error)
	// Claim flips the flag from true to false and reports whether this caller did it.
	Claim(ctx context.Context, voteID uint) (bool, error)
	// Release hands a claimed vote back so a later observer can retry.
	Release(ctx context.Context, voteID uint) error
}

// Generator is the external "write an article for the winning option" action.
type Generator interface {
	Generate(ctx context.Context, voteID uint) error
}

type FailurePolicy string

const (
	// FailureRetryable releases the claim when generation fails.
	FailureRetryable FailurePolicy = "retryable"
	// FailureTerminal leaves a failed vote marked as processed.
	FailureTerminal FailurePolicy = "terminal"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FailureRetryable:
		return FailureRetryable, nil
	case FailureTerminal:
		return FailureTerminal, nil
	}
	return "", fmt.Errorf("unknown generation failure policy %q", s)
}

type OutcomeKind string

const (
	OutcomeSkipped        OutcomeKind = "skipped"
	OutcomeAlreadyHandled OutcomeKind = "already_handled"
	OutcomeGenerated      OutcomeKind = "generated"
	OutcomeFailed         OutcomeKind = "failed"
)

const (
	ReasonNotExpired       = "not_expired"
	ReasonNoBallots        = "no_ballots"
	ReasonAlreadyAttempted = "already_attempted"
	ReasonCancelled        = "cancelled"
)

// Outcome is what an observer shows after a check. It never carries a panic
// or an error that should stop the caller from rendering the vote.
type Outcome struct {
	Kind    OutcomeKind `json:"kind"`
	Reason  string      `json:"reason,omitempty"`
	Message string      `json:"message,omitempty"`
	Err     error       `json:"-"`
}

// Candidate is the observer's view of a vote when it asks for a check.
type Candidate struct {
	VoteID       uint
	EndsAt       *time.Time
	TotalBallots int
	WinnerText   string
	WinnerCount  int
	WinnerPct    int
}

// Session remembers which votes this observer already tried to claim.
// It lives in memory only.
type Session struct {
	mu        sync.Mutex
	attempted map[uint]struct{}
}

func NewSession() *Session {
	return &Session{attempted: make(map[uint]struct{})}
}

func (s *Session) Attempted(voteID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.attempted[voteID]
	return ok
}

// latch marks the vote as attempted and reports whether this call set it.
func (s *Session) latch(voteID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempted[voteID]; ok {
		return false
	}
	s.attempted[voteID] = struct{}{}
	return true
}

type Coordinator struct {
	store       Store
	generator   Generator
	clock       clockwork.Clock
	settleDelay time.Duration
	policy      FailurePolicy
}

type Option func(*Coordinator)

func WithClock(clock clockwork.Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

func WithSettleDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.settleDelay = d }
}

func WithFailurePolicy(p FailurePolicy) Option {
	return func(c *Coordinator) { c.policy = p }
}

func NewCoordinator(store Store, generator Generator, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:       store,
		generator:   generator,
		clock:       clockwork.NewRealClock(),
		settleDelay: DefaultSettleDelay,
		policy:      FailureRetryable,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Clock() clockwork.Clock { return c.clock }

// Check runs the expiry protocol for one vote: precondition, settle delay,
// fresh read of the flag, session latch, atomic claim, generation.
func (c *Coordinator) Check(ctx context.Context, session *Session, cand Candidate) Outcome {
	if session == nil {
		session = NewSession()
	}
	out := c.check(ctx, session, cand)
	metrics.GenerationChecks.WithLabelValues(string(out.Kind)).Inc()
	return out
}

func (c *Coordinator) check(ctx context.Context, session *Session, cand Candidate) Outcome {
	switch {
	case cand.EndsAt == nil || !c.clock.Now().After(*cand.EndsAt):
		return skipped(ReasonNotExpired)
	case cand.TotalBallots <= 0:
		return skipped(ReasonNoBallots)
	case session.Attempted(cand.VoteID):
		return skipped(ReasonAlreadyAttempted)
	}

	if c.settleDelay > 0 {
		select {
		case <-ctx.Done():
			return skipped(ReasonCancelled)
		case <-c.clock.After(c.settleDelay):
		}
	}

	active, err := c.store.IsActive(ctx, cand.VoteID)
	if err != nil {
		log.Warn().Err(err).Uint("vote_id", cand.VoteID).Msg("could not read vote state")
		return failed("Could not check the vote state. Please try again.", err)
	}
	if !active {
		return Outcome{Kind: OutcomeAlreadyHandled}
	}

	if !session.latch(cand.VoteID) {
		return skipped(ReasonAlreadyAttempted)
	}

	claimed, err := c.store.Claim(ctx, cand.VoteID)
	if err != nil {
		log.Warn().Err(err).Uint("vote_id", cand.VoteID).Msg("vote claim failed")
		return failed("Could not start article generation. Please try again.", err)
	}
	if !claimed {
		return Outcome{Kind: OutcomeAlreadyHandled}
	}

	log.Info().
		Uint("vote_id", cand.VoteID).
		Str("winner", cand.WinnerText).
		Int("winner_votes", cand.WinnerCount).
		Int("winner_pct", cand.WinnerPct).
		Msg("vote claimed, generating article")

	start := c.clock.Now()
	err = c.generator.Generate(ctx, cand.VoteID)
	metrics.GenerationDuration.Observe(c.clock.Since(start).Seconds())
	if err != nil {
		return c.handleFailure(ctx, cand, err)
	}

	log.Info().Uint("vote_id", cand.VoteID).Msg("article generated")
	return Outcome{
		Kind:    OutcomeGenerated,
		Message: fmt.Sprintf("Article generated for %q", cand.WinnerText),
	}
}

func (c *Coordinator) handleFailure(ctx context.Context, cand Candidate, err error) Outcome {
	log.Error().
		Err(err).
		Uint("vote_id", cand.VoteID).
		Str("policy", string(c.policy)).
		Msg("article generation failed")
	sentry.CaptureException(fmt.Errorf("generate article for vote %d: %w", cand.VoteID, err))

	if c.policy == FailureRetryable {
		// the request may already be cancelled; the release must still land
		if rerr := c.store.Release(context.WithoutCancel(ctx), cand.VoteID); rerr != nil {
			log.Error().Err(rerr).Uint("vote_id", cand.VoteID).Msg("could not release vote claim")
		}
	}

	msg := "Article generation failed. Please try again later."
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "Article generation timed out. Please try again later."
	}
	return failed(msg, err)
}

func skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

func failed(msg string, err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Message: msg, Err: err}
}
