package generation

import (
	"context"
	"fmt"

	"Agora/models"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const DefaultSweepSchedule = "@every 1m"

// Sweeper periodically checks expired votes that nobody is watching.
// Every sweep is a fresh session, so a retryable failure is tried again on
// the next tick.
type Sweeper struct {
	db       *gorm.DB
	coord    *Coordinator
	schedule string
	cron     *cron.Cron
	cancel   context.CancelFunc
}

// cronLogger routes cron's own messages through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}

func NewSweeper(db *gorm.DB, coord *Coordinator, schedule string) *Sweeper {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return &Sweeper{db: db, coord: coord, schedule: schedule}
}

// Start schedules sweeps. A tick that fires while the previous sweep is still
// running is skipped.
func (s *Sweeper) Start() error {
	logger := cronLogger{}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	s.cron = c
	s.cancel = cancel
	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Msg("vote expiry sweeper started")
	return nil
}

// Stop cancels a running sweep and waits for it to return.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
}

func (s *Sweeper) RunOnce(ctx context.Context) []Outcome {
	votes, err := models.FindExpiredActiveVotes(s.db.WithContext(ctx), s.coord.Clock().Now())
	if err != nil {
		log.Error().Err(err).Msg("sweep: could not list expired votes")
		return nil
	}

	session := NewSession()
	outcomes := make([]Outcome, 0, len(votes))
	for i := range votes {
		if ctx.Err() != nil {
			log.Info().Int("remaining", len(votes)-i).Msg("sweep cancelled")
			break
		}
		out := s.coord.Check(ctx, session, CandidateFromVote(&votes[i]))
		log.Info().
			Uint("vote_id", votes[i].ID).
			Str("outcome", string(out.Kind)).
			Str("reason", out.Reason).
			Msg("sweep checked vote")
		outcomes = append(outcomes, out)
	}
	return outcomes
}
