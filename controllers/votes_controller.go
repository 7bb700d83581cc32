package controllers

import (
	"context"
	"net/http"
	"time"

	"Agora/generation"
	"Agora/metrics"
	"Agora/models"
	httpctx "Agora/utils/httpctx"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// backgroundCheckTimeout bounds a read-triggered check, generation included.
const backgroundCheckTimeout = 3 * time.Minute

func (server *Server) GetVotes(c *gin.Context) {
	votes, err := models.FindContentVotes(server.DB, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to retrieve votes"})
		return
	}

	now := server.Clock.Now()
	response := make([]VoteDTO, 0, len(votes))
	for i := range votes {
		response = append(response, toVoteDTO(&votes[i], "", now))
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": response,
	})
}

// GetVote returns the tally as seen by the viewer. Reading an expired vote
// that still holds its claim flag schedules an expiry check.
func (server *Server) GetVote(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondLookupError(c, err, "vote")
		return
	}

	var vote models.ContentVote
	if _, err := vote.FindContentVoteByID(server.DB, id); err != nil {
		respondLookupError(c, err, "vote")
		return
	}

	viewerID, _ := httpctx.CurrentUserID(c)
	dto := toVoteDTO(&vote, viewerID, server.Clock.Now())

	c.JSON(http.StatusOK, gin.H{
		"status":          http.StatusOK,
		"response":        dto,
		"check_scheduled": server.scheduleCheck(&vote),
	})
}

// scheduleCheck starts a background check on the server session when the
// vote looks due. Duplicate triggers are harmless: the session latch and the
// store claim both stop them.
func (server *Server) scheduleCheck(vote *models.ContentVote) bool {
	if server.Coordinator == nil || !vote.IsActive {
		return false
	}
	cand := generation.CandidateFromVote(vote)
	if cand.TotalBallots == 0 || cand.EndsAt == nil || !server.Clock.Now().After(*cand.EndsAt) {
		return false
	}
	if server.Session.Attempted(cand.VoteID) {
		return false
	}

	server.checks.Add(1)
	go func() {
		defer server.checks.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundCheckTimeout)
		defer cancel()

		out := server.Coordinator.Check(ctx, server.Session, cand)
		if out.Kind == generation.OutcomeGenerated {
			invalidateSitemaps(ctx)
		}
		log.Info().
			Uint("vote_id", cand.VoteID).
			Str("outcome", string(out.Kind)).
			Str("reason", out.Reason).
			Msg("read-triggered vote check finished")
	}()
	return true
}

// CastBallot records or changes the caller's choice while the vote is open.
func (server *Server) CastBallot(c *gin.Context) {
	uid, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		respondLookupError(c, err, "vote")
		return
	}

	var req BallotRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OptionIndex == nil {
		respondValidation(c, map[string]string{"Required_option": "option_index is required"})
		return
	}

	var vote models.ContentVote
	if _, err := vote.FindContentVoteByID(server.DB, id); err != nil {
		respondLookupError(c, err, "vote")
		return
	}

	now := server.Clock.Now()
	if !voteIsOpen(&vote, now) {
		c.JSON(http.StatusConflict, gin.H{"error": "Voting has closed"})
		return
	}

	ballot := models.Ballot{VoteID: vote.ID, UserID: uid, OptionIndex: *req.OptionIndex}
	if errorMessages := ballot.Validate(len(vote.Options)); len(errorMessages) > 0 {
		respondValidation(c, errorMessages)
		return
	}
	if _, err := ballot.SaveBallot(server.DB); err != nil {
		log.Error().Err(err).Uint("vote_id", vote.ID).Msg("save ballot")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to save ballot"})
		return
	}
	metrics.BallotsCast.Inc()

	// reload so the tally includes the new choice
	var fresh models.ContentVote
	if _, err := fresh.FindContentVoteByID(server.DB, vote.ID); err != nil {
		respondLookupError(c, err, "vote")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": toVoteDTO(&fresh, uid, now),
	})
}

// CheckVote is called by a client whose countdown reached zero. Each call is
// its own observation; the store claim keeps generation to one run.
func (server *Server) CheckVote(c *gin.Context) {
	if server.Coordinator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Article generation is disabled"})
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		respondLookupError(c, err, "vote")
		return
	}

	var vote models.ContentVote
	if _, err := vote.FindContentVoteByID(server.DB, id); err != nil {
		respondLookupError(c, err, "vote")
		return
	}

	out := server.Coordinator.Check(c.Request.Context(), generation.NewSession(), generation.CandidateFromVote(&vote))
	if out.Kind == generation.OutcomeGenerated {
		invalidateSitemaps(c.Request.Context())
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": out,
	})
}

func (server *Server) CreateVote(c *gin.Context) {
	var req VoteCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, map[string]string{"Invalid_body": "Invalid request body"})
		return
	}

	vote := models.ContentVote{Title: req.Title}
	if req.EndsAt != nil {
		endsAt := req.EndsAt.UTC()
		vote.EndsAt = &endsAt
	}
	for _, text := range req.Options {
		vote.Options = append(vote.Options, models.ContentVoteOption{Text: text})
	}

	vote.Prepare()
	if errorMessages := vote.Validate(server.Clock.Now()); len(errorMessages) > 0 {
		respondValidation(c, errorMessages)
		return
	}

	if _, err := vote.SaveContentVote(server.DB); err != nil {
		log.Error().Err(err).Msg("save content vote")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to create vote"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":   http.StatusCreated,
		"response": toVoteDTO(&vote, "", server.Clock.Now()),
	})
}
