package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"Agora/cache"
	"Agora/models"
	"Agora/rounds"
	httpctx "Agora/utils/httpctx"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// GetDiscussions lists discussions newest first with their round state.
func (server *Server) GetDiscussions(c *gin.Context) {
	page, limit := parsePagination(c, 20)
	cacheKey := discussionListKey(page, limit)

	if serveCached(c, cacheKey, "application/json") {
		return
	}

	discussions, total, err := models.FindDiscussions(server.DB, (page-1)*limit, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to retrieve discussions"})
		return
	}

	now := server.Clock.Now()
	response := make([]DiscussionDTO, 0, len(discussions))
	for i := range discussions {
		response = append(response, toDiscussionDTO(&discussions[i], now))
	}

	respBody := gin.H{
		"status":     http.StatusOK,
		"response":   response,
		"pagination": buildPagination(page, limit, total),
	}

	if jsonBytes, err := json.Marshal(respBody); err == nil {
		_ = cache.Set(c.Request.Context(), cacheKey, jsonBytes, 30*time.Second)
	}

	c.JSON(http.StatusOK, respBody)
}

func (server *Server) GetDiscussion(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondLookupError(c, err, "discussion")
		return
	}

	var discussion models.Discussion
	if _, err := discussion.FindDiscussionByID(server.DB, id); err != nil {
		respondLookupError(c, err, "discussion")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": toDiscussionDTO(&discussion, server.Clock.Now()),
	})
}

func (server *Server) GetDiscussionBySlug(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondLookupError(c, errInvalidIdentifier, "discussion")
		return
	}

	var discussion models.Discussion
	if _, err := discussion.FindDiscussionBySlug(server.DB, slug); err != nil {
		respondLookupError(c, err, "discussion")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": toDiscussionDTO(&discussion, server.Clock.Now()),
	})
}

// CreatePost adds an argument to a discussion whose round is currently open.
func (server *Server) CreatePost(c *gin.Context) {
	uid, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		respondLookupError(c, err, "discussion")
		return
	}

	var discussion models.Discussion
	if err := server.DB.Select("id", "round_ends_at").First(&discussion, id).Error; err != nil {
		respondLookupError(c, err, "discussion")
		return
	}

	state := rounds.Resolve(discussion.RoundEndsAt, server.Clock.Now())
	if state.Status != rounds.StatusActive {
		c.JSON(http.StatusConflict, gin.H{
			"error": "This round is not accepting arguments",
			"round": state,
		})
		return
	}

	var req PostCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, map[string]string{"Invalid_body": "Invalid request body"})
		return
	}

	post := models.Post{DiscussionID: discussion.ID, UserID: uid, Side: req.Side, Body: req.Body}
	post.Prepare()
	if errorMessages := post.Validate(); len(errorMessages) > 0 {
		respondValidation(c, errorMessages)
		return
	}

	if _, err := post.SavePost(server.DB); err != nil {
		log.Error().Err(err).Uint("discussion_id", discussion.ID).Msg("save post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to save argument"})
		return
	}

	invalidateDiscussionListCache()

	c.JSON(http.StatusCreated, gin.H{
		"status":   http.StatusCreated,
		"response": toPostDTO(post),
	})
}

// LikePost likes a post once per user and credits its author with karma.
func (server *Server) LikePost(c *gin.Context) {
	uid, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		respondLookupError(c, err, "post")
		return
	}

	like := models.PostLike{PostID: id, UserID: uid}
	post, err := like.SavePostLike(server.DB)
	if err != nil {
		if errors.Is(err, models.ErrDoubleLike) {
			c.JSON(http.StatusConflict, gin.H{"error": "You already liked this post"})
			return
		}
		respondLookupError(c, err, "post")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":   http.StatusCreated,
		"response": toPostDTO(*post),
	})
}

// CreateDiscussion opens a discussion with a fresh round. A future opens_at
// schedules the round instead.
func (server *Server) CreateDiscussion(c *gin.Context) {
	uid, _ := httpctx.CurrentUserID(c)

	var req DiscussionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, map[string]string{"Invalid_body": "Invalid request body"})
		return
	}

	now := server.Clock.Now().UTC()
	opensAt := now
	if req.OpensAt != nil {
		if req.OpensAt.Before(now) {
			respondValidation(c, map[string]string{"Invalid_opens_at": "opens_at must not be in the past"})
			return
		}
		opensAt = req.OpensAt.UTC()
	}
	endsAt := rounds.NewWindow(opensAt)

	discussion := models.Discussion{Title: req.Title, Body: req.Body, AuthorID: uid, RoundEndsAt: &endsAt}
	discussion.Prepare()
	if errorMessages := discussion.Validate(); len(errorMessages) > 0 {
		respondValidation(c, errorMessages)
		return
	}

	if _, err := discussion.SaveDiscussion(server.DB); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "A discussion with this slug already exists"})
			return
		}
		log.Error().Err(err).Msg("save discussion")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to create discussion"})
		return
	}

	invalidateDiscussionListCache()

	c.JSON(http.StatusCreated, gin.H{
		"status":   http.StatusCreated,
		"response": toDiscussionDTO(&discussion, server.Clock.Now()),
	})
}

// ArchiveDiscussion closes the round permanently.
func (server *Server) ArchiveDiscussion(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondLookupError(c, err, "discussion")
		return
	}

	affected, err := models.ArchiveDiscussion(server.DB, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to archive discussion"})
		return
	}
	if affected == 0 {
		respondLookupError(c, gorm.ErrRecordNotFound, "discussion")
		return
	}

	invalidateDiscussionListCache()
	log.Info().Uint("discussion_id", id).Msg("discussion archived")

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": gin.H{"id": id, "round": rounds.Resolve(nil, server.Clock.Now())},
	})
}
