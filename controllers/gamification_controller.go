package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"Agora/gamification"
	"Agora/models"
	httpctx "Agora/utils/httpctx"

	"github.com/gin-gonic/gin"
)

func (server *Server) GetUserStats(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		respondLookupError(c, errInvalidIdentifier, "user")
		return
	}

	var profile models.Profile
	if _, err := profile.FindProfileByID(server.DB, userID); err != nil {
		respondLookupError(c, err, "user")
		return
	}

	badges, err := models.FindBadgeTags(server.DB, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load badges"})
		return
	}
	entries, err := models.FindHallOfFameByUser(server.DB, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load hall of fame"})
		return
	}

	stats := gamification.Compute(gamification.Profile{
		Karma:               profile.Karma,
		IsPremium:           profile.IsPremium,
		PremiumExpiresAt:    profile.PremiumExpiresAt,
		BankedPremiumMonths: profile.BankedPremiumMonths,
		SelectedBadge:       profile.SelectedBadge,
	}, badges, models.ToEntries(entries))

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": stats,
	})
}

// weekParams reads ?week=&year=, defaulting to the current ISO week.
func (server *Server) weekParams(c *gin.Context) (int, int, bool) {
	year, week := server.Clock.Now().UTC().ISOWeek()
	if raw := c.Query("week"); raw != "" {
		w, err := strconv.Atoi(raw)
		if err != nil || w < 1 || w > 53 {
			return 0, 0, false
		}
		week = w
	}
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 2000 || y > 9999 {
			return 0, 0, false
		}
		year = y
	}
	return week, year, true
}

func (server *Server) GetHallOfFame(c *gin.Context) {
	week, year, ok := server.weekParams(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid week or year"})
		return
	}

	rows, err := models.FindHallOfFameByWeek(server.DB, week, year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load hall of fame"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": models.ToEntries(rows),
		"week":     week,
		"year":     year,
	})
}

func (server *Server) GetArgumentOfTheWeek(c *gin.Context) {
	week, year, ok := server.weekParams(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid week or year"})
		return
	}

	rows, err := models.FindHallOfFameByWeek(server.DB, week, year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load hall of fame"})
		return
	}

	entry, found := gamification.ArgumentOfTheWeek(models.ToEntries(rows), week, year)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "No argument of the week yet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": entry,
	})
}

func (server *Server) GetNotifications(c *gin.Context) {
	uid, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	notifications, err := models.FindUserNotifications(server.DB, uid, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": notifications,
	})
}
