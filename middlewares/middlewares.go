package middlewares

import (
	"net/http"

	"Agora/auth"
	"Agora/models"
	httpctx "Agora/utils/httpctx"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TokenAuthMiddleware requires a valid session token. The profile row is
// created on first sight so every authenticated request has one.
func TokenAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, db) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware sets the viewer when a valid token is present and
// lets anonymous requests through.
func OptionalAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.ExtractToken(c.Request) != "" {
			authenticate(c, db)
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, db *gorm.DB) bool {
	claims, err := auth.ParseToken(auth.ExtractToken(c.Request))
	if err != nil {
		return false
	}

	profile, err := models.EnsureProfile(db.WithContext(c.Request.Context()), claims.UserID, claims.Username, claims.Email)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("profile lookup failed")
		return false
	}

	httpctx.SetViewer(c, profile.ID, profile.IsAdmin || claims.IsAdmin())
	return true
}

const (
	corsAllowHeaders = "Content-Type, Authorization, Content-Length, Accept, Origin, Cache-Control, X-Requested-With, X-Signature"
	corsAllowMethods = "GET, POST, OPTIONS"
)

// CORSMiddleware allows the configured frontend origins. Requests from other
// origins still reach the handlers but get no allow headers.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
