package middlewares

import (
	"net/http"

	httpctx "Agora/utils/httpctx"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AdminOnlyMiddleware must run after TokenAuthMiddleware. Editors are either
// flagged on their profile or carry the admin role in their token.
func AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if httpctx.IsAdminRequest(c) {
			c.Next()
			return
		}

		uid, _ := httpctx.CurrentUserID(c)
		log.Warn().Str("user_id", uid).Str("path", c.FullPath()).Msg("admin route refused")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}
