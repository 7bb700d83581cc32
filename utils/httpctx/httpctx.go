package httpctx

import "github.com/gin-gonic/gin"

const (
	userIDKey  = "userID"
	isAdminKey = "isAdmin"
)

// SetViewer records the authenticated profile on the request.
func SetViewer(c *gin.Context, profileID string, isAdmin bool) {
	c.Set(userIDKey, profileID)
	c.Set(isAdminKey, isAdmin)
}

// CurrentUserID returns the authenticated profile id. Anonymous requests
// report false.
func CurrentUserID(c *gin.Context) (string, bool) {
	uid := c.GetString(userIDKey)
	return uid, uid != ""
}

// IsAdminRequest reports whether the viewer may use editor routes.
func IsAdminRequest(c *gin.Context) bool {
	return c.GetBool(isAdminKey)
}
