package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"Agora/cache"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	discussionListPrefix = "discussions:page:"
	sitemapKey           = "sitemap:xml"
	newsSitemapKey       = "sitemap:news"
	sitemapTTL           = 10 * time.Minute
)

func discussionListKey(page, limit int) string {
	return fmt.Sprintf("%s%d:limit:%d", discussionListPrefix, page, limit)
}

func invalidateDiscussionListCache() {
	_ = cache.DeleteByPrefix(context.Background(), discussionListPrefix)
}

// invalidateSitemaps drops both sitemaps once a vote has produced an article.
func invalidateSitemaps(ctx context.Context) {
	if err := cache.Delete(ctx, sitemapKey, newsSitemapKey); err != nil {
		log.Warn().Err(err).Msg("could not invalidate cached sitemaps")
	}
}

// serveCached writes a cached body and reports whether there was one.
func serveCached(c *gin.Context, key, contentType string) bool {
	if cached, err := cache.Get(c.Request.Context(), key); err == nil && cached != "" {
		c.Data(http.StatusOK, contentType, []byte(cached))
		return true
	}
	return false
}
