package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"Agora/cache"
	"Agora/models"
	"Agora/seo"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const xmlContentType = "application/xml; charset=utf-8"

// ShareArticle answers link-preview crawlers with OG/Twitter meta for the
// article. People following the link are redirected to the article page.
func (server *Server) ShareArticle(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	base := server.Config.SiteURL

	meta := seo.Meta{
		SiteName:     server.Config.SiteName,
		Title:        server.Config.SiteName,
		Description:  "News, debates and weekly votes on " + server.Config.SiteName,
		ImageURL:     server.Config.SiteDefaultImage,
		CanonicalURL: base + "/",
		Type:         "website",
	}
	cacheControl := seo.CacheControlFallback

	var article models.Article
	if slug != "" {
		_, err := article.FindArticleBySlug(server.DB, slug)
		switch {
		case err == nil:
			meta.Title = article.Title
			meta.Description = article.Excerpt
			if article.ImageURL != "" {
				meta.ImageURL = article.ImageURL
			}
			meta.CanonicalURL = seo.ArticleURL(base, article.Slug)
			meta.Type = "article"
			cacheControl = seo.CacheControlShare
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			log.Warn().Err(err).Str("slug", slug).Msg("share lookup failed, serving site defaults")
		}
	}

	if !seo.IsCrawler(c.Request.UserAgent()) {
		c.Header("Cache-Control", seo.CacheControlFallback)
		c.Redirect(http.StatusFound, meta.CanonicalURL)
		return
	}

	page, err := seo.RenderShare(meta)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("render share page")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to render page"})
		return
	}
	c.Header("Cache-Control", cacheControl)
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (server *Server) Sitemap(c *gin.Context) {
	if serveCached(c, sitemapKey, xmlContentType) {
		return
	}

	articles, err := models.FindPublishedArticles(server.DB, time.Time{}, 50000)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to build sitemap"})
		return
	}
	body, err := seo.BuildSitemap(server.Config.SiteURL, sitemapEntries(articles))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to build sitemap"})
		return
	}

	_ = cache.Set(c.Request.Context(), sitemapKey, body, sitemapTTL)
	c.Data(http.StatusOK, xmlContentType, body)
}

func (server *Server) NewsSitemap(c *gin.Context) {
	if serveCached(c, newsSitemapKey, xmlContentType) {
		return
	}

	now := server.Clock.Now()
	articles, err := models.FindPublishedArticles(server.DB, now.Add(-seo.NewsWindow), 1000)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to build sitemap"})
		return
	}
	body, err := seo.BuildNewsSitemap(server.Config.SiteURL, server.Config.SiteName, sitemapEntries(articles), now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to build sitemap"})
		return
	}

	_ = cache.Set(c.Request.Context(), newsSitemapKey, body, sitemapTTL)
	c.Data(http.StatusOK, xmlContentType, body)
}

func sitemapEntries(articles []models.Article) []seo.Entry {
	out := make([]seo.Entry, 0, len(articles))
	for _, a := range articles {
		out = append(out, seo.Entry{
			Slug:        a.Slug,
			Title:       a.Title,
			PublishedAt: a.PublishedAt,
			UpdatedAt:   a.UpdatedAt,
		})
	}
	return out
}
