package seo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCrawler(t *testing.T) {
	assert.True(t, IsCrawler("facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)"))
	assert.True(t, IsCrawler("Mozilla/5.0 (compatible; Twitterbot/1.0)"))
	assert.False(t, IsCrawler("Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) Safari/605.1.15"))
	assert.False(t, IsCrawler(""))
}

func TestRenderShareIncludesMetaAndRedirect(t *testing.T) {
	page, err := RenderShare(Meta{
		SiteName:     "Agora",
		Title:        "Why cities need more trees",
		Description:  "A look at <urban> heat islands",
		ImageURL:     "https://cdn.example.com/trees.jpg",
		CanonicalURL: "https://agora.example.com/articles/trees",
	})
	require.NoError(t, err)
	html := string(page)

	assert.Contains(t, html, `<meta property="og:title" content="Why cities need more trees">`)
	assert.Contains(t, html, `<meta property="og:type" content="article">`)
	assert.Contains(t, html, `<meta property="og:image" content="https://cdn.example.com/trees.jpg">`)
	assert.Contains(t, html, `<meta name="twitter:card" content="summary_large_image">`)
	assert.Contains(t, html, `content="0;url=https://agora.example.com/articles/trees"`)
	assert.Contains(t, html, "A look at &lt;urban&gt; heat islands")
	assert.NotContains(t, html, "<urban>")
}

func TestRenderShareWithoutImage(t *testing.T) {
	page, err := RenderShare(Meta{Title: "Agora", CanonicalURL: "https://agora.example.com/", Type: "website"})
	require.NoError(t, err)

	assert.Contains(t, string(page), `content="summary"`)
	assert.NotContains(t, string(page), "og:image")
	assert.Contains(t, string(page), `content="website"`)
}

func TestBuildSitemap(t *testing.T) {
	published := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	body, err := BuildSitemap("https://agora.example.com/", []Entry{
		{Slug: "first", Title: "First", PublishedAt: published},
	})
	require.NoError(t, err)
	xml := string(body)

	assert.True(t, strings.HasPrefix(xml, "<?xml"))
	assert.Contains(t, xml, "<loc>https://agora.example.com/</loc>")
	assert.Contains(t, xml, "<loc>https://agora.example.com/articles/first</loc>")
	assert.Contains(t, xml, "<lastmod>2025-02-03</lastmod>")
	assert.NotContains(t, xml, "news:")
}

func TestBuildNewsSitemapOnlyRecentArticles(t *testing.T) {
	now := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{Slug: "fresh", Title: "Fresh", PublishedAt: now.Add(-3 * time.Hour)},
		{Slug: "yesterday", Title: "Yesterday", PublishedAt: now.Add(-47 * time.Hour)},
		{Slug: "stale", Title: "Stale", PublishedAt: now.Add(-49 * time.Hour)},
	}

	body, err := BuildNewsSitemap("https://agora.example.com", "Agora", entries, now)
	require.NoError(t, err)
	xml := string(body)

	assert.Contains(t, xml, `xmlns:news="http://www.google.com/schemas/sitemap-news/0.9"`)
	assert.Contains(t, xml, "/articles/fresh</loc>")
	assert.Contains(t, xml, "/articles/yesterday</loc>")
	assert.NotContains(t, xml, "stale")
	assert.Contains(t, xml, "<news:name>Agora</news:name>")
	assert.Contains(t, xml, "<news:publication_date>2025-08-10T09:00:00Z</news:publication_date>")
}
