package seo

import (
	"encoding/xml"
	"strings"
	"time"
)

// NewsWindow is how far back the news sitemap reaches.
const NewsWindow = 48 * time.Hour

// Entry is one article as the sitemaps need it.
type Entry struct {
	Slug        string
	Title       string
	PublishedAt time.Time
	UpdatedAt   time.Time
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	News    string   `xml:"xmlns:news,attr,omitempty"`
	URLs    []url    `xml:"url"`
}

type url struct {
	Loc        string    `xml:"loc"`
	LastMod    string    `xml:"lastmod,omitempty"`
	ChangeFreq string    `xml:"changefreq,omitempty"`
	Priority   string    `xml:"priority,omitempty"`
	News       *newsItem `xml:"news:news,omitempty"`
}

type newsItem struct {
	Publication     publication `xml:"news:publication"`
	PublicationDate string      `xml:"news:publication_date"`
	Title           string      `xml:"news:title"`
}

type publication struct {
	Name     string `xml:"news:name"`
	Language string `xml:"news:language"`
}

// ArticleURL is the canonical location of an article.
func ArticleURL(baseURL, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/articles/" + slug
}

// BuildSitemap lists the home page followed by every article.
func BuildSitemap(baseURL string, entries []Entry) ([]byte, error) {
	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs, url{
		Loc:        strings.TrimRight(baseURL, "/") + "/",
		ChangeFreq: "hourly",
		Priority:   "1.0",
	})
	for _, e := range entries {
		mod := e.UpdatedAt
		if mod.IsZero() {
			mod = e.PublishedAt
		}
		set.URLs = append(set.URLs, url{
			Loc:        ArticleURL(baseURL, e.Slug),
			LastMod:    mod.UTC().Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}
	return marshal(set)
}

// BuildNewsSitemap lists only articles published within NewsWindow of now.
func BuildNewsSitemap(baseURL, siteName string, entries []Entry, now time.Time) ([]byte, error) {
	set := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		News:  "http://www.google.com/schemas/sitemap-news/0.9",
		URLs:  []url{},
	}
	cutoff := now.Add(-NewsWindow)
	for _, e := range entries {
		if e.PublishedAt.Before(cutoff) || e.PublishedAt.After(now) {
			continue
		}
		set.URLs = append(set.URLs, url{
			Loc: ArticleURL(baseURL, e.Slug),
			News: &newsItem{
				Publication:     publication{Name: siteName, Language: "en"},
				PublicationDate: e.PublishedAt.UTC().Format(time.RFC3339),
				Title:           e.Title,
			},
		})
	}
	return marshal(set)
}

func marshal(set urlSet) ([]byte, error) {
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
