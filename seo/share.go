package seo

import (
	"bytes"
	"html/template"
	"strings"
)

const (
	CacheControlShare    = "public, max-age=3600, s-maxage=86400"
	CacheControlFallback = "no-cache, no-store, must-revalidate"
)

var crawlerAgents = []string{
	"facebookexternalhit",
	"facebot",
	"twitterbot",
	"linkedinbot",
	"slackbot",
	"discordbot",
	"telegrambot",
	"whatsapp",
	"googlebot",
	"bingbot",
	"applebot",
	"pinterest",
	"redditbot",
	"embedly",
}

// IsCrawler reports whether the user agent belongs to a link-preview or search bot.
func IsCrawler(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, bot := range crawlerAgents {
		if strings.Contains(ua, bot) {
			return true
		}
	}
	return false
}

// Meta is what a crawler sees for one shared URL.
type Meta struct {
	SiteName    string
	Title       string
	Description string
	ImageURL    string
	// CanonicalURL is where humans are redirected.
	CanonicalURL string
	Type         string
}

var shareTemplate = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
<link rel="canonical" href="{{.CanonicalURL}}">
<meta property="og:site_name" content="{{.SiteName}}">
<meta property="og:type" content="{{.Type}}">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:url" content="{{.CanonicalURL}}">
{{- if .ImageURL}}
<meta property="og:image" content="{{.ImageURL}}">
<meta name="twitter:image" content="{{.ImageURL}}">
{{- end}}
<meta name="twitter:card" content="{{if .ImageURL}}summary_large_image{{else}}summary{{end}}">
<meta name="twitter:title" content="{{.Title}}">
<meta name="twitter:description" content="{{.Description}}">
<meta http-equiv="refresh" content="0;url={{.CanonicalURL}}">
</head>
<body>
<p><a href="{{.CanonicalURL}}">{{.Title}}</a></p>
</body>
</html>
`))

func RenderShare(m Meta) ([]byte, error) {
	if m.Type == "" {
		m.Type = "article"
	}
	var buf bytes.Buffer
	if err := shareTemplate.Execute(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
