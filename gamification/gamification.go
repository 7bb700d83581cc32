package gamification

import "time"

// PremiumBadge is shown for every premium profile, whether or not a badge row exists.
const PremiumBadge = "premium"

type Profile struct {
	Karma               int
	IsPremium           bool
	PremiumExpiresAt    *time.Time
	BankedPremiumMonths int
	SelectedBadge       string
}

type Entry struct {
	PostID       uint   `json:"post_id"`
	UserID       string `json:"user_id"`
	DiscussionID uint   `json:"discussion_id"`
	Rank         int    `json:"rank"`
	LikesCount   int    `json:"likes_count"`
	WeekNumber   int    `json:"week_number"`
	Year         int    `json:"year"`
}

type Stats struct {
	Karma               int        `json:"karma"`
	Badges              []string   `json:"badges"`
	TopPosts            int        `json:"top_posts"`
	Top1Posts           int        `json:"top1_posts"`
	BankedPremiumMonths int        `json:"banked_premium_months"`
	PremiumExpiresAt    *time.Time `json:"premium_expires_at"`
	SelectedBadge       string     `json:"selected_badge"`
}

// Compute aggregates a user's stored counters, badge rows and hall of fame
// entries into the stats shown on their profile.
func Compute(p Profile, badges []string, entries []Entry) Stats {
	stats := Stats{
		Karma:               p.Karma,
		Badges:              dedupe(badges),
		TopPosts:            len(entries),
		BankedPremiumMonths: p.BankedPremiumMonths,
		PremiumExpiresAt:    p.PremiumExpiresAt,
		SelectedBadge:       p.SelectedBadge,
	}
	for _, e := range entries {
		if e.Rank == 1 {
			stats.Top1Posts++
		}
	}
	if p.IsPremium && !contains(stats.Badges, PremiumBadge) {
		stats.Badges = append(stats.Badges, PremiumBadge)
	}
	return stats
}

// ArgumentOfTheWeek returns the rank-1 entry for the given ISO week.
func ArgumentOfTheWeek(entries []Entry, week, year int) (Entry, bool) {
	for _, e := range entries {
		if e.Rank == 1 && e.WeekNumber == week && e.Year == year {
			return e, true
		}
	}
	return Entry{}, false
}

func dedupe(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
