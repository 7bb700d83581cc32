package seed

import (
	"fmt"
	"time"

	"Agora/models"
	"Agora/rounds"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var profiles = []models.Profile{
	{ID: "demo-admin", Username: "editor", Email: "editor@example.com", IsAdmin: true},
	{ID: "demo-steven", Username: "steven", Email: "steven@example.com", Karma: 12},
	{ID: "demo-martin", Username: "martin", Email: "martin@example.com", Karma: 4},
}

// Load inserts a small demo data set unless discussions already exist.
func Load(db *gorm.DB, now time.Time) error {
	var count int64
	if err := db.Model(&models.Discussion{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info().Msg("seed: discussions already present, skipping demo data")
		return nil
	}

	now = now.UTC()
	return db.Transaction(func(tx *gorm.DB) error {
		for i := range profiles {
			p := profiles[i]
			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("cannot seed profiles: %w", err)
			}
		}

		active := rounds.NewWindow(now.Add(-36 * time.Hour))
		pending := rounds.NewWindow(now.Add(24 * time.Hour))
		discussions := []models.Discussion{
			{Title: "Should city centres ban private cars?", Body: "Make the case for or against.", AuthorID: "demo-admin", RoundEndsAt: &active},
			{Title: "Is a four-day week good for small businesses?", Body: "Opens tomorrow.", AuthorID: "demo-admin", RoundEndsAt: &pending},
			{Title: "Was the stadium referendum fair?", Body: "Archived round.", AuthorID: "demo-admin"},
		}
		for i := range discussions {
			discussions[i].Prepare()
			if _, err := discussions[i].SaveDiscussion(tx); err != nil {
				return fmt.Errorf("cannot seed discussions: %w", err)
			}
		}

		posts := []models.Post{
			{DiscussionID: discussions[0].ID, UserID: "demo-steven", Side: models.SidePro, Body: "Cleaner air and safer streets."},
			{DiscussionID: discussions[0].ID, UserID: "demo-martin", Side: models.SideContra, Body: "Deliveries and shops would suffer."},
		}
		for i := range posts {
			posts[i].Prepare()
			if _, err := posts[i].SavePost(tx); err != nil {
				return fmt.Errorf("cannot seed posts: %w", err)
			}
		}

		open := now.Add(48 * time.Hour)
		closed := now.Add(-time.Hour)
		votes := []models.ContentVote{
			{Title: "What should our next deep dive cover?", EndsAt: &open, Options: []models.ContentVoteOption{{Text: "Housing"}, {Text: "Transit"}, {Text: "Energy"}}},
			{Title: "Which local story deserves a follow-up?", EndsAt: &closed, Options: []models.ContentVoteOption{{Text: "Harbour redevelopment"}, {Text: "School mergers"}}},
		}
		for i := range votes {
			votes[i].Prepare()
			if err := tx.Create(&votes[i]).Error; err != nil {
				return fmt.Errorf("cannot seed votes: %w", err)
			}
		}
		ballots := []models.Ballot{
			{VoteID: votes[0].ID, UserID: "demo-steven", OptionIndex: 1},
			{VoteID: votes[1].ID, UserID: "demo-steven", OptionIndex: 0},
			{VoteID: votes[1].ID, UserID: "demo-martin", OptionIndex: 0},
		}
		for i := range ballots {
			if _, err := ballots[i].SaveBallot(tx); err != nil {
				return fmt.Errorf("cannot seed ballots: %w", err)
			}
		}

		year, week := now.AddDate(0, 0, -7).ISOWeek()
		fame := []models.HallOfFameEntry{
			{PostID: posts[0].ID, UserID: "demo-steven", DiscussionID: discussions[0].ID, Rank: 1, LikesCount: 9, WeekNumber: week, Year: year},
			{PostID: posts[1].ID, UserID: "demo-martin", DiscussionID: discussions[0].ID, Rank: 2, LikesCount: 4, WeekNumber: week, Year: year},
		}
		if err := tx.Create(&fame).Error; err != nil {
			return fmt.Errorf("cannot seed hall of fame: %w", err)
		}

		article := models.Article{
			Slug:        "why-city-centres-are-going-car-free",
			Title:       "Why city centres are going car-free",
			Excerpt:     "Readers voted; here is what the numbers say.",
			PublishedAt: now.Add(-2 * time.Hour),
		}
		if err := tx.Create(&article).Error; err != nil {
			return fmt.Errorf("cannot seed articles: %w", err)
		}

		log.Info().
			Int("discussions", len(discussions)).
			Int("votes", len(votes)).
			Msg("seed: demo data loaded")
		return nil
	})
}
