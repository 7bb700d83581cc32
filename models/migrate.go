package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every table the API owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Profile{},
		&Badge{},
		&Notification{},
		&Discussion{},
		&Post{},
		&PostLike{},
		&HallOfFameEntry{},
		&ContentVote{},
		&ContentVoteOption{},
		&Ballot{},
		&Article{},
		&ProcessedPayment{},
	)
}

// EnsureConstraints adds what gorm tags cannot express. Run after AutoMigrate.
func EnsureConstraints(db *gorm.DB) error {
	return ensureHallOfFameConstraints(db)
}
