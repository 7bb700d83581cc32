package models

import (
	"errors"
	"html"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Profile mirrors the account owned by the auth provider. The ID is the
// provider's subject id; everything else is app-side state.
type Profile struct {
	ID                  string     `gorm:"primaryKey;size:64" json:"id"`
	Username            string     `gorm:"size:255;not null;uniqueIndex" json:"username"`
	Email               string     `gorm:"size:255" json:"-"`
	AvatarURL           string     `gorm:"size:512" json:"avatar_url"`
	IsAdmin             bool       `gorm:"not null;default:false" json:"is_admin"`
	IsPremium           bool       `gorm:"not null;default:false" json:"is_premium"`
	PremiumExpiresAt    *time.Time `json:"premium_expires_at"`
	BankedPremiumMonths int        `gorm:"not null;default:0" json:"banked_premium_months"`
	Karma               int        `gorm:"not null;default:0" json:"karma"`
	SelectedBadge       string     `gorm:"size:64" json:"selected_badge"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Profile) Prepare() {
	p.ID = strings.TrimSpace(p.ID)
	p.Username = html.EscapeString(strings.ToLower(strings.TrimSpace(p.Username)))
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.SelectedBadge = strings.TrimSpace(p.SelectedBadge)
}

func (p *Profile) Validate() map[string]string {
	var errorMessages = make(map[string]string)

	if p.ID == "" {
		errorMessages["Required_id"] = "Required ID"
	}
	if p.Username == "" {
		errorMessages["Required_username"] = "Required Username"
	}
	return errorMessages
}

func (p *Profile) FindProfileByID(db *gorm.DB, id string) (*Profile, error) {
	if err := db.Where("id = ?", id).First(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// EnsureProfile returns the profile for id, creating it on first sight. A
// non-empty email from the provider replaces the stored one. A username
// already held by another profile gets the subject id appended.
func EnsureProfile(db *gorm.DB, id, username, email string) (*Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("profile id is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))

	var found Profile
	err := db.Where("id = ?", id).First(&found).Error
	switch {
	case err == nil:
		if email != "" && email != found.Email {
			if err := db.Model(&found).Update("email", email).Error; err != nil {
				return nil, err
			}
		}
		return &found, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	if strings.TrimSpace(username) == "" {
		username = "user_" + shortID(id)
	}
	p := Profile{ID: id, Username: username, Email: email}
	p.Prepare()

	base := p.Username
	for _, candidate := range []string{base, base + "_" + shortID(id), base + "_" + id} {
		var taken int64
		if err := db.Model(&Profile{}).Where("username = ? AND id <> ?", candidate, id).Count(&taken).Error; err != nil {
			return nil, err
		}
		p.Username = candidate
		if taken == 0 {
			break
		}
	}

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&p).Error
	if err != nil {
		return nil, err
	}

	if err := db.Where("id = ?", id).First(&found).Error; err != nil {
		return nil, err
	}
	return &found, nil
}

func AddKarma(db *gorm.DB, userID string, delta int) error {
	return db.Model(&Profile{}).
		Where("id = ?", userID).
		Update("karma", gorm.Expr("karma + ?", delta)).Error
}

// ExtendPremium marks the profile premium and pushes its expiry one month past
// the later of now and the current expiry.
func ExtendPremium(db *gorm.DB, userID string, now time.Time) (*Profile, error) {
	var p Profile
	if err := db.Where("id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}

	base := now.UTC()
	if p.PremiumExpiresAt != nil && p.PremiumExpiresAt.After(base) {
		base = p.PremiumExpiresAt.UTC()
	}
	expires := base.AddDate(0, 1, 0)

	if err := db.Model(&Profile{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"is_premium":         true,
		"premium_expires_at": expires,
	}).Error; err != nil {
		return nil, err
	}

	p.IsPremium = true
	p.PremiumExpiresAt = &expires
	return &p, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
