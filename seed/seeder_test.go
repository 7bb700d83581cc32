package seed

import (
	"testing"
	"time"

	"Agora/models"
	"Agora/rounds"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLoadIsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))

	now := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	require.NoError(t, Load(db, now))
	require.NoError(t, Load(db, now))

	var discussions []models.Discussion
	require.NoError(t, db.Order("id ASC").Find(&discussions).Error)
	require.Len(t, discussions, 3)

	assert.Equal(t, rounds.StatusActive, rounds.Resolve(discussions[0].RoundEndsAt, now).Status)
	assert.Equal(t, rounds.StatusPending, rounds.Resolve(discussions[1].RoundEndsAt, now).Status)
	assert.Equal(t, rounds.StatusExpired, rounds.Resolve(discussions[2].RoundEndsAt, now).Status)

	expired, err := models.FindExpiredActiveVotes(db, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "Harbour redevelopment", expired[0].Tally("").Winner.Text)
}
