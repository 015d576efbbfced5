package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"liftly.app/liftly/internal/bootstrap"
	"liftly.app/liftly/internal/model"
)

// OpenDB returns an isolated in-memory database with the full schema.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, bootstrap.Migrate(db))
	return db
}

// NewUser inserts a member account with the given handle.
func NewUser(t *testing.T, db *gorm.DB, handle string) *model.User {
	t.Helper()

	user := &model.User{
		Handle:       handle,
		DisplayName:  handle,
		Email:        handle + "@example.com",
		PasswordHash: "x",
		Role:         model.RoleMember,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// NewBot inserts the coach account.
func NewBot(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()

	bot := &model.User{
		Handle:       model.BotHandle,
		DisplayName:  "Coach",
		Email:        "coach@example.com",
		PasswordHash: "x",
		Role:         model.RoleBot,
	}
	require.NoError(t, db.Create(bot).Error)
	return bot
}
