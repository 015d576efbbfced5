package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liftly.app/liftly/internal/testutil"
	userRepo "liftly.app/liftly/internal/modules/user/repository"
	"liftly.app/liftly/pkg/apperror"
)

func TestCheckWriteAllowsNormalAccount(t *testing.T) {
	db := testutil.OpenDB(t)
	user := testutil.NewUser(t, db, "alice")

	gate := NewGateService(userRepo.NewUserRepository(db))
	assert.NoError(t, gate.CheckWrite(context.Background(), user.ID))
}

func TestCheckWriteRejectsUnknownAccount(t *testing.T) {
	db := testutil.OpenDB(t)

	gate := NewGateService(userRepo.NewUserRepository(db))
	err := gate.CheckWrite(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCheckWriteRejectsBanned(t *testing.T) {
	db := testutil.OpenDB(t)
	user := testutil.NewUser(t, db, "alice")
	require.NoError(t, db.Model(user).Update("banned", true).Error)

	gate := NewGateService(userRepo.NewUserRepository(db))
	err := gate.CheckWrite(context.Background(), user.ID)

	var gateErr *apperror.GateError
	require.True(t, errors.As(err, &gateErr))
	assert.Contains(t, gateErr.Reason, "banned")
}

func TestCheckWriteRejectsFrozen(t *testing.T) {
	db := testutil.OpenDB(t)
	user := testutil.NewUser(t, db, "alice")
	require.NoError(t, db.Model(user).Update("frozen", true).Error)

	gate := NewGateService(userRepo.NewUserRepository(db))
	err := gate.CheckWrite(context.Background(), user.ID)

	var gateErr *apperror.GateError
	require.True(t, errors.As(err, &gateErr))
	assert.Contains(t, gateErr.Reason, "frozen")
}

func TestCheckWriteMutedReportsWholeMinutes(t *testing.T) {
	db := testutil.OpenDB(t)
	user := testutil.NewUser(t, db, "alice")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// 9m30s remaining must round up to 10 minutes.
	mutedUntil := now.Add(9*time.Minute + 30*time.Second)
	require.NoError(t, db.Model(user).Update("muted_until", mutedUntil).Error)

	gate := NewGateServiceWithClock(userRepo.NewUserRepository(db), func() time.Time { return now })
	err := gate.CheckWrite(context.Background(), user.ID)

	var gateErr *apperror.GateError
	require.True(t, errors.As(err, &gateErr))
	assert.Contains(t, gateErr.Reason, "10 minutes")
}

func TestCheckWriteAllowsAfterMuteExpires(t *testing.T) {
	db := testutil.OpenDB(t)
	user := testutil.NewUser(t, db, "alice")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mutedUntil := now.Add(-time.Second)
	require.NoError(t, db.Model(user).Update("muted_until", mutedUntil).Error)

	gate := NewGateServiceWithClock(userRepo.NewUserRepository(db), func() time.Time { return now })
	assert.NoError(t, gate.CheckWrite(context.Background(), user.ID))
}

func TestRemainingWholeMinutesRoundsUp(t *testing.T) {
	assert.Equal(t, int64(1), remainingWholeMinutes(time.Second))
	assert.Equal(t, int64(1), remainingWholeMinutes(time.Minute))
	assert.Equal(t, int64(2), remainingWholeMinutes(time.Minute+time.Millisecond))
	assert.Equal(t, int64(10), remainingWholeMinutes(9*time.Minute+30*time.Second))
}
