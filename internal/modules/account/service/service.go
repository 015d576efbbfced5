package account

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	userRepo "liftly.app/liftly/internal/modules/user/repository"
	"liftly.app/liftly/pkg/apperror"
)

// GateService is the precondition check on every write entry point. Status
// is read fresh per call so moderation actions bite on the very next write.
type GateService interface {
	CheckWrite(ctx context.Context, userID uuid.UUID) error
}

type gateService struct {
	userRepo userRepo.UserRepository
	now      func() time.Time
}

func NewGateService(userRepo userRepo.UserRepository) GateService {
	return &gateService{
		userRepo: userRepo,
		now:      time.Now,
	}
}

// NewGateServiceWithClock exists for tests that need a fixed clock.
func NewGateServiceWithClock(userRepo userRepo.UserRepository, now func() time.Time) GateService {
	return &gateService{userRepo: userRepo, now: now}
}

func (s *gateService) CheckWrite(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		return fmt.Errorf("%w: account", apperror.ErrNotFound)
	}

	if user.Banned {
		return &apperror.GateError{Reason: "your account has been banned"}
	}

	if user.Frozen {
		return &apperror.GateError{Reason: "your account is frozen and cannot post"}
	}

	if user.MutedUntil != nil && user.MutedUntil.After(s.now()) {
		remaining := user.MutedUntil.Sub(s.now())
		minutes := remainingWholeMinutes(remaining)
		return &apperror.GateError{
			Reason: fmt.Sprintf("your account is muted, try again in %d minutes", minutes),
		}
	}

	return nil
}

// remainingWholeMinutes rounds the remaining mute window up to whole minutes.
func remainingWholeMinutes(d time.Duration) int64 {
	ms := d.Milliseconds()
	return (ms + 60000 - 1) / 60000
}
