package like

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"liftly.app/liftly/internal/model"
	account "liftly.app/liftly/internal/modules/account/service"
	likeRepo "liftly.app/liftly/internal/modules/like/repository"
	notifService "liftly.app/liftly/internal/modules/notification/service"
	postRepo "liftly.app/liftly/internal/modules/post/repository"
	userRepo "liftly.app/liftly/internal/modules/user/repository"
	"liftly.app/liftly/pkg/apperror"
)

type LikeService interface {
	ToggleLike(ctx context.Context, userID uuid.UUID, postID uuid.UUID) (bool, error)
	ToggleBookmark(ctx context.Context, userID uuid.UUID, postID uuid.UUID) (bool, error)
}

type likeService struct {
	repo                likeRepo.LikeRepository
	postRepo            postRepo.PostRepository
	userRepo            userRepo.UserRepository
	gate                account.GateService
	notificationService notifService.NotificationService
}

func NewLikeService(
	repo likeRepo.LikeRepository,
	postRepo postRepo.PostRepository,
	userRepo userRepo.UserRepository,
	gate account.GateService,
	notificationService notifService.NotificationService,
) LikeService {
	return &likeService{
		repo:                repo,
		postRepo:            postRepo,
		userRepo:            userRepo,
		gate:                gate,
		notificationService: notificationService,
	}
}

// ToggleLike flips the viewer's like and keeps the denormalized counter in
// step. The author is notified asynchronously on the like edge only, never
// on the unlike.
func (s *likeService) ToggleLike(ctx context.Context, userID uuid.UUID, postID uuid.UUID) (bool, error) {
	if err := s.gate.CheckWrite(ctx, userID); err != nil {
		return false, err
	}

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return false, fmt.Errorf("%w: post", apperror.ErrNotFound)
	}

	liked, err := s.repo.Toggle(ctx, userID, postID, model.LikeKindLike)
	if err != nil {
		return false, err
	}

	if liked {
		if err := s.postRepo.Increment(ctx, postID, postRepo.ColLikeCount); err != nil {
			return liked, err
		}
	} else {
		if err := s.postRepo.Decrement(ctx, postID, postRepo.ColLikeCount); err != nil {
			return liked, err
		}
	}

	if liked && post.AuthorID != userID {
		actor, err := s.userRepo.FindByID(ctx, userID.String())
		if err != nil {
			log.Printf("[like] actor lookup for %s failed: %v", userID, err)
		} else {
			s.notificationService.Fanout([]uuid.UUID{post.AuthorID}, model.NotifLike, actor, post)
		}
	}

	return liked, nil
}

// ToggleBookmark is private to the viewer: no counter, no notification.
func (s *likeService) ToggleBookmark(ctx context.Context, userID uuid.UUID, postID uuid.UUID) (bool, error) {
	if err := s.gate.CheckWrite(ctx, userID); err != nil {
		return false, err
	}

	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		return false, fmt.Errorf("%w: post", apperror.ErrNotFound)
	}

	return s.repo.Toggle(ctx, userID, postID, model.LikeKindBookmark)
}
