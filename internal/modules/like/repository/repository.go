package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"liftly.app/liftly/internal/model"
)

type LikeRepository interface {
	// Toggle flips the (user, post, kind) row and reports whether the row
	// exists after the call.
	Toggle(ctx context.Context, userID uuid.UUID, postID uuid.UUID, kind string) (bool, error)
	// KindsForPosts returns which of the given posts the user has marked,
	// keyed by post id, for batch feed decoration.
	KindsForPosts(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]map[string]bool, error)
	CountByPost(ctx context.Context, postID uuid.UUID, kind string) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Toggle(ctx context.Context, userID uuid.UUID, postID uuid.UUID, kind string) (bool, error) {
	var active bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Like
		err := tx.Where("user_id = ? AND post_id = ? AND kind = ?", userID, postID, kind).
			First(&existing).Error
		if err == nil {
			active = false
			return tx.Delete(&existing).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		active = true
		return tx.Create(&model.Like{UserID: userID, PostID: postID, Kind: kind}).Error
	})
	return active, err
}

func (r *likeRepository) KindsForPosts(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]map[string]bool, error) {
	result := make(map[uuid.UUID]map[string]bool)
	if len(postIDs) == 0 {
		return result, nil
	}

	var likes []model.Like
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Find(&likes).Error
	if err != nil {
		return nil, err
	}

	for _, l := range likes {
		if result[l.PostID] == nil {
			result[l.PostID] = make(map[string]bool)
		}
		result[l.PostID][l.Kind] = true
	}
	return result, nil
}

func (r *likeRepository) CountByPost(ctx context.Context, postID uuid.UUID, kind string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("post_id = ? AND kind = ?", postID, kind).
		Count(&count).Error
	return count, err
}
