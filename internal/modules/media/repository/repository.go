package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"liftly.app/liftly/internal/model"
)

type MediaRepository interface {
	Create(ctx context.Context, media *model.PostMedia) error
	// AttachToPost claims uploaded media rows for a post. Only rows the
	// uploader owns and that are still unattached can be claimed.
	AttachToPost(ctx context.Context, ids []uint, postID uuid.UUID, userID uuid.UUID) error
	FindOrphansBefore(ctx context.Context, cutoff time.Time) ([]*model.PostMedia, error)
	Delete(ctx context.Context, id uint) error
}

type mediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(ctx context.Context, media *model.PostMedia) error {
	return r.db.WithContext(ctx).Create(media).Error
}

func (r *mediaRepository) AttachToPost(ctx context.Context, ids []uint, postID uuid.UUID, userID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.PostMedia{}).
		Where("id IN ? AND user_id = ? AND post_id IS NULL", ids, userID).
		Update("post_id", postID).Error
}

func (r *mediaRepository) FindOrphansBefore(ctx context.Context, cutoff time.Time) ([]*model.PostMedia, error) {
	var media []*model.PostMedia
	err := r.db.WithContext(ctx).
		Where("post_id IS NULL AND created_at < ?", cutoff).
		Find(&media).Error
	return media, err
}

func (r *mediaRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.PostMedia{}, id).Error
}
