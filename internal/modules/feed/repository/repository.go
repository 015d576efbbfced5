package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"liftly.app/liftly/internal/model"
)

// Page is a keyset window over the feed ordered by (created_at, id)
// descending. The cursor fields come from the last row of the previous page.
type Page struct {
	Limit           int
	CursorCreatedAt *time.Time
	CursorID        *uuid.UUID
	Filter          string // "", "roots", "replies" or "media"
	ExcludeAuthors  []uuid.UUID
	ViewerID        *uuid.UUID
}

type FeedRepository interface {
	// List returns up to Limit+1 live posts so the caller can detect a
	// following page without a count query.
	List(ctx context.Context, page Page) ([]*model.Post, error)
	ListBookmarked(ctx context.Context, userID uuid.UUID, page Page) ([]*model.Post, error)
}

type feedRepository struct {
	db *gorm.DB
}

func NewFeedRepository(db *gorm.DB) FeedRepository {
	return &feedRepository{db: db}
}

func (r *feedRepository) List(ctx context.Context, page Page) ([]*model.Post, error) {
	q := r.base(ctx, page)

	switch page.Filter {
	case "replies":
		q = q.Where("parent_id IS NOT NULL")
	case "media":
		q = q.Where("image_url IS NOT NULL OR EXISTS (SELECT 1 FROM post_media pm WHERE pm.post_id = posts.id)")
	default:
		// Home timeline shows conversation roots only.
		q = q.Where("parent_id IS NULL")
	}

	// Followers-only posts stay between the author and themselves until a
	// social graph lands.
	if page.ViewerID != nil {
		q = q.Where("audience = ? OR author_id = ?", model.AudienceEveryone, *page.ViewerID)
	} else {
		q = q.Where("audience = ?", model.AudienceEveryone)
	}

	var posts []*model.Post
	err := q.Find(&posts).Error
	return posts, err
}

func (r *feedRepository) ListBookmarked(ctx context.Context, userID uuid.UUID, page Page) ([]*model.Post, error) {
	q := r.base(ctx, page).
		Joins("JOIN likes ON likes.post_id = posts.id").
		Where("likes.user_id = ? AND likes.kind = ?", userID, model.LikeKindBookmark)

	var posts []*model.Post
	err := q.Find(&posts).Error
	return posts, err
}

func (r *feedRepository) base(ctx context.Context, page Page) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Post{}).
		Preload("Author").
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("posts.deleted_at IS NULL").
		Order("posts.created_at DESC, posts.id DESC").
		Limit(page.Limit + 1)

	if page.CursorCreatedAt != nil && page.CursorID != nil {
		q = q.Where(
			"posts.created_at < ? OR (posts.created_at = ? AND posts.id < ?)",
			*page.CursorCreatedAt, *page.CursorCreatedAt, *page.CursorID,
		)
	}

	if len(page.ExcludeAuthors) > 0 {
		q = q.Where("posts.author_id NOT IN ?", page.ExcludeAuthors)
	}

	return q
}
