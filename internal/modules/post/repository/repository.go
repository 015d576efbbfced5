package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"liftly.app/liftly/internal/model"
)

// Counter columns maintained as atomic delta updates, never read-modify-write.
const (
	ColLikeCount   = "like_count"
	ColReplyCount  = "reply_count"
	ColRepostCount = "repost_count"
)

type PostRepository interface {
	// Create persists the post and, when it is a reply, bumps the parent's
	// reply counter inside the same transaction.
	Create(ctx context.Context, post *model.Post) error
	// FindByID returns a live (non-deleted) post.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	// FindByIDAny also resolves soft-deleted rows. Thread-root resolution
	// uses this: a deleted parent still anchors new replies.
	FindByIDAny(ctx context.Context, id uuid.UUID) (*model.Post, error)
	// FindThread returns all live posts of a conversation (root included),
	// ordered by creation ascending.
	FindThread(ctx context.Context, rootID uuid.UUID) ([]*model.Post, error)
	// TopReply picks the live child with the highest like counter; ties go
	// to the earliest arrival.
	TopReply(ctx context.Context, parentID uuid.UUID) (*model.Post, error)
	// SoftDelete stamps deleted_at and decrements the parent's reply counter
	// in the same transaction when the post is a reply.
	SoftDelete(ctx context.Context, post *model.Post) error
	Increment(ctx context.Context, id uuid.UUID, column string) error
	Decrement(ctx context.Context, id uuid.UUID, column string) error
	CountLiveReplies(ctx context.Context, parentID uuid.UUID) (int64, error)
	// CountedPostIDs lists posts carrying a positive reply or like counter,
	// for the counter audit job.
	CountedPostIDs(ctx context.Context, batch int, offset int) ([]*model.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if post.ParentID != nil {
			if err := incrementColumn(tx, *post.ParentID, ColReplyCount); err != nil {
				return err
			}
		}
		if post.RepostOfID != nil {
			if err := incrementColumn(tx, *post.RepostOfID, ColRepostCount); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *postRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindByIDAny(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ?", id).
		First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindThread(ctx context.Context, rootID uuid.UUID) ([]*model.Post, error) {
	var posts []*model.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("(id = ? OR thread_root_id = ?) AND deleted_at IS NULL", rootID, rootID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) TopReply(ctx context.Context, parentID uuid.UUID) (*model.Post, error) {
	var replies []*model.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("parent_id = ? AND deleted_at IS NULL", parentID).
		Order("like_count DESC").
		Order("created_at ASC").
		Order("id ASC").
		Limit(1).
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	if len(replies) == 0 {
		return nil, nil
	}
	return replies[0], nil
}

func (r *postRepository) SoftDelete(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&model.Post{}).
			Where("id = ? AND deleted_at IS NULL", post.ID).
			UpdateColumn("deleted_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already deleted concurrently; don't decrement twice.
			return nil
		}
		if post.ParentID != nil {
			if err := decrementColumn(tx, *post.ParentID, ColReplyCount); err != nil {
				return err
			}
		}
		if post.RepostOfID != nil {
			if err := decrementColumn(tx, *post.RepostOfID, ColRepostCount); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *postRepository) Increment(ctx context.Context, id uuid.UUID, column string) error {
	return incrementColumn(r.db.WithContext(ctx), id, column)
}

func (r *postRepository) Decrement(ctx context.Context, id uuid.UUID, column string) error {
	return decrementColumn(r.db.WithContext(ctx), id, column)
}

func (r *postRepository) CountLiveReplies(ctx context.Context, parentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("parent_id = ? AND deleted_at IS NULL", parentID).
		Count(&count).Error
	return count, err
}

func (r *postRepository) CountedPostIDs(ctx context.Context, batch int, offset int) ([]*model.Post, error) {
	var posts []*model.Post
	err := r.db.WithContext(ctx).
		Select("id", "reply_count", "like_count").
		Where("reply_count > 0 OR like_count > 0").
		Order("id ASC").
		Limit(batch).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func incrementColumn(tx *gorm.DB, id uuid.UUID, column string) error {
	return tx.Model(&model.Post{}).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error
}

// decrementColumn floors at zero; counters never go negative even when a
// decrement races a reconciliation.
func decrementColumn(tx *gorm.DB, id uuid.UUID, column string) error {
	return tx.Model(&model.Post{}).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr("CASE WHEN "+column+" > 0 THEN "+column+" - 1 ELSE 0 END")).Error
}
