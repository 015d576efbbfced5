package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"liftly.app/liftly/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByHandle(ctx context.Context, handle string) (*model.User, error)
	// ResolveHandles maps handle tokens to user records, case-insensitively.
	// Unknown handles are silently dropped.
	ResolveHandles(ctx context.Context, handles []string) ([]*model.User, error)
	ShadowRestrictedIDs(ctx context.Context) ([]string, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByHandle(ctx context.Context, handle string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Where("LOWER(handle) = ?", strings.ToLower(handle)).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) ResolveHandles(ctx context.Context, handles []string) ([]*model.User, error) {
	if len(handles) == 0 {
		return nil, nil
	}

	lowered := make([]string, 0, len(handles))
	for _, h := range handles {
		lowered = append(lowered, strings.ToLower(h))
	}

	var users []*model.User
	if err := r.db.WithContext(ctx).
		Where("LOWER(handle) IN ?", lowered).
		Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) ShadowRestrictedIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("shadow_restricted = ?", true).
		Pluck("id", &ids).Error
	return ids, err
}
