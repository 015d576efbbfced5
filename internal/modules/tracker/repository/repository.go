package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"liftly.app/liftly/internal/model"
)

type TrackerRepository interface {
	RecentWeights(ctx context.Context, userID uuid.UUID, limit int) ([]model.WeightEntry, error)
	PersonalRecords(ctx context.Context, userID uuid.UUID) ([]model.PersonalRecord, error)
	// WorkoutDays lists the distinct days the user posted a workout within
	// the window, most recent first. Streaks are computed from this.
	WorkoutDays(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error)
	LastPostAt(ctx context.Context, userID uuid.UUID) (*time.Time, error)
	// RecentBodies returns the user's latest live post bodies, newest first.
	RecentBodies(ctx context.Context, userID uuid.UUID, limit int) ([]string, error)
}

type trackerRepository struct {
	db *gorm.DB
}

func NewTrackerRepository(db *gorm.DB) TrackerRepository {
	return &trackerRepository{db: db}
}

func (r *trackerRepository) RecentWeights(ctx context.Context, userID uuid.UUID, limit int) ([]model.WeightEntry, error) {
	var entries []model.WeightEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *trackerRepository) PersonalRecords(ctx context.Context, userID uuid.UUID) ([]model.PersonalRecord, error) {
	var records []model.PersonalRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("achieved_at DESC").
		Find(&records).Error
	return records, err
}

func (r *trackerRepository) WorkoutDays(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error) {
	var stamps []time.Time
	err := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("author_id = ? AND kind = ? AND deleted_at IS NULL AND created_at >= ?",
			userID, model.KindWorkout, since).
		Order("created_at DESC").
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, err
	}

	// Collapse to one entry per calendar day (UTC).
	var days []time.Time
	seen := map[string]bool{}
	for _, ts := range stamps {
		day := ts.UTC().Truncate(24 * time.Hour)
		key := day.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true
		days = append(days, day)
	}
	return days, nil
}

func (r *trackerRepository) LastPostAt(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	var post model.Post
	err := r.db.WithContext(ctx).
		Where("author_id = ? AND deleted_at IS NULL", userID).
		Order("created_at DESC").
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post.CreatedAt, nil
}

func (r *trackerRepository) RecentBodies(ctx context.Context, userID uuid.UUID, limit int) ([]string, error) {
	var bodies []string
	err := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("author_id = ? AND deleted_at IS NULL", userID).
		Order("created_at DESC").
		Limit(limit).
		Pluck("body", &bodies).Error
	return bodies, err
}
