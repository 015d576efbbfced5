package model

import (
	"time"

	"github.com/google/uuid"
)

// WeightEntry and PersonalRecord are written by the tracking endpoints
// outside this service; the feed only reads them to build coach context.

type WeightEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	WeightKG   float64   `gorm:"not null" json:"weight_kg"`
	RecordedAt time.Time `gorm:"not null;index" json:"recorded_at"`
}

type PersonalRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Exercise   string    `gorm:"size:100;not null" json:"exercise"`
	WeightKG   float64   `gorm:"not null" json:"weight_kg"`
	Reps       int       `gorm:"not null;default:1" json:"reps"`
	AchievedAt time.Time `gorm:"not null" json:"achieved_at"`
}
