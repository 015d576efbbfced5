package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	KindNote     = "note"
	KindWorkout  = "workout"
	KindProgress = "progress"
	KindRecord   = "record"
	KindMeal     = "meal"
)

const (
	AudienceEveryone  = "everyone"
	AudienceFollowers = "followers"
)

// WorkoutMeta is the optional structured payload for workout/record posts.
// It is stored as a JSON column rather than separate tables; the feed never
// filters on its fields.
type WorkoutMeta struct {
	Exercise    string  `json:"exercise,omitempty"`
	Sets        int     `json:"sets,omitempty"`
	Reps        int     `json:"reps,omitempty"`
	WeightKG    float64 `json:"weight_kg,omitempty"`
	DurationSec int     `json:"duration_sec,omitempty"`
	RPE         float64 `json:"rpe,omitempty"`
	AudioURL    string  `json:"audio_url,omitempty"`
}

type Post struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"author_id"`
	Author       User         `gorm:"constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Body         string       `gorm:"type:text;not null" json:"body"`
	Kind         string       `gorm:"size:20;not null;default:note" json:"kind"`
	ImageURL     *string      `gorm:"type:text" json:"image_url,omitempty"`
	Media        []PostMedia  `gorm:"foreignKey:PostID" json:"media,omitempty"`
	Meta         *WorkoutMeta `gorm:"serializer:json" json:"meta,omitempty"`
	Audience     string       `gorm:"size:20;not null;default:everyone" json:"audience"`
	ParentID     *uuid.UUID   `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Parent       *Post        `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	ThreadRootID *uuid.UUID   `gorm:"type:uuid;index" json:"thread_root_id,omitempty"`
	RepostOfID   *uuid.UUID   `gorm:"type:uuid" json:"repost_of_id,omitempty"`
	IsQuote      bool         `gorm:"not null;default:false" json:"is_quote"`
	LikeCount    int          `gorm:"not null;default:0" json:"like_count"`
	ReplyCount   int          `gorm:"not null;default:0" json:"reply_count"`
	RepostCount  int          `gorm:"not null;default:0" json:"repost_count"`
	DeletedAt    *time.Time   `gorm:"index" json:"-"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}

// ThreadRoot returns the id anchoring this post's conversation: the post's
// own id for roots, the shared root otherwise.
func (p *Post) ThreadRoot() uuid.UUID {
	if p.ThreadRootID != nil {
		return *p.ThreadRootID
	}
	return p.ID
}

func (p *Post) IsDeleted() bool {
	return p.DeletedAt != nil
}

type PostMedia struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	PostID    *uuid.UUID `gorm:"type:uuid;index" json:"post_id,omitempty"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	Position  int        `gorm:"not null;default:0" json:"position"`
	FileURL   string     `gorm:"type:text;not null" json:"file_url"`
	FileType  string     `gorm:"size:30;not null" json:"file_type"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (m *PostMedia) TableName() string {
	return "post_media"
}

const (
	LikeKindLike     = "like"
	LikeKindBookmark = "bookmark"
)

type Like struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_likes_unique,unique,priority:1" json:"user_id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;index:idx_likes_unique,unique,priority:2;index:idx_likes_post" json:"post_id"`
	Kind      string    `gorm:"size:10;not null;index:idx_likes_unique,unique,priority:3" json:"kind"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}
