package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
	RoleBot    = "bot"
)

// BotHandle is the reserved handle that summons the coach into a thread.
const BotHandle = "coach"

type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Handle           string     `gorm:"size:30;uniqueIndex;not null" json:"handle"`
	DisplayName      string     `gorm:"size:100;not null" json:"display_name"`
	Email            string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash     string     `gorm:"size:255;not null" json:"-"`
	Role             string     `gorm:"size:20;not null;default:member" json:"role"`
	Goal             *string    `gorm:"size:255" json:"goal,omitempty"`
	AvatarURL        *string    `gorm:"type:text" json:"avatar_url,omitempty"`
	Banned           bool       `gorm:"not null;default:false" json:"-"`
	Frozen           bool       `gorm:"not null;default:false" json:"-"`
	MutedUntil       *time.Time `json:"-"`
	ShadowRestricted bool       `gorm:"not null;default:false" json:"-"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsElevated() bool {
	return u.Role == RoleAdmin
}
