package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotifLike    = "like"
	NotifReply   = "reply"
	NotifRepost  = "repost"
	NotifQuote   = "quote"
	NotifFollow  = "follow"
	NotifMention = "mention"
)

type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	ActorID     uuid.UUID  `gorm:"type:uuid;not null" json:"actor_id"`
	PostID      *uuid.UUID `gorm:"type:uuid" json:"post_id,omitempty"`
	Type        string     `gorm:"size:20;not null" json:"type"`
	Message     string     `gorm:"type:text" json:"message"`
	IsRead      bool       `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`

	Recipient *User `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	Actor     *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
