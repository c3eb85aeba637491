package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MessageTypeChat = "chat"
	MessageTypeAI   = "ai"
)

// Message is immutable once created; room history is ordered by created_at.
type Message struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID     string     `gorm:"size:100;not null;index" json:"room_id"`
	SenderID   uuid.UUID  `gorm:"type:uuid;not null" json:"sender_id"`
	ReceiverID *uuid.UUID `gorm:"type:uuid" json:"receiver_id,omitempty"`
	Text       string     `gorm:"type:text;not null" json:"text"`
	Type       string     `gorm:"size:10;not null;default:'chat'" json:"type"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
