package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PurchasePending = "pending"
	PurchasePaid    = "paid"
)

// Purchase tracks one user's access to one content item. The checkout
// endpoint creates it in pending state; only the webhook moves it to paid.
type Purchase struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ContentID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"content_id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Status          string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	StripeSessionID string     `gorm:"size:255;uniqueIndex" json:"-"`
	StripeEventID   *string    `gorm:"size:255" json:"-"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
