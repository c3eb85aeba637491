package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Content struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Subject     string       `gorm:"size:100;not null" json:"subject"`
	Price       int64        `gorm:"not null" json:"price"` // minor currency units
	CreatedBy   uuid.UUID    `gorm:"type:uuid;not null" json:"created_by"`
	Owner       User         `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE" json:"owner"`
	IsApproved  bool         `gorm:"default:false" json:"is_approved"`
	Media       []MediaAsset `gorm:"foreignKey:ContentID;constraint:OnDelete:CASCADE" json:"media"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Content) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

type MediaAsset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ContentID uuid.UUID `gorm:"type:uuid;not null" json:"content_id"`
	FileURL   string    `gorm:"type:text;not null" json:"file_url"`
	FileType  string    `gorm:"size:50" json:"file_type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
