package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// KnownRoles is the authoritative role enumeration; every write path
// validates against it.
var KnownRoles = []string{RoleStudent, RoleTeacher, RoleAdmin}

func IsKnownRole(name string) bool {
	for _, r := range KnownRoles {
		if r == name {
			return true
		}
	}
	return false
}

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Email          string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"size:255" json:"-"`
	RoleID         *uint     `json:"role_id"`
	Role           Role      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"role"`
	ProfilePicture *string   `gorm:"type:text" json:"profile_picture,omitempty"`
	Bio            *string   `gorm:"type:text" json:"bio,omitempty"`
	IsVerified     bool      `gorm:"default:false" json:"is_verified"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	GoogleID       *string   `gorm:"size:100;uniqueIndex" json:"google_id,omitempty"`

	StripeCustomerID   *string    `gorm:"size:100" json:"stripe_customer_id,omitempty"`
	SubscriptionStatus *string    `gorm:"size:50" json:"subscription_status,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`

	ResetTokenHash    *string    `gorm:"size:64" json:"-"`
	ResetTokenExpires *time.Time `json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
