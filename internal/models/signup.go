package models

import (
	"time"

	"github.com/google/uuid"
)

// NewsletterSubscriber is one opted-in newsletter address. Source records
// which form on the site submitted it.
type NewsletterSubscriber struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Source    string    `gorm:"size:100" json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// WaitlistEntry is a double-opt-in waitlist signup. Only the SHA-256 hash of
// the confirmation token is stored; the raw token exists only in the email.
type WaitlistEntry struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	TokenHash   string     `gorm:"size:64;not null;index" json:"-"`
	Confirmed   bool       `gorm:"not null;default:false" json:"confirmed"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
