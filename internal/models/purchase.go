package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Email delivery states for the purchase confirmation.
const (
	EmailPending = "pending"
	EmailSent    = "sent"
	EmailFailed  = "failed"
)

// Purchase is created once the payment provider confirms a checkout session
// and is immutable after that, except for the download counter and email
// delivery bookkeeping. SessionID carries a unique index so a racing second
// verification cannot insert a duplicate.
type Purchase struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID          string         `gorm:"size:255;not null;uniqueIndex" json:"session_id"`
	PaymentIntentID    string         `gorm:"size:255;not null;index" json:"payment_intent_id"`
	CustomerEmail      string         `gorm:"size:255;not null;index" json:"customer_email"`
	CustomerName       string         `gorm:"size:255" json:"customer_name"`
	AmountPaid         int64          `gorm:"not null" json:"amount_paid"`
	Currency           string         `gorm:"size:3;not null" json:"currency"`
	ReferralCode       string         `gorm:"size:32" json:"referral_code,omitempty"`
	DownloadsRemaining int            `gorm:"not null;default:10" json:"downloads_remaining"`
	EmailStatus        string         `gorm:"size:10;not null;default:'pending'" json:"email_status"`
	EmailMessageID     string         `gorm:"size:255" json:"email_message_id,omitempty"`
	RawSession         datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"-"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}
