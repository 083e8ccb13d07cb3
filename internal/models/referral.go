package models

import (
	"time"

	"github.com/google/uuid"
)

// Discount types a referral code can carry.
const (
	DiscountPercent = "percent"
	DiscountAmount  = "amount"
)

// ReferralCode grants a discount at checkout, subject to usage and expiry limits.
// Code is stored canonical uppercase.
type ReferralCode struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Code          string     `gorm:"size:32;not null;uniqueIndex" json:"code"`
	OwnerEmail    string     `gorm:"size:255;not null;index" json:"owner_email"`
	PurchaseID    *uuid.UUID `gorm:"type:uuid;index" json:"purchase_id,omitempty"`
	DiscountType  string     `gorm:"size:20;not null;default:'percent'" json:"discount_type"`
	DiscountValue int64      `gorm:"not null" json:"discount_value"`
	UsageCount    int        `gorm:"not null;default:0" json:"usage_count"`
	UsageLimit    int        `gorm:"not null;default:0" json:"usage_limit"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Referrals     []Referral `gorm:"foreignKey:ReferralCodeID" json:"referrals,omitempty"`
}

// Expired reports whether the code is past its expiry. Codes without an
// expiry never expire.
func (r *ReferralCode) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// Exhausted reports whether the usage limit has been consumed. A zero limit
// means unlimited.
func (r *ReferralCode) Exhausted() bool {
	return r.UsageLimit > 0 && r.UsageCount >= r.UsageLimit
}

// Referral records one redemption of a referral code by a buyer.
type Referral struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReferralCodeID uuid.UUID `gorm:"type:uuid;not null;index" json:"referral_code_id"`
	ReferredEmail  string    `gorm:"size:255;not null" json:"referred_email"`
	RewardCode     *string   `gorm:"size:32" json:"reward_code,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
