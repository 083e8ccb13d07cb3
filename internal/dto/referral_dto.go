package dto

import "time"

type ValidateReferralRequest struct {
	Code string `json:"code"`
}

type ValidateReferralResponse struct {
	Valid         bool   `json:"valid"`
	DiscountType  string `json:"discountType,omitempty"`
	DiscountValue int64  `json:"discountValue,omitempty"`
	Message       string `json:"message,omitempty"`
}

type ReferralEntry struct {
	ReferredEmail string    `json:"referredEmail"`
	RewardCode    string    `json:"rewardCode,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ReferralStatsResponse struct {
	HasReferralCode bool            `json:"hasReferralCode"`
	Code            string          `json:"code,omitempty"`
	DiscountType    string          `json:"discountType,omitempty"`
	DiscountValue   int64           `json:"discountValue,omitempty"`
	UsageCount      int             `json:"usageCount,omitempty"`
	UsageLimit      int             `json:"usageLimit,omitempty"`
	ExpiresAt       *time.Time      `json:"expiresAt,omitempty"`
	Referrals       []ReferralEntry `json:"referrals,omitempty"`
}

type CreateReferralCodeRequest struct {
	Code          string     `json:"code"`
	OwnerEmail    string     `json:"ownerEmail"`
	DiscountType  string     `json:"discountType"`
	DiscountValue int64      `json:"discountValue"`
	UsageLimit    int        `json:"usageLimit"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}
