package services

import "errors"

var (
	ErrInvalidEmail = errors.New("a valid email address is required")

	ErrCodeNotFound  = errors.New("referral code not found")
	ErrCodeExpired   = errors.New("referral code has expired")
	ErrCodeExhausted = errors.New("referral code usage limit reached")
	ErrCodeExists    = errors.New("referral code already exists")

	ErrPaymentPending  = errors.New("payment not completed")
	ErrPurchaseMissing = errors.New("no purchase found for this email and payment")
	ErrDownloadLimit   = errors.New("download limit exceeded")

	ErrTokenInvalid = errors.New("invalid or expired token")
)
