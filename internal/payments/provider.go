package payments

import (
	"context"
	"errors"
)

var (
	// ErrSessionNotFound means the provider does not know the session id.
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrInvalidRequest means the provider rejected the request as malformed.
	ErrInvalidRequest = errors.New("invalid checkout request")
)

// Discount is attached to a checkout session when a referral code validates.
type Discount struct {
	// Type is models.DiscountPercent or models.DiscountAmount.
	Type string
	// Value is percent points or minor currency units depending on Type.
	Value int64
}

type CreateSessionParams struct {
	CustomerEmail string
	CustomerName  string
	// ReferralCode is recorded as session metadata so it survives the
	// round-trip to verification.
	ReferralCode string
	Discount     *Discount
}

// Session is the provider-neutral view of a hosted checkout session.
type Session struct {
	ID              string
	URL             string
	Paid            bool
	PaymentIntentID string
	CustomerEmail   string
	CustomerName    string
	AmountTotal     int64
	Currency        string
	ReferralCode    string
	Raw             []byte
}

// Provider wraps the payment provider's hosted-checkout API. Calls are not
// cancelable once issued; ctx only bounds the HTTP exchange.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (*Session, error)
	GetCheckoutSession(ctx context.Context, id string) (*Session, error)
}
