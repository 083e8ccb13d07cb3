package services

import (
	"context"
	"log/slog"

	"github.com/ketowell/ketowell-backend/internal/analytics"
	"github.com/ketowell/ketowell-backend/internal/payments"
)

// CheckoutService creates hosted checkout sessions. Referral codes are
// re-validated here regardless of what the client claims: the browser-side
// validate call is advisory and never trusted for pricing.
type CheckoutService struct {
	provider  payments.Provider
	referrals *ReferralService
	tracker   analytics.Tracker
}

func NewCheckoutService(provider payments.Provider, referrals *ReferralService, tracker analytics.Tracker) *CheckoutService {
	return &CheckoutService{provider: provider, referrals: referrals, tracker: tracker}
}

// CreateSession returns the provider's redirect URL. Email and name are
// optional; a present but malformed email is rejected before any provider
// call.
func (s *CheckoutService) CreateSession(ctx context.Context, userEmail, userName, referralCode string) (string, error) {
	if userEmail != "" && !ValidEmail(userEmail) {
		return "", ErrInvalidEmail
	}

	params := payments.CreateSessionParams{
		CustomerEmail: NormalizeEmail(userEmail),
		CustomerName:  userName,
	}

	if referralCode != "" {
		rc, err := s.referrals.Validate(referralCode)
		if err != nil {
			return "", err
		}
		params.ReferralCode = rc.Code
		params.Discount = &payments.Discount{
			Type:  rc.DiscountType,
			Value: rc.DiscountValue,
		}
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, params)
	if err != nil {
		return "", err
	}

	slog.Info("checkout session created", "action", "create_checkout_session", "session_id", sess.ID, "referral", params.ReferralCode != "")
	s.tracker.Track("checkout_started", params.CustomerEmail, map[string]any{
		"referral_applied": params.ReferralCode != "",
	})
	return sess.URL, nil
}
