package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ketowell/ketowell-backend/internal/config"
	"github.com/ketowell/ketowell-backend/internal/models"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeProvider implements Provider against the Stripe hosted checkout API.
type StripeProvider struct {
	api *client.API
	cfg *config.Config
}

func NewStripeProvider(cfg *config.Config) *StripeProvider {
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)
	return &StripeProvider{api: api, cfg: cfg}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (*Session, error) {
	sp := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.cfg.SuccessURL),
		CancelURL:  stripe.String(p.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.cfg.StripePriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	sp.Context = ctx

	if params.CustomerEmail != "" {
		sp.CustomerEmail = stripe.String(params.CustomerEmail)
	}

	metadata := map[string]string{}
	if params.CustomerName != "" {
		metadata["customer_name"] = params.CustomerName
	}
	if params.ReferralCode != "" {
		metadata["referral_code"] = params.ReferralCode
	}
	if len(metadata) > 0 {
		sp.Metadata = metadata
	}

	if params.Discount != nil {
		coupon, err := p.createCoupon(ctx, params.Discount)
		if err != nil {
			return nil, err
		}
		sp.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(coupon)},
		}
	}

	sess, err := p.api.CheckoutSessions.New(sp)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return fromStripeSession(sess), nil
}

func (p *StripeProvider) GetCheckoutSession(ctx context.Context, id string) (*Session, error) {
	sp := &stripe.CheckoutSessionParams{}
	sp.Context = ctx
	sp.AddExpand("payment_intent")

	sess, err := p.api.CheckoutSessions.Get(id, sp)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return fromStripeSession(sess), nil
}

// createCoupon mints a single-use coupon carrying the referral discount.
func (p *StripeProvider) createCoupon(ctx context.Context, d *Discount) (string, error) {
	cp := couponParams(d, p.cfg.Currency)
	cp.Context = ctx

	coupon, err := p.api.Coupons.New(cp)
	if err != nil {
		return "", mapStripeError(err)
	}
	return coupon.ID, nil
}

// Amount-off coupons must carry the same currency as the checkout session,
// so the configured product currency is threaded through.
func couponParams(d *Discount, currency string) *stripe.CouponParams {
	cp := &stripe.CouponParams{
		Duration:       stripe.String(string(stripe.CouponDurationOnce)),
		MaxRedemptions: stripe.Int64(1),
	}
	switch d.Type {
	case models.DiscountAmount:
		cp.AmountOff = stripe.Int64(d.Value)
		cp.Currency = stripe.String(strings.ToLower(currency))
	default:
		cp.PercentOff = stripe.Float64(float64(d.Value))
	}
	return cp
}

func fromStripeSession(s *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:          s.ID,
		URL:         s.URL,
		Paid:        s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal: s.AmountTotal,
		Currency:    strings.ToLower(string(s.Currency)),
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
		out.CustomerName = s.CustomerDetails.Name
	}
	if out.CustomerEmail == "" {
		out.CustomerEmail = s.CustomerEmail
	}
	if s.Metadata != nil {
		if out.CustomerName == "" {
			out.CustomerName = s.Metadata["customer_name"]
		}
		out.ReferralCode = s.Metadata["referral_code"]
	}
	if raw, err := json.Marshal(s); err == nil {
		out.Raw = raw
	}
	return out
}

func mapStripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		switch se.Type {
		case stripe.ErrorTypeInvalidRequest:
			if se.HTTPStatusCode == 404 {
				return fmt.Errorf("%w: %s", ErrSessionNotFound, se.Msg)
			}
			return fmt.Errorf("%w: %s", ErrInvalidRequest, se.Msg)
		}
	}
	return err
}
