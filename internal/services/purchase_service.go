package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ketowell/ketowell-backend/internal/analytics"
	"github.com/ketowell/ketowell-backend/internal/config"
	"github.com/ketowell/ketowell-backend/internal/models"
	"github.com/ketowell/ketowell-backend/internal/payments"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PurchaseService drives the purchase state machine: a session either reaches
// payment_confirmed (terminal; triggers entitlement + email + referral
// attribution) or stays unverified. Nothing ever leaves the confirmed state.
type PurchaseService struct {
	db        *gorm.DB
	provider  payments.Provider
	referrals *ReferralService
	emails    *EmailService
	tracker   analytics.Tracker
	cfg       *config.Config
}

func NewPurchaseService(db *gorm.DB, provider payments.Provider, referrals *ReferralService, emails *EmailService, tracker analytics.Tracker, cfg *config.Config) *PurchaseService {
	return &PurchaseService{
		db:        db,
		provider:  provider,
		referrals: referrals,
		emails:    emails,
		tracker:   tracker,
		cfg:       cfg,
	}
}

// Verify confirms payment for a checkout session. Idempotent: once a session
// is confirmed, every later call returns the same stored record and runs no
// side effects. The unique index on session_id decides the winner when two
// verifications race; the loser re-reads.
func (s *PurchaseService) Verify(ctx context.Context, sessionID string) (*models.Purchase, error) {
	var existing models.Purchase
	err := s.db.Where("session_id = ?", sessionID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up purchase: %w", err)
	}

	sess, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Paid {
		return nil, ErrPaymentPending
	}

	purchase := models.Purchase{
		ID:                 uuid.New(),
		SessionID:          sess.ID,
		PaymentIntentID:    sess.PaymentIntentID,
		CustomerEmail:      NormalizeEmail(sess.CustomerEmail),
		CustomerName:       sess.CustomerName,
		AmountPaid:         sess.AmountTotal,
		Currency:           sess.Currency,
		ReferralCode:       sess.ReferralCode,
		DownloadsRemaining: s.cfg.DownloadLimit,
		EmailStatus:        models.EmailPending,
	}
	if len(sess.Raw) > 0 {
		purchase.RawSession = datatypes.JSON(sess.Raw)
	}

	if err := s.db.Create(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent Verify won the insert; its side effects are
			// already running, so this call only reads.
			var winner models.Purchase
			if err := s.db.Where("session_id = ?", sessionID).First(&winner).Error; err != nil {
				return nil, fmt.Errorf("failed to load confirmed purchase: %w", err)
			}
			return &winner, nil
		}
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	s.onConfirmed(ctx, &purchase)
	return &purchase, nil
}

// onConfirmed runs the one-time side effects of entering payment_confirmed.
// Email and referral handling are both conditioned on confirmation, never on
// session creation; their relative order carries no guarantee.
func (s *PurchaseService) onConfirmed(ctx context.Context, p *models.Purchase) {
	if p.ReferralCode != "" {
		if _, err := s.referrals.Redeem(p.ReferralCode, p.CustomerEmail); err != nil {
			slog.Error("referral redemption failed", "action", "redeem_referral", "code", p.ReferralCode, "error", err)
		}
	}

	if _, err := s.referrals.CreateForPurchase(p); err != nil {
		slog.Error("buyer referral code creation failed", "action", "create_referral_code", "purchase_id", p.ID, "error", err)
	}

	if err := s.emails.SendPurchaseConfirmation(ctx, p); err != nil {
		// Surfaced for operators: the row is marked failed for admin retry.
		slog.Error("purchase confirmation email failed", "action", "purchase_email", "purchase_id", p.ID, "error", err)
	}

	s.tracker.Track("purchase_completed", p.CustomerEmail, map[string]any{
		"amount":   p.AmountPaid,
		"currency": p.Currency,
		"referral": p.ReferralCode != "",
	})
	slog.Info("purchase confirmed", "action", "verify_purchase", "session_id", p.SessionID, "payment_intent", p.PaymentIntentID)
}

// CheckPurchase is a deliberately fail-closed existence check: a missing
// purchase and a store error both report hasPurchased=false.
func (s *PurchaseService) CheckPurchase(email string) (bool, time.Time) {
	var p models.Purchase
	err := s.db.Where("customer_email = ?", NormalizeEmail(email)).
		Order("created_at ASC").
		First(&p).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Error("purchase check failed", "action", "check_purchase", "error", err)
		}
		return false, time.Time{}
	}
	return true, p.CreatedAt
}

// FailedEmails lists confirmed purchases whose confirmation email needs a
// retry.
func (s *PurchaseService) FailedEmails() ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := s.db.Where("email_status = ?", models.EmailFailed).
		Order("created_at ASC").
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list failed emails: %w", err)
	}
	return purchases, nil
}

// ResendEmail retries the confirmation email for one purchase.
func (s *PurchaseService) ResendEmail(ctx context.Context, purchaseID uuid.UUID) error {
	var p models.Purchase
	if err := s.db.First(&p, "id = ?", purchaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPurchaseMissing
		}
		return fmt.Errorf("failed to load purchase: %w", err)
	}
	return s.emails.SendPurchaseConfirmation(ctx, &p)
}
