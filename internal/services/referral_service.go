package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ketowell/ketowell-backend/internal/models"
	"gorm.io/gorm"
)

// Defaults for the shareable code every buyer receives after a confirmed
// purchase, and for the reward codes their referrals earn.
const (
	buyerCodePercent  = 10
	buyerCodeLimit    = 25
	buyerCodeLifetime = 365 * 24 * time.Hour

	rewardEvery        = 3
	rewardCodePercent  = 20
	rewardCodeLifetime = 90 * 24 * time.Hour
)

type ReferralService struct {
	db *gorm.DB
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{db: db}
}

// Validate is the read-only validation step: it never consumes a usage slot.
// The returned code carries the discount terms for the success response.
func (s *ReferralService) Validate(code string) (*models.ReferralCode, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, ErrCodeNotFound
	}

	var rc models.ReferralCode
	if err := s.db.Where("code = ?", normalized).First(&rc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to look up referral code: %w", err)
	}

	// Expiry wins over remaining uses.
	if rc.Expired(time.Now()) {
		return nil, ErrCodeExpired
	}
	if rc.Exhausted() {
		return nil, ErrCodeExhausted
	}
	return &rc, nil
}

// Redeem consumes one usage slot and records the referral. The increment is a
// single guarded UPDATE so concurrent redemptions cannot push usage past the
// limit; the loser falls back to Validate for the specific denial reason.
func (s *ReferralService) Redeem(code, referredEmail string) (*models.ReferralCode, error) {
	normalized := NormalizeCode(code)
	now := time.Now()

	res := s.db.Model(&models.ReferralCode{}).
		Where("code = ?", normalized).
		Where("usage_limit = 0 OR usage_count < usage_limit").
		Where("expires_at IS NULL OR expires_at > ?", now).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to redeem referral code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.Validate(normalized); err != nil {
			return nil, err
		}
		return nil, ErrCodeExhausted
	}

	var rc models.ReferralCode
	if err := s.db.Where("code = ?", normalized).First(&rc).Error; err != nil {
		return nil, fmt.Errorf("failed to reload referral code: %w", err)
	}

	referral := models.Referral{
		ID:             uuid.New(),
		ReferralCodeID: rc.ID,
		ReferredEmail:  NormalizeEmail(referredEmail),
	}

	// Every rewardEvery-th referral earns the owner a one-shot reward code.
	if rc.UsageCount%rewardEvery == 0 {
		reward, err := s.createRewardCode(rc.OwnerEmail)
		if err != nil {
			return nil, err
		}
		referral.RewardCode = &reward.Code
	}

	if err := s.db.Create(&referral).Error; err != nil {
		return nil, fmt.Errorf("failed to record referral: %w", err)
	}
	return &rc, nil
}

// CreateForPurchase generates the buyer's own shareable code after their
// first confirmed purchase. Safe to call repeatedly for the same purchase.
func (s *ReferralService) CreateForPurchase(p *models.Purchase) (*models.ReferralCode, error) {
	var existing models.ReferralCode
	err := s.db.Where("purchase_id = ?", p.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing referral code: %w", err)
	}

	expires := time.Now().Add(buyerCodeLifetime)
	rc := models.ReferralCode{
		ID:            uuid.New(),
		Code:          generateCode(p.CustomerName, p.CustomerEmail),
		OwnerEmail:    NormalizeEmail(p.CustomerEmail),
		PurchaseID:    &p.ID,
		DiscountType:  models.DiscountPercent,
		DiscountValue: buyerCodePercent,
		UsageLimit:    buyerCodeLimit,
		ExpiresAt:     &expires,
	}
	if err := s.db.Create(&rc).Error; err != nil {
		return nil, fmt.Errorf("failed to create referral code: %w", err)
	}
	return &rc, nil
}

// Create registers an admin-defined code, e.g. for partner campaigns.
func (s *ReferralService) Create(code, ownerEmail, discountType string, discountValue int64, usageLimit int, expiresAt *time.Time) (*models.ReferralCode, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, ErrCodeNotFound
	}
	if discountType != models.DiscountPercent && discountType != models.DiscountAmount {
		return nil, fmt.Errorf("unknown discount type %q", discountType)
	}

	rc := models.ReferralCode{
		ID:            uuid.New(),
		Code:          normalized,
		OwnerEmail:    NormalizeEmail(ownerEmail),
		DiscountType:  discountType,
		DiscountValue: discountValue,
		UsageLimit:    usageLimit,
		ExpiresAt:     expiresAt,
	}
	if err := s.db.Create(&rc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCodeExists
		}
		return nil, fmt.Errorf("failed to create referral code: %w", err)
	}
	return &rc, nil
}

// StatsByPurchase returns the code generated by a purchase, with its
// referrals, for the post-purchase dashboard.
func (s *ReferralService) StatsByPurchase(purchaseID uuid.UUID) (*models.ReferralCode, error) {
	var rc models.ReferralCode
	err := s.db.Preload("Referrals").Where("purchase_id = ?", purchaseID).First(&rc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load referral stats: %w", err)
	}
	return &rc, nil
}

// StatsByEmail returns the oldest code owned by the email, or ErrCodeNotFound
// which handlers translate to {hasReferralCode: false}.
func (s *ReferralService) StatsByEmail(email string) (*models.ReferralCode, error) {
	var rc models.ReferralCode
	err := s.db.Preload("Referrals").
		Where("owner_email = ?", NormalizeEmail(email)).
		Order("created_at ASC").
		First(&rc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load referral stats: %w", err)
	}
	return &rc, nil
}

func (s *ReferralService) createRewardCode(ownerEmail string) (*models.ReferralCode, error) {
	expires := time.Now().Add(rewardCodeLifetime)
	rc := models.ReferralCode{
		ID:            uuid.New(),
		Code:          "THANKS-" + randomSuffix(6),
		OwnerEmail:    NormalizeEmail(ownerEmail),
		DiscountType:  models.DiscountPercent,
		DiscountValue: rewardCodePercent,
		UsageLimit:    1,
		ExpiresAt:     &expires,
	}
	if err := s.db.Create(&rc).Error; err != nil {
		return nil, fmt.Errorf("failed to create reward code: %w", err)
	}
	return &rc, nil
}

// generateCode builds a readable personal code: up to six letters from the
// buyer's name (falling back to the email local part), plus a random suffix.
func generateCode(name, email string) string {
	base := lettersOnly(name)
	if base == "" {
		if at := strings.IndexByte(email, '@'); at > 0 {
			base = lettersOnly(email[:at])
		}
	}
	if base == "" {
		base = "KETO"
	}
	if len(base) > 6 {
		base = base[:6]
	}
	return strings.ToUpper(base) + "-" + randomSuffix(4)
}

func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func randomSuffix(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return strings.ToUpper(hex.EncodeToString([]byte(uuid.New().String()))[:n])
	}
	return strings.ToUpper(hex.EncodeToString(buf))[:n]
}
