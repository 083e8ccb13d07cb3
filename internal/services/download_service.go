package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ketowell/ketowell-backend/internal/analytics"
	"github.com/ketowell/ketowell-backend/internal/config"
	"github.com/ketowell/ketowell-backend/internal/models"
	"gorm.io/gorm"
)

// DownloadService issues time- and count-bounded download links for
// confirmed purchases.
type DownloadService struct {
	db          *gorm.DB
	tracker     analytics.Tracker
	assetURL    string
	tokenSecret []byte
	tokenExpiry time.Duration
}

func NewDownloadService(db *gorm.DB, tracker analytics.Tracker, cfg *config.Config) *DownloadService {
	return &DownloadService{
		db:          db,
		tracker:     tracker,
		assetURL:    cfg.AssetURL,
		tokenSecret: []byte(cfg.DownloadTokenSecret),
		tokenExpiry: cfg.DownloadTokenExpiry,
	}
}

// IssueLink validates that a confirmed purchase matches both fields and
// consumes one download. The decrement is a single guarded UPDATE, so racing
// requests can never take the counter negative; once it hits zero every
// caller gets ErrDownloadLimit.
func (s *DownloadService) IssueLink(email, paymentIntentID string) (string, int, error) {
	email = NormalizeEmail(email)
	if email == "" || paymentIntentID == "" {
		return "", 0, ErrPurchaseMissing
	}

	res := s.db.Model(&models.Purchase{}).
		Where("customer_email = ? AND payment_intent_id = ?", email, paymentIntentID).
		Where("downloads_remaining > 0").
		UpdateColumn("downloads_remaining", gorm.Expr("downloads_remaining - 1"))
	if res.Error != nil {
		return "", 0, fmt.Errorf("failed to consume download: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		var p models.Purchase
		err := s.db.Where("customer_email = ? AND payment_intent_id = ?", email, paymentIntentID).
			First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, ErrPurchaseMissing
		}
		if err != nil {
			return "", 0, fmt.Errorf("failed to look up purchase: %w", err)
		}
		return "", 0, ErrDownloadLimit
	}

	var p models.Purchase
	if err := s.db.Where("customer_email = ? AND payment_intent_id = ?", email, paymentIntentID).
		First(&p).Error; err != nil {
		return "", 0, fmt.Errorf("failed to reload purchase: %w", err)
	}

	s.tracker.Track("download_issued", email, map[string]any{
		"remaining": p.DownloadsRemaining,
	})
	return s.assetURL, p.DownloadsRemaining, nil
}

// IssueToken signs a token embedding the email and payment intent id, so the
// emailed link alone authorizes a download lookup.
func (s *DownloadService) IssueToken(email, paymentIntentID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": NormalizeEmail(email),
		"pid": paymentIntentID,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.tokenSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign download token: %w", err)
	}
	return signed, nil
}

// ParseToken recovers the email and payment intent id from a signed link.
func (s *DownloadService) ParseToken(tokenString string) (email, paymentIntentID string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.tokenSecret, nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrTokenInvalid
	}
	email, _ = claims["sub"].(string)
	paymentIntentID, _ = claims["pid"].(string)
	if email == "" || paymentIntentID == "" {
		return "", "", ErrTokenInvalid
	}
	return email, paymentIntentID, nil
}
