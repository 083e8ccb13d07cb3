package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ketowell/ketowell-backend/internal/analytics"
	"github.com/ketowell/ketowell-backend/internal/models"
	"gorm.io/gorm"
)

// WaitlistService implements the double-opt-in waitlist: joining stores a
// hashed confirmation token and emails the raw one; Confirm flips the entry.
type WaitlistService struct {
	db      *gorm.DB
	emails  *EmailService
	tracker analytics.Tracker
}

func NewWaitlistService(db *gorm.DB, emails *EmailService, tracker analytics.Tracker) *WaitlistService {
	return &WaitlistService{db: db, emails: emails, tracker: tracker}
}

// Join registers an email and sends the confirmation message. Re-joining
// before confirming rotates the token; a confirmed entry stays confirmed.
func (s *WaitlistService) Join(ctx context.Context, email string) (string, error) {
	if !ValidEmail(email) {
		return "", ErrInvalidEmail
	}
	normalized := NormalizeEmail(email)

	token, hash, err := newConfirmationToken()
	if err != nil {
		return "", err
	}

	var entry models.WaitlistEntry
	err = s.db.Where("email = ?", normalized).First(&entry).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		entry = models.WaitlistEntry{
			ID:        uuid.New(),
			Email:     normalized,
			TokenHash: hash,
		}
		if err := s.db.Create(&entry).Error; err != nil {
			return "", fmt.Errorf("failed to store waitlist entry: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("failed to look up waitlist entry: %w", err)
	case entry.Confirmed:
		return "You're already on the waitlist.", nil
	default:
		if err := s.db.Model(&entry).Update("token_hash", hash).Error; err != nil {
			return "", fmt.Errorf("failed to rotate confirmation token: %w", err)
		}
	}

	if err := s.emails.SendWaitlistConfirmation(ctx, normalized, token); err != nil {
		return "", err
	}

	s.tracker.Track("waitlist_joined", normalized, nil)
	return "Almost there! Check your inbox to confirm your spot.", nil
}

// Confirm resolves a token from the confirmation email. Returns
// alreadyConfirmed=true when the entry was confirmed earlier.
func (s *WaitlistService) Confirm(token string) (alreadyConfirmed bool, err error) {
	if token == "" {
		return false, ErrTokenInvalid
	}
	hash := hashConfirmationToken(token)

	var entry models.WaitlistEntry
	if err := s.db.Where("token_hash = ?", hash).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrTokenInvalid
		}
		return false, fmt.Errorf("failed to look up confirmation token: %w", err)
	}

	if entry.Confirmed {
		return true, nil
	}

	now := time.Now()
	err = s.db.Model(&entry).Updates(map[string]interface{}{
		"confirmed":    true,
		"confirmed_at": &now,
	}).Error
	if err != nil {
		return false, fmt.Errorf("failed to confirm waitlist entry: %w", err)
	}
	return false, nil
}

func newConfirmationToken() (token, hash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate confirmation token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(raw)
	return token, hashConfirmationToken(token), nil
}

func hashConfirmationToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
