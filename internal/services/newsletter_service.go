package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ketowell/ketowell-backend/internal/analytics"
	"github.com/ketowell/ketowell-backend/internal/models"
	"gorm.io/gorm"
)

type NewsletterService struct {
	db      *gorm.DB
	tracker analytics.Tracker
}

func NewNewsletterService(db *gorm.DB, tracker analytics.Tracker) *NewsletterService {
	return &NewsletterService{db: db, tracker: tracker}
}

// Subscribe adds an address to the newsletter list. Validation happens before
// any store access; a repeat signup is a friendly no-op.
func (s *NewsletterService) Subscribe(email, source string) (string, error) {
	if !ValidEmail(email) {
		return "", ErrInvalidEmail
	}
	normalized := NormalizeEmail(email)

	sub := models.NewsletterSubscriber{
		ID:     uuid.New(),
		Email:  normalized,
		Source: source,
	}
	if err := s.db.Create(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "You're already on the list!", nil
		}
		return "", fmt.Errorf("failed to store subscription: %w", err)
	}

	s.tracker.Track("newsletter_subscribed", normalized, map[string]any{"source": source})
	return "Thanks for subscribing! Check your inbox for keto tips.", nil
}
