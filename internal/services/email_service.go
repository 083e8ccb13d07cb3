package services

import (
	"context"
	"fmt"

	"github.com/ketowell/ketowell-backend/internal/config"
	"github.com/ketowell/ketowell-backend/internal/email"
	"github.com/ketowell/ketowell-backend/internal/models"
	"gorm.io/gorm"
)

// EmailService sends transactional email and tracks delivery state on the
// purchase row so failed sends can be retried from the admin panel.
type EmailService struct {
	db        *gorm.DB
	sender    email.Sender
	downloads *DownloadService
	cfg       *config.Config
}

func NewEmailService(db *gorm.DB, sender email.Sender, downloads *DownloadService, cfg *config.Config) *EmailService {
	return &EmailService{db: db, sender: sender, downloads: downloads, cfg: cfg}
}

// SendPurchaseConfirmation emails the entitlement link for a confirmed
// purchase. Failures are recorded on the row and returned; after a confirmed
// purchase a silent drop would strand the buyer without their download.
func (s *EmailService) SendPurchaseConfirmation(ctx context.Context, p *models.Purchase) error {
	token, err := s.downloads.IssueToken(p.CustomerEmail, p.PaymentIntentID)
	if err != nil {
		return s.markFailed(p, err)
	}
	link := fmt.Sprintf("%s/book/download?token=%s", s.cfg.SiteURL, token)

	msg, err := email.PurchaseConfirmation(p, link, s.cfg.SupportEmail, s.cfg.DownloadLimit)
	if err != nil {
		return s.markFailed(p, err)
	}

	messageID, err := s.sender.Send(ctx, msg)
	if err != nil {
		return s.markFailed(p, err)
	}

	return s.db.Model(p).Updates(map[string]interface{}{
		"email_status":     models.EmailSent,
		"email_message_id": messageID,
	}).Error
}

// SendWaitlistConfirmation emails the double-opt-in link.
func (s *EmailService) SendWaitlistConfirmation(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/waitlist/confirm?token=%s", s.cfg.SiteURL, token)
	msg, err := email.WaitlistConfirmation(to, link)
	if err != nil {
		return err
	}
	if _, err := s.sender.Send(ctx, msg); err != nil {
		return err
	}
	return nil
}

func (s *EmailService) markFailed(p *models.Purchase, cause error) error {
	if err := s.db.Model(p).Update("email_status", models.EmailFailed).Error; err != nil {
		return fmt.Errorf("email failed (%v) and status update failed: %w", cause, err)
	}
	return fmt.Errorf("purchase email failed: %w", cause)
}
