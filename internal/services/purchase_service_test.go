package services

import (
	"context"
	"testing"
	"time"

	"github.com/ketowell/ketowell-backend/internal/config"
	"github.com/ketowell/ketowell-backend/internal/models"
	"github.com/ketowell/ketowell-backend/internal/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		SiteURL:             "https://ketowell.test",
		SupportEmail:        "support@ketowell.test",
		AssetURL:            "https://assets.ketowell.test/guide.pdf",
		DownloadLimit:       10,
		DownloadTokenSecret: "test-secret",
		DownloadTokenExpiry: 720 * time.Hour,
	}
}

type purchaseFixture struct {
	svc      *PurchaseService
	provider *fakeProvider
	sender   *fakeSender
	tracker  *fakeTracker
	db       *gorm.DB
}

func newPurchaseFixture(t *testing.T, db *gorm.DB) *purchaseFixture {
	cfg := testConfig()
	provider := newFakeProvider()
	sender := &fakeSender{}
	tracker := &fakeTracker{}

	referrals := NewReferralService(db)
	downloads := NewDownloadService(db, tracker, cfg)
	emails := NewEmailService(db, sender, downloads, cfg)

	return &purchaseFixture{
		svc:      NewPurchaseService(db, provider, referrals, emails, tracker, cfg),
		provider: provider,
		sender:   sender,
		tracker:  tracker,
		db:       db,
	}
}

func paidSession(id string) *payments.Session {
	return &payments.Session{
		ID:              id,
		Paid:            true,
		PaymentIntentID: "pi_" + id,
		CustomerEmail:   "a@b.com",
		CustomerName:    "A B",
		AmountTotal:     1999,
		Currency:        "usd",
	}
}

func TestVerifyIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	fx := newPurchaseFixture(t, db)
	fx.provider.sessions["sess_123"] = paidSession("sess_123")

	first, err := fx.svc.Verify(context.Background(), "sess_123")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", first.CustomerEmail)
	assert.Equal(t, "A B", first.CustomerName)

	second, err := fx.svc.Verify(context.Background(), "sess_123")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CustomerEmail, second.CustomerEmail)
	assert.Equal(t, first.CustomerName, second.CustomerName)

	var count int64
	fx.db.Model(&models.Purchase{}).Count(&count)
	assert.EqualValues(t, 1, count)

	// The second call served from the store without touching the provider,
	// and the confirmation email went out exactly once.
	assert.Equal(t, 1, fx.provider.getCalls)
	assert.Len(t, fx.sender.messages(), 1)
}

func TestVerifyPendingPayment(t *testing.T) {
	db := newTestDB(t)
	fx := newPurchaseFixture(t, db)
	sess := paidSession("sess_wait")
	sess.Paid = false
	fx.provider.sessions["sess_wait"] = sess

	_, err := fx.svc.Verify(context.Background(), "sess_wait")
	assert.ErrorIs(t, err, ErrPaymentPending)

	var count int64
	fx.db.Model(&models.Purchase{}).Count(&count)
	assert.EqualValues(t, 0, count)
	assert.Empty(t, fx.sender.messages())
}

func TestVerifyUnknownSession(t *testing.T) {
	db := newTestDB(t)
	fx := newPurchaseFixture(t, db)

	_, err := fx.svc.Verify(context.Background(), "sess_missing")
	assert.ErrorIs(t, err, payments.ErrSessionNotFound)
}

func TestVerifyRedeemsReferralExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	fx := newPurchaseFixture(t, db)
	seedCode(t, db, models.ReferralCode{Code: "FRIEND10", OwnerEmail: "owner@test.com", DiscountValue: 10, UsageLimit: 5})

	sess := paidSession("sess_ref")
	sess.ReferralCode = "FRIEND10"
	fx.provider.sessions["sess_ref"] = sess

	for i := 0; i < 3; i++ {
		_, err := fx.svc.Verify(context.Background(), "sess_ref")
		require.NoError(t, err)
	}

	var rc models.ReferralCode
	require.NoError(t, db.Where("code = ?", "FRIEND10").First(&rc).Error)
	assert.Equal(t, 1, rc.UsageCount)
}

func TestVerifyCreatesBuyersOwnCode(t *testing.T) {
	db := newTestDB(t)
	fx := newPurchaseFixture(t, db)
	fx.provider.sessions["sess_123"] = paidSession("sess_123")

	purchase, err := fx.svc.Verify(context.Background(), "sess_123")
	require.NoError(t, err)

	var rc models.ReferralCode
	require.NoError(t, db.Where("purchase_id = ?", purchase.ID).First(&rc).Error)
	assert.Equal(t, "a@b.com", rc.OwnerEmail)
}

func TestVerifySurvivesEmailFailure(t *testing.T) {
	db := newTestDB(t)
	fx := newPurchaseFixture(t, db)
	fx.provider.sessions["sess_123"] = paidSession("sess_123")
	fx.sender.fail = true

	purchase, err := fx.svc.Verify(context.Background(), "sess_123")
	require.NoError(t, err)

	// Failure is not swallowed: the row is flagged for the admin retry path.
	var stored models.Purchase
	require.NoError(t, db.First(&stored, "id = ?", purchase.ID).Error)
	assert.Equal(t, models.EmailFailed, stored.EmailStatus)

	failed, err := fx.svc.FailedEmails()
	require.NoError(t, err)
	require.Len(t, failed, 1)

	fx.sender.fail = false
	require.NoError(t, fx.svc.ResendEmail(context.Background(), purchase.ID))

	require.NoError(t, db.First(&stored, "id = ?", purchase.ID).Error)
	assert.Equal(t, models.EmailSent, stored.EmailStatus)
	assert.NotEmpty(t, stored.EmailMessageID)
}

func TestCheckPurchaseFailClosed(t *testing.T) {
	db := newTestDB(t)
	fx := newPurchaseFixture(t, db)

	has, _ := fx.svc.CheckPurchase("nobody@test.com")
	assert.False(t, has)

	fx.provider.sessions["sess_123"] = paidSession("sess_123")
	purchase, err := fx.svc.Verify(context.Background(), "sess_123")
	require.NoError(t, err)

	has, date := fx.svc.CheckPurchase("A@B.com")
	assert.True(t, has)
	assert.WithinDuration(t, purchase.CreatedAt, date, 0)
}
