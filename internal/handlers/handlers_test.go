package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ketowell/ketowell-backend/internal/config"
	"github.com/ketowell/ketowell-backend/internal/consent"
	"github.com/ketowell/ketowell-backend/internal/email"
	"github.com/ketowell/ketowell-backend/internal/handlers"
	"github.com/ketowell/ketowell-backend/internal/models"
	"github.com/ketowell/ketowell-backend/internal/payments"
	"github.com/ketowell/ketowell-backend/internal/routes"
	"github.com/ketowell/ketowell-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

type stubProvider struct {
	mu       sync.Mutex
	sessions map[string]*payments.Session
}

func (s *stubProvider) CreateCheckoutSession(_ context.Context, _ payments.CreateSessionParams) (*payments.Session, error) {
	return &payments.Session{ID: "cs_new", URL: "https://checkout.test/cs_new"}, nil
}

func (s *stubProvider) GetCheckoutSession(_ context.Context, id string) (*payments.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, payments.ErrSessionNotFound
	}
	return sess, nil
}

type stubSender struct{}

func (stubSender) Send(context.Context, email.Message) (string, error) { return "msg_1", nil }

type noopTracker struct{}

func (noopTracker) Track(string, string, map[string]any) {}
func (noopTracker) Close() error                         { return nil }

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	provider *stubProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, testDBSeq.Add(1))), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ReferralCode{},
		&models.Referral{},
		&models.Purchase{},
		&models.NewsletterSubscriber{},
		&models.WaitlistEntry{},
	))

	cfg := &config.Config{
		SiteURL:             "https://ketowell.test",
		SupportEmail:        "support@ketowell.test",
		AssetURL:            "https://assets.ketowell.test/guide.pdf",
		DownloadLimit:       10,
		DownloadTokenSecret: "test-secret",
		DownloadTokenExpiry: 720 * time.Hour,
		AdminToken:          "admin-token",
		CORSOrigins:         "*",
	}

	provider := &stubProvider{sessions: make(map[string]*payments.Session)}
	tracker := noopTracker{}

	referralService := services.NewReferralService(db)
	downloadService := services.NewDownloadService(db, tracker, cfg)
	emailService := services.NewEmailService(db, stubSender{}, downloadService, cfg)
	checkoutService := services.NewCheckoutService(provider, referralService, tracker)
	purchaseService := services.NewPurchaseService(db, provider, referralService, emailService, tracker, cfg)
	newsletterService := services.NewNewsletterService(db, tracker)
	waitlistService := services.NewWaitlistService(db, emailService, tracker)

	consentStore := consent.NewFileStore(t.TempDir() + "/consent.json")

	app := fiber.New()
	routes.Setup(app, cfg,
		handlers.NewBookHandler(checkoutService, purchaseService, downloadService),
		handlers.NewReferralHandler(referralService),
		handlers.NewSignupHandler(newsletterService, waitlistService),
		handlers.NewConsentHandler(consentStore),
		handlers.NewAdminHandler(referralService, purchaseService),
		handlers.NewHealthHandler(),
	)

	return &testEnv{app: app, db: db, provider: provider}
}

func (e *testEnv) request(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestValidateReferralEndpoint(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.ReferralCode{
		ID: uuid.New(), Code: "SAVE10", OwnerEmail: "owner@test.com",
		DiscountType: models.DiscountPercent, DiscountValue: 10, UsageLimit: 5,
	}).Error)

	status, body := env.request(t, "POST", "/api/referral/validate", `{"code":" save10 "}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "percent", body["discountType"])
	assert.EqualValues(t, 10, body["discountValue"])

	status, body = env.request(t, "POST", "/api/referral/validate", `{"code":"UNKNOWN"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["valid"])
	assert.NotEmpty(t, body["message"])

	status, _ = env.request(t, "POST", "/api/referral/validate", `{"code":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestVerifyPurchaseEndpointIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.provider.sessions["sess_123"] = &payments.Session{
		ID: "sess_123", Paid: true, PaymentIntentID: "pi_1",
		CustomerEmail: "a@b.com", CustomerName: "A B",
		AmountTotal: 1999, Currency: "usd",
	}

	for i := 0; i < 2; i++ {
		status, body := env.request(t, "GET", "/api/book/verify-purchase/sess_123", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "a@b.com", body["customerEmail"])
		assert.Equal(t, "A B", body["customerName"])
	}

	var count int64
	env.db.Model(&models.Purchase{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestVerifyPurchaseEndpointUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(t, "GET", "/api/book/verify-purchase/sess_nope", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["success"])
}

func TestDownloadEndpointCap(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.Purchase{
		ID: uuid.New(), SessionID: "cs_1", PaymentIntentID: "pi_1",
		CustomerEmail: "a@b.com", AmountPaid: 1999, Currency: "usd",
		DownloadsRemaining: 2, EmailStatus: models.EmailSent,
	}).Error)

	status, body := env.request(t, "GET", "/api/book/download?email=a@b.com&paymentIntentId=pi_1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["downloadsRemaining"])
	assert.Equal(t, "https://assets.ketowell.test/guide.pdf", body["downloadUrl"])

	env.request(t, "GET", "/api/book/download?email=a@b.com&paymentIntentId=pi_1", "")

	status, body = env.request(t, "GET", "/api/book/download?email=a@b.com&paymentIntentId=pi_1", "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body["message"], "Download limit exceeded")

	status, _ = env.request(t, "GET", "/api/book/download?email=someone@else.com&paymentIntentId=pi_1", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCheckPurchaseEndpointFailClosed(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(t, "GET", "/api/book/check-purchase?email=nobody@test.com", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["hasPurchased"])

	status, body = env.request(t, "GET", "/api/book/check-purchase", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["hasPurchased"])
}

func TestNewsletterEndpointRejectsBadEmail(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(t, "POST", "/api/newsletter/subscribe", `{"email":"not-an-email","source":"footer"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "valid email")

	var count int64
	env.db.Model(&models.NewsletterSubscriber{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestAdminEndpointsRequireToken(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.request(t, "GET", "/api/admin/emails/failed", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	req := httptest.NewRequest("GET", "/api/admin/emails/failed", nil)
	req.Header.Set("X-Admin-Token", "admin-token")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConsentEndpointsRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.request(t, "GET", "/api/consent", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["hasResponded"])

	status, body = env.request(t, "POST", "/api/consent", `{"analytics":true,"marketing":false}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["hasResponded"])

	status, body = env.request(t, "DELETE", "/api/consent", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["hasResponded"])
}
