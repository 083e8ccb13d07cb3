package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ketowell/ketowell-backend/internal/email"
	"github.com/ketowell/ketowell-backend/internal/models"
	"github.com/ketowell/ketowell-backend/internal/payments"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
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
	return db
}

var testDBSeq atomic.Int64

// newTestDB opens a fresh shared-cache in-memory database. The sequence
// number keeps the DSN unique across repeated runs of the same test, so
// go test -count=N never sees a previous invocation's rows.
func newTestDB(t *testing.T) *gorm.DB {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return openTestDB(t, fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, testDBSeq.Add(1)))
}

// newFileDB backs the concurrency tests: shared-memory SQLite serializes
// writers badly under contention, a WAL file with a busy timeout does not.
func newFileDB(t *testing.T) *gorm.DB {
	path := filepath.Join(t.TempDir(), "test.db")
	return openTestDB(t, "file:"+path+"?_busy_timeout=5000&_journal_mode=WAL")
}

type fakeTracker struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeTracker) Track(event, _ string, _ map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeTracker) Close() error { return nil }

func (f *fakeTracker) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

type fakeSender struct {
	mu   sync.Mutex
	sent []email.Message
	fail bool
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", fmt.Errorf("provider unavailable")
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("msg_%d", len(f.sent)), nil
}

func (f *fakeSender) messages() []email.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]email.Message(nil), f.sent...)
}

type fakeProvider struct {
	mu       sync.Mutex
	sessions map[string]*payments.Session
	created  []payments.CreateSessionParams
	getCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: make(map[string]*payments.Session)}
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, params payments.CreateSessionParams) (*payments.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, params)
	id := fmt.Sprintf("cs_test_%d", len(f.created))
	return &payments.Session{ID: id, URL: "https://checkout.test/" + id}, nil
}

func (f *fakeProvider) GetCheckoutSession(_ context.Context, id string) (*payments.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	sess, ok := f.sessions[id]
	if !ok {
		return nil, payments.ErrSessionNotFound
	}
	return sess, nil
}
