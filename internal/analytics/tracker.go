package analytics

import "github.com/ketowell/ketowell-backend/internal/consent"

// Tracker forwards named events to a product-analytics backend. Callers fire
// and forget; implementations must never block request handling on delivery.
type Tracker interface {
	Track(event, distinctID string, props map[string]any)
	Close() error
}

// Noop is the default Tracker when no analytics backend is configured.
type Noop struct{}

func (Noop) Track(string, string, map[string]any) {}
func (Noop) Close() error                         { return nil }

// Consented gates an inner Tracker on the user's analytics consent. Events
// are dropped, not queued, while consent is absent or withdrawn.
type Consented struct {
	store consent.Store
	inner Tracker
}

func WithConsent(store consent.Store, inner Tracker) *Consented {
	return &Consented{store: store, inner: inner}
}

func (c *Consented) Track(event, distinctID string, props map[string]any) {
	rec := c.store.Load()
	if !rec.HasResponded || !rec.Preferences.Analytics {
		return
	}
	c.inner.Track(event, distinctID, props)
}

func (c *Consented) Close() error { return c.inner.Close() }
