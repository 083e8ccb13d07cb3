package analytics

import (
	"log/slog"

	"github.com/ketowell/ketowell-backend/internal/config"
	"github.com/posthog/posthog-go"
)

// PostHogTracker sends events to PostHog via its batching client.
type PostHogTracker struct {
	client posthog.Client
}

func NewPostHogTracker(cfg *config.Config) (*PostHogTracker, error) {
	client, err := posthog.NewWithConfig(cfg.PostHogAPIKey, posthog.Config{
		Endpoint: cfg.PostHogEndpoint,
	})
	if err != nil {
		return nil, err
	}
	return &PostHogTracker{client: client}, nil
}

func (t *PostHogTracker) Track(event, distinctID string, props map[string]any) {
	err := t.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: posthog.Properties(props),
	})
	if err != nil {
		// Fire-and-forget: analytics failures never affect the request path.
		slog.Warn("analytics enqueue failed", "event", event, "error", err)
	}
}

func (t *PostHogTracker) Close() error {
	return t.client.Close()
}
