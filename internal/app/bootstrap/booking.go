package bootstrap

import (
	"fmt"
	"time"

	"github.com/wolfman30/mojito-booking/internal/booking"
	appconfig "github.com/wolfman30/mojito-booking/internal/config"
	"github.com/wolfman30/mojito-booking/internal/observability/metrics"
	"github.com/wolfman30/mojito-booking/internal/session"
	"github.com/wolfman30/mojito-booking/internal/webhook"
	"github.com/wolfman30/mojito-booking/pkg/logging"
)

// BuildWebhookClient wires the automation webhook client.
func BuildWebhookClient(cfg *appconfig.Config, m *metrics.BookingMetrics, logger *logging.Logger) (*webhook.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	client, err := webhook.NewClient(cfg.WebhookURL,
		webhook.WithTimeout(cfg.WebhookTimeout),
		webhook.WithLogger(logger.Component("webhook")),
		webhook.WithLatencyObserver(m),
	)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: webhook client: %w", err)
	}
	return client, nil
}

// BuildSessionStore returns a session store whose forms submit through
// sender. The caller owns Start and Close.
func BuildSessionStore(cfg *appconfig.Config, sender booking.Sender, m *metrics.BookingMetrics, logger *logging.Logger) *session.Store {
	ttl := 30 * time.Minute
	if cfg != nil && cfg.SessionTTL > 0 {
		ttl = cfg.SessionTTL
	}
	controllerLogger := logger.Component("booking")
	return session.NewStore(ttl, func(form *booking.Form) *booking.Controller {
		return booking.NewController(form, sender,
			booking.WithLogger(controllerLogger),
			booking.WithRecorder(m),
		)
	}, session.WithSizeObserver(m.SetActiveSessions))
}
