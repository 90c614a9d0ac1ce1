// Package notify delivers alert trigger notifications. Delivery is the
// embedder's concern; the engine only invokes the callback.
package notify

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"quotewatch/internal/models"
)

// Notifier delivers a fired alert somewhere a user will see it.
type Notifier interface {
	AlertTriggered(ctx context.Context, alert models.Alert) error
}

// TerminalNotifier prints fired alerts to stdout and logs them.
type TerminalNotifier struct {
	logger zerolog.Logger
}

// NewTerminalNotifier creates a terminal notifier.
func NewTerminalNotifier(logger zerolog.Logger) *TerminalNotifier {
	return &TerminalNotifier{logger: logger.With().Str("component", "notify").Logger()}
}

// AlertTriggered implements Notifier.
func (n *TerminalNotifier) AlertTriggered(_ context.Context, alert models.Alert) error {
	when := time.Now().Format("15:04:05")
	if alert.LastTriggered != nil {
		when = alert.LastTriggered.Format("15:04:05")
	}
	fmt.Fprintf(os.Stdout, "\a[%s] ALERT %s (%s)\n", when, alert.Name, alert.ID)

	n.logger.Info().
		Str("alert", alert.ID).
		Str("user", alert.UserID).
		Str("name", alert.Name).
		Msg("alert delivered")
	return nil
}
