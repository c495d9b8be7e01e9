// Package notify defines the fire-and-forget notification contract. Delivery
// (email/push) is a collaborator concern; correctness never depends on it.
package notify

import (
	"context"

	"github.com/marketrun/platform/internal/app/domain/order"
	"github.com/marketrun/platform/pkg/logger"
)

// Notifier receives user-facing events. Implementations must not block the
// caller on delivery.
type Notifier interface {
	OrderPlaced(ctx context.Context, o order.Order)
	OrderStatusChanged(ctx context.Context, o order.Order, step order.TrackingStep)
	WalletCredited(ctx context.Context, userID string, amount int64, description string)
}

// LogNotifier writes notifications to the log. It stands in for the email and
// push channels in development and tests.
type LogNotifier struct {
	log *logger.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier that logs each event.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.NewDefault("notify")
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) OrderPlaced(_ context.Context, o order.Order) {
	n.log.WithField("order_id", o.ID).Infof("order placed for user %s, total %d", o.UserID, o.Total)
}

func (n *LogNotifier) OrderStatusChanged(_ context.Context, o order.Order, step order.TrackingStep) {
	n.log.WithField("order_id", o.ID).Infof("order %s: %s", o.Status, step.Label)
}

func (n *LogNotifier) WalletCredited(_ context.Context, userID string, amount int64, description string) {
	n.log.WithField("user_id", userID).Infof("wallet credited %d: %s", amount, description)
}
