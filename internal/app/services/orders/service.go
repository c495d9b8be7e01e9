// Package orders owns the order lifecycle after checkout: reads scoped to the
// owner, admin status transitions, and the append-only tracking timeline.
package orders

import (
	"context"
	"strings"
	"time"

	"github.com/marketrun/platform/internal/app/domain/account"
	"github.com/marketrun/platform/internal/app/domain/order"
	"github.com/marketrun/platform/internal/app/storage"
	"github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/internal/notify"
	"github.com/marketrun/platform/pkg/logger"
)

// DeliveredHook runs after an order reaches delivered. Referral rewards hang
// off this; failures are logged, never propagated to the transition.
type DeliveredHook func(ctx context.Context, o order.Order)

// Service provides order lifecycle operations.
type Service struct {
	store    storage.OrderStore
	notifier notify.Notifier
	log      *logger.Logger
	now      func() time.Time

	deliveredHooks []DeliveredHook
}

// New creates the orders service.
func New(store storage.OrderStore, notifier notify.Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("orders")
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}
	return &Service{store: store, notifier: notifier, log: log, now: time.Now}
}

// AttachDeliveredHook registers a hook invoked whenever an order is marked
// delivered. Call during wiring, before the server starts.
func (s *Service) AttachDeliveredHook(hook DeliveredHook) {
	s.deliveredHooks = append(s.deliveredHooks, hook)
}

// stepLabels are the customer-facing timeline labels per status.
var stepLabels = map[order.Status]string{
	order.StatusPending:   "Order placed",
	order.StatusShopping:  "Shopper is picking your items",
	order.StatusPurchased: "Items purchased",
	order.StatusDelivery:  "Out for delivery",
	order.StatusDelivered: "Delivered",
	order.StatusCancelled: "Order cancelled",
}

// Create persists a new order in pending with its first tracking step.
// Checkout is the only caller.
func (s *Service) Create(ctx context.Context, o order.Order) (order.Order, error) {
	if o.UserID == "" {
		return order.Order{}, errors.Validation("order user id is required")
	}
	if len(o.Items) == 0 {
		return order.Order{}, errors.Validation("order must contain at least one item")
	}
	o.Status = order.StatusPending
	o.TrackingSteps = []order.TrackingStep{{Label: stepLabels[order.StatusPending], At: s.now()}}

	created, err := s.store.CreateOrder(ctx, o)
	if err != nil {
		return order.Order{}, err
	}
	s.log.WithField("order_id", created.ID).Infof("order created for user %s, total %d", created.UserID, created.Total)
	s.notifier.OrderPlaced(ctx, created)
	return created, nil
}

// Get returns an order visible to the actor: the owner or an admin.
func (s *Service) Get(ctx context.Context, actor account.User, id string) (order.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return order.Order{}, err
	}
	if o.UserID != actor.ID && !actor.IsAdmin() {
		return order.Order{}, errors.NotFound("order %s not found", id)
	}
	return o, nil
}

// List returns the actor's own orders.
func (s *Service) List(ctx context.Context, userID string) ([]order.Order, error) {
	return s.store.ListOrders(ctx, userID)
}

// ListAll returns every order, optionally filtered by status. Admin only.
func (s *Service) ListAll(ctx context.Context, actor account.User, status order.Status) ([]order.Order, error) {
	if !actor.IsAdmin() {
		return nil, errors.Forbidden("admin access required")
	}
	if status == "" {
		return s.store.ListAllOrders(ctx)
	}
	if !order.ValidStatus(status) {
		return nil, errors.Validation("unknown order status %q", status)
	}
	return s.store.ListOrdersByStatus(ctx, status)
}

// Advance moves an order to the next lifecycle state. Only admins may
// transition orders; the move must be a single forward step or a cancellation
// from a non-terminal state. Every transition appends a tracking step.
func (s *Service) Advance(ctx context.Context, actor account.User, orderID string, to order.Status) (order.Order, error) {
	if !actor.IsAdmin() {
		return order.Order{}, errors.Forbidden("only admins may update order status")
	}
	if !order.ValidStatus(to) {
		return order.Order{}, errors.Validation("unknown order status %q", to)
	}

	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}
	if !order.CanTransition(o.Status, to) {
		return order.Order{}, errors.Precondition("cannot move order from %s to %s", o.Status, to)
	}

	step := order.TrackingStep{Label: stepLabels[to], At: s.now()}
	o.Status = to
	o.TrackingSteps = append(o.TrackingSteps, step)

	updated, err := s.store.UpdateOrder(ctx, o)
	if err != nil {
		return order.Order{}, err
	}
	s.log.WithField("order_id", updated.ID).Infof("order moved to %s", to)
	s.notifier.OrderStatusChanged(ctx, updated, step)

	if to == order.StatusDelivered {
		for _, hook := range s.deliveredHooks {
			hook(ctx, updated)
		}
	}
	return updated, nil
}

// Cancel is Advance to cancelled, kept as its own method because the admin UI
// exposes it separately.
func (s *Service) Cancel(ctx context.Context, actor account.User, orderID string) (order.Order, error) {
	return s.Advance(ctx, actor, orderID, order.StatusCancelled)
}

// AssignAgent attaches the delivery agent's contact details to an order so the
// customer can reach whoever is carrying their groceries. Admin only.
func (s *Service) AssignAgent(ctx context.Context, actor account.User, orderID, name, phone string) (order.Order, error) {
	if !actor.IsAdmin() {
		return order.Order{}, errors.Forbidden("only admins may assign delivery agents")
	}
	if strings.TrimSpace(name) == "" {
		return order.Order{}, errors.Validation("agent name is required")
	}

	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}
	if order.Terminal(o.Status) {
		return order.Order{}, errors.Precondition("order %s is already %s", orderID, o.Status)
	}
	o.AgentName = strings.TrimSpace(name)
	o.AgentPhone = strings.TrimSpace(phone)
	return s.store.UpdateOrder(ctx, o)
}
