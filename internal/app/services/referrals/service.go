// Package referrals pays the referrer's reward when a referred customer
// completes their first delivered order.
package referrals

import (
	"context"

	"github.com/marketrun/platform/internal/app/domain/order"
	"github.com/marketrun/platform/internal/app/services/wallets"
	"github.com/marketrun/platform/internal/app/storage"
	"github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/internal/notify"
	"github.com/marketrun/platform/pkg/logger"
)

// DefaultReward is the referrer's payout in naira.
const DefaultReward int64 = 500

// Service credits referral rewards into the referrer's wallet.
type Service struct {
	users    storage.UserStore
	wallets  *wallets.Service
	notifier notify.Notifier
	reward   int64
	log      *logger.Logger
}

// New creates the referrals service. A non-positive reward disables payouts.
func New(users storage.UserStore, w *wallets.Service, notifier notify.Notifier, reward int64, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("referrals")
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}
	return &Service{users: users, wallets: w, notifier: notifier, reward: reward, log: log}
}

// OnOrderDelivered is registered as a delivered hook on the orders service.
// The reward is keyed to the referred user's id through the wallet reference,
// so a second delivered order (or a replayed transition) cannot pay twice.
func (s *Service) OnOrderDelivered(ctx context.Context, o order.Order) {
	if s.reward <= 0 {
		return
	}
	user, err := s.users.GetUser(ctx, o.UserID)
	if err != nil {
		s.log.WithError(err).Warnf("referral check: load user %s failed", o.UserID)
		return
	}
	if user.ReferredBy == "" {
		return
	}

	reference := "referral_" + user.ID
	_, err = s.wallets.Credit(ctx, user.ReferredBy, s.reward, "referral reward", reference)
	if err != nil {
		if errors.Is(err, errors.KindConflict) {
			// Reward already paid for this referred user.
			return
		}
		s.log.WithError(err).Warnf("referral reward for user %s failed", user.ReferredBy)
		return
	}
	s.log.Infof("referral reward %d paid to %s for %s", s.reward, user.ReferredBy, user.ID)
	s.notifier.WalletCredited(ctx, user.ReferredBy, s.reward, "referral reward")
}
