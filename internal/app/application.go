// Package app wires the domain services together and manages their
// lifecycle.
package app

import (
	"context"
	"fmt"

	"github.com/marketrun/platform/internal/app/pricing"
	"github.com/marketrun/platform/internal/app/services/accounts"
	"github.com/marketrun/platform/internal/app/services/carts"
	"github.com/marketrun/platform/internal/app/services/catalogsvc"
	checkoutsvc "github.com/marketrun/platform/internal/app/services/checkout"
	orderssvc "github.com/marketrun/platform/internal/app/services/orders"
	promossvc "github.com/marketrun/platform/internal/app/services/promos"
	"github.com/marketrun/platform/internal/app/services/referrals"
	walletssvc "github.com/marketrun/platform/internal/app/services/wallets"
	"github.com/marketrun/platform/internal/app/storage"
	"github.com/marketrun/platform/internal/app/storage/memory"
	"github.com/marketrun/platform/internal/app/system"
	"github.com/marketrun/platform/internal/notify"
	"github.com/marketrun/platform/internal/payment"
	"github.com/marketrun/platform/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users     storage.UserStore
	Addresses storage.AddressStore
	Catalog   storage.CatalogStore
	Carts     storage.CartStore
	Promos    storage.PromoStore
	Wallets   storage.WalletStore
	Orders    storage.OrderStore
}

// Options tunes optional collaborators. The zero value is a working
// development configuration.
type Options struct {
	// Gateway handles card payments. Nil disables online checkout and card
	// top-ups.
	Gateway payment.Gateway
	// Notifier receives customer-facing events. Nil logs them.
	Notifier notify.Notifier
	// FeeTable overrides the delivery fee schedule.
	FeeTable *pricing.FeeTable
	// ReferralReward is the referrer payout in naira. Zero uses the default;
	// negative disables payouts.
	ReferralReward int64
	// PromoSweepSchedule is the cron spec for the promo sweeper.
	PromoSweepSchedule string
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Accounts  *accounts.Service
	Catalog   *catalogsvc.Service
	Carts     *carts.Service
	Promos    *promossvc.Service
	Wallets   *walletssvc.Service
	Orders    *orderssvc.Service
	Checkout  *checkoutsvc.Service
	Referrals *referrals.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Addresses == nil {
		stores.Addresses = mem
	}
	if stores.Catalog == nil {
		stores.Catalog = mem
	}
	if stores.Carts == nil {
		stores.Carts = mem
	}
	if stores.Promos == nil {
		stores.Promos = mem
	}
	if stores.Wallets == nil {
		stores.Wallets = mem
	}
	if stores.Orders == nil {
		stores.Orders = mem
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}
	table := pricing.DefaultFeeTable()
	if opts.FeeTable != nil {
		table = *opts.FeeTable
	}
	reward := referrals.DefaultReward
	if opts.ReferralReward > 0 {
		reward = opts.ReferralReward
	} else if opts.ReferralReward < 0 {
		reward = 0
	}

	manager := system.NewManager()

	acctService := accounts.New(stores.Users, stores.Addresses, log)
	catalogService := catalogsvc.New(stores.Catalog, log)
	cartService := carts.New(stores.Carts, catalogService, log)
	promoService := promossvc.New(stores.Promos, log)
	walletService := walletssvc.New(stores.Wallets, opts.Gateway, log)
	orderService := orderssvc.New(stores.Orders, notifier, log)
	referralService := referrals.New(stores.Users, walletService, notifier, reward, log)
	orderService.AttachDeliveredHook(referralService.OnOrderDelivered)

	checkoutService := checkoutsvc.New(checkoutsvc.Deps{
		Accounts: acctService,
		Catalog:  catalogService,
		Carts:    cartService,
		Promos:   promoService,
		Wallets:  walletService,
		Orders:   orderService,
		Gateway:  opts.Gateway,
		FeeTable: table,
		Log:      log,
	})

	services := []system.Service{
		promossvc.NewSweeper(promoService, opts.PromoSweepSchedule),
	}
	if opts.Gateway != nil {
		services = append(services, walletssvc.NewTopUpPoller(walletService, log))
	} else {
		log.Warn("payment gateway not configured; online checkout and card top-ups disabled")
	}

	for _, svc := range services {
		if err := manager.Register(svc); err != nil {
			return nil, fmt.Errorf("register %s: %w", svc.Name(), err)
		}
	}

	return &Application{
		manager:   manager,
		log:       log,
		Accounts:  acctService,
		Catalog:   catalogService,
		Carts:     cartService,
		Promos:    promoService,
		Wallets:   walletService,
		Orders:    orderService,
		Checkout:  checkoutService,
		Referrals: referralService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
