package wallets

import (
	"context"
	"sync"
	"time"

	"github.com/marketrun/platform/internal/app/system"
	"github.com/marketrun/platform/pkg/logger"
)

// TopUpPoller settles pending top-ups whose payers never returned to the app
// after paying. It periodically re-verifies pending references against the
// gateway, with per-entry retry spacing, and times out entries the gateway
// never confirms.
type TopUpPoller struct {
	service  *Service
	interval time.Duration
	timeout  time.Duration
	log      *logger.Logger

	mu          sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	running     bool
	nextAttempt map[string]time.Time
}

var _ system.Service = (*TopUpPoller)(nil)

// NewTopUpPoller creates a poller over the service's store.
func NewTopUpPoller(service *Service, log *logger.Logger) *TopUpPoller {
	if log == nil {
		log = logger.NewDefault("wallet-topups")
	}
	return &TopUpPoller{
		service:     service,
		interval:    30 * time.Second,
		timeout:     30 * time.Minute,
		log:         log,
		nextAttempt: make(map[string]time.Time),
	}
}

// Name implements system.Service.
func (p *TopUpPoller) Name() string { return "wallet-topups" }

// Start implements system.Service.
func (p *TopUpPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				p.tick(runCtx)
			}
		}
	}()

	p.log.Info("wallet top-up poller started")
	return nil
}

// Stop implements system.Service.
func (p *TopUpPoller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (p *TopUpPoller) tick(ctx context.Context) {
	txs, err := p.service.store.ListPendingTopUps(ctx)
	if err != nil {
		p.log.WithError(err).Warn("list pending top-ups failed")
		return
	}

	now := time.Now()
	for _, tx := range txs {
		if !p.shouldAttempt(tx.ID, now) {
			continue
		}
		if now.Sub(tx.CreatedAt) > p.timeout {
			p.service.markAbandoned(ctx, tx)
			p.clearSchedule(tx.ID)
			continue
		}

		settled, err := p.service.CompleteTopUp(ctx, tx.Reference)
		if err != nil {
			p.log.WithError(err).Warnf("verify top-up %s failed", tx.Reference)
			p.scheduleNext(tx.ID, p.interval*2)
			continue
		}
		if settled.Status == tx.Status {
			// Gateway still reports pending.
			p.scheduleNext(tx.ID, p.interval*2)
			continue
		}
		p.clearSchedule(tx.ID)
	}
}

func (p *TopUpPoller) shouldAttempt(id string, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, ok := p.nextAttempt[id]
	return !ok || now.After(next)
}

func (p *TopUpPoller) scheduleNext(id string, after time.Duration) {
	if after <= 0 {
		after = p.interval
	}
	p.mu.Lock()
	p.nextAttempt[id] = time.Now().Add(after)
	p.mu.Unlock()
}

func (p *TopUpPoller) clearSchedule(id string) {
	p.mu.Lock()
	delete(p.nextAttempt, id)
	p.mu.Unlock()
}
