package promos

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/marketrun/platform/internal/app/system"
)

// Sweeper periodically deactivates expired or exhausted promo codes so that
// listings stay clean and validation never races a stale Active flag. It runs
// under the system manager next to the other background services.
type Sweeper struct {
	svc      *Service
	cron     *cron.Cron
	schedule string
}

var _ system.Service = (*Sweeper)(nil)

// NewSweeper builds a sweeper on the given cron schedule. An empty schedule
// defaults to hourly.
func NewSweeper(svc *Service, schedule string) *Sweeper {
	if schedule == "" {
		schedule = "@hourly"
	}
	return &Sweeper{svc: svc, schedule: schedule}
}

// Name implements system.Service.
func (w *Sweeper) Name() string { return "promo-sweeper" }

// Start implements system.Service.
func (w *Sweeper) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(w.schedule, func() { w.sweep(context.Background()) }); err != nil {
		return err
	}
	w.cron = c
	c.Start()
	return nil
}

// Stop implements system.Service.
func (w *Sweeper) Stop(ctx context.Context) error {
	if w.cron == nil {
		return nil
	}
	stopped := w.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	w.cron = nil
	return nil
}

func (w *Sweeper) sweep(ctx context.Context) {
	promos, err := w.svc.store.ListPromos(ctx)
	if err != nil {
		w.svc.log.WithError(err).Warnf("promo sweep: list failed")
		return
	}
	now := w.svc.now()
	for _, p := range promos {
		if !p.Active {
			continue
		}
		if !p.Exhausted(now) {
			continue
		}
		p.Active = false
		if _, err := w.svc.store.UpdatePromo(ctx, p); err != nil {
			w.svc.log.WithError(err).Warnf("promo sweep: deactivate %s failed", p.Code)
			continue
		}
		w.svc.log.WithField("expires_at", p.ExpiresAt.Format(time.RFC3339)).Infof("promo %s deactivated", p.Code)
	}
}
