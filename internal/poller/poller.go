package poller

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/toyamagu-2021/argocd-exporter/internal/argocd"
	"github.com/toyamagu-2021/argocd-exporter/internal/argocd/client"
	"github.com/toyamagu-2021/argocd-exporter/internal/errors"
	"github.com/toyamagu-2021/argocd-exporter/internal/metrics"
)

// result holds the outcome of polling a single server
type result struct {
	server string
	apps   []argocd.ApplicationStatus
	err    error
}

// Poller drives the recurring poll loop: one concurrent fetch per
// configured server, a join barrier, then one registry commit per
// server. Failures are isolated per server; a broken server never
// blocks or corrupts another server's metrics.
type Poller struct {
	clients  []client.Interface
	registry *metrics.Registry
	interval time.Duration
	logger   *logrus.Logger
}

// New creates a Poller over the given clients
func New(clients []client.Interface, registry *metrics.Registry, interval time.Duration, logger *logrus.Logger) *Poller {
	return &Poller{
		clients:  clients,
		registry: registry,
		interval: interval,
		logger:   logger,
	}
}

// Run polls immediately, then on every interval tick until ctx is
// cancelled. The ticker measures cycle start to cycle start; when a
// cycle overruns the interval, the pending tick fires at once instead
// of double-firing.
func (p *Poller) Run(ctx context.Context) {
	p.PollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Poll loop stopped")
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce runs a single poll cycle across all servers
func (p *Poller) PollOnce(ctx context.Context) {
	start := time.Now()

	results := make([]result, len(p.clients))

	var wg sync.WaitGroup
	for i, c := range p.clients {
		wg.Add(1)
		go func(i int, c client.Interface) {
			defer wg.Done()
			results[i] = p.fetch(ctx, c)
		}(i, c)
	}
	wg.Wait()

	for _, res := range results {
		p.commit(res)
	}

	p.logger.WithFields(logrus.Fields{
		"servers":  len(p.clients),
		"duration": time.Since(start).String(),
	}).Debug("Poll cycle complete")
}

// fetch polls one server, converting panics into failed results so a
// misbehaving fetch can never take down the loop.
func (p *Poller) fetch(ctx context.Context, c client.Interface) (res result) {
	res.server = c.Server()

	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			p.logger.WithFields(logrus.Fields{
				"server":         res.server,
				"correlation_id": correlationID,
				"panic":          fmt.Sprintf("%v", r),
				"stack":          string(debug.Stack()),
			}).Error("Fetch panicked")

			res.apps = nil
			res.err = errors.NewInternalError(
				fmt.Sprintf("fetch panicked (correlation_id: %s)", correlationID), nil)
		}
	}()

	res.apps, res.err = c.ListApplications(ctx)
	return res
}

// commit applies one server's outcome to the registry. On success the
// server's app series are replaced wholesale; on failure they are left
// stale and only argocd_up drops to 0.
func (p *Poller) commit(res result) {
	if res.err != nil {
		p.logger.WithField("server", res.server).WithError(res.err).Error("Poll failed")
		p.registry.SetServerUp(res.server, false)
		return
	}

	p.registry.SetServerUp(res.server, true)
	p.registry.UpdateServerApps(res.server, res.apps)

	p.logger.WithFields(logrus.Fields{
		"server": res.server,
		"apps":   len(res.apps),
	}).Debug("Poll succeeded")
}
