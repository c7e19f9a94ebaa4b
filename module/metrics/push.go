package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog"
)

// Pusher periodically pushes the content of a gatherer to a prometheus pushgateway
type Pusher struct {
	log      zerolog.Logger
	pusher   *push.Pusher
	interval time.Duration
}

// NewPusher creates a pusher for the gateway at url (host:port), reporting under job
func NewPusher(log zerolog.Logger, url string, job string, gatherer prometheus.Gatherer, interval time.Duration) *Pusher {
	return &Pusher{
		log:      log.With().Str("component", "metrics_pusher").Str("pushgateway", url).Logger(),
		pusher:   push.New(url, job).Gatherer(gatherer),
		interval: interval,
	}
}

// Push pushes the current metrics once
func (p *Pusher) Push() error {
	return p.pusher.Push()
}

// Run pushes metrics every interval until ctx is cancelled, and once more on exit
func (p *Pusher) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := p.Push(); err != nil {
				p.log.Warn().Err(err).Msg("failed to push final metrics to pushgateway")
			}
			return
		case <-t.C:
			if err := p.Push(); err != nil {
				p.log.Warn().Err(err).Msg("failed to push metrics to pushgateway")
			}
		}
	}
}
