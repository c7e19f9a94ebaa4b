package common

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/onflow/evm-bench/module/metrics"
)

const pushInterval = 10 * time.Second

// InitMetricsFlags adds the --metrics-port and --pushgateway flags to cmd
func InitMetricsFlags(cmd *cobra.Command, port *uint, pushgateway *string) {
	cmd.Flags().UintVar(port, "metrics-port", 0, "port of the prometheus /metrics endpoint, disabled when 0")
	cmd.Flags().StringVar(pushgateway, "pushgateway", "", "address of a prometheus pushgateway to push metrics to")
}

// StartMetrics serves registry on port and pushes it to pushgateway, each only
// when set. The returned function stops both, pushing the final values first.
// Calls after the first one do nothing.
func StartMetrics(log zerolog.Logger, registry *prometheus.Registry, port uint, pushgateway string, job string) func() {
	var stops []func()

	if port > 0 {
		server := metrics.NewServer(log, port, registry, true)
		<-server.Ready()
		stops = append(stops, func() { <-server.Done() })
	}

	if pushgateway != "" {
		pusher := metrics.NewPusher(log, pushgateway, job, registry, pushInterval)
		ctx, cancel := context.WithCancel(context.Background())
		pushed := make(chan struct{})
		go func() {
			pusher.Run(ctx)
			close(pushed)
		}()
		stops = append(stops, func() {
			cancel()
			<-pushed
		})
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, stop := range stops {
				stop()
			}
		})
	}
}
