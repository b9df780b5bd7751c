package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/jonwraymond/sfquery/health"
)

const shutdownTimeout = 5 * time.Second

func serveHealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve-health",
		Usage: "serve /healthz, /readyz and /health for the configured storefront",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("SFQUERY_HEALTH_ADDR"),
				),
				Value: ":8080",
			},
			&cli.DurationFlag{
				Name:  "check-timeout",
				Usage: "bound on one round of checks",
				Value: health.DefaultCheckTimeout,
			},
			&cli.IntFlag{
				Name:  "store-warn",
				Usage: "cached entries at which the store reports degraded (0 disables)",
				Value: 10000,
			},
			&cli.IntFlag{
				Name:  "store-max",
				Usage: "cached entries at which the store reports unhealthy (0 disables)",
				Value: 100000,
			},
		},
		Action: serveHealthAction,
	}
}

func serveHealthAction(ctx context.Context, cmd *cli.Command) (err error) {
	s, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close(context.WithoutCancel(ctx)))
	}()

	agg := newAggregator(s, cmd.Duration("check-timeout"), health.StoreCheckerConfig{
		WarnEntries: cmd.Int("store-warn"),
		MaxEntries:  cmd.Int("store-max"),
	})

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, agg)
	if cmd.String(metricsExporterFlag.Name) == "prometheus" {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	srv := &http.Server{
		Addr:              cmd.String("addr"),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// newAggregator registers the storefront ping, its circuit breaker and the
// query store.
func newAggregator(s *session, timeout time.Duration, storeCfg health.StoreCheckerConfig) *health.Aggregator {
	agg := health.NewAggregator(timeout)
	agg.Register(health.NewPingChecker("storefront", s.storefront))
	agg.Register(health.NewBreakerChecker("storefront-breaker", s.storefront.Breaker()))
	agg.Register(health.NewStoreChecker(s.store, storeCfg))
	return agg
}
