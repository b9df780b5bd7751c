package main

import (
	"context"
	"errors"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/jonwraymond/sfquery/cache"
	"github.com/jonwraymond/sfquery/observe"
	"github.com/jonwraymond/sfquery/query"
	"github.com/jonwraymond/sfquery/storefront"
)

var (
	envFileFlag = &cli.StringSliceFlag{
		Name:  "env-file",
		Usage: ".env files to read storefront settings from; the process environment wins",
		Value: []string{".env"},
	}

	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "log level (debug, info, warn, error); empty disables logging",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SFQUERY_LOG_LEVEL"),
		),
		Value: "warn",
	}

	traceExporterFlag = &cli.StringFlag{
		Name:  "trace-exporter",
		Usage: "span exporter (stdout, otlp, jaeger); empty disables tracing",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SFQUERY_TRACE_EXPORTER"),
		),
	}

	metricsExporterFlag = &cli.StringFlag{
		Name:  "metrics-exporter",
		Usage: "metrics exporter (stdout, otlp, prometheus); empty disables metrics",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SFQUERY_METRICS_EXPORTER"),
		),
	}
)

func newApp() *cli.Command {
	app := &cli.Command{
		Name:    "sfquery",
		Usage:   "Storefront query cache",
		Version: version,
		Flags: []cli.Flag{
			envFileFlag,
			logLevelFlag,
			traceExporterFlag,
			metricsExporterFlag,
		},
		Commands: []*cli.Command{
			queryCommand(),
			serveHealthCommand(),
		},
	}

	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}
	return app
}

// observeConfig maps the global flags onto an observe.Config.
func observeConfig(cmd *cli.Command) observe.Config {
	traceExporter := cmd.String(traceExporterFlag.Name)
	metricsExporter := cmd.String(metricsExporterFlag.Name)
	logLevel := cmd.String(logLevelFlag.Name)

	return observe.Config{
		ServiceName: "sfquery",
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   traceExporter != "" && traceExporter != "none",
			Exporter:  traceExporter,
			SamplePct: 1,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  metricsExporter != "" && metricsExporter != "none",
			Exporter: metricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: logLevel != "",
			Level:   logLevel,
		},
	}
}

// session holds everything a command needs to talk to the storefront.
type session struct {
	obs        observe.Observer
	storefront *storefront.Client
	store      *cache.MemoryStore
	queries    *query.Client
}

func setup(ctx context.Context, cmd *cli.Command) (*session, error) {
	obs, err := observe.NewObserver(ctx, observeConfig(cmd))
	if err != nil {
		return nil, err
	}

	s, err := newSession(ctx, cmd, obs)
	if err != nil {
		return nil, errors.Join(err, obs.Shutdown(ctx))
	}
	return s, nil
}

func newSession(ctx context.Context, cmd *cli.Command, obs observe.Observer) (*session, error) {
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, err
	}

	cfg, err := storefront.LoadConfig(ctx, cmd.StringSlice(envFileFlag.Name)...)
	if err != nil {
		return nil, err
	}
	sf, err := storefront.New(cfg)
	if err != nil {
		return nil, err
	}

	store := cache.NewMemoryStore()
	qc, err := query.NewClient(sf,
		query.WithStore(store),
		query.WithShaper(storefront.Shaper),
		query.WithMiddleware(mw),
	)
	if err != nil {
		return nil, err
	}

	return &session{obs: obs, storefront: sf, store: store, queries: qc}, nil
}

func (s *session) Close(ctx context.Context) error {
	return s.obs.Shutdown(ctx)
}
