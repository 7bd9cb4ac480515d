package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/newthinker/cointools/internal/collector"
	"github.com/newthinker/cointools/internal/collector/crypto"
	"github.com/newthinker/cointools/internal/config"
	"github.com/newthinker/cointools/internal/logger"
	"github.com/newthinker/cointools/internal/metrics"
)

// app bundles everything a command needs.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	metrics   *metrics.Registry
	registry  *collector.Registry
	providers *collector.Providers
}

func setup() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log, err := logger.New(debug || cfg.Log.Development)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	client := crypto.NewClient(crypto.ClientConfig{
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: cfg.HTTP.UserAgent,
		Logger:    log,
		Metrics:   reg,
	})

	registry, providers := collector.Build(client, providerConfigs(cfg))
	log.Debug("providers registered", zap.Strings("providers", registry.Names()))

	return &app{
		cfg:       cfg,
		log:       log,
		metrics:   reg,
		registry:  registry,
		providers: providers,
	}, nil
}

func providerConfigs(cfg *config.Config) map[string]collector.Config {
	out := make(map[string]collector.Config, len(cfg.Providers))
	for name, p := range cfg.Providers {
		out[name] = collector.Config{Enabled: p.Enabled, BaseURL: p.BaseURL}
	}
	return out
}

// require fails when the named provider was disabled in config.
func (a *app) require(name string) error {
	if _, ok := a.registry.Get(name); !ok {
		return fmt.Errorf("provider %s is disabled", name)
	}
	return nil
}

// close flushes the metrics textfile and the logger.
func (a *app) close() {
	if a.metrics != nil && a.cfg.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(a.cfg.Metrics.Textfile, a.metrics.Registry); err != nil {
			a.log.Warn("writing metrics textfile failed",
				zap.String("path", a.cfg.Metrics.Textfile),
				zap.Error(err),
			)
		}
	}
	_ = a.log.Sync()
}

// withApp runs fn with a configured app and always closes it.
func withApp(fn func(a *app) error) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
