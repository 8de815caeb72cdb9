package bootstrap

import (
	"log/slog"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/config"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/statsd"
)

// BuildMetrics returns the StatsD client for cfg. A disabled or unreachable
// sink yields a no-op client so callers never branch on metrics.
func BuildMetrics(logger *slog.Logger, cfg config.ObservabilityConfig, appName string) *statsd.Client {
	if logger == nil {
		logger = slog.Default()
	}
	obsLogger := logger.With("component", "observability")

	tags := map[string]string{}
	if appName != "" {
		tags["app"] = appName
	}

	client, err := statsd.NewClient(statsd.Config{
		Enabled:    cfg.Metrics.IsEnabled(),
		Address:    cfg.Metrics.StatsdAddress,
		Prefix:     cfg.Metrics.Prefix,
		Logger:     obsLogger,
		GlobalTags: tags,
	})
	if err != nil {
		obsLogger.Error("failed to initialise statsd client", "error", err)
		client, _ = statsd.NewClient(statsd.Config{Logger: obsLogger})
		return client
	}
	if client.Enabled() {
		obsLogger.Info("statsd metrics enabled", "address", cfg.Metrics.StatsdAddress, "prefix", cfg.Metrics.Prefix)
	}
	return client
}
