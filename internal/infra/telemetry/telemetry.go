package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/chirpnet/chirp-auth/internal/infra/config"
)

// Provider bundles the process-level telemetry handles: the Prometheus
// build-info gauge and, when an OTLP endpoint is configured, the tracer
// provider.
type Provider struct {
	buildInfo prometheus.Gauge
	tracing   *TracerProvider
}

// Attach configures telemetry exporters and returns a provider handle.
// Tracing is optional: with no OTLP endpoint configured only the
// Prometheus side is set up.
func Attach(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	buildInfo := promauto.NewGauge(prometheus.GaugeOpts{
		Namespace:   "chirp",
		Name:        "build_info",
		Help:        "Build and environment information for the auth service.",
		ConstLabels: prometheus.Labels{"service": cfg.Telemetry.ServiceName, "env": cfg.App.Env},
	})
	buildInfo.Set(1)

	p := &Provider{buildInfo: buildInfo}

	if cfg.Telemetry.OTLPEndpoint != "" {
		tracing, err := NewTracerProvider(ctx, cfg.Telemetry, logger)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		p.tracing = tracing
	}

	return p, nil
}

// Tracing returns the tracer provider, or nil when tracing is disabled.
func (p *Provider) Tracing() *TracerProvider {
	if p == nil {
		return nil
	}
	return p.tracing
}

// Shutdown flushes pending spans. Safe to call when tracing is disabled.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tracing == nil {
		return nil
	}
	return p.tracing.Shutdown(ctx)
}
