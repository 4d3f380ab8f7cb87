package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mrops-br/product-catalog/internal/infrastructure/config"
)

// Telemetry holds all OpenTelemetry components
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Logger         *slog.Logger
	Registry       *prometheus.Registry

	teardown teardown
}

// NewTelemetry initializes all OpenTelemetry components. With export
// disabled it falls back to NewNoOpTelemetry.
func NewTelemetry(cfg *config.OTLPConfig, logLevel string) (*Telemetry, error) {
	if !cfg.Enabled {
		return NewNoOpTelemetry(cfg, logLevel)
	}

	ctx := context.Background()
	logger := NewLogger(os.Stdout, ParseLevel(logLevel), cfg.ServiceName, cfg.Environment)

	logger.Info("Initializing OpenTelemetry",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("service_name", cfg.ServiceName),
	)

	conn, err := grpc.NewClient(cfg.Endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	var td teardown
	td.add("otlp connection", func(context.Context) error { return conn.Close() })

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, td.abort(err)
	}

	tp, err := initTracerProvider(ctx, conn, res)
	if err != nil {
		return nil, td.abort(fmt.Errorf("failed to initialize tracer provider: %w", err))
	}
	td.add("tracer provider", tp.Shutdown)

	reg := prometheus.NewRegistry()
	mp, err := initMeterProvider(ctx, conn, reg, res)
	if err != nil {
		return nil, td.abort(fmt.Errorf("failed to initialize meter provider: %w", err))
	}
	td.add("meter provider", mp.Shutdown)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	logger.Info("Tracer and meter providers initialized (OTLP + Prometheus exporters)")

	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Logger:         logger,
		Registry:       reg,
		teardown:       td,
	}, nil
}

// NewNoOpTelemetry creates a telemetry instance that exports nothing over
// OTLP. Prometheus metrics are still collected. Logs go to stdout.
func NewNoOpTelemetry(cfg *config.OTLPConfig, logLevel string) (*Telemetry, error) {
	return NewNoOpTelemetryWithWriter(os.Stdout, cfg, logLevel)
}

// NewNoOpTelemetryWithWriter is NewNoOpTelemetry with logs written to w.
func NewNoOpTelemetryWithWriter(w io.Writer, cfg *config.OTLPConfig, logLevel string) (*Telemetry, error) {
	logger := NewLogger(w, ParseLevel(logLevel), cfg.ServiceName, cfg.Environment)

	res, err := newResource(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	var td teardown
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	td.add("tracer provider", tp.Shutdown)

	reg := prometheus.NewRegistry()
	mp, err := initMeterProvider(context.Background(), nil, reg, res)
	if err != nil {
		return nil, td.abort(fmt.Errorf("failed to initialize meter provider: %w", err))
	}
	td.add("meter provider", mp.Shutdown)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	logger.Info("Telemetry initialized in no-op mode (export disabled)")

	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Logger:         logger,
		Registry:       reg,
		teardown:       td,
	}, nil
}

// MetricsHandler serves the Prometheus registry.
func (t *Telemetry) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(t.Registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops every telemetry component. All components are
// stopped even when one fails; the failures are returned together.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.Logger.Info("Shutting down OpenTelemetry")

	if err := t.teardown.run(ctx); err != nil {
		t.Logger.Error("Failed to shutdown OpenTelemetry", slog.String("error", err.Error()))
		return err
	}

	t.Logger.Info("OpenTelemetry shutdown successfully")
	return nil
}

type teardownStep struct {
	name string
	fn   func(context.Context) error
}

// teardown releases components in reverse order of creation.
type teardown struct {
	steps []teardownStep
}

func (t *teardown) add(name string, fn func(context.Context) error) {
	t.steps = append(t.steps, teardownStep{name: name, fn: fn})
}

func (t *teardown) run(ctx context.Context) error {
	var result *multierror.Error
	for i := len(t.steps) - 1; i >= 0; i-- {
		step := t.steps[i]
		if err := step.fn(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	t.steps = nil
	return result.ErrorOrNil()
}

// abort releases what was created so far and returns err, joined with any
// release failures.
func (t *teardown) abort(err error) error {
	if cerr := t.run(context.Background()); cerr != nil {
		return multierror.Append(err, cerr)
	}
	return err
}
