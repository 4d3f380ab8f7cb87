package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mrops-br/product-catalog/internal/infrastructure/config"
	"github.com/mrops-br/product-catalog/internal/infrastructure/http/handler"
	"github.com/mrops-br/product-catalog/internal/infrastructure/http/middleware"
	"github.com/mrops-br/product-catalog/internal/infrastructure/telemetry"
)

const (
	meterName         = "product-catalog"
	readHeaderTimeout = 5 * time.Second
)

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	config    *config.ServerConfig
	handler   *handler.ProductHandler
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
	srv       *http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.ServerConfig,
	handler *handler.ProductHandler,
	logger *slog.Logger,
	telem *telemetry.Telemetry,
) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		handler:   handler,
		logger:    logger,
		telemetry: telem,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.srv = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(middleware.StructuredLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.RouteSpanName())

	meter := s.telemetry.MeterProvider.Meter(meterName)
	s.router.Use(middleware.ActiveRequestsMiddleware(meter))
	s.router.Use(middleware.DurationMillisecondsMiddleware(meter))
}

func (s *Server) setupRoutes() {
	// Inline so the route pattern is already resolved.
	products := s.router.With(middleware.HTTPRouteContext())

	products.Post("/products", s.handler.CreateProduct)
	products.Get("/products", s.handler.ListProducts)
	products.Get("/products/{id}", s.handler.GetProduct)
	products.Put("/products/{id}", s.handler.UpdateProduct)
	products.Delete("/products/{id}", s.handler.DeleteProduct)
	products.Post("/products/{id}/stock/add", s.handler.AddStock)
	products.Post("/products/{id}/stock/remove", s.handler.RemoveStock)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus scrape endpoint for the OpenTelemetry meter provider.
	s.router.Method(http.MethodGet, "/metrics", s.telemetry.MetricsHandler())
}

// Handler returns the router wrapped with otelhttp, which emits the standard
// http.server.* metrics and the server span. RouteSpanName later attaches the
// route pattern to both.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "http-server",
		otelhttp.WithTracerProvider(s.telemetry.TracerProvider),
		otelhttp.WithMeterProvider(s.telemetry.MeterProvider),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
	)
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		slog.String("address", s.srv.Addr),
	)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.srv.Shutdown(ctx)
}
