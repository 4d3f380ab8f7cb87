package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mrops-br/product-catalog/internal/app/dto"
	"github.com/mrops-br/product-catalog/internal/app/service"
	"github.com/mrops-br/product-catalog/internal/app/usecase"
	"github.com/mrops-br/product-catalog/internal/domain"
	"github.com/mrops-br/product-catalog/internal/infrastructure/config"
	"github.com/mrops-br/product-catalog/internal/infrastructure/http"
	"github.com/mrops-br/product-catalog/internal/infrastructure/http/handler"
	"github.com/mrops-br/product-catalog/internal/infrastructure/httpclient"
	"github.com/mrops-br/product-catalog/internal/infrastructure/repository/memory"
	"github.com/mrops-br/product-catalog/internal/infrastructure/repository/postgres"
	"github.com/mrops-br/product-catalog/internal/infrastructure/repository/remote"
	"github.com/mrops-br/product-catalog/internal/infrastructure/telemetry"
	"github.com/mrops-br/product-catalog/internal/presentation/viewmodel"
	"github.com/mrops-br/product-catalog/internal/shared/errs"
)

const (
	instrumentationName = "product-catalog"
	shutdownTimeout     = 10 * time.Second
)

func main() {
	app := &cli.App{
		Name:   "product-catalog",
		Usage:  "product catalog API and client",
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: runServe,
			},
			{
				Name:  "create",
				Usage: "create a product in the remote catalog or database set by REPOSITORY_DRIVER",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "description", Required: true},
					&cli.Float64Flag{Name: "price", Required: true},
					&cli.StringFlag{Name: "category", Required: true},
					&cli.IntFlag{Name: "stock"},
				},
				Action: runCreate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	telem, err := telemetry.NewTelemetry(&cfg.OTLP, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdownTelemetry(telem)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer := telem.TracerProvider.Tracer(instrumentationName)
	meter := telem.MeterProvider.Meter(instrumentationName)
	logger := telem.Logger

	logger.Info("Starting Products API",
		slog.String("repository_driver", cfg.Repository.Driver),
	)

	repo, closeRepo, err := newRepository(ctx, cfg, telem)
	if err != nil {
		return err
	}
	defer closeRepo()

	productService := service.NewProductService(repo, tracer, meter, logger)
	productHandler := handler.NewProductHandler(productService, logger)
	server := http.NewServer(&cfg.Server, productHandler, logger, telem)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", slog.String("error", err.Error()))
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func runCreate(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	return createProduct(c.Context, cfg, usecase.CreateProductInput{
		Name:        c.String("name"),
		Description: c.String("description"),
		Price:       c.Float64("price"),
		Category:    c.String("category"),
		Stock:       c.Int("stock"),
	}, os.Stdout, os.Stderr)
}

// createProduct runs the create view model against the configured repository.
// Only the created product is written to stdout; progress and logs go to stderr.
func createProduct(ctx context.Context, cfg *config.Config, input usecase.CreateProductInput, stdout, stderr io.Writer) error {
	if cfg.Repository.Driver == config.DriverMemory {
		return cli.Exit("create needs a persistent repository: set REPOSITORY_DRIVER to remote or postgres", 1)
	}

	cfg.OTLP.Enabled = false
	telem, err := telemetry.NewNoOpTelemetryWithWriter(stderr, &cfg.OTLP, "error")
	if err != nil {
		return err
	}
	defer shutdownTelemetry(telem)

	repo, closeRepo, err := newRepository(ctx, cfg, telem)
	if err != nil {
		return err
	}
	defer closeRepo()

	create := usecase.NewCreateProductUseCase(
		repo,
		telem.TracerProvider.Tracer(instrumentationName),
		telem.MeterProvider.Meter(instrumentationName),
		telem.Logger,
	)

	vm := viewmodel.NewCreateProductViewModel(create)
	unsubscribe := vm.Subscribe(func(s viewmodel.CreateProductState) {
		switch {
		case s.Loading:
			fmt.Fprintln(stderr, "Creating product...")
		case s.Success:
			fmt.Fprintln(stderr, "Product created")
		}
	})
	defer unsubscribe()

	result := vm.Execute(ctx, input)
	if result.IsLeft() {
		err := result.LeftValue()
		return cli.Exit(fmt.Sprintf("%s: %s", errs.KindOf(err), err.Error()), 1)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(dto.ToProductResponse(vm.State().Product))
}

// newRepository builds the store selected by REPOSITORY_DRIVER. The returned
// function releases its resources.
func newRepository(ctx context.Context, cfg *config.Config, telem *telemetry.Telemetry) (domain.ProductRepository, func(), error) {
	tracer := telem.TracerProvider.Tracer(instrumentationName)
	logger := telem.Logger

	switch cfg.Repository.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Repository.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return postgres.NewProductRepository(db, tracer, logger), func() { _ = db.Close() }, nil

	case config.DriverRemote:
		client := httpclient.New(cfg.Repository.RemoteBaseURL, cfg.Repository.ClientTimeout, httpclient.WithLogger(logger))
		return remote.NewProductRepository(client, tracer, logger), func() {}, nil

	default:
		return memory.NewProductRepository(tracer, logger), func() {}, nil
	}
}

func shutdownTelemetry(telem *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := telem.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down telemetry: %v", err)
	}
}
