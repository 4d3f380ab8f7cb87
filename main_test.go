package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/mrops-br/product-catalog/internal/app/dto"
	"github.com/mrops-br/product-catalog/internal/app/service"
	"github.com/mrops-br/product-catalog/internal/app/usecase"
	"github.com/mrops-br/product-catalog/internal/infrastructure/config"
	apihttp "github.com/mrops-br/product-catalog/internal/infrastructure/http"
	"github.com/mrops-br/product-catalog/internal/infrastructure/http/handler"
	"github.com/mrops-br/product-catalog/internal/infrastructure/repository/memory"
	"github.com/mrops-br/product-catalog/internal/infrastructure/telemetry"
)

// remoteConfig starts a catalog API and returns a config pointing create at it.
func remoteConfig(t *testing.T) *config.Config {
	t.Helper()

	tel, err := telemetry.NewNoOpTelemetry(&config.OTLPConfig{ServiceName: "upstream", Environment: "test"}, "error")
	require.NoError(t, err)

	logger := telemetry.DiscardLogger()
	tracer := tel.TracerProvider.Tracer("test")
	svc := service.NewProductService(memory.NewProductRepository(tracer, logger), tracer, tel.MeterProvider.Meter("test"), logger)
	srv := apihttp.NewServer(&config.ServerConfig{Host: "127.0.0.1", Port: "0"}, handler.NewProductHandler(svc, logger), logger, tel)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &config.Config{
		OTLP: config.OTLPConfig{ServiceName: "cli", Environment: "test"},
		Repository: config.RepositoryConfig{
			Driver:        config.DriverRemote,
			RemoteBaseURL: ts.URL,
			ClientTimeout: 5 * time.Second,
		},
	}
}

var lampInput = usecase.CreateProductInput{
	Name:        "Desk Lamp",
	Description: "Warm light",
	Price:       40,
	Category:    "Office",
	Stock:       3,
}

func TestCreateProductRejectsMemoryDriver(t *testing.T) {
	cfg := &config.Config{Repository: config.RepositoryConfig{Driver: config.DriverMemory}}
	var stdout, stderr bytes.Buffer

	err := createProduct(context.Background(), cfg, lampInput, &stdout, &stderr)

	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())
	assert.Contains(t, err.Error(), "REPOSITORY_DRIVER")
	assert.Empty(t, stdout.String())
}

func TestCreateProductAgainstRemote(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := createProduct(context.Background(), remoteConfig(t), lampInput, &stdout, &stderr)

	require.NoError(t, err)
	var created dto.ProductResponse
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &created), "stdout holds only the product: %s", stdout.String())
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Desk Lamp", created.Name)
	assert.Contains(t, stderr.String(), "Creating product...")
	assert.Contains(t, stderr.String(), "Product created")
}

func TestCreateProductValidationFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	input := lampInput
	input.Price = 0

	err := createProduct(context.Background(), remoteConfig(t), input, &stdout, &stderr)

	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Contains(t, err.Error(), "Price must be greater than zero")
	assert.Empty(t, stdout.String())
}
