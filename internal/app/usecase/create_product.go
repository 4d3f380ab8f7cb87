package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrops-br/product-catalog/internal/domain"
	"github.com/mrops-br/product-catalog/internal/shared/either"
)

// CreateProductInput carries the fields of a new product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Stock       int
}

// CreateProductResult holds the created product.
type CreateProductResult struct {
	Product *domain.Product
}

// CreateProductOutput is either the failure or the created product. A
// validation failure and a repository failure are both returned on the left,
// unchanged.
type CreateProductOutput = either.Either[error, CreateProductResult]

// CreateProductUseCase validates a new product and persists it.
type CreateProductUseCase struct {
	repo              domain.ProductRepository
	tracer            trace.Tracer
	logger            *slog.Logger
	createdCounter    metric.Int64Counter
	operationsCounter metric.Int64Counter
}

// NewCreateProductUseCase wires the use case.
func NewCreateProductUseCase(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *CreateProductUseCase {
	createdCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)
	operationsCounter, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &CreateProductUseCase{
		repo:              repo,
		tracer:            tracer,
		logger:            logger,
		createdCounter:    createdCounter,
		operationsCounter: operationsCounter,
	}
}

// Execute creates the product and stores it. There is no local recovery:
// whatever the entity or the repository reports is handed back as is.
func (uc *CreateProductUseCase) Execute(ctx context.Context, input CreateProductInput) CreateProductOutput {
	ctx, span := uc.tracer.Start(ctx, "CreateProductUseCase.Execute")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.name", input.Name),
		attribute.Float64("product.price", input.Price),
	)

	uc.logger.InfoContext(ctx, "Creating product",
		slog.String("name", input.Name),
		slog.Float64("price", input.Price),
		slog.String("category", input.Category),
	)

	product, err := domain.NewProduct(domain.CreateProductProps{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Stock:       input.Stock,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Validation failed")
		uc.logger.WarnContext(ctx, "Product validation failed",
			slog.String("error", err.Error()),
		)
		uc.recordOperation(ctx, "invalid")
		return either.Left[error, CreateProductResult](err)
	}

	span.SetAttributes(attribute.String("product.id", product.ID()))

	stored := uc.repo.Create(ctx, product)
	if stored.IsLeft() {
		storeErr := stored.LeftValue()
		span.RecordError(storeErr)
		span.SetStatus(codes.Error, "Failed to store product")
		uc.logger.ErrorContext(ctx, "Failed to store product",
			slog.String("product_id", product.ID()),
			slog.String("error", storeErr.Error()),
		)
		uc.recordOperation(ctx, "failure")
		return either.Left[error, CreateProductResult](storeErr)
	}

	// Remote stores assign their own IDs.
	product = stored.RightValue()

	uc.createdCounter.Add(ctx, 1)
	uc.recordOperation(ctx, "success")

	uc.logger.InfoContext(ctx, "Product created successfully",
		slog.String("product_id", product.ID()),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return either.Right[error](CreateProductResult{Product: product})
}

func (uc *CreateProductUseCase) recordOperation(ctx context.Context, result string) {
	uc.operationsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", "create"),
			attribute.String("result", result),
		),
	)
}
