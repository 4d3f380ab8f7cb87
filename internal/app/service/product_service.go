package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrops-br/product-catalog/internal/app/usecase"
	"github.com/mrops-br/product-catalog/internal/domain"
	"github.com/mrops-br/product-catalog/internal/shared/either"
	"github.com/mrops-br/product-catalog/internal/shared/errs"
	"github.com/mrops-br/product-catalog/internal/shared/pagination"
)

// UpdateProductInput is a partial update. Nil fields are left untouched.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
}

// ProductService handles product use cases
type ProductService struct {
	repo              domain.ProductRepository
	create            *usecase.CreateProductUseCase
	tracer            trace.Tracer
	logger            *slog.Logger
	productOperations metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		repo:              repo,
		create:            usecase.NewCreateProductUseCase(repo, tracer, meter, logger),
		tracer:            tracer,
		logger:            logger,
		productOperations: productOperations,
	}
}

// CreateProduct runs the create use case.
func (s *ProductService) CreateProduct(ctx context.Context, input usecase.CreateProductInput) either.Either[error, *domain.Product] {
	return either.Map(s.create.Execute(ctx, input), func(r usecase.CreateProductResult) *domain.Product {
		return r.Product
	})
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id string) either.Either[error, *domain.Product] {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	s.logger.InfoContext(ctx, "Getting product by ID",
		slog.String("product_id", id),
	)

	found := s.repo.FindByID(ctx, id)
	if found.IsLeft() {
		err := found.LeftValue()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "Failed to get product",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "read", resultFor(err))
		return either.Left[error, *domain.Product](err)
	}

	s.recordOperation(ctx, "read", "success")
	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return either.Right[error](found.RightValue())
}

// ListProducts retrieves one page of products matching filter.
func (s *ProductService) ListProducts(ctx context.Context, params pagination.Params, filter *domain.ProductFilter) either.Either[error, domain.ProductPage] {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	params = params.Normalize()
	span.SetAttributes(
		attribute.Int("page", params.Page),
		attribute.Int("limit", params.Limit),
	)

	s.logger.InfoContext(ctx, "Listing products",
		slog.Int("page", params.Page),
		slog.Int("limit", params.Limit),
	)

	listed := s.repo.FindAll(ctx, params, filter)
	if listed.IsLeft() {
		err := listed.LeftValue()
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to retrieve products")
		s.logger.ErrorContext(ctx, "Failed to list products",
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "list", "failure")
		return either.Left[error, domain.ProductPage](err)
	}

	page := listed.RightValue()
	span.SetAttributes(
		attribute.Int("product.count", len(page.Products)),
		attribute.Int("product.total", page.Total),
	)
	s.recordOperation(ctx, "list", "success")

	s.logger.InfoContext(ctx, "Products listed successfully",
		slog.Int("count", len(page.Products)),
		slog.Int("total", page.Total),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return either.Right[error](page)
}

// UpdateProduct applies the set fields of input through the entity and
// persists the result. Nothing is stored when any field is invalid.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) either.Either[error, *domain.Product] {
	return s.mutate(ctx, "ProductService.UpdateProduct", "update", id, func(p *domain.Product) error {
		if input.Name != nil {
			if err := p.UpdateName(*input.Name); err != nil {
				return err
			}
		}
		if input.Description != nil {
			if err := p.UpdateDescription(*input.Description); err != nil {
				return err
			}
		}
		if input.Price != nil {
			if err := p.UpdatePrice(*input.Price); err != nil {
				return err
			}
		}
		if input.Category != nil {
			if err := p.UpdateCategory(*input.Category); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddStock increases a product's stock.
func (s *ProductService) AddStock(ctx context.Context, id string, quantity int) either.Either[error, *domain.Product] {
	return s.mutate(ctx, "ProductService.AddStock", "stock_add", id, func(p *domain.Product) error {
		return p.AddStock(quantity)
	})
}

// RemoveStock decreases a product's stock.
func (s *ProductService) RemoveStock(ctx context.Context, id string, quantity int) either.Either[error, *domain.Product] {
	return s.mutate(ctx, "ProductService.RemoveStock", "stock_remove", id, func(p *domain.Product) error {
		return p.RemoveStock(quantity)
	})
}

// DeleteProduct removes a product by ID
func (s *ProductService) DeleteProduct(ctx context.Context, id string) either.Either[error, struct{}] {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	s.logger.InfoContext(ctx, "Deleting product",
		slog.String("product_id", id),
	)

	deleted := s.repo.Delete(ctx, id)
	if deleted.IsLeft() {
		err := deleted.LeftValue()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "Failed to delete product",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "delete", resultFor(err))
		return either.Left[error, struct{}](err)
	}

	s.recordOperation(ctx, "delete", "success")
	s.logger.InfoContext(ctx, "Product deleted successfully",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return either.Right[error](struct{}{})
}

// mutate loads the product, applies change to a copy and stores the copy.
func (s *ProductService) mutate(
	ctx context.Context,
	spanName, operation, id string,
	change func(*domain.Product) error,
) either.Either[error, *domain.Product] {
	ctx, span := s.tracer.Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	fail := func(err error, result, msg string) either.Either[error, *domain.Product] {
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		s.logger.WarnContext(ctx, msg,
			slog.String("product_id", id),
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, operation, result)
		return either.Left[error, *domain.Product](err)
	}

	found := s.repo.FindByID(ctx, id)
	if found.IsLeft() {
		err := found.LeftValue()
		return fail(err, resultFor(err), "Failed to load product")
	}

	product := found.RightValue().Clone()
	if err := change(product); err != nil {
		return fail(err, "invalid", "Product validation failed")
	}

	stored := s.repo.Update(ctx, product)
	if stored.IsLeft() {
		return fail(stored.LeftValue(), "failure", "Failed to store product")
	}

	s.recordOperation(ctx, operation, "success")
	s.logger.InfoContext(ctx, "Product updated successfully",
		slog.String("product_id", id),
		slog.String("operation", operation),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return either.Right[error](stored.RightValue())
}

func (s *ProductService) recordOperation(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

func resultFor(err error) string {
	if errors.Is(err, errs.ErrNotFound) {
		return "not_found"
	}
	return "failure"
}
