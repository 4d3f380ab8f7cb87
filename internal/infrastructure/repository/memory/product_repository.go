package memory

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrops-br/product-catalog/internal/domain"
	"github.com/mrops-br/product-catalog/internal/shared/either"
	"github.com/mrops-br/product-catalog/internal/shared/errs"
	"github.com/mrops-br/product-catalog/internal/shared/pagination"
)

// ProductRepository is an in-memory implementation of domain.ProductRepository.
// Products are copied on the way in and out so callers never share state
// with the store.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewProductRepository creates a new in-memory product repository
func NewProductRepository(tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*domain.Product),
		tracer:   tracer,
		logger:   logger,
	}
}

// Create stores a new product. An existing ID is a conflict.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) either.Either[*errs.HTTPError, *domain.Product] {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.id", product.ID()),
		attribute.String("product.name", product.Name()),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID()]; exists {
		err := errs.NewHTTPError("Product already exists", http.StatusConflict, nil)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Message)
		return either.Left[*errs.HTTPError, *domain.Product](err)
	}

	r.products[product.ID()] = product.Clone()

	r.logger.InfoContext(ctx, "Product created in repository",
		slog.String("product_id", product.ID()),
		slog.String("product_name", product.Name()),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return either.Right[*errs.HTTPError](product.Clone())
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) either.Either[*errs.HTTPError, *domain.Product] {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		notFound := domain.ProductNotFound()
		span.RecordError(notFound)
		span.SetStatus(codes.Error, notFound.Message)
		r.logger.WarnContext(ctx, "Product not found",
			slog.String("product_id", id),
		)
		return either.Left[*errs.HTTPError, *domain.Product](notFound)
	}

	r.logger.DebugContext(ctx, "Product found in repository",
		slog.String("product_id", id),
		slog.String("product_name", product.Name()),
	)

	span.SetStatus(codes.Ok, "Product found")
	return either.Right[*errs.HTTPError](product.Clone())
}

// FindAll returns one page of the products matching filter, oldest first.
func (r *ProductRepository) FindAll(ctx context.Context, params pagination.Params, filter *domain.ProductFilter) either.Either[*errs.HTTPError, domain.ProductPage] {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	params = params.Normalize()

	r.mu.RLock()
	matched := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		if filter.Matches(product) {
			matched = append(matched, product.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt().Equal(b.CreatedAt()) {
			return a.CreatedAt().Before(b.CreatedAt())
		}
		return a.ID() < b.ID()
	})

	start, end := params.Window(len(matched))
	page := domain.ProductPage{
		Products: matched[start:end],
		Total:    len(matched),
		Page:     params.Page,
		Limit:    params.Limit,
	}

	span.SetAttributes(
		attribute.Int("product.count", len(page.Products)),
		attribute.Int("product.total", page.Total),
	)

	r.logger.InfoContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(page.Products)),
		slog.Int("total", page.Total),
	)

	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return either.Right[*errs.HTTPError](page)
}

// Update replaces a stored product.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) either.Either[*errs.HTTPError, *domain.Product] {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID()))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID()]; !exists {
		notFound := domain.ProductNotFound()
		span.RecordError(notFound)
		span.SetStatus(codes.Error, notFound.Message)
		return either.Left[*errs.HTTPError, *domain.Product](notFound)
	}

	r.products[product.ID()] = product.Clone()

	r.logger.InfoContext(ctx, "Product updated in repository",
		slog.String("product_id", product.ID()),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return either.Right[*errs.HTTPError](product.Clone())
}

// Delete removes a product by ID
func (r *ProductRepository) Delete(ctx context.Context, id string) either.Either[*errs.HTTPError, struct{}] {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[id]; !exists {
		notFound := domain.ProductNotFound()
		span.RecordError(notFound)
		span.SetStatus(codes.Error, notFound.Message)
		return either.Left[*errs.HTTPError, struct{}](notFound)
	}

	delete(r.products, id)

	r.logger.InfoContext(ctx, "Product deleted from repository",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return either.Right[*errs.HTTPError](struct{}{})
}
