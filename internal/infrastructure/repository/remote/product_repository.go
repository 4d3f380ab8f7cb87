// Package remote implements domain.ProductRepository against another catalog
// instance over its REST API.
package remote

import (
	"context"
	"log/slog"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrops-br/product-catalog/internal/app/dto"
	"github.com/mrops-br/product-catalog/internal/domain"
	"github.com/mrops-br/product-catalog/internal/infrastructure/httpclient"
	"github.com/mrops-br/product-catalog/internal/shared/either"
	"github.com/mrops-br/product-catalog/internal/shared/errs"
	"github.com/mrops-br/product-catalog/internal/shared/pagination"
)

const productsPath = "/products"

// ProductRepository talks to /products through the HTTP client.
type ProductRepository struct {
	client *httpclient.Client
	tracer trace.Tracer
	logger *slog.Logger
}

func NewProductRepository(client *httpclient.Client, tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		client: client,
		tracer: tracer,
		logger: logger,
	}
}

func (r *ProductRepository) FindAll(ctx context.Context, params pagination.Params, filter *domain.ProductFilter) either.Either[*errs.HTTPError, domain.ProductPage] {
	ctx, span := r.tracer.Start(ctx, "RemoteProductRepository.FindAll")
	defer span.End()

	query := dto.NewListQuery(params.Normalize(), filter)
	result := r.client.Get(ctx, productsPath, query.Values(), nil)
	if result.IsLeft() {
		return fail[domain.ProductPage](span, result.LeftValue())
	}

	body, err := httpclient.Decode[dto.ProductListResponse](result.RightValue())
	if err != nil {
		return fail[domain.ProductPage](span, invalidResponse(err))
	}
	page, err := body.Page()
	if err != nil {
		return fail[domain.ProductPage](span, invalidResponse(err))
	}

	span.SetAttributes(attribute.Int("product.count", len(page.Products)))
	r.logger.DebugContext(ctx, "Products fetched from remote catalog",
		slog.Int("count", len(page.Products)),
		slog.Int("total", page.Total),
	)
	return either.Right[*errs.HTTPError](page)
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) either.Either[*errs.HTTPError, *domain.Product] {
	ctx, span := r.tracer.Start(ctx, "RemoteProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))
	return r.product(ctx, span, r.client.Get(ctx, productPath(id), nil, nil))
}

// Create posts the product's fields. The remote side assigns the ID and
// timestamps, and the returned product carries them.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) either.Either[*errs.HTTPError, *domain.Product] {
	ctx, span := r.tracer.Start(ctx, "RemoteProductRepository.Create")
	defer span.End()

	span.SetAttributes(attribute.String("product.name", product.Name()))

	body := dto.CreateProductRequest{
		Name:        product.Name(),
		Description: product.Description(),
		Price:       product.Price(),
		Category:    product.Category(),
		Stock:       product.Stock(),
	}
	return r.product(ctx, span, r.client.Post(ctx, productsPath, body, nil))
}

// Update sends the descriptive fields with PUT and then reconciles stock with
// the stock endpoints, since the API has no absolute stock setter. When the
// stock call fails the descriptive fields are put back, so a failed Update
// leaves the remote product as it was.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) either.Either[*errs.HTTPError, *domain.Product] {
	ctx, span := r.tracer.Start(ctx, "RemoteProductRepository.Update")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID()))

	current := r.product(ctx, span, r.client.Get(ctx, productPath(product.ID()), nil, nil))
	if current.IsLeft() {
		return current
	}
	previous := current.RightValue()

	updated := r.product(ctx, span, r.client.Put(ctx, productPath(product.ID()), descriptiveFields(product), nil))
	if updated.IsLeft() {
		return updated
	}

	delta := product.Stock() - updated.RightValue().Stock()
	var stocked either.Either[*errs.HTTPError, *domain.Product]
	switch {
	case delta > 0:
		stocked = r.product(ctx, span, r.client.Post(ctx, productPath(product.ID())+"/stock/add", dto.StockRequest{Quantity: delta}, nil))
	case delta < 0:
		stocked = r.product(ctx, span, r.client.Post(ctx, productPath(product.ID())+"/stock/remove", dto.StockRequest{Quantity: -delta}, nil))
	default:
		return updated
	}
	if stocked.IsLeft() {
		r.restore(ctx, previous)
	}
	return stocked
}

// restore puts back the descriptive fields of previous after a partial update.
func (r *ProductRepository) restore(ctx context.Context, previous *domain.Product) {
	result := r.client.Put(ctx, productPath(previous.ID()), descriptiveFields(previous), nil)
	if result.IsLeft() {
		r.logger.ErrorContext(ctx, "Failed to restore product after partial update",
			slog.String("product_id", previous.ID()),
			slog.String("error", result.LeftValue().Error()),
		)
		return
	}
	r.logger.WarnContext(ctx, "Restored product after failed stock update",
		slog.String("product_id", previous.ID()),
	)
}

func descriptiveFields(p *domain.Product) dto.UpdateProductRequest {
	name, description, price, category := p.Name(), p.Description(), p.Price(), p.Category()
	return dto.UpdateProductRequest{
		Name:        &name,
		Description: &description,
		Price:       &price,
		Category:    &category,
	}
}

func (r *ProductRepository) Delete(ctx context.Context, id string) either.Either[*errs.HTTPError, struct{}] {
	ctx, span := r.tracer.Start(ctx, "RemoteProductRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	result := r.client.Delete(ctx, productPath(id), nil)
	if result.IsLeft() {
		return fail[struct{}](span, result.LeftValue())
	}
	return either.Right[*errs.HTTPError](struct{}{})
}

func (r *ProductRepository) product(ctx context.Context, span trace.Span, result httpclient.Result) either.Either[*errs.HTTPError, *domain.Product] {
	if result.IsLeft() {
		return fail[*domain.Product](span, result.LeftValue())
	}

	body, err := httpclient.Decode[dto.ProductResponse](result.RightValue())
	if err != nil {
		return fail[*domain.Product](span, invalidResponse(err))
	}
	product, err := body.Product()
	if err != nil {
		r.logger.WarnContext(ctx, "Remote catalog returned an invalid product",
			slog.String("product_id", body.ID),
			slog.String("error", err.Error()),
		)
		return fail[*domain.Product](span, invalidResponse(err))
	}
	return either.Right[*errs.HTTPError](product)
}

func productPath(id string) string {
	return productsPath + "/" + url.PathEscape(id)
}

func invalidResponse(err error) *errs.HTTPError {
	return errs.NewHTTPError("Invalid response from remote catalog: "+err.Error(), errs.StatusInternalServerError, nil)
}

func fail[T any](span trace.Span, err *errs.HTTPError) either.Either[*errs.HTTPError, T] {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Message)
	return either.Left[*errs.HTTPError, T](err)
}
