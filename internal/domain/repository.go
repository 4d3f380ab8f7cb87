package domain

import (
	"context"
	"net/http"
	"strings"

	"github.com/mrops-br/product-catalog/internal/shared/either"
	"github.com/mrops-br/product-catalog/internal/shared/errs"
	"github.com/mrops-br/product-catalog/internal/shared/pagination"
)

// ProductNotFound returns the 404 repositories report for unknown product
// IDs. Each call returns a new value; match it with errs.ErrNotFound.
func ProductNotFound() *errs.HTTPError {
	return errs.NewHTTPError("Product not found", http.StatusNotFound, nil)
}

// ProductFilter narrows FindAll. Unset fields do not filter; set fields are
// combined with AND.
type ProductFilter struct {
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// Matches reports whether p satisfies every set field of f. A nil filter
// matches everything.
func (f *ProductFilter) Matches(p *Product) bool {
	if f == nil {
		return true
	}
	if f.Category != "" && p.Category() != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price() < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price() > *f.MaxPrice {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Name()), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// ProductPage is one page of FindAll results. Page and Limit echo the request.
type ProductPage struct {
	Products []*Product
	Total    int
	Page     int
	Limit    int
}

// ProductRepository defines the contract for product storage. Expected
// failures come back as the left side, never as panics.
type ProductRepository interface {
	FindAll(ctx context.Context, params pagination.Params, filter *ProductFilter) either.Either[*errs.HTTPError, ProductPage]
	FindByID(ctx context.Context, id string) either.Either[*errs.HTTPError, *Product]
	Create(ctx context.Context, product *Product) either.Either[*errs.HTTPError, *Product]
	Update(ctx context.Context, product *Product) either.Either[*errs.HTTPError, *Product]
	Delete(ctx context.Context, id string) either.Either[*errs.HTTPError, struct{}]
}
