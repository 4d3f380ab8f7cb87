package memory

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/mrops-br/product-catalog/internal/domain"
	"github.com/mrops-br/product-catalog/internal/infrastructure/telemetry"
	"github.com/mrops-br/product-catalog/internal/shared/errs"
	"github.com/mrops-br/product-catalog/internal/shared/pagination"
)

func newRepo() *ProductRepository {
	return NewProductRepository(tracenoop.NewTracerProvider().Tracer("test"), telemetry.DiscardLogger())
}

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func product(t *testing.T, id, name, category string, price float64, offset time.Duration) *domain.Product {
	t.Helper()
	p, err := domain.ReconstructProduct(domain.ReconstructProductProps{
		ID:          id,
		Name:        name,
		Description: "desc",
		Price:       price,
		Category:    category,
		Stock:       1,
		CreatedAt:   base.Add(offset),
		UpdatedAt:   base.Add(offset),
	})
	require.NoError(t, err)
	return p
}

func seed(t *testing.T, repo *ProductRepository, products ...*domain.Product) {
	t.Helper()
	for _, p := range products {
		require.True(t, repo.Create(context.Background(), p).IsRight())
	}
}

func TestCreateAndFindByID(t *testing.T) {
	repo := newRepo()
	p := product(t, "p1", "Coffee Mug", "Kitchen", 12.5, 0)

	created := repo.Create(context.Background(), p)
	require.True(t, created.IsRight())
	assert.NotSame(t, p, created.RightValue())

	found := repo.FindByID(context.Background(), "p1")
	require.True(t, found.IsRight())
	assert.Equal(t, p.Snapshot(), found.RightValue().Snapshot())

	// mutating the caller's copy does not leak into the store
	require.NoError(t, p.UpdateName("Renamed Mug"))
	again := repo.FindByID(context.Background(), "p1")
	assert.Equal(t, "Coffee Mug", again.RightValue().Name())
}

func TestCreateDuplicate(t *testing.T) {
	repo := newRepo()
	p := product(t, "p1", "Coffee Mug", "Kitchen", 12.5, 0)
	seed(t, repo, p)

	result := repo.Create(context.Background(), p)

	require.True(t, result.IsLeft())
	assert.Equal(t, http.StatusConflict, result.LeftValue().StatusCode)
}

func TestFindByIDNotFound(t *testing.T) {
	result := newRepo().FindByID(context.Background(), "missing")

	require.True(t, result.IsLeft())
	assert.ErrorIs(t, result.LeftValue(), errs.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, result.LeftValue().StatusCode)

	// Callers own the returned error.
	result.LeftValue().Message = "changed"
	again := newRepo().FindByID(context.Background(), "missing")
	assert.Equal(t, "Product not found", again.LeftValue().Message)
}

func TestFindAllPaginatesInCreationOrder(t *testing.T) {
	repo := newRepo()
	for i := 0; i < 5; i++ {
		seed(t, repo, product(t, fmt.Sprintf("p%d", i), fmt.Sprintf("Product %d", i), "Misc", 10, time.Duration(i)*time.Minute))
	}

	tests := []struct {
		name   string
		params pagination.Params
		ids    []string
	}{
		{"first page", pagination.Params{Page: 1, Limit: 2}, []string{"p0", "p1"}},
		{"last partial page", pagination.Params{Page: 3, Limit: 2}, []string{"p4"}},
		{"past the end", pagination.Params{Page: 9, Limit: 2}, []string{}},
		{"defaults", pagination.Params{}, []string{"p0", "p1", "p2", "p3", "p4"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := repo.FindAll(context.Background(), tc.params, nil)
			require.True(t, result.IsRight())

			page := result.RightValue()
			ids := make([]string, 0, len(page.Products))
			for _, p := range page.Products {
				ids = append(ids, p.ID())
			}
			assert.Equal(t, tc.ids, ids)
			assert.Equal(t, 5, page.Total)
		})
	}
}

func TestFindAllFilters(t *testing.T) {
	repo := newRepo()
	seed(t, repo,
		product(t, "a", "Blue Mug", "Kitchen", 10, 0),
		product(t, "b", "Red Mug", "Kitchen", 25, time.Minute),
		product(t, "c", "Desk Lamp", "Office", 40, 2*time.Minute),
	)

	lo, hi := 15.0, 45.0
	tests := []struct {
		name   string
		filter *domain.ProductFilter
		ids    []string
	}{
		{"search is case insensitive", &domain.ProductFilter{Search: "MUG"}, []string{"a", "b"}},
		{"category", &domain.ProductFilter{Category: "Office"}, []string{"c"}},
		{"price range", &domain.ProductFilter{MinPrice: &lo, MaxPrice: &hi}, []string{"b", "c"}},
		{"combined", &domain.ProductFilter{Search: "mug", MinPrice: &lo}, []string{"b"}},
		{"no match", &domain.ProductFilter{Category: "Garden"}, []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := repo.FindAll(context.Background(), pagination.Params{}, tc.filter)
			require.True(t, result.IsRight())

			page := result.RightValue()
			ids := make([]string, 0, len(page.Products))
			for _, p := range page.Products {
				ids = append(ids, p.ID())
			}
			assert.Equal(t, tc.ids, ids)
			assert.Equal(t, len(tc.ids), page.Total)
		})
	}
}

func TestUpdate(t *testing.T) {
	repo := newRepo()
	p := product(t, "p1", "Coffee Mug", "Kitchen", 12.5, 0)
	seed(t, repo, p)

	require.NoError(t, p.UpdatePrice(15))
	updated := repo.Update(context.Background(), p)
	require.True(t, updated.IsRight())

	found := repo.FindByID(context.Background(), "p1")
	assert.Equal(t, 15.0, found.RightValue().Price())

	missing := repo.Update(context.Background(), product(t, "nope", "Ghost Item", "Misc", 1, 0))
	require.True(t, missing.IsLeft())
	assert.Equal(t, http.StatusNotFound, missing.LeftValue().StatusCode)
}

func TestDelete(t *testing.T) {
	repo := newRepo()
	seed(t, repo, product(t, "p1", "Coffee Mug", "Kitchen", 12.5, 0))

	require.True(t, repo.Delete(context.Background(), "p1").IsRight())
	assert.True(t, repo.FindByID(context.Background(), "p1").IsLeft())

	again := repo.Delete(context.Background(), "p1")
	require.True(t, again.IsLeft())
	assert.Equal(t, http.StatusNotFound, again.LeftValue().StatusCode)
}
