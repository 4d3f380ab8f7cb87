package postgres

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/mrops-br/product-catalog/internal/domain"
	"github.com/mrops-br/product-catalog/internal/infrastructure/telemetry"
	"github.com/mrops-br/product-catalog/internal/shared/pagination"
)

func TestBuildListQuery(t *testing.T) {
	lo, hi := 5.0, 50.0

	tests := []struct {
		name   string
		params pagination.Params
		filter *domain.ProductFilter
		query  string
		args   []any
	}{
		{
			name:   "no filter",
			params: pagination.Params{Page: 1, Limit: 10},
			query:  "SELECT " + selectColumns + " FROM products ORDER BY created_at, id LIMIT $1 OFFSET $2",
			args:   []any{10, 0},
		},
		{
			name:   "empty filter",
			params: pagination.Params{Page: 3, Limit: 20},
			filter: &domain.ProductFilter{},
			query:  "SELECT " + selectColumns + " FROM products ORDER BY created_at, id LIMIT $1 OFFSET $2",
			args:   []any{20, 40},
		},
		{
			name:   "all fields",
			params: pagination.Params{Page: 2, Limit: 5},
			filter: &domain.ProductFilter{Search: "50%_off", Category: "Kitchen", MinPrice: &lo, MaxPrice: &hi},
			query: "SELECT " + selectColumns + " FROM products" +
				` WHERE name ILIKE '%' || $1 || '%' ESCAPE '\' AND category = $2 AND price >= $3 AND price <= $4` +
				" ORDER BY created_at, id LIMIT $5 OFFSET $6",
			args: []any{`50\%\_off`, "Kitchen", 5.0, 50.0, 5, 5},
		},
		{
			name:   "price only",
			params: pagination.Params{Page: 1, Limit: 10},
			filter: &domain.ProductFilter{MaxPrice: &hi},
			query:  "SELECT " + selectColumns + " FROM products WHERE price <= $1 ORDER BY created_at, id LIMIT $2 OFFSET $3",
			args:   []any{50.0, 10, 0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			query, args := buildListQuery(tc.params, tc.filter)
			assert.Equal(t, tc.query, query)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b\%c\_d`, escapeLike(`a\b%c_d`))
	assert.Equal(t, "mug", escapeLike("mug"))
}

// TestRepositoryAgainstDatabase runs only when TEST_DATABASE_URL points at a
// disposable PostgreSQL database.
func TestRepositoryAgainstDatabase(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, EnsureSchema(ctx, db))
	_, err = db.ExecContext(ctx, "TRUNCATE products")
	require.NoError(t, err)

	repo := NewProductRepository(db, tracenoop.NewTracerProvider().Tracer("test"), telemetry.DiscardLogger())

	p, err := domain.NewProduct(domain.CreateProductProps{
		Name: "Desk Lamp", Description: "Warm light", Price: 40, Category: "Office", Stock: 3,
	})
	require.NoError(t, err)

	require.True(t, repo.Create(ctx, p).IsRight())

	dup := repo.Create(ctx, p)
	require.True(t, dup.IsLeft())
	assert.Equal(t, http.StatusConflict, dup.LeftValue().StatusCode)

	found := repo.FindByID(ctx, p.ID())
	require.True(t, found.IsRight())
	assert.Equal(t, p.Snapshot(), found.RightValue().Snapshot())

	require.NoError(t, p.AddStock(2))
	require.True(t, repo.Update(ctx, p).IsRight())

	page := repo.FindAll(ctx, pagination.Params{}, &domain.ProductFilter{Search: "lamp"})
	require.True(t, page.IsRight())
	require.Len(t, page.RightValue().Products, 1)
	assert.Equal(t, 5, page.RightValue().Products[0].Stock())
	assert.Equal(t, 1, page.RightValue().Total)

	require.True(t, repo.Delete(ctx, p.ID()).IsRight())
	missing := repo.FindByID(ctx, p.ID())
	require.True(t, missing.IsLeft())
	assert.Equal(t, http.StatusNotFound, missing.LeftValue().StatusCode)
}
