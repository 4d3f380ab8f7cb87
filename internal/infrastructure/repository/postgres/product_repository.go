// Package postgres stores products in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrops-br/product-catalog/internal/domain"
	"github.com/mrops-br/product-catalog/internal/shared/either"
	"github.com/mrops-br/product-catalog/internal/shared/errs"
	"github.com/mrops-br/product-catalog/internal/shared/pagination"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL,
    price       DOUBLE PRECISION NOT NULL CHECK (price > 0),
    category    TEXT NOT NULL,
    stock       INTEGER NOT NULL CHECK (stock >= 0),
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS products_created_at_id_idx ON products (created_at, id);
CREATE INDEX IF NOT EXISTS products_category_idx ON products (category);
`

const selectColumns = `id, name, description, price, category, stock, created_at, updated_at`

// Open connects to databaseURL and checks the connection.
func Open(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("database URL cannot be empty")
	}

	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "database ping failed")
	}

	return db, nil
}

// EnsureSchema creates the products table when missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return errors.Wrap(err, "failed to create products schema")
}

type productRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Price       float64   `db:"price"`
	Category    string    `db:"category"`
	Stock       int       `db:"stock"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func toRow(p *domain.Product) productRow {
	s := p.Snapshot()
	return productRow{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
		Category:    s.Category,
		Stock:       s.Stock,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (r productRow) product() (*domain.Product, error) {
	return domain.ReconstructProduct(domain.ReconstructProductProps{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		Stock:       r.Stock,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	})
}

// ProductRepository implements domain.ProductRepository on PostgreSQL.
type ProductRepository struct {
	db     *sqlx.DB
	tracer trace.Tracer
	logger *slog.Logger
}

func NewProductRepository(db *sqlx.DB, tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		db:     db,
		tracer: tracer,
		logger: logger,
	}
}

func (r *ProductRepository) FindAll(ctx context.Context, params pagination.Params, filter *domain.ProductFilter) either.Either[*errs.HTTPError, domain.ProductPage] {
	ctx, span := r.tracer.Start(ctx, "PostgresProductRepository.FindAll")
	defer span.End()

	params = params.Normalize()
	where, args := buildWhere(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM products"+where, args...); err != nil {
		return fail[domain.ProductPage](ctx, r, span, errors.Wrap(err, "failed to count products"))
	}

	query, args := buildListQuery(params, filter)
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fail[domain.ProductPage](ctx, r, span, errors.Wrap(err, "failed to list products"))
	}

	products := make([]*domain.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.product()
		if err != nil {
			return fail[domain.ProductPage](ctx, r, span, errors.Wrapf(err, "stored product %s is invalid", row.ID))
		}
		products = append(products, p)
	}

	span.SetAttributes(
		attribute.Int("product.count", len(products)),
		attribute.Int("product.total", total),
	)
	r.logger.DebugContext(ctx, "Products retrieved from database",
		slog.Int("count", len(products)),
		slog.Int("total", total),
	)

	return either.Right[*errs.HTTPError](domain.ProductPage{
		Products: products,
		Total:    total,
		Page:     params.Page,
		Limit:    params.Limit,
	})
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) either.Either[*errs.HTTPError, *domain.Product] {
	ctx, span := r.tracer.Start(ctx, "PostgresProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	var row productRow
	err := r.db.GetContext(ctx, &row, "SELECT "+selectColumns+" FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "Product not found")
		return either.Left[*errs.HTTPError, *domain.Product](domain.ProductNotFound())
	}
	if err != nil {
		return fail[*domain.Product](ctx, r, span, errors.Wrapf(err, "failed to get product %s", id))
	}

	p, err := row.product()
	if err != nil {
		return fail[*domain.Product](ctx, r, span, errors.Wrapf(err, "stored product %s is invalid", id))
	}
	return either.Right[*errs.HTTPError](p)
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) either.Either[*errs.HTTPError, *domain.Product] {
	ctx, span := r.tracer.Start(ctx, "PostgresProductRepository.Create")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID()))

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO products (`+selectColumns+`)
		VALUES (:id, :name, :description, :price, :category, :stock, :created_at, :updated_at)`,
		toRow(product),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			conflict := errs.NewHTTPError("Product already exists", http.StatusConflict, nil)
			span.RecordError(conflict)
			span.SetStatus(codes.Error, conflict.Message)
			return either.Left[*errs.HTTPError, *domain.Product](conflict)
		}
		return fail[*domain.Product](ctx, r, span, errors.Wrap(err, "could not create product"))
	}

	r.logger.InfoContext(ctx, "Product created in database",
		slog.String("product_id", product.ID()),
	)
	return either.Right[*errs.HTTPError](product.Clone())
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) either.Either[*errs.HTTPError, *domain.Product] {
	ctx, span := r.tracer.Start(ctx, "PostgresProductRepository.Update")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID()))

	result, err := r.db.NamedExecContext(ctx, `
		UPDATE products
		SET name = :name, description = :description, price = :price,
		    category = :category, stock = :stock, updated_at = :updated_at
		WHERE id = :id`,
		toRow(product),
	)
	if err != nil {
		return fail[*domain.Product](ctx, r, span, errors.Wrapf(err, "could not update product %s", product.ID()))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fail[*domain.Product](ctx, r, span, errors.Wrap(err, "could not confirm product update"))
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "Product not found")
		return either.Left[*errs.HTTPError, *domain.Product](domain.ProductNotFound())
	}

	return either.Right[*errs.HTTPError](product.Clone())
}

func (r *ProductRepository) Delete(ctx context.Context, id string) either.Either[*errs.HTTPError, struct{}] {
	ctx, span := r.tracer.Start(ctx, "PostgresProductRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fail[struct{}](ctx, r, span, errors.Wrapf(err, "could not delete product %s", id))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fail[struct{}](ctx, r, span, errors.Wrap(err, "could not confirm product deletion"))
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "Product not found")
		return either.Left[*errs.HTTPError, struct{}](domain.ProductNotFound())
	}

	r.logger.InfoContext(ctx, "Product deleted from database",
		slog.String("product_id", id),
	)
	return either.Right[*errs.HTTPError](struct{}{})
}

// fail logs the wrapped cause and hides it behind a generic 500.
func fail[T any](ctx context.Context, r *ProductRepository, span trace.Span, err error) either.Either[*errs.HTTPError, T] {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	r.logger.ErrorContext(ctx, "Database operation failed",
		slog.String("error", err.Error()),
	)
	return either.Left[*errs.HTTPError, T](errs.NewHTTPError("Internal server error", http.StatusInternalServerError, nil))
}

// buildWhere renders filter as a WHERE clause with positional arguments.
func buildWhere(filter *domain.ProductFilter) (string, []any) {
	if filter == nil {
		return "", nil
	}

	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Search != "" {
		add(`name ILIKE '%%' || $%d || '%%' ESCAPE '\'`, escapeLike(filter.Search))
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.MinPrice != nil {
		add("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		add("price <= $%d", *filter.MaxPrice)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// buildListQuery returns the page query for params and filter.
func buildListQuery(params pagination.Params, filter *domain.ProductFilter) (string, []any) {
	where, args := buildWhere(filter)
	args = append(args, params.Limit, params.Offset())
	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY created_at, id LIMIT $%d OFFSET $%d",
		selectColumns, where, len(args)-1, len(args))
	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
