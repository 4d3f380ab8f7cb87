package dto

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mrops-br/product-catalog/internal/app/service"
	"github.com/mrops-br/product-catalog/internal/app/usecase"
	"github.com/mrops-br/product-catalog/internal/domain"
	"github.com/mrops-br/product-catalog/internal/shared/errs"
	"github.com/mrops-br/product-catalog/internal/shared/pagination"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateProductRequest represents the request to create a product
type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock"`
}

// Input converts the request into use case input. Field rules are enforced by
// the entity, not here.
func (r CreateProductRequest) Input() usecase.CreateProductInput {
	return usecase.CreateProductInput(r)
}

// UpdateProductRequest is a partial update; omitted fields stay as they are.
type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
}

func (r UpdateProductRequest) Input() service.UpdateProductInput {
	return service.UpdateProductInput(r)
}

// StockRequest is the body of the stock endpoints.
type StockRequest struct {
	Quantity int `json:"quantity"`
}

// ListProductsQuery holds the query string of GET /products.
type ListProductsQuery struct {
	Page     *int     `validate:"omitempty,min=1"`
	Limit    *int     `validate:"omitempty,min=1,max=100"`
	Search   string   `validate:"max=100"`
	Category string   `validate:"max=100"`
	MinPrice *float64 `validate:"omitempty,min=0"`
	MaxPrice *float64 `validate:"omitempty,min=0"`
}

// ParseListQuery reads and validates the list query parameters. Missing
// values keep their defaults; values that are present must be in range.
func ParseListQuery(values url.Values) (ListProductsQuery, error) {
	var q ListProductsQuery
	var err error

	if q.Page, err = intParam(values, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(values, "limit"); err != nil {
		return q, err
	}
	if q.MinPrice, err = floatParam(values, "min_price"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = floatParam(values, "max_price"); err != nil {
		return q, err
	}
	q.Search = strings.TrimSpace(values.Get("search"))
	q.Category = strings.TrimSpace(values.Get("category"))

	if err := validate.Struct(q); err != nil {
		return q, errs.BadRequest(validationMessage(err))
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return q, errs.BadRequest("min_price must not be greater than max_price")
	}
	return q, nil
}

// Params returns the normalized pagination.
func (q ListProductsQuery) Params() pagination.Params {
	var params pagination.Params
	if q.Page != nil {
		params.Page = *q.Page
	}
	if q.Limit != nil {
		params.Limit = *q.Limit
	}
	return params.Normalize()
}

// Filter returns the domain filter, or nil when nothing narrows the list.
func (q ListProductsQuery) Filter() *domain.ProductFilter {
	if q.Search == "" && q.Category == "" && q.MinPrice == nil && q.MaxPrice == nil {
		return nil
	}
	return &domain.ProductFilter{
		Search:   q.Search,
		Category: q.Category,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
	}
}

// Values encodes the query the way ParseListQuery reads it.
func (q ListProductsQuery) Values() map[string]any {
	v := map[string]any{}
	if q.Page != nil {
		v["page"] = *q.Page
	}
	if q.Limit != nil {
		v["limit"] = *q.Limit
	}
	if q.Search != "" {
		v["search"] = q.Search
	}
	if q.Category != "" {
		v["category"] = q.Category
	}
	if q.MinPrice != nil {
		v["min_price"] = strconv.FormatFloat(*q.MinPrice, 'f', -1, 64)
	}
	if q.MaxPrice != nil {
		v["max_price"] = strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64)
	}
	return v
}

// NewListQuery builds the query for params and filter.
func NewListQuery(params pagination.Params, filter *domain.ProductFilter) ListProductsQuery {
	var q ListProductsQuery
	if params.Page > 0 {
		q.Page = &params.Page
	}
	if params.Limit > 0 {
		q.Limit = &params.Limit
	}
	if filter != nil {
		q.Search = filter.Search
		q.Category = filter.Category
		q.MinPrice = filter.MinPrice
		q.MaxPrice = filter.MaxPrice
	}
	return q
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PaginationResponse describes the page returned with a list.
type PaginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ProductListResponse is the body of GET /products.
type ProductListResponse struct {
	Data       []ProductResponse  `json:"data"`
	Pagination PaginationResponse `json:"pagination"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse(p.Snapshot())
}

// ToProductListResponse converts a page of products.
func ToProductListResponse(page domain.ProductPage) ProductListResponse {
	data := make([]ProductResponse, len(page.Products))
	for i, p := range page.Products {
		data[i] = ToProductResponse(p)
	}

	totalPages := 0
	if page.Limit > 0 {
		totalPages = (page.Total + page.Limit - 1) / page.Limit
	}

	return ProductListResponse{
		Data: data,
		Pagination: PaginationResponse{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: totalPages,
		},
	}
}

// Product rehydrates the entity, validating it on the way.
func (r ProductResponse) Product() (*domain.Product, error) {
	return domain.ReconstructProduct(domain.ReconstructProductProps(r))
}

// Page rehydrates a list response.
func (r ProductListResponse) Page() (domain.ProductPage, error) {
	products := make([]*domain.Product, 0, len(r.Data))
	for _, item := range r.Data {
		p, err := item.Product()
		if err != nil {
			return domain.ProductPage{}, err
		}
		products = append(products, p)
	}
	return domain.ProductPage{
		Products: products,
		Total:    r.Pagination.Total,
		Page:     r.Pagination.Page,
		Limit:    r.Pagination.Limit,
	}, nil
}

func intParam(values url.Values, key string) (*int, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errs.BadRequest(fmt.Sprintf("%s must be an integer", key))
	}
	return &n, nil
}

func floatParam(values url.Values, key string) (*float64, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errs.BadRequest(fmt.Sprintf("%s must be a number", key))
	}
	return &f, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := queryNames[fe.Field()]
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

var queryNames = map[string]string{
	"Page":     "page",
	"Limit":    "limit",
	"Search":   "search",
	"Category": "category",
	"MinPrice": "min_price",
	"MaxPrice": "max_price",
}
