package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mrops-br/product-catalog/internal/app/dto"
	"github.com/mrops-br/product-catalog/internal/app/service"
	"github.com/mrops-br/product-catalog/internal/domain"
	"github.com/mrops-br/product-catalog/internal/infrastructure/http/response"
	"github.com/mrops-br/product-catalog/internal/shared/either"
	"github.com/mrops-br/product-catalog/internal/shared/errs"
)

const maxBodyBytes = 1 << 20

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.writeProduct(w, r, http.StatusCreated, h.service.CreateProduct(r.Context(), req.Input()))
}

// GetProduct handles GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.writeProduct(w, r, http.StatusOK, h.service.GetProduct(r.Context(), id))
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query, err := dto.ParseListQuery(r.URL.Query())
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid list query",
			slog.String("query", r.URL.RawQuery),
			slog.String("error", err.Error()),
		)
		response.Error(w, err)
		return
	}

	result := h.service.ListProducts(r.Context(), query.Params(), query.Filter())
	if result.IsLeft() {
		response.Error(w, result.LeftValue())
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductListResponse(result.RightValue()))
}

// UpdateProduct handles PUT /products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	h.writeProduct(w, r, http.StatusOK, h.service.UpdateProduct(r.Context(), id, req.Input()))
}

// AddStock handles POST /products/{id}/stock/add
func (h *ProductHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	var req dto.StockRequest
	if !h.decode(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	h.writeProduct(w, r, http.StatusOK, h.service.AddStock(r.Context(), id, req.Quantity))
}

// RemoveStock handles POST /products/{id}/stock/remove
func (h *ProductHandler) RemoveStock(w http.ResponseWriter, r *http.Request) {
	var req dto.StockRequest
	if !h.decode(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	h.writeProduct(w, r, http.StatusOK, h.service.RemoveStock(r.Context(), id, req.Quantity))
}

// DeleteProduct handles DELETE /products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result := h.service.DeleteProduct(r.Context(), id)
	if result.IsLeft() {
		response.Error(w, result.LeftValue())
		return
	}

	response.NoContent(w)
}

func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, errs.BadRequest("Invalid request body"))
		return false
	}
	return true
}

func (h *ProductHandler) writeProduct(w http.ResponseWriter, r *http.Request, status int, result either.Either[error, *domain.Product]) {
	if result.IsLeft() {
		err := result.LeftValue()
		if errs.StatusCode(err) >= http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "Product request failed",
				slog.String("error", err.Error()),
			)
		}
		response.Error(w, err)
		return
	}

	response.JSON(w, status, dto.ToProductResponse(result.RightValue()))
}
