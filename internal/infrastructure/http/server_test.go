package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrops-br/product-catalog/internal/app/dto"
	"github.com/mrops-br/product-catalog/internal/app/service"
	"github.com/mrops-br/product-catalog/internal/infrastructure/config"
	"github.com/mrops-br/product-catalog/internal/infrastructure/http/handler"
	"github.com/mrops-br/product-catalog/internal/infrastructure/http/response"
	"github.com/mrops-br/product-catalog/internal/infrastructure/repository/memory"
	"github.com/mrops-br/product-catalog/internal/infrastructure/telemetry"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	tel, err := telemetry.NewNoOpTelemetry(&config.OTLPConfig{ServiceName: "test", Environment: "test"}, "error")
	require.NoError(t, err)

	logger := telemetry.DiscardLogger()
	tracer := tel.TracerProvider.Tracer("test")
	repo := memory.NewProductRepository(tracer, logger)
	svc := service.NewProductService(repo, tracer, tel.MeterProvider.Meter("test"), logger)
	srv := NewServer(&config.ServerConfig{Host: "127.0.0.1", Port: "0"}, handler.NewProductHandler(svc, logger), logger, tel)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

const validBody = `{"name":"Test Product","description":"Test Description","price":100,"category":"Test Category","stock":10}`

func create(t *testing.T, ts *httptest.Server, body string) dto.ProductResponse {
	t.Helper()
	resp := do(t, ts, http.MethodPost, "/products", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.ProductResponse](t, resp)
}

func TestCreateAndGetProduct(t *testing.T) {
	ts := newTestServer(t)

	created := create(t, ts, validBody)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Test Product", created.Name)
	assert.Equal(t, 10, created.Stock)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	resp := do(t, ts, http.MethodGet, "/products/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, created, decode[dto.ProductResponse](t, resp))
}

func TestCreateProductErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"malformed json", `{"name":`, "Invalid request body"},
		{"short name", `{"name":"ab","description":"d","price":1,"category":"cat","stock":0}`, "Name must be at least 3 characters long"},
		{"zero price", `{"name":"Lamp","description":"d","price":0,"category":"cat","stock":0}`, "Price must be greater than zero"},
		{"negative stock", `{"name":"Lamp","description":"d","price":1,"category":"cat","stock":-1}`, "Stock cannot be negative"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, ts, http.MethodPost, "/products", tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body := decode[response.ErrorResponse](t, resp)
			assert.Equal(t, "bad_request", body.Error)
			assert.Equal(t, tc.message, body.Message)
		})
	}
}

func TestGetProductNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodGet, "/products/missing", "")

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, response.ErrorResponse{Error: "not_found", Message: "Product not found"}, decode[response.ErrorResponse](t, resp))
}

func TestListProducts(t *testing.T) {
	ts := newTestServer(t)
	create(t, ts, `{"name":"Blue Mug","description":"d","price":10,"category":"Kitchen","stock":1}`)
	create(t, ts, `{"name":"Red Mug","description":"d","price":25,"category":"Kitchen","stock":1}`)
	create(t, ts, `{"name":"Desk Lamp","description":"d","price":40,"category":"Office","stock":1}`)

	resp := do(t, ts, http.MethodGet, "/products?search=mug&limit=1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[dto.ProductListResponse](t, resp)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Blue Mug", body.Data[0].Name)
	assert.Equal(t, dto.PaginationResponse{Page: 1, Limit: 1, Total: 2, TotalPages: 2}, body.Pagination)

	bad := do(t, ts, http.MethodGet, "/products?limit=1000", "")
	require.Equal(t, http.StatusBadRequest, bad.StatusCode)
	assert.Equal(t, "limit must be at most 100", decode[response.ErrorResponse](t, bad).Message)

	zero := do(t, ts, http.MethodGet, "/products?page=0", "")
	require.Equal(t, http.StatusBadRequest, zero.StatusCode)
	assert.Equal(t, "page must be at least 1", decode[response.ErrorResponse](t, zero).Message)
}

func TestUpdateProduct(t *testing.T) {
	ts := newTestServer(t)
	created := create(t, ts, validBody)

	resp := do(t, ts, http.MethodPut, "/products/"+created.ID, `{"price":150,"category":"Other"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, 150.0, updated.Price)
	assert.Equal(t, "Other", updated.Category)
	assert.Equal(t, created.Name, updated.Name)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestStockEndpoints(t *testing.T) {
	ts := newTestServer(t)
	created := create(t, ts, validBody)

	resp := do(t, ts, http.MethodPost, "/products/"+created.ID+"/stock/add", `{"quantity":5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 15, decode[dto.ProductResponse](t, resp).Stock)

	resp = do(t, ts, http.MethodPost, "/products/"+created.ID+"/stock/remove", `{"quantity":20}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Insufficient stock", decode[response.ErrorResponse](t, resp).Message)
}

func TestDeleteProduct(t *testing.T) {
	ts := newTestServer(t)
	created := create(t, ts, validBody)

	resp := do(t, ts, http.MethodDelete, "/products/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, ts, http.MethodDelete, "/products/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	create(t, ts, validBody)

	health := do(t, ts, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, health.StatusCode)

	metrics := do(t, ts, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, metrics.StatusCode)

	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "products_operations")
}
