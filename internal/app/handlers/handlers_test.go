package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/order-manager/internal/app/handlers"
	"github.com/linemk/order-manager/internal/domain/models"
	"github.com/linemk/order-manager/internal/lib/logger/handlers/slogdiscard"
	"github.com/linemk/order-manager/internal/service"
	"github.com/linemk/order-manager/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProductService - фиктивная реализация ProductService, запоминает последний ввод
type fakeProductService struct {
	product  *models.Product
	products []*models.Product
	err      error

	gotID     int64
	gotInput  service.ProductInput
	gotFilter models.ProductFilter
}

func (f *fakeProductService) List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	f.gotFilter = filter
	return f.products, f.err
}

func (f *fakeProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	f.gotID = id
	return f.product, f.err
}

func (f *fakeProductService) Create(ctx context.Context, in service.ProductInput) (*models.Product, error) {
	f.gotInput = in
	return f.product, f.err
}

func (f *fakeProductService) Update(ctx context.Context, id int64, in service.ProductInput) (*models.Product, error) {
	f.gotID, f.gotInput = id, in
	return f.product, f.err
}

func (f *fakeProductService) Delete(ctx context.Context, id int64) error {
	f.gotID = id
	return f.err
}

type fakeOrderService struct {
	order  *models.Order
	orders []*models.Order
	err    error

	gotID    int64
	gotInput service.OrderInput
	gotQuery service.OrderQuery
}

func (f *fakeOrderService) List(ctx context.Context, query service.OrderQuery) ([]*models.Order, error) {
	f.gotQuery = query
	return f.orders, f.err
}

func (f *fakeOrderService) Get(ctx context.Context, id int64) (*models.Order, error) {
	f.gotID = id
	return f.order, f.err
}

func (f *fakeOrderService) Create(ctx context.Context, in service.OrderInput) (*models.Order, error) {
	f.gotInput = in
	return f.order, f.err
}

func (f *fakeOrderService) Update(ctx context.Context, id int64, in service.OrderInput) (*models.Order, error) {
	f.gotID, f.gotInput = id, in
	return f.order, f.err
}

func (f *fakeOrderService) Delete(ctx context.Context, id int64) error {
	f.gotID = id
	return f.err
}

type fakePinger struct {
	err error
}

func (f fakePinger) PingContext(ctx context.Context) error {
	return f.err
}

// withID кладёт {id} в контекст chi, как это сделал бы роутер
func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func widget() *models.Product {
	return &models.Product{ID: 1, Name: "Widget", Price: decimal.RequireFromString("9.99")}
}

func TestCreateProductHandler_Success(t *testing.T) {
	fakeSvc := &fakeProductService{product: widget()}
	handler := handlers.CreateProductHandler(slogdiscard.NewDiscardLogger(), fakeSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/products/new",
		bytes.NewBufferString(`{"name":"Widget","price":9.99}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":1,"name":"Widget","price":9.99,"description":""}`, rr.Body.String())

	require.NotNil(t, fakeSvc.gotInput.Name)
	assert.Equal(t, "Widget", *fakeSvc.gotInput.Name)
	require.NotNil(t, fakeSvc.gotInput.Price)
	assert.Equal(t, "9.99", fakeSvc.gotInput.Price.String())
	assert.Nil(t, fakeSvc.gotInput.Description)
}

func TestCreateProductHandler_MalformedJSON(t *testing.T) {
	handler := handlers.CreateProductHandler(slogdiscard.NewDiscardLogger(), &fakeProductService{})

	req := httptest.NewRequest(http.MethodPost, "/api/products/new", bytes.NewBufferString(`{"name":`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, rr.Body.String())
}

func TestCreateProductHandler_MalformedJSONLoggedAsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	handler := handlers.CreateProductHandler(logger, &fakeProductService{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/products/new", bytes.NewBufferString(`not json`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "handlers.CreateProductHandler", entry["op"])
}

func TestCreateProductHandler_ValidationError(t *testing.T) {
	verrs := models.ValidationErrors{
		{Field: "name", Message: "must not be blank"},
		{Field: "price", Message: "must be greater than or equal to 0"},
	}
	fakeSvc := &fakeProductService{err: fmt.Errorf("service.ProductService.Create: %w", verrs)}
	handler := handlers.CreateProductHandler(slogdiscard.NewDiscardLogger(), fakeSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/products/new", bytes.NewBufferString(`{"name":"","price":-1}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var resp handlers.ValidationResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, verrs, resp.Errors)
}

func TestListProductsHandler_PassesFilters(t *testing.T) {
	fakeSvc := &fakeProductService{products: []*models.Product{widget()}}
	handler := handlers.ListProductsHandler(slogdiscard.NewDiscardLogger(), fakeSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/products?name=wid&description=blue", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.ProductFilter{Name: "wid", Description: "blue"}, fakeSvc.gotFilter)
	assert.JSONEq(t, `[{"id":1,"name":"Widget","price":9.99,"description":""}]`, rr.Body.String())
}

func TestListProductsHandler_EmptyList(t *testing.T) {
	fakeSvc := &fakeProductService{products: []*models.Product{}}
	handler := handlers.ListProductsHandler(slogdiscard.NewDiscardLogger(), fakeSvc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestGetProductHandler(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		svc        *fakeProductService
		wantStatus int
		wantBody   string
	}{
		{
			name:       "found",
			id:         "1",
			svc:        &fakeProductService{product: widget()},
			wantStatus: http.StatusOK,
			wantBody:   `{"id":1,"name":"Widget","price":9.99,"description":""}`,
		},
		{
			name:       "not found",
			id:         "999",
			svc:        &fakeProductService{err: storage.ErrProductNotFound},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"product not found"}`,
		},
		{
			name:       "non-numeric id",
			id:         "abc",
			svc:        &fakeProductService{},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"product not found"}`,
		},
		{
			name:       "internal error",
			id:         "1",
			svc:        &fakeProductService{err: errors.New("connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := handlers.GetProductHandler(slogdiscard.NewDiscardLogger(), tt.svc)

			req := withID(httptest.NewRequest(http.MethodGet, "/api/products/"+tt.id, nil), tt.id)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestUpdateProductHandler_PartialInput(t *testing.T) {
	updated := widget()
	updated.Description = "blue"
	fakeSvc := &fakeProductService{product: updated}
	handler := handlers.UpdateProductHandler(slogdiscard.NewDiscardLogger(), fakeSvc)

	req := withID(httptest.NewRequest(http.MethodPatch, "/api/products/1/edit",
		bytes.NewBufferString(`{"description":"blue"}`)), "1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(1), fakeSvc.gotID)
	assert.Nil(t, fakeSvc.gotInput.Name)
	assert.Nil(t, fakeSvc.gotInput.Price)
	require.NotNil(t, fakeSvc.gotInput.Description)
	assert.Equal(t, "blue", *fakeSvc.gotInput.Description)
}

func TestDeleteProductHandler(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		fakeSvc := &fakeProductService{}
		handler := handlers.DeleteProductHandler(slogdiscard.NewDiscardLogger(), fakeSvc)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, withID(httptest.NewRequest(http.MethodDelete, "/api/products/3", nil), "3"))

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())
		assert.Equal(t, int64(3), fakeSvc.gotID)
	})

	t.Run("referenced by orders", func(t *testing.T) {
		fakeSvc := &fakeProductService{err: fmt.Errorf("op: %w", storage.ErrProductInUse)}
		handler := handlers.DeleteProductHandler(slogdiscard.NewDiscardLogger(), fakeSvc)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, withID(httptest.NewRequest(http.MethodDelete, "/api/products/3", nil), "3"))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.JSONEq(t, `{"error":"product is referenced by existing orders"}`, rr.Body.String())
	})
}

func TestCreateOrderHandler_Success(t *testing.T) {
	orderDate := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)
	fakeSvc := &fakeOrderService{order: &models.Order{
		ID:           1,
		CustomerName: "Ana",
		OrderDate:    orderDate,
		OrderProducts: []*models.OrderProduct{
			{ID: 10, OrderID: 1, Product: widget(), Quantity: 2},
		},
	}}
	handler := handlers.CreateOrderHandler(slogdiscard.NewDiscardLogger(), fakeSvc)

	reqBody := `{"customerName":"Ana","orderDate":"2024-07-15T10:00:00","products":[{"id":1,"quantity":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders/new", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{
		"id": 1,
		"customerName": "Ana",
		"orderDate": "2024-07-15T10:00:00Z",
		"description": "",
		"orderProducts": [
			{"product": {"id":1,"name":"Widget","price":9.99,"description":""}, "quantity": 2}
		]
	}`, rr.Body.String())

	require.NotNil(t, fakeSvc.gotInput.CustomerName)
	assert.Equal(t, "Ana", *fakeSvc.gotInput.CustomerName)
	assert.Equal(t, []service.OrderLineInput{{ProductID: 1, Quantity: 2}}, fakeSvc.gotInput.Products)
}

func TestCreateOrderHandler_UnknownProduct(t *testing.T) {
	fakeSvc := &fakeOrderService{err: fmt.Errorf("service.OrderService.Create: product 999: %w", storage.ErrProductNotFound)}
	handler := handlers.CreateOrderHandler(slogdiscard.NewDiscardLogger(), fakeSvc)

	reqBody := `{"customerName":"Ana","orderDate":"2024-07-15T10:00:00","products":[{"id":999,"quantity":1}]}`
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/orders/new", bytes.NewBufferString(reqBody)))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"product not found"}`, rr.Body.String())
}

func TestListOrdersHandler_PassesQuery(t *testing.T) {
	fakeSvc := &fakeOrderService{orders: []*models.Order{}}
	handler := handlers.ListOrdersHandler(slogdiscard.NewDiscardLogger(), fakeSvc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/orders?customerName=Ana&description=gift&startDate=2024-07-01&endDate=2024-07-31", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
	assert.Equal(t, service.OrderQuery{
		CustomerName: "Ana",
		Description:  "gift",
		StartDate:    "2024-07-01",
		EndDate:      "2024-07-31",
	}, fakeSvc.gotQuery)
}

func TestListOrdersHandler_InvalidDate(t *testing.T) {
	fakeSvc := &fakeOrderService{err: models.ValidationErrors{{Field: "startDate", Message: "must be a valid date-time"}}}
	handler := handlers.ListOrdersHandler(slogdiscard.NewDiscardLogger(), fakeSvc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/orders?startDate=yesterday", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, `{"errors":[{"field":"startDate","message":"must be a valid date-time"}]}`, rr.Body.String())
}

func TestGetOrderHandler_NotFound(t *testing.T) {
	fakeSvc := &fakeOrderService{err: storage.ErrOrderNotFound}
	handler := handlers.GetOrderHandler(slogdiscard.NewDiscardLogger(), fakeSvc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withID(httptest.NewRequest(http.MethodGet, "/api/orders/999", nil), "999"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"order not found"}`, rr.Body.String())
	assert.Equal(t, int64(999), fakeSvc.gotID)
}

func TestUpdateOrderHandler_NegativeID(t *testing.T) {
	fakeSvc := &fakeOrderService{}
	handler := handlers.UpdateOrderHandler(slogdiscard.NewDiscardLogger(), fakeSvc)

	req := withID(httptest.NewRequest(http.MethodPut, "/api/orders/-1/edit", bytes.NewBufferString(`{}`)), "-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Zero(t, fakeSvc.gotID, "service must not be called")
}

func TestDeleteOrderHandler_Success(t *testing.T) {
	fakeSvc := &fakeOrderService{}
	handler := handlers.DeleteOrderHandler(slogdiscard.NewDiscardLogger(), fakeSvc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withID(httptest.NewRequest(http.MethodDelete, "/api/orders/5", nil), "5"))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, int64(5), fakeSvc.gotID)
}

func TestHealthHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	handlers.HealthHandler(slogdiscard.NewDiscardLogger(), fakePinger{}).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	handlers.HealthHandler(slogdiscard.NewDiscardLogger(), fakePinger{err: errors.New("down")}).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rr.Body.String())
}
