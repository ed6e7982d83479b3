package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/PiragashC/clothing-e-commerce/internal/domain"
	"github.com/PiragashC/clothing-e-commerce/internal/event"
	"github.com/PiragashC/clothing-e-commerce/internal/repository"
	"github.com/PiragashC/clothing-e-commerce/internal/service"
	apperrors "github.com/PiragashC/clothing-e-commerce/pkg/errors"
	"github.com/PiragashC/clothing-e-commerce/pkg/httputil"
	pkgkafka "github.com/PiragashC/clothing-e-commerce/pkg/kafka"
)

const (
	testProductID = "550e8400-e29b-41d4-a716-446655440020"
	testDesignID  = "550e8400-e29b-41d4-a716-446655440021"
	testOrderID   = "#Order-000100"
)

// --- Mock Repositories ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) ApplyBatch(ctx context.Context, lines []domain.LineRequest, op domain.OpKind) ([]domain.StockUpdate, error) {
	args := m.Called(ctx, lines, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StockUpdate), args.Error(1)
}

func (m *mockProductRepository) ApplySwap(ctx context.Context, returns, buys []domain.LineRequest) ([]domain.StockUpdate, error) {
	args := m.Called(ctx, returns, buys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StockUpdate), args.Error(1)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) NextOrderID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, orderID, status, reason string) error {
	args := m.Called(ctx, orderID, status, reason)
	return args.Error(0)
}

func (m *mockOrderRepository) ReplaceLines(ctx context.Context, orderID string, lines []domain.SaleRecord, billingAmount int64) error {
	args := m.Called(ctx, orderID, lines, billingAmount)
	return args.Error(0)
}

type mockSaleRepository struct {
	mock.Mock
}

func (m *mockSaleRepository) RecordSales(ctx context.Context, userID string, records []domain.SaleRecord) error {
	args := m.Called(ctx, userID, records)
	return args.Error(0)
}

func (m *mockSaleRepository) List(ctx context.Context, filter repository.SaleFilter) ([]domain.SaleRecord, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.SaleRecord), args.Int(1), args.Error(2)
}

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Test Helpers ---

type handlerMocks struct {
	products *mockProductRepository
	orders   *mockOrderRepository
	sales    *mockSaleRepository
	carts    *mockCartRepository
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

// setupRouter wires handlers over mock repositories with the production route
// layout.
func setupRouter() (*chi.Mux, handlerMocks) {
	mocks := handlerMocks{
		products: new(mockProductRepository),
		orders:   new(mockOrderRepository),
		sales:    new(mockSaleRepository),
		carts:    new(mockCartRepository),
	}
	logger := testLogger()
	producer := testEventProducer()
	stockSvc := service.NewStockService(mocks.products, producer, logger)
	orderSvc := service.NewOrderService(mocks.orders, mocks.products, mocks.sales, mocks.carts, stockSvc, producer, logger)
	cartSvc := service.NewCartService(mocks.carts, stockSvc, logger)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		productHandler := NewProductHandler(stockSvc, logger)
		stockHandler := NewStockHandler(stockSvc, logger)
		cartHandler := NewCartHandler(cartSvc, logger)
		orderHandler := NewOrderHandler(orderSvc, logger)

		r.Route("/products", func(r chi.Router) {
			r.Post("/", productHandler.CreateProduct)
			r.Get("/{id}", productHandler.GetProduct)
		})
		r.Route("/stock", func(r chi.Router) {
			r.Post("/validate", stockHandler.ValidateStock)
			r.Post("/apply", stockHandler.ApplyStock)
		})
		r.Route("/carts/{userID}", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items", cartHandler.UpdateItem)
			r.Delete("/items", cartHandler.RemoveItem)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.CreateOrder)
			r.Get("/{id}", orderHandler.GetOrder)
			r.Put("/{id}/status", orderHandler.UpdateOrderStatus)
			r.Put("/{id}/lines", orderHandler.EditOrderLines)
		})
		r.Get("/sales", orderHandler.ListSales)
	})
	return r, mocks
}

// decodeResponse reads the response body into the httputil.Response struct.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func doJSON(router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// sampleProduct returns a realistic product for use in test expectations.
func sampleProduct() *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:            testProductID,
		Name:          "Linen Shirt",
		Category:      "Men",
		SubCategory:   "Shirts",
		Price:         5000,
		FinalPrice:    4000,
		Discount:      20,
		PromotionType: domain.PromotionFlashSale,
		StockStatus:   domain.StockStatusIn,
		Stock:         50,
		Quantity:      30,
		SellingRatio:  0.4,
		Designs: []domain.Design{
			{
				ID:       testDesignID,
				ImageURL: "https://cdn.example.com/linen-white.jpg",
				Total:    30,
				Sizes: []domain.SizeBucket{
					{Size: domain.SizeM, Count: 12},
					{Size: domain.SizeL, Count: 18},
				},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// sampleOrder returns a realistic pending order for use in test expectations.
func sampleOrder() *domain.Order {
	now := time.Now().UTC()
	return &domain.Order{
		OrderID: testOrderID,
		UserID:  "user-456",
		Lines: []domain.SaleRecord{
			{
				ID:            "550e8400-e29b-41d4-a716-446655440030",
				OrderID:       testOrderID,
				ProductID:     testProductID,
				DesignID:      testDesignID,
				Size:          domain.SizeM,
				ProductName:   "Linen Shirt",
				Quantity:      2,
				TotalPrice:    8000,
				PromotionType: domain.PromotionFlashSale,
				SaleDate:      now,
				DesignImage:   "https://cdn.example.com/linen-white.jpg",
			},
		},
		BillingAmount: 8000,
		PaymentMethod: domain.PaymentCashOnDelivery,
		Status:        domain.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func validCreateOrderBody() CreateOrderRequest {
	return CreateOrderRequest{
		UserID:        "user-456",
		PaymentMethod: domain.PaymentCashOnDelivery,
		Lines: []LineRequestBody{
			{ProductID: testProductID, DesignID: testDesignID, Size: "m", Quantity: 2},
		},
	}
}

// ============================================================================
// POST /api/v1/orders - CreateOrder
// ============================================================================

func TestCreateOrderEndpoint_Success(t *testing.T) {
	router, mocks := setupRouter()

	mocks.products.On("GetByID", mock.Anything, testProductID).Return(sampleProduct(), nil)
	mocks.orders.On("NextOrderID", mock.Anything).Return(testOrderID, nil)
	mocks.products.On("ApplyBatch", mock.Anything, mock.Anything, domain.OpBuy).
		Return([]domain.StockUpdate{}, nil)
	mocks.orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	rec := doJSON(router, http.MethodPost, "/api/v1/orders", validCreateOrderBody())

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, testOrderID, data["order_id"])
	assert.Equal(t, domain.OrderStatusPending, data["status"])
	assert.Equal(t, float64(8000), data["billing_amount"])
}

func TestCreateOrderEndpoint_MissingPaymentMethod(t *testing.T) {
	router, _ := setupRouter()

	body := validCreateOrderBody()
	body.PaymentMethod = ""

	rec := doJSON(router, http.MethodPost, "/api/v1/orders", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestCreateOrderEndpoint_InsufficientStock(t *testing.T) {
	router, mocks := setupRouter()

	mocks.products.On("GetByID", mock.Anything, testProductID).Return(sampleProduct(), nil)

	body := validCreateOrderBody()
	body.Lines[0].Quantity = 13 // only 12 in the m bucket

	rec := doJSON(router, http.MethodPost, "/api/v1/orders", body)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INSUFFICIENT_QUANTITY", resp.Error.Code)
}

func TestCreateOrderEndpoint_RejectsNonJSON(t *testing.T) {
	router, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte("<xml/>")))
	req.Header.Set("Content-Type", "application/xml")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

// ============================================================================
// GET /api/v1/orders/{id} - GetOrder
// ============================================================================

func TestGetOrderEndpoint_Success(t *testing.T) {
	router, mocks := setupRouter()

	mocks.orders.On("GetByID", mock.Anything, testOrderID).Return(sampleOrder(), nil)

	// The "#" prefix is optional in the URL.
	rec := doJSON(router, http.MethodGet, "/api/v1/orders/Order-000100", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, testOrderID, data["order_id"])
}

func TestGetOrderEndpoint_NotFound(t *testing.T) {
	router, mocks := setupRouter()

	mocks.orders.On("GetByID", mock.Anything, "#Order-000999").
		Return(nil, apperrors.NotFound("order", "#Order-000999"))

	rec := doJSON(router, http.MethodGet, "/api/v1/orders/Order-000999", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// PUT /api/v1/orders/{id}/status - UpdateOrderStatus
// ============================================================================

func TestUpdateOrderStatusEndpoint_Confirm(t *testing.T) {
	router, mocks := setupRouter()

	mocks.orders.On("GetByID", mock.Anything, testOrderID).Return(sampleOrder(), nil)
	mocks.orders.On("UpdateStatus", mock.Anything, testOrderID, domain.OrderStatusConfirmed, "").Return(nil)

	rec := doJSON(router, http.MethodPut, "/api/v1/orders/Order-000100/status",
		UpdateStatusRequest{Status: domain.OrderStatusConfirmed})

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, domain.OrderStatusConfirmed, data["status"])
}

func TestUpdateOrderStatusEndpoint_IllegalTransition(t *testing.T) {
	router, mocks := setupRouter()

	order := sampleOrder()
	order.Status = domain.OrderStatusDelivered
	mocks.orders.On("GetByID", mock.Anything, testOrderID).Return(order, nil)

	rec := doJSON(router, http.MethodPut, "/api/v1/orders/Order-000100/status",
		UpdateStatusRequest{Status: domain.OrderStatusCancelled})

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ILLEGAL_TRANSITION", resp.Error.Code)
}

func TestUpdateOrderStatusEndpoint_UnknownStatus(t *testing.T) {
	router, _ := setupRouter()

	rec := doJSON(router, http.MethodPut, "/api/v1/orders/Order-000100/status",
		UpdateStatusRequest{Status: "Shipped"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOrderStatusEndpoint_RejectWithoutReason(t *testing.T) {
	router, mocks := setupRouter()

	mocks.orders.On("GetByID", mock.Anything, testOrderID).Return(sampleOrder(), nil)

	rec := doJSON(router, http.MethodPut, "/api/v1/orders/Order-000100/status",
		UpdateStatusRequest{Status: domain.OrderStatusRejected})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// PUT /api/v1/orders/{id}/lines - EditOrderLines
// ============================================================================

func TestEditOrderLinesEndpoint_Success(t *testing.T) {
	router, mocks := setupRouter()

	order := sampleOrder()
	mocks.orders.On("GetByID", mock.Anything, testOrderID).Return(order, nil)
	mocks.products.On("GetByID", mock.Anything, testProductID).Return(sampleProduct(), nil)
	mocks.products.On("ApplySwap", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.StockUpdate{}, nil)
	mocks.orders.On("ReplaceLines", mock.Anything, testOrderID, mock.Anything, int64(12000)).Return(nil)

	rec := doJSON(router, http.MethodPut, "/api/v1/orders/Order-000100/lines",
		EditOrderRequest{Lines: []LineRequestBody{
			{ProductID: testProductID, DesignID: testDesignID, Size: "l", Quantity: 3},
		}})

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, float64(12000), data["billing_amount"]) // 3 * 4000
}

func TestEditOrderLinesEndpoint_NonPending(t *testing.T) {
	router, mocks := setupRouter()

	order := sampleOrder()
	order.Status = domain.OrderStatusConfirmed
	mocks.orders.On("GetByID", mock.Anything, testOrderID).Return(order, nil)

	rec := doJSON(router, http.MethodPut, "/api/v1/orders/Order-000100/lines",
		EditOrderRequest{Lines: []LineRequestBody{
			{ProductID: testProductID, DesignID: testDesignID, Size: "l", Quantity: 1},
		}})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestEditOrderLinesEndpoint_EmptyLines(t *testing.T) {
	router, _ := setupRouter()

	rec := doJSON(router, http.MethodPut, "/api/v1/orders/Order-000100/lines",
		EditOrderRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// GET /api/v1/sales - ListSales
// ============================================================================

func TestListSalesEndpoint_Success(t *testing.T) {
	router, mocks := setupRouter()

	sales := []domain.SaleRecord{sampleOrder().Lines[0]}
	mocks.sales.On("List", mock.Anything, mock.AnythingOfType("repository.SaleFilter")).
		Return(sales, 1, nil)

	rec := doJSON(router, http.MethodGet, "/api/v1/sales?page=1&per_page=20", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp httputil.PaginatedResponse[domain.SaleRecord]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.TotalCount)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, testOrderID, resp.Data[0].OrderID)
}

func TestListSalesEndpoint_FilterNormalizesOrderID(t *testing.T) {
	router, mocks := setupRouter()

	mocks.sales.On("List", mock.Anything, mock.MatchedBy(func(f repository.SaleFilter) bool {
		return f.OrderID != nil && *f.OrderID == testOrderID
	})).Return([]domain.SaleRecord{}, 0, nil)

	rec := doJSON(router, http.MethodGet, "/api/v1/sales?order_id=Order-000100", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	mocks.sales.AssertExpectations(t)
}

func TestListSalesEndpoint_InvalidPage(t *testing.T) {
	router, _ := setupRouter()

	rec := doJSON(router, http.MethodGet, "/api/v1/sales?page=zero", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
