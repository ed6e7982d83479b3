package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/PiragashC/clothing-e-commerce/internal/domain"
	apperrors "github.com/PiragashC/clothing-e-commerce/pkg/errors"
)

func validCreateProductBody() CreateProductRequest {
	return CreateProductRequest{
		Name:       "Linen Shirt",
		Category:   "Men",
		Price:      5000,
		FinalPrice: 4000,
		Designs: []DesignRequest{
			{
				ImageURL: "https://cdn.example.com/linen-white.jpg",
				Sizes: []SizeBucketRequest{
					{Size: "m", Count: 12},
					{Size: "l", Count: 18},
				},
			},
		},
	}
}

// ============================================================================
// POST /api/v1/products - CreateProduct
// ============================================================================

func TestCreateProductEndpoint_Success(t *testing.T) {
	router, mocks := setupRouter()

	mocks.products.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	rec := doJSON(router, http.MethodPost, "/api/v1/products", validCreateProductBody())

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Linen Shirt", data["name"])
	mocks.products.AssertExpectations(t)
}

func TestCreateProductEndpoint_MissingName(t *testing.T) {
	router, _ := setupRouter()

	body := validCreateProductBody()
	body.Name = ""

	rec := doJSON(router, http.MethodPost, "/api/v1/products", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestCreateProductEndpoint_NoDesigns(t *testing.T) {
	router, _ := setupRouter()

	body := validCreateProductBody()
	body.Designs = nil

	rec := doJSON(router, http.MethodPost, "/api/v1/products", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProductEndpoint_UnknownPromotionType(t *testing.T) {
	router, _ := setupRouter()

	body := validCreateProductBody()
	body.PromotionType = "Mega Sale"

	rec := doJSON(router, http.MethodPost, "/api/v1/products", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// GET /api/v1/products/{id} - GetProduct
// ============================================================================

func TestGetProductEndpoint_Success(t *testing.T) {
	router, mocks := setupRouter()

	mocks.products.On("GetByID", mock.Anything, testProductID).Return(sampleProduct(), nil)

	rec := doJSON(router, http.MethodGet, "/api/v1/products/"+testProductID, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, testProductID, data["id"])
}

func TestGetProductEndpoint_InvalidUUID(t *testing.T) {
	router, _ := setupRouter()

	rec := doJSON(router, http.MethodGet, "/api/v1/products/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

func TestGetProductEndpoint_NotFound(t *testing.T) {
	router, mocks := setupRouter()

	mocks.products.On("GetByID", mock.Anything, testProductID).
		Return(nil, apperrors.ProductNotFound(testProductID))

	rec := doJSON(router, http.MethodGet, "/api/v1/products/"+testProductID, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PRODUCT_NOT_FOUND", resp.Error.Code)
}

// ============================================================================
// POST /api/v1/stock/validate - ValidateStock
// ============================================================================

func TestValidateStockEndpoint_AllValid(t *testing.T) {
	router, mocks := setupRouter()

	mocks.products.On("GetByID", mock.Anything, testProductID).Return(sampleProduct(), nil)

	rec := doJSON(router, http.MethodPost, "/api/v1/stock/validate", StockBatchRequest{
		Op: "buy",
		Lines: []LineRequestBody{
			{ProductID: testProductID, DesignID: testDesignID, Size: "m", Quantity: 2},
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, true, data["valid"])
}

func TestValidateStockEndpoint_ReportsPerLineErrors(t *testing.T) {
	router, mocks := setupRouter()

	mocks.products.On("GetByID", mock.Anything, testProductID).Return(sampleProduct(), nil)

	rec := doJSON(router, http.MethodPost, "/api/v1/stock/validate", StockBatchRequest{
		Op: "buy",
		Lines: []LineRequestBody{
			{ProductID: testProductID, DesignID: testDesignID, Size: "m", Quantity: 2},
			{ProductID: testProductID, DesignID: testDesignID, Size: "m", Quantity: 99},
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, false, data["valid"])

	lines := data["lines"].([]interface{})
	require.Len(t, lines, 2)
	first := lines[0].(map[string]interface{})
	second := lines[1].(map[string]interface{})
	assert.Equal(t, true, first["valid"])
	assert.Equal(t, false, second["valid"])
	secondErr := second["error"].(map[string]interface{})
	assert.Equal(t, "INSUFFICIENT_QUANTITY", secondErr["code"])
}

func TestValidateStockEndpoint_UnknownOp(t *testing.T) {
	router, _ := setupRouter()

	rec := doJSON(router, http.MethodPost, "/api/v1/stock/validate", StockBatchRequest{
		Op: "exchange",
		Lines: []LineRequestBody{
			{ProductID: testProductID, DesignID: testDesignID, Quantity: 1},
		},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// POST /api/v1/stock/apply - ApplyStock
// ============================================================================

func TestApplyStockEndpoint_Success(t *testing.T) {
	router, mocks := setupRouter()

	updates := []domain.StockUpdate{
		{
			ProductID:    testProductID,
			DesignID:     testDesignID,
			Size:         domain.SizeM,
			Op:           domain.OpBuy,
			Quantity:     2,
			NewQuantity:  28,
			NewTotal:     28,
			SellingRatio: 0.44,
		},
	}
	mocks.products.On("ApplyBatch", mock.Anything, mock.Anything, domain.OpBuy).Return(updates, nil)

	rec := doJSON(router, http.MethodPost, "/api/v1/stock/apply", StockBatchRequest{
		Op: "buy",
		Lines: []LineRequestBody{
			{ProductID: testProductID, DesignID: testDesignID, Size: "M", Quantity: 2},
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)
	mocks.products.AssertExpectations(t)
}

func TestApplyStockEndpoint_OutOfStock(t *testing.T) {
	router, mocks := setupRouter()

	mocks.products.On("ApplyBatch", mock.Anything, mock.Anything, domain.OpBuy).
		Return(nil, apperrors.OutOfStock(testDesignID, "m"))

	rec := doJSON(router, http.MethodPost, "/api/v1/stock/apply", StockBatchRequest{
		Op: "buy",
		Lines: []LineRequestBody{
			{ProductID: testProductID, DesignID: testDesignID, Size: "m", Quantity: 1},
		},
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "OUT_OF_STOCK", resp.Error.Code)
}

func TestApplyStockEndpoint_EmptyLines(t *testing.T) {
	router, _ := setupRouter()

	rec := doJSON(router, http.MethodPost, "/api/v1/stock/apply", StockBatchRequest{Op: "buy"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
