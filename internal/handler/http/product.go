package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PiragashC/clothing-e-commerce/internal/domain"
	"github.com/PiragashC/clothing-e-commerce/internal/service"
	"github.com/PiragashC/clothing-e-commerce/pkg/httputil"
	"github.com/PiragashC/clothing-e-commerce/pkg/validator"
)

// ProductHandler handles HTTP requests for catalog endpoints.
type ProductHandler struct {
	service *service.StockService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.StockService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SizeBucketRequest is the JSON request body for one size bucket of a design.
type SizeBucketRequest struct {
	Size  string `json:"size" validate:"required,oneof=s m l xl xxl xxxl S M L XL XXL XXXL"`
	Count int    `json:"count" validate:"gte=0"`
}

// DesignRequest is the JSON request body for one design variant.
type DesignRequest struct {
	ImageURL string              `json:"image_url" validate:"required,url"`
	Total    int                 `json:"total" validate:"gte=0"`
	Sizes    []SizeBucketRequest `json:"sizes" validate:"omitempty,dive"`
}

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Name          string          `json:"name" validate:"required"`
	Keywords      []string        `json:"keywords"`
	Category      string          `json:"category" validate:"required"`
	SubCategory   string          `json:"sub_category"`
	Brand         string          `json:"brand"`
	Price         int64           `json:"price" validate:"required,gt=0"`
	FinalPrice    int64           `json:"final_price" validate:"required,gt=0"`
	PromotionType string          `json:"promotion_type" validate:"omitempty,oneof='No Promotion' 'Flash Sale' 'Clearance' 'Seasonal Offer'"`
	Designs       []DesignRequest `json:"designs" validate:"required,min=1,dive"`
}

// --- Handlers ---

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product := &domain.Product{
		Name:          req.Name,
		Keywords:      req.Keywords,
		Category:      req.Category,
		SubCategory:   req.SubCategory,
		Brand:         req.Brand,
		Price:         req.Price,
		FinalPrice:    req.FinalPrice,
		PromotionType: req.PromotionType,
		Designs:       make([]domain.Design, len(req.Designs)),
	}
	for i, d := range req.Designs {
		design := domain.Design{
			ImageURL: d.ImageURL,
			Total:    d.Total,
			Sizes:    make([]domain.SizeBucket, len(d.Sizes)),
		}
		for j, s := range d.Sizes {
			design.Sizes[j] = domain.SizeBucket{Size: domain.Size(s.Size), Count: s.Count}
		}
		product.Designs[i] = design
	}

	created, err := h.service.CreateProduct(r.Context(), product)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: created})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}
