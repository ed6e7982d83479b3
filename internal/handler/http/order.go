package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/PiragashC/clothing-e-commerce/internal/domain"
	"github.com/PiragashC/clothing-e-commerce/internal/repository"
	"github.com/PiragashC/clothing-e-commerce/internal/service"
	"github.com/PiragashC/clothing-e-commerce/pkg/httputil"
	"github.com/PiragashC/clothing-e-commerce/pkg/validator"
)

// OrderHandler handles HTTP requests for order and sale endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateOrderRequest is the JSON request body for checkout. Without lines the
// user's cart is drained instead.
type CreateOrderRequest struct {
	UserID        string            `json:"user_id" validate:"required"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof='Direct Bank Transfer' 'Cash on Delivery' 'Credit/Debit Card'"`
	Lines         []LineRequestBody `json:"lines" validate:"omitempty,dive"`
}

// UpdateStatusRequest is the JSON request body for updating order status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Confirmed Delivered Cancelled Rejected"`
	Reason string `json:"reason"`
}

// EditOrderRequest is the JSON request body for replacing the lines of a
// pending order.
type EditOrderRequest struct {
	Lines []LineRequestBody `json:"lines" validate:"required,min=1,dive"`
}

// orderIDParam normalizes the order id path parameter. The leading "#" of
// order ids is optional in URLs so clients do not have to percent-encode it.
func orderIDParam(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if id != "" && !strings.HasPrefix(id, "#") {
		id = "#" + id
	}
	return id
}

func toDomainLines(lines []LineRequestBody) []domain.LineRequest {
	out := make([]domain.LineRequest, len(lines))
	for i, l := range lines {
		out[i] = domain.LineRequest{
			ProductID: l.ProductID,
			DesignID:  l.DesignID,
			Size:      domain.Size(l.Size),
			Quantity:  l.Quantity,
		}
	}
	return out
}

// --- Handlers ---

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateOrderRequest
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

	order, err := h.service.CreateOrder(r.Context(), req.UserID, req.PaymentMethod, toDomainLines(req.Lines))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), orderIDParam(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// UpdateOrderStatus handles PUT /api/v1/orders/{id}/status
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateStatusRequest
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

	order, err := h.service.TransitionOrder(r.Context(), orderIDParam(r), req.Status, req.Reason)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// EditOrderLines handles PUT /api/v1/orders/{id}/lines
func (h *OrderHandler) EditOrderLines(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req EditOrderRequest
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

	order, err := h.service.EditOrder(r.Context(), orderIDParam(r), toDomainLines(req.Lines))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// ListSales handles GET /api/v1/sales
func (h *OrderHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	filter := repository.SaleFilter{
		Page:    1,
		PerPage: 20,
	}

	if v := r.URL.Query().Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "page must be a valid positive integer"},
			})
			return
		}
		filter.Page = page
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > 100 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "per_page must be a valid integer between 1 and 100"},
			})
			return
		}
		filter.PerPage = perPage
	}
	if v := r.URL.Query().Get("product_id"); v != "" {
		filter.ProductID = &v
	}
	if v := r.URL.Query().Get("order_id"); v != "" {
		id := v
		if !strings.HasPrefix(id, "#") {
			id = "#" + id
		}
		filter.OrderID = &id
	}

	sales, total, err := h.service.ListSales(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(sales, total, filter.Page, filter.PerPage))
}
