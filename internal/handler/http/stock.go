package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/PiragashC/clothing-e-commerce/internal/domain"
	"github.com/PiragashC/clothing-e-commerce/internal/service"
	apperrors "github.com/PiragashC/clothing-e-commerce/pkg/errors"
	"github.com/PiragashC/clothing-e-commerce/pkg/httputil"
	"github.com/PiragashC/clothing-e-commerce/pkg/validator"
)

// StockHandler handles HTTP requests for stock validation and mutation.
type StockHandler struct {
	service *service.StockService
	logger  *slog.Logger
}

// NewStockHandler creates a new stock HTTP handler.
func NewStockHandler(svc *service.StockService, logger *slog.Logger) *StockHandler {
	return &StockHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// LineRequestBody is the JSON request body for one stock line.
type LineRequestBody struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	DesignID  string `json:"design_id" validate:"required,uuid"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// StockBatchRequest is the JSON request body for validating or applying a
// stock batch.
type StockBatchRequest struct {
	Op    string            `json:"op" validate:"required,oneof=buy return"`
	Lines []LineRequestBody `json:"lines" validate:"required,min=1,dive"`
}

func (r *StockBatchRequest) toDomain() []domain.LineRequest {
	lines := make([]domain.LineRequest, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = domain.LineRequest{
			ProductID: l.ProductID,
			DesignID:  l.DesignID,
			Size:      domain.Size(l.Size),
			Quantity:  l.Quantity,
		}
	}
	return lines
}

// --- Response DTOs ---

// LineValidationResult reports the validation outcome of one line.
type LineValidationResult struct {
	ProductID string                  `json:"product_id"`
	DesignID  string                  `json:"design_id"`
	Size      string                  `json:"size,omitempty"`
	Quantity  int                     `json:"quantity"`
	Valid     bool                    `json:"valid"`
	Error     *httputil.ErrorResponse `json:"error,omitempty"`
}

// StockValidationResponse is the JSON response body for a validation request.
type StockValidationResponse struct {
	Valid bool                   `json:"valid"`
	Lines []LineValidationResult `json:"lines"`
}

// --- Handlers ---

// ValidateStock handles POST /api/v1/stock/validate
func (h *StockHandler) ValidateStock(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req StockBatchRequest
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

	op := domain.OpKind(req.Op)
	resp := StockValidationResponse{Valid: true, Lines: make([]LineValidationResult, len(req.Lines))}
	for i, line := range req.toDomain() {
		result := LineValidationResult{
			ProductID: line.ProductID,
			DesignID:  line.DesignID,
			Size:      string(line.Size),
			Quantity:  line.Quantity,
			Valid:     true,
		}
		if _, _, err := h.service.ValidateLine(r.Context(), line, op); err != nil {
			result.Valid = false
			resp.Valid = false
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				result.Error = &httputil.ErrorResponse{Code: appErr.Code, Message: appErr.Message}
			} else {
				result.Error = &httputil.ErrorResponse{Code: "INTERNAL_ERROR", Message: "validation failed"}
			}
		}
		resp.Lines[i] = result
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: resp})
}

// ApplyStock handles POST /api/v1/stock/apply
func (h *StockHandler) ApplyStock(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req StockBatchRequest
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

	updates, err := h.service.ApplyBatch(r.Context(), req.toDomain(), domain.OpKind(req.Op))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: updates})
}
