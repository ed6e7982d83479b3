package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
)

// Inventory and order sentinel errors.
var (
	ErrOutOfStock        = errors.New("out of stock")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSizeRequired      = errors.New("size required")
	ErrInvalidOperation  = errors.New("invalid operation kind")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// ProductNotFound creates a 404 error for a missing product.
func ProductNotFound(id string) *AppError {
	return &AppError{
		Code:    "PRODUCT_NOT_FOUND",
		Message: fmt.Sprintf("product with id %s not found", id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// DesignNotFound creates a 404 error for a missing design within a product.
func DesignNotFound(productID, designID string) *AppError {
	return &AppError{
		Code:    "DESIGN_NOT_FOUND",
		Message: fmt.Sprintf("design %s not found in product %s", designID, productID),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// SizeNotFound creates a 404 error for a size absent from a design.
func SizeNotFound(designID, size string) *AppError {
	return &AppError{
		Code:    "SIZE_NOT_FOUND",
		Message: fmt.Sprintf("size %q not found in design %s", size, designID),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// SizeRequired creates a 400 error for a sizeless request against a sized design.
func SizeRequired(designID string) *AppError {
	return &AppError{
		Code:    "SIZE_REQUIRED",
		Message: fmt.Sprintf("design %s is sold by size; a size must be specified", designID),
		Status:  http.StatusBadRequest,
		Err:     ErrSizeRequired,
	}
}

// OutOfStock creates a 409 error for a fully depleted size bucket.
func OutOfStock(designID, size string) *AppError {
	msg := fmt.Sprintf("design %s is out of stock", designID)
	if size != "" {
		msg = fmt.Sprintf("design %s size %q is out of stock", designID, size)
	}
	return &AppError{
		Code:    "OUT_OF_STOCK",
		Message: msg,
		Status:  http.StatusConflict,
		Err:     ErrOutOfStock,
	}
}

// InsufficientQuantity creates a 409 error when available stock cannot cover
// the requested quantity.
func InsufficientQuantity(designID string, requested, available int) *AppError {
	return &AppError{
		Code:    "INSUFFICIENT_QUANTITY",
		Message: fmt.Sprintf("design %s has %d units available, %d requested", designID, available, requested),
		Status:  http.StatusConflict,
		Err:     ErrInsufficientStock,
	}
}

// InvalidOperation creates a 400 error for an unrecognized stock operation kind.
func InvalidOperation(kind string) *AppError {
	return &AppError{
		Code:    "INVALID_OPERATION",
		Message: fmt.Sprintf("unknown stock operation %q", kind),
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidOperation,
	}
}

// IllegalTransition creates a 409 error for a forbidden order status change.
func IllegalTransition(from, to string) *AppError {
	return &AppError{
		Code:    "ILLEGAL_TRANSITION",
		Message: fmt.Sprintf("cannot transition order from %s to %s", from, to),
		Status:  http.StatusConflict,
		Err:     ErrIllegalTransition,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict),
		errors.Is(err, ErrOutOfStock), errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrSizeRequired),
		errors.Is(err, ErrInvalidOperation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
