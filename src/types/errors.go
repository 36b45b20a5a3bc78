package types

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	ERR_VALIDATION        ErrorCode = "VALIDATION_ERROR"
	ERR_FORBIDDEN         ErrorCode = "FORBIDDEN"
	ERR_NOT_FOUND         ErrorCode = "NOT_FOUND"
	ERR_CONFLICT          ErrorCode = "CONFLICT"
	ERR_INVALID_STATE     ErrorCode = "INVALID_STATE"
	ERR_SIGNATURE_INVALID ErrorCode = "SIGNATURE_INVALID"
	ERR_PAYMENT_GATEWAY   ErrorCode = "PAYMENT_GATEWAY_ERROR"
	ERR_INTERNAL          ErrorCode = "INTERNAL_ERROR"
)

// APIError carries the error taxonomy from the handler layer to the response
// envelope. Message is safe for clients; Err holds the raw cause and is only
// exposed outside production.
type APIError struct {
	Code    ErrorCode
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

func NewValidationError(msg string, cause error) *APIError {
	return &APIError{Code: ERR_VALIDATION, Status: http.StatusBadRequest, Message: msg, Err: cause}
}

func NewForbiddenError(msg string) *APIError {
	return &APIError{Code: ERR_FORBIDDEN, Status: http.StatusForbidden, Message: msg}
}

func NewNotFoundError(msg string, cause error) *APIError {
	return &APIError{Code: ERR_NOT_FOUND, Status: http.StatusNotFound, Message: msg, Err: cause}
}

func NewConflictError(msg string, cause error) *APIError {
	return &APIError{Code: ERR_CONFLICT, Status: http.StatusConflict, Message: msg, Err: cause}
}

func NewInvalidStateError(msg string) *APIError {
	return &APIError{Code: ERR_INVALID_STATE, Status: http.StatusBadRequest, Message: msg}
}

func NewSignatureInvalidError() *APIError {
	return &APIError{
		Code:    ERR_SIGNATURE_INVALID,
		Status:  http.StatusBadRequest,
		Message: "Payment verification failed. Please contact support",
	}
}

func NewPaymentGatewayError(cause error) *APIError {
	return &APIError{
		Code:    ERR_PAYMENT_GATEWAY,
		Status:  http.StatusBadGateway,
		Message: "Payment service is currently unavailable",
		Err:     cause,
	}
}

func NewInternalError(cause error) *APIError {
	return &APIError{
		Code:    ERR_INTERNAL,
		Status:  http.StatusInternalServerError,
		Message: "Something went wrong",
		Err:     cause,
	}
}

func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewInternalError(err)
}
