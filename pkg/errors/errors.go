package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDeviceNotFound         = errors.New("device not found")
	ErrDeviceAlreadyExists    = errors.New("device already exists")
	ErrDeviceDeleted          = errors.New("device has been deleted")
	ErrConcurrentModification = errors.New("device was modified concurrently")

	ErrInvalidInput = errors.New("invalid input data")
)

// Error codes used across the service. The delivery layer maps them to HTTP
// statuses through HTTPStatus.
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeDeviceNotFound         = "DEVICE_NOT_FOUND"
	CodeDeviceExists           = "DEVICE_EXISTS"
	CodeInvalidTransition      = "INVALID_STATUS_TRANSITION"
	CodeDeviceNotActive        = "DEVICE_NOT_ACTIVE"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeInternal               = "INTERNAL_ERROR"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HTTPStatus resolves an error to the status code the API contract promises:
// 400 for validation and business-rule rejections, 404 for missing devices,
// 409 for optimistic-lock conflicts and 500 for everything unclassified.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeDeviceNotFound:
			return http.StatusNotFound
		case CodeConcurrentModification:
			return http.StatusConflict
		case CodeValidation, CodeDeviceExists, CodeInvalidTransition, CodeDeviceNotActive:
			return http.StatusBadRequest
		default:
			return http.StatusInternalServerError
		}
	}

	switch {
	case errors.Is(err, ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, ErrDeviceAlreadyExists), errors.Is(err, ErrDeviceDeleted), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
