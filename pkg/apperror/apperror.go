package apperror

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code classifies a business error so handlers can map it to an HTTP status
// without string matching.
type Code string

const (
	CodeNotFound            Code = "NOT_FOUND"
	CodeInsufficientStock   Code = "INSUFFICIENT_STOCK"
	CodeInvalidState        Code = "INVALID_STATE"
	CodeInvalidTransition   Code = "INVALID_TRANSITION"
	CodeInsufficientPayment Code = "INSUFFICIENT_PAYMENT"
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeAuth                Code = "AUTH_ERROR"
	CodeConflict            Code = "CONFLICT"
	CodeInternal            Code = "INTERNAL_ERROR"
)

var httpStatusByCode = map[Code]int{
	CodeNotFound:            http.StatusNotFound,
	CodeInsufficientStock:   http.StatusConflict,
	CodeInvalidState:        http.StatusUnprocessableEntity,
	CodeInvalidTransition:   http.StatusUnprocessableEntity,
	CodeInsufficientPayment: http.StatusUnprocessableEntity,
	CodeValidation:          http.StatusBadRequest,
	CodeAuth:                http.StatusUnauthorized,
	CodeConflict:            http.StatusConflict,
	CodeInternal:            http.StatusInternalServerError,
}

// HTTPStatus returns the status associated with a code, defaulting to 500.
func HTTPStatus(code Code) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a classified business error with optional structured details
// (e.g. available vs. required stock) safe to surface to API clients.
type Error struct {
	code    Code
	message string
	details map[string]interface{}
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

// WithDetails attaches structured remediation data to the error.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Code() Code { return e.code }

func (e *Error) Message() string { return e.message }

func (e *Error) Details() map[string]interface{} { return e.details }

// As extracts an *Error from anywhere in the chain, or nil.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// InsufficientStock builds the structured stock error the catalog and the
// prescription lifecycle raise when a requested quantity exceeds availability.
func InsufficientStock(medicine string, available, required int) *Error {
	return Newf(CodeInsufficientStock, "insufficient stock for %s: %d available, %d required", medicine, available, required).
		WithDetails(map[string]interface{}{
			"medicine":  medicine,
			"available": available,
			"required":  required,
		})
}

// InsufficientPayment builds the structured error raised when the tendered
// amount does not cover the total due.
func InsufficientPayment(due, tendered string) *Error {
	return Newf(CodeInsufficientPayment, "insufficient payment: %s due, %s tendered", due, tendered).
		WithDetails(map[string]interface{}{
			"due":      due,
			"tendered": tendered,
		})
}
