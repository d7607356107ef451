package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeSurvivesWrapping(t *testing.T) {
	err := New(CodeNotFound, "medicine not found")
	wrapped := fmt.Errorf("loading catalog: %w", err)

	require.True(t, Is(wrapped, CodeNotFound))
	require.False(t, Is(wrapped, CodeConflict))

	typed := As(wrapped)
	require.NotNil(t, typed)
	require.Equal(t, "medicine not found", typed.Message())
}

func TestAsReturnsNilForPlainErrors(t *testing.T) {
	require.Nil(t, As(errors.New("boom")))
	require.Nil(t, As(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeInternal, cause, "database unavailable")

	require.ErrorIs(t, err, cause)
	require.Equal(t, "database unavailable: connection refused", err.Error())
}

func TestHTTPStatusMapping(t *testing.T) {
	require.Equal(t, http.StatusNotFound, HTTPStatus(CodeNotFound))
	require.Equal(t, http.StatusConflict, HTTPStatus(CodeInsufficientStock))
	require.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(CodeInsufficientPayment))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(Code("UNKNOWN")))
}

func TestInsufficientStockDetails(t *testing.T) {
	err := InsufficientStock("Insulin", 5, 10)

	require.Equal(t, CodeInsufficientStock, err.Code())
	require.Equal(t, 5, err.Details()["available"])
	require.Equal(t, 10, err.Details()["required"])
	require.Contains(t, err.Error(), "5 available, 10 required")
}
