package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrCodeExpired.WithDetail("reset"))

	require.Equal(t, http.StatusGone, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "CODE_EXPIRED", body["code"])
	require.Equal(t, "reset", body["detail"])
}

func TestFromError_UnwrapsAndDefaults(t *testing.T) {
	wrapped := fmt.Errorf("controller: %w", ErrTokenInvalid)
	require.Equal(t, ErrTokenInvalid, FromError(wrapped))

	plain := fmt.Errorf("boom")
	got := FromError(plain)
	require.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
	require.ErrorIs(t, got, plain)
}

func TestWithDetail_DoesNotMutateBase(t *testing.T) {
	_ = ErrBadRequest.WithDetail("x")
	require.Empty(t, ErrBadRequest.Detail)
}
