package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrUnsafeRedirect.WithDetail("https://evil.example"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "UNSAFE_REDIRECT", body["code"])
	require.Equal(t, "https://evil.example", body["detail"])
	require.Empty(t, ErrUnsafeRedirect.Detail, "base error must not be mutated")
}

func TestFromError_WrappedAndGeneric(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", ErrServiceUnavailable)
	require.Equal(t, "SERVICE_UNAVAILABLE", FromError(wrapped).Code)

	generic := FromError(io.EOF)
	require.Equal(t, http.StatusInternalServerError, generic.HTTPStatus)
	require.ErrorIs(t, generic, io.EOF)
}
