package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterd/internal/platform/middleware"
	id "rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("domain error carries code, message and details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, dErrors.NewWithDetails(dErrors.CodeShiftTooLong,
			"shift exceeds the maximum duration",
			map[string]any{"maxHours": 14.0}))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "shift_too_long", body.Error)
		assert.Equal(t, "shift exceeds the maximum duration", body.Description)
		assert.Equal(t, 14.0, body.Details["maxHours"])
	})

	t.Run("wrapped domain error still maps", func(t *testing.T) {
		rec := httptest.NewRecorder()
		inner := dErrors.New(dErrors.CodeLeaveNotFound, "leave not found")
		WriteError(rec, dErrors.Wrap(inner, dErrors.CodeInternal, "lookup failed"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "leave_not_found", decodeError(t, rec).Error)
	})

	t.Run("unexpected error hides its message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("pq: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, string(dErrors.CodeInternal), body.Error)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestDomainCodeToHTTPStatus(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeBadRequest:              http.StatusBadRequest,
		dErrors.CodeInvalidShiftTransfer:    http.StatusBadRequest,
		dErrors.CodeUnauthorized:            http.StatusUnauthorized,
		dErrors.CodeEmailNotVerified:        http.StatusUnauthorized,
		dErrors.CodeWorkPeriodUnauthorized:  http.StatusForbidden,
		dErrors.CodeNoActiveWorkPeriod:      http.StatusNotFound,
		dErrors.CodeActiveWorkPeriodExists:  http.StatusConflict,
		dErrors.CodeWorkPeriodClosed:        http.StatusConflict,
		dErrors.CodeWorkOverlapsLeave:       http.StatusUnprocessableEntity,
		dErrors.CodeDateRangeTooLarge:       http.StatusUnprocessableEntity,
		dErrors.CodeTimeout:                 http.StatusGatewayTimeout,
		dErrors.CodeInternal:                http.StatusInternalServerError,
		dErrors.Code("something_brand_new"): http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, DomainCodeToHTTPStatus(code), string(code))
	}
}

func TestDecodeJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"alice"}`))
		rec := httptest.NewRecorder()

		decoded, ok := DecodeJSON[payload](rec, req, logger, req.Context(), "req-1")
		require.True(t, ok)
		assert.Equal(t, "alice", decoded.Name)
	})

	t.Run("malformed body writes bad_request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		rec := httptest.NewRecorder()

		_, ok := DecodeJSON[payload](rec, req, logger, req.Context(), "req-1")
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, string(dErrors.CodeBadRequest), decodeError(t, rec).Error)
	})
}

func TestRequireDriverID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("returns the authenticated driver", func(t *testing.T) {
		want := id.NewDriverID()
		ctx := middleware.WithDriverID(context.Background(), want.String())

		got, err := RequireDriverID(ctx, logger, "req-1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("missing driver is an internal error", func(t *testing.T) {
		_, err := RequireDriverID(context.Background(), logger, "req-1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
