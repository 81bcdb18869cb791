// Package httputil translates transport-agnostic domain errors into HTTP
// responses and provides JSON helpers shared by all handlers.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"rosterd/internal/platform/middleware"
	id "rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore
	// encoding errors. The body may be incomplete, but headers are sent.
	_ = json.NewEncoder(w).Encode(response)
}

// ErrorResponse is the wire shape for all error replies.
type ErrorResponse struct {
	Error       string         `json:"error"`
	Description string         `json:"error_description,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// WriteError centralizes domain error translation to HTTP responses.
// Domain codes double as wire codes; only the status mapping lives here.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), &ErrorResponse{
			Error:       string(domainErr.Code),
			Description: domainErr.Message,
			Details:     domainErr.Details,
		})
		return
	}

	// Fallback for unexpected errors. The raw error is never sent to clients.
	WriteJSON(w, http.StatusInternalServerError, &ErrorResponse{
		Error: string(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest,
		dErrors.CodeInvalidTimeRange,
		dErrors.CodeInvalidDateRange,
		dErrors.CodeInvalidCorrectionsProvided,
		dErrors.CodeInvalidShiftTransfer:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized,
		dErrors.CodeInvalidGoogleToken,
		dErrors.CodeEmailNotVerified:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden,
		dErrors.CodeWorkPeriodUnauthorized:
		return http.StatusForbidden
	case dErrors.CodeNotFound,
		dErrors.CodeWorkPeriodNotFound,
		dErrors.CodeLeaveNotFound,
		dErrors.CodeDriverNotFound,
		dErrors.CodeNoActiveWorkPeriod:
		return http.StatusNotFound
	case dErrors.CodeConflict,
		dErrors.CodeActiveWorkPeriodExists,
		dErrors.CodeWorkPeriodClosed,
		dErrors.CodeWorkNotClosed,
		dErrors.CodeWorkPeriodNotClosed:
		return http.StatusConflict
	case dErrors.CodeShiftTooLong,
		dErrors.CodeWorkOverlapsLeave,
		dErrors.CodeLeaveOverlapsWork,
		dErrors.CodeWorkOverlapsWork,
		dErrors.CodeWorkOverlapsExistingWork,
		dErrors.CodeDateRangeTooLarge:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes a JSON request body into the target type.
// On failure it writes the error response and returns nil, false.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	return &req, true
}

// RequireDriverID extracts the authenticated driver ID from context.
// Returns a domain error suitable for an HTTP response on failure.
func RequireDriverID(ctx context.Context, logger *slog.Logger, requestID string) (id.DriverID, error) {
	driverID, err := id.ParseDriverID(middleware.GetDriverID(ctx))
	if err != nil || driverID.IsNil() {
		if logger != nil {
			logger.ErrorContext(ctx, "driverID missing from context despite auth middleware",
				"request_id", requestID)
		}
		return id.DriverID{}, dErrors.New(dErrors.CodeInternal, "authentication context error")
	}
	return driverID, nil
}
