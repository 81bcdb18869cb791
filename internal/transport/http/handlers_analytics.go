package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"rosterd/internal/analytics"
	"rosterd/internal/platform/middleware"
	id "rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
	"rosterd/pkg/platform/httputil"
)

// AnalyticsService answers read-side aggregation queries.
type AnalyticsService interface {
	GetWorkSummary(ctx context.Context, driverID id.DriverID, from, to time.Time) (analytics.WorkSummary, error)
	GetLeaveCount(ctx context.Context, driverID id.DriverID, from, to time.Time) (analytics.LeaveCountSummary, error)
	GetTransferCount(ctx context.Context, driverID id.DriverID, from, to time.Time) (analytics.ShiftTransferCountSummary, error)
	GetAcceptedShiftCount(ctx context.Context, driverID id.DriverID, from, to time.Time) (analytics.AcceptedShiftCountSummary, error)
	GetDaily(ctx context.Context, driverID id.DriverID, from, to time.Time) (analytics.DailyReport, error)
}

type AnalyticsHandler struct {
	service AnalyticsService
	logger  *slog.Logger
}

func NewAnalyticsHandler(service AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, logger: logger}
}

// HandleWorkSummary returns total effective work hours in the range.
func (h *AnalyticsHandler) HandleWorkSummary(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "work summary", func(ctx context.Context, driverID id.DriverID, from, to time.Time) (any, error) {
		return h.service.GetWorkSummary(ctx, driverID, from, to)
	})
}

// HandleLeaveCount returns the number of effective leaves touching the range.
func (h *AnalyticsHandler) HandleLeaveCount(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "leave count", func(ctx context.Context, driverID id.DriverID, from, to time.Time) (any, error) {
		return h.service.GetLeaveCount(ctx, driverID, from, to)
	})
}

// HandleTransferCount returns the number of transfers recorded in the range.
func (h *AnalyticsHandler) HandleTransferCount(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "transfer count", func(ctx context.Context, driverID id.DriverID, from, to time.Time) (any, error) {
		return h.service.GetTransferCount(ctx, driverID, from, to)
	})
}

// HandleAcceptedShifts returns the number of shifts transferred to the driver.
func (h *AnalyticsHandler) HandleAcceptedShifts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "accepted shifts", func(ctx context.Context, driverID id.DriverID, from, to time.Time) (any, error) {
		return h.service.GetAcceptedShiftCount(ctx, driverID, from, to)
	})
}

// HandleDaily returns per-day work and leave minutes over the range.
func (h *AnalyticsHandler) HandleDaily(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "daily report", func(ctx context.Context, driverID id.DriverID, from, to time.Time) (any, error) {
		return h.service.GetDaily(ctx, driverID, from, to)
	})
}

// serve factors the shared query plumbing: auth, required from/to parameters,
// error translation.
func (h *AnalyticsHandler) serve(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	query func(ctx context.Context, driverID id.DriverID, from, to time.Time) (any, error),
) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	driverID, err := httputil.RequireDriverID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	from, to, ok := requireRangeParams(w, r)
	if !ok {
		return
	}

	result, err := query(ctx, driverID, from, to)
	if err != nil {
		h.logger.WarnContext(ctx, name+" failed", "error", err, "request_id", requestID, "driver_id", driverID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func requireRangeParams(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, ok := parseTimeParam(w, r, "from")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	to, ok := parseTimeParam(w, r, "to")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	if from.IsZero() || to.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidDateRange, "from and to query parameters are required"))
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
