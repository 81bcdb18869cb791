package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"rosterd/internal/platform/middleware"
	workmodels "rosterd/internal/work/models"
	workservice "rosterd/internal/work/service"
	id "rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
	"rosterd/pkg/platform/httputil"
)

// WorkService drives the work period command workflows.
type WorkService interface {
	StartWork(ctx context.Context, driverID id.DriverID, workPeriodID id.WorkPeriodID, startTime time.Time) (id.WorkPeriodID, error)
	CloseWork(ctx context.Context, driverID id.DriverID, endTime time.Time) (*workmodels.WorkPeriod, error)
	CorrectWork(ctx context.Context, driverID id.DriverID, workPeriodID id.WorkPeriodID, correctionID id.WorkCorrectionID, correctedStart, correctedEnd time.Time, reason string) (*workmodels.WorkCorrection, error)
	GetWorkStatus(ctx context.Context, driverID id.DriverID) (workservice.WorkStatus, error)
}

type WorkHandler struct {
	service WorkService
	logger  *slog.Logger
}

func NewWorkHandler(service WorkService, logger *slog.Logger) *WorkHandler {
	return &WorkHandler{service: service, logger: logger}
}

type startWorkRequest struct {
	WorkPeriodID string    `json:"workPeriodId"`
	StartTime    time.Time `json:"startTime"`
}

type startWorkResponse struct {
	WorkPeriodID string `json:"workPeriodId"`
}

// HandleStartWork opens a new work period. The client supplies the period ID
// so that retries of the same request are idempotent.
func (h *WorkHandler) HandleStartWork(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	driverID, err := httputil.RequireDriverID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[startWorkRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	workPeriodID, err := parseOrNewWorkPeriodID(req.WorkPeriodID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.StartWork(ctx, driverID, workPeriodID, req.StartTime)
	if err != nil {
		h.logger.WarnContext(ctx, "start work failed", "error", err, "request_id", requestID, "driver_id", driverID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &startWorkResponse{WorkPeriodID: created.String()})
}

type closeWorkRequest struct {
	EndTime time.Time `json:"endTime"`
}

// HandleCloseWork closes the driver's OPEN work period.
func (h *WorkHandler) HandleCloseWork(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	driverID, err := httputil.RequireDriverID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[closeWorkRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	period, err := h.service.CloseWork(ctx, driverID, req.EndTime)
	if err != nil {
		h.logger.WarnContext(ctx, "close work failed", "error", err, "request_id", requestID, "driver_id", driverID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toWorkPeriodResponse(period))
}

type correctWorkRequest struct {
	WorkPeriodID   string    `json:"workPeriodId"`
	CorrectionID   string    `json:"correctionId"`
	CorrectedStart time.Time `json:"correctedStartTime"`
	CorrectedEnd   time.Time `json:"correctedEndTime"`
	Reason         string    `json:"reason"`
}

// HandleCorrectWork appends a correction to a closed work period.
func (h *WorkHandler) HandleCorrectWork(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	driverID, err := httputil.RequireDriverID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[correctWorkRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	workPeriodID, err := id.ParseWorkPeriodID(req.WorkPeriodID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid work period id"))
		return
	}
	correctionID, err := parseOrNewWorkCorrectionID(req.CorrectionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	correction, err := h.service.CorrectWork(ctx, driverID, workPeriodID, correctionID, req.CorrectedStart, req.CorrectedEnd, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "correct work failed", "error", err, "request_id", requestID, "driver_id", driverID, "work_period_id", workPeriodID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toWorkCorrectionResponse(correction))
}

type workStatusResponse struct {
	HasOpenPeriod bool                `json:"hasOpenPeriod"`
	Period        *workPeriodResponse `json:"period,omitempty"`
}

// HandleWorkStatus reports whether the driver is currently on shift.
func (h *WorkHandler) HandleWorkStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	driverID, err := httputil.RequireDriverID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, err := h.service.GetWorkStatus(ctx, driverID)
	if err != nil {
		h.logger.ErrorContext(ctx, "work status failed", "error", err, "request_id", requestID, "driver_id", driverID)
		httputil.WriteError(w, err)
		return
	}

	resp := workStatusResponse{HasOpenPeriod: status.HasOpenPeriod}
	if status.Period != nil {
		period := toWorkPeriodResponse(status.Period)
		resp.Period = &period
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseOrNewWorkPeriodID(s string) (id.WorkPeriodID, error) {
	if s == "" {
		return id.NewWorkPeriodID(), nil
	}
	parsed, err := id.ParseWorkPeriodID(s)
	if err != nil {
		return id.WorkPeriodID{}, dErrors.New(dErrors.CodeBadRequest, "invalid work period id")
	}
	return parsed, nil
}

func parseOrNewWorkCorrectionID(s string) (id.WorkCorrectionID, error) {
	if s == "" {
		return id.NewWorkCorrectionID(), nil
	}
	parsed, err := id.ParseWorkCorrectionID(s)
	if err != nil {
		return id.WorkCorrectionID{}, dErrors.New(dErrors.CodeBadRequest, "invalid correction id")
	}
	return parsed, nil
}
