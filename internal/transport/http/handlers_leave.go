package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	leavemodels "rosterd/internal/leave/models"
	"rosterd/internal/platform/middleware"
	id "rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
	"rosterd/pkg/platform/httputil"
)

// LeaveService drives the leave command workflows.
type LeaveService interface {
	RecordLeave(ctx context.Context, driverID id.DriverID, leaveID id.LeaveID, startTime, endTime time.Time, reason string) (*leavemodels.LeaveEvent, error)
	CorrectLeave(ctx context.Context, driverID id.DriverID, leaveID id.LeaveID, correctionID id.LeaveCorrectionID, correctedStart, correctedEnd time.Time, reason string) (*leavemodels.LeaveCorrection, error)
}

type LeaveHandler struct {
	service LeaveService
	logger  *slog.Logger
}

func NewLeaveHandler(service LeaveService, logger *slog.Logger) *LeaveHandler {
	return &LeaveHandler{service: service, logger: logger}
}

type recordLeaveRequest struct {
	LeaveID   string    `json:"leaveId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Reason    string    `json:"reason"`
}

// HandleRecordLeave records a new leave event for the authenticated driver.
func (h *LeaveHandler) HandleRecordLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	driverID, err := httputil.RequireDriverID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[recordLeaveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	leaveID, err := parseOrNewLeaveID(req.LeaveID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	leave, err := h.service.RecordLeave(ctx, driverID, leaveID, req.StartTime, req.EndTime, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "record leave failed", "error", err, "request_id", requestID, "driver_id", driverID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toLeaveResponse(leave))
}

type correctLeaveRequest struct {
	LeaveID        string    `json:"leaveId"`
	CorrectionID   string    `json:"correctionId"`
	CorrectedStart time.Time `json:"correctedStartTime"`
	CorrectedEnd   time.Time `json:"correctedEndTime"`
	Reason         string    `json:"reason"`
}

// HandleCorrectLeave appends a correction to an existing leave event.
func (h *LeaveHandler) HandleCorrectLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	driverID, err := httputil.RequireDriverID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[correctLeaveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	leaveID, err := id.ParseLeaveID(req.LeaveID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid leave id"))
		return
	}
	correctionID, err := parseOrNewLeaveCorrectionID(req.CorrectionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	correction, err := h.service.CorrectLeave(ctx, driverID, leaveID, correctionID, req.CorrectedStart, req.CorrectedEnd, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "correct leave failed", "error", err, "request_id", requestID, "driver_id", driverID, "leave_id", leaveID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toLeaveCorrectionResponse(correction))
}

func parseOrNewLeaveID(s string) (id.LeaveID, error) {
	if s == "" {
		return id.NewLeaveID(), nil
	}
	parsed, err := id.ParseLeaveID(s)
	if err != nil {
		return id.LeaveID{}, dErrors.New(dErrors.CodeBadRequest, "invalid leave id")
	}
	return parsed, nil
}

func parseOrNewLeaveCorrectionID(s string) (id.LeaveCorrectionID, error) {
	if s == "" {
		return id.NewLeaveCorrectionID(), nil
	}
	parsed, err := id.ParseLeaveCorrectionID(s)
	if err != nil {
		return id.LeaveCorrectionID{}, dErrors.New(dErrors.CodeBadRequest, "invalid correction id")
	}
	return parsed, nil
}
