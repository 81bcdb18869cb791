package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"rosterd/internal/platform/middleware"
	transfermodels "rosterd/internal/transfer/models"
	id "rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
	"rosterd/pkg/platform/httputil"
)

// TransferService records and lists shift transfers.
type TransferService interface {
	RecordShiftTransfer(ctx context.Context, transferID id.ShiftTransferID, workPeriodID id.WorkPeriodID, fromDriverID, toDriverID id.DriverID, reason string) (*transfermodels.ShiftTransferEvent, error)
	ListTransfers(ctx context.Context, driverID id.DriverID) ([]*transfermodels.ShiftTransferEvent, error)
}

type TransferHandler struct {
	service TransferService
	logger  *slog.Logger
}

func NewTransferHandler(service TransferService, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{service: service, logger: logger}
}

type recordTransferRequest struct {
	TransferID   string `json:"transferId"`
	WorkPeriodID string `json:"workPeriodId"`
	ToDriverID   string `json:"toDriverId"`
	Reason       string `json:"reason"`
}

// HandleRecordTransfer records a shift transfer from the authenticated driver.
func (h *TransferHandler) HandleRecordTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	fromDriverID, err := httputil.RequireDriverID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[recordTransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	workPeriodID, err := id.ParseWorkPeriodID(req.WorkPeriodID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid work period id"))
		return
	}
	toDriverID, err := id.ParseDriverID(req.ToDriverID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid to driver id"))
		return
	}
	transferID, err := parseOrNewTransferID(req.TransferID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	transfer, err := h.service.RecordShiftTransfer(ctx, transferID, workPeriodID, fromDriverID, toDriverID, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "record transfer failed", "error", err, "request_id", requestID, "driver_id", fromDriverID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toTransferResponse(transfer))
}

type transferListResponse struct {
	Transfers []transferResponse `json:"transfers"`
}

// HandleListTransfers lists transfers the authenticated driver took part in.
func (h *TransferHandler) HandleListTransfers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	driverID, err := httputil.RequireDriverID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	transfers, err := h.service.ListTransfers(ctx, driverID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list transfers failed", "error", err, "request_id", requestID, "driver_id", driverID)
		httputil.WriteError(w, err)
		return
	}

	resp := transferListResponse{Transfers: make([]transferResponse, 0, len(transfers))}
	for _, t := range transfers {
		resp.Transfers = append(resp.Transfers, toTransferResponse(t))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseOrNewTransferID(s string) (id.ShiftTransferID, error) {
	if s == "" {
		return id.NewShiftTransferID(), nil
	}
	parsed, err := id.ParseShiftTransferID(s)
	if err != nil {
		return id.ShiftTransferID{}, dErrors.New(dErrors.CodeBadRequest, "invalid transfer id")
	}
	return parsed, nil
}
