package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	entriesmodels "rosterd/internal/entries/models"
	"rosterd/internal/platform/middleware"
	id "rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
	"rosterd/pkg/platform/httputil"
)

// EntriesService reads the unified timeline projection.
type EntriesService interface {
	List(ctx context.Context, driverID id.DriverID, from, to time.Time) ([]*entriesmodels.EntryRecord, error)
	Get(ctx context.Context, driverID id.DriverID, entryID id.EntryID) (*entriesmodels.EntryRecord, error)
}

type EntriesHandler struct {
	service EntriesService
	logger  *slog.Logger
}

func NewEntriesHandler(service EntriesService, logger *slog.Logger) *EntriesHandler {
	return &EntriesHandler{service: service, logger: logger}
}

type entryListResponse struct {
	Entries []entryResponse `json:"entries"`
}

// HandleListEntries lists timeline entries, optionally narrowed by from/to.
func (h *EntriesHandler) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	driverID, err := httputil.RequireDriverID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	from, ok := parseTimeParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := parseTimeParam(w, r, "to")
	if !ok {
		return
	}

	entries, err := h.service.List(ctx, driverID, from, to)
	if err != nil {
		h.logger.ErrorContext(ctx, "list entries failed", "error", err, "request_id", requestID, "driver_id", driverID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &entryListResponse{Entries: toEntryResponses(entries)})
}

// HandleGetEntry returns a single timeline entry owned by the driver.
func (h *EntriesHandler) HandleGetEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	driverID, err := httputil.RequireDriverID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entryID, err := id.ParseEntryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid entry id"))
		return
	}

	entry, err := h.service.Get(ctx, driverID, entryID)
	if err != nil {
		h.logger.WarnContext(ctx, "get entry failed", "error", err, "request_id", requestID, "driver_id", driverID, "entry_id", entryID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toEntryResponse(entry))
}

// parseTimeParam reads an optional RFC 3339 query parameter. A missing
// parameter yields the zero time.
func parseTimeParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		httputil.WriteError(w, dErrors.NewWithDetails(dErrors.CodeBadRequest,
			"invalid time parameter, expected RFC 3339",
			map[string]any{"param": name}))
		return time.Time{}, false
	}
	return t, true
}
