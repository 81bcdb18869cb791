package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	leaveservice "rosterd/internal/leave/service"
	"rosterd/internal/uow"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
	"rosterd/pkg/testutil"
)

func newLeaveHandler(t *testing.T) (*LeaveHandler, domain.DriverID) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := leaveservice.NewService(uow.NewMemory(), logger, nil,
		leaveservice.WithClock(func() time.Time { return apiWall }))
	return NewLeaveHandler(svc, logger), domain.NewDriverID()
}

func TestHandleRecordLeave(t *testing.T) {
	handler, driverID := newLeaveHandler(t)

	testutil.Given(t, "an authenticated driver", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/leave/record", map[string]any{
			"startTime": apiWall,
			"endTime":   apiWall.Add(8 * time.Hour),
			"reason":    "medical",
		})
		req = testutil.WithDriver(req, driverID.String())

		rec := testutil.DoRequest(http.HandlerFunc(handler.HandleRecordLeave), req)
		testutil.AssertStatus(t, rec, http.StatusCreated)

		resp := testutil.UnmarshalResponse[leaveResponse](t, rec)
		assert.Equal(t, driverID.String(), resp.DriverID)
		assert.Equal(t, "medical", resp.Reason)
	})

	testutil.Given(t, "a malformed body", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/leave/record", "{")
		req = testutil.WithDriver(req, driverID.String())

		rec := testutil.DoRequest(http.HandlerFunc(handler.HandleRecordLeave), req)
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	testutil.Given(t, "an inverted interval", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/leave/record", map[string]any{
			"startTime": apiWall.Add(8 * time.Hour),
			"endTime":   apiWall,
		})
		req = testutil.WithDriver(req, driverID.String())

		rec := testutil.DoRequest(http.HandlerFunc(handler.HandleRecordLeave), req)
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, string(dErrors.CodeInvalidTimeRange))
	})

	testutil.Given(t, "no authenticated driver", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/leave/record", map[string]any{
			"startTime": apiWall,
			"endTime":   apiWall.Add(time.Hour),
		})

		rec := testutil.DoRequest(http.HandlerFunc(handler.HandleRecordLeave), req)
		testutil.AssertStatus(t, rec, http.StatusInternalServerError)
	})
}

func TestHandleCorrectLeave(t *testing.T) {
	handler, driverID := newLeaveHandler(t)

	record := testutil.NewJSONRequest(t, http.MethodPost, "/leave/record", map[string]any{
		"startTime": apiWall,
		"endTime":   apiWall.Add(8 * time.Hour),
	})
	rec := testutil.DoRequest(http.HandlerFunc(handler.HandleRecordLeave),
		testutil.WithDriver(record, driverID.String()))
	testutil.AssertStatus(t, rec, http.StatusCreated)
	created := testutil.UnmarshalResponse[leaveResponse](t, rec)

	t.Run("appends a correction", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/leave/correct", map[string]any{
			"leaveId":            created.ID,
			"correctedStartTime": apiWall.Add(time.Hour),
			"correctedEndTime":   apiWall.Add(7 * time.Hour),
			"reason":             "shorter",
		})
		req = testutil.WithDriver(req, driverID.String())

		rec := testutil.DoRequest(http.HandlerFunc(handler.HandleCorrectLeave), req)
		testutil.AssertStatus(t, rec, http.StatusCreated)

		resp := testutil.UnmarshalResponse[leaveCorrectionResponse](t, rec)
		require.Equal(t, created.ID, resp.LeaveID)
	})

	t.Run("rejects a malformed leave id", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/leave/correct", map[string]any{
			"leaveId":            "not-a-uuid",
			"correctedStartTime": apiWall,
			"correctedEndTime":   apiWall.Add(time.Hour),
		})
		req = testutil.WithDriver(req, driverID.String())

		rec := testutil.DoRequest(http.HandlerFunc(handler.HandleCorrectLeave), req)
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	t.Run("unknown leave is a 404", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/leave/correct", map[string]any{
			"leaveId":            domain.NewLeaveID().String(),
			"correctedStartTime": apiWall,
			"correctedEndTime":   apiWall.Add(time.Hour),
		})
		req = testutil.WithDriver(req, driverID.String())

		rec := testutil.DoRequest(http.HandlerFunc(handler.HandleCorrectLeave), req)
		testutil.AssertStatusAndError(t, rec, http.StatusNotFound, string(dErrors.CodeLeaveNotFound))
	})
}
