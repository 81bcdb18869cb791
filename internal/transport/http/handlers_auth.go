package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"rosterd/internal/auth"
	authmodels "rosterd/internal/auth/models"
	"rosterd/internal/platform/middleware"
	id "rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
	"rosterd/pkg/platform/httputil"
)

// AuthService exchanges Google ID tokens for access tokens and resolves the
// authenticated driver.
type AuthService interface {
	Authenticate(ctx context.Context, googleIDToken string) (*auth.AuthResult, error)
	GetMe(ctx context.Context, driverID id.DriverID) (*authmodels.Driver, error)
}

type AuthHandler struct {
	service AuthService
	logger  *slog.Logger
}

func NewAuthHandler(service AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

type loginRequest struct {
	IDToken string `json:"idToken"`
}

type loginResponse struct {
	Token  string         `json:"token"`
	Driver driverResponse `json:"driver"`
}

// HandleLogin verifies a Google ID token and issues a driver access token.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeJSON[loginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.IDToken == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "idToken is required"))
		return
	}

	result, err := h.service.Authenticate(ctx, req.IDToken)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &loginResponse{
		Token:  result.Token,
		Driver: toDriverResponse(result.Driver),
	})
}

// HandleGetMe returns the authenticated driver's account.
func (h *AuthHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	driverID, err := httputil.RequireDriverID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	driver, err := h.service.GetMe(ctx, driverID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get me failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toDriverResponse(driver))
}
