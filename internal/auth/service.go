package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rosterd/internal/auth/models"
	"rosterd/internal/auth/store"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

// Service exchanges Google ID tokens for driver access tokens and answers
// identity lookups.
type Service struct {
	verifier GoogleVerifier
	jwt      *JWTService
	drivers  store.Store
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(verifier GoogleVerifier, jwt *JWTService, drivers store.Store, logger *slog.Logger) *Service {
	return &Service{
		verifier: verifier,
		jwt:      jwt,
		drivers:  drivers,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AuthResult is the login response: the access token and the driver it
// authenticates.
type AuthResult struct {
	Token  string
	Driver *models.Driver
}

// Authenticate verifies the Google ID token, provisions a driver account on
// first sign-in, and issues an access token.
func (s *Service) Authenticate(ctx context.Context, googleIDToken string) (*AuthResult, error) {
	profile, err := s.verifier.Verify(ctx, googleIDToken)
	if err != nil {
		return nil, err
	}
	if !profile.EmailVerified {
		return nil, dErrors.NewWithDetails(dErrors.CodeEmailNotVerified,
			"google account email is not verified",
			map[string]any{"email": profile.Email})
	}

	driver, err := s.lookupOrProvision(ctx, profile)
	if err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateAccessToken(uuid.UUID(driver.ID), driver.Email)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}

	s.logger.InfoContext(ctx, "driver authenticated",
		"driver_id", driver.ID.String(),
	)
	return &AuthResult{Token: token, Driver: driver}, nil
}

func (s *Service) lookupOrProvision(ctx context.Context, profile GoogleProfile) (*models.Driver, error) {
	driver, err := s.drivers.FindByGoogleSubject(ctx, profile.Subject)
	if err == nil {
		return driver, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	// Existing account signing in with Google for the first time.
	driver, err = s.drivers.FindByEmail(ctx, profile.Email)
	if err == nil {
		driver.GoogleSubject = profile.Subject
		if saveErr := s.drivers.Save(ctx, driver); saveErr != nil {
			return nil, saveErr
		}
		return driver, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	driver = &models.Driver{
		ID:            domain.NewDriverID(),
		Email:         profile.Email,
		Name:          profile.Name,
		GoogleSubject: profile.Subject,
		CreatedAt:     s.now(),
	}
	if err := s.drivers.Save(ctx, driver); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "driver provisioned", "driver_id", driver.ID.String())
	return driver, nil
}

// GetMe returns the authenticated driver's account.
func (s *Service) GetMe(ctx context.Context, driverID domain.DriverID) (*models.Driver, error) {
	driver, err := s.drivers.FindByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeDriverNotFound, "authenticated driver not found")
		}
		return nil, err
	}
	return driver, nil
}
