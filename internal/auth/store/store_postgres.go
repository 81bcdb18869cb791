package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rosterd/internal/auth/models"
	"rosterd/pkg/domain"
)

// PostgresStore persists drivers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, driver *models.Driver) error {
	if driver == nil {
		return fmt.Errorf("driver is required")
	}
	query := `
		INSERT INTO drivers (id, email, name, google_subject, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(driver.ID),
		driver.Email,
		driver.Name,
		driver.GoogleSubject,
		driver.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save driver: %w", err)
	}
	return nil
}

const driverColumns = `id, email, COALESCE(name, ''), COALESCE(google_subject, ''), created_at`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.DriverID) (*models.Driver, error) {
	return s.findOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, uuid.UUID(id))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Driver, error) {
	return s.findOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE email = $1`, email)
}

func (s *PostgresStore) FindByGoogleSubject(ctx context.Context, subject string) (*models.Driver, error) {
	return s.findOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE google_subject = $1`, subject)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Driver, error) {
	var (
		id      uuid.UUID
		email   string
		name    string
		subject string
		created time.Time
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&id, &email, &name, &subject, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find driver: %w", err)
	}
	return &models.Driver{
		ID:            domain.DriverID(id),
		Email:         email,
		Name:          name,
		GoogleSubject: subject,
		CreatedAt:     created,
	}, nil
}
