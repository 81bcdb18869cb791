package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rosterd/internal/transfer/models"
	"rosterd/pkg/domain"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists shift transfer events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{tx: tx}
}

func (s *PostgresStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresStore) Save(ctx context.Context, event *models.ShiftTransferEvent) error {
	if event == nil {
		return fmt.Errorf("shift transfer event is required")
	}
	query := `
		INSERT INTO shift_transfers (id, work_period_id, from_driver_id, to_driver_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(event.ID),
		uuid.UUID(event.WorkPeriodID),
		uuid.UUID(event.FromDriverID),
		uuid.UUID(event.ToDriverID),
		nullableString(event.Reason),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save shift transfer: %w", err)
	}
	return nil
}

const transferColumns = `id, work_period_id, from_driver_id, to_driver_id, COALESCE(reason, ''), created_at`

func (s *PostgresStore) FindByDriver(ctx context.Context, driverID domain.DriverID) ([]*models.ShiftTransferEvent, error) {
	query := `SELECT ` + transferColumns + ` FROM shift_transfers
		WHERE from_driver_id = $1 OR to_driver_id = $1 ORDER BY created_at`
	return s.queryTransfers(ctx, query, uuid.UUID(driverID))
}

func (s *PostgresStore) FindCreatedBetween(ctx context.Context, driverID domain.DriverID, from, to time.Time) ([]*models.ShiftTransferEvent, error) {
	query := `SELECT ` + transferColumns + ` FROM shift_transfers
		WHERE (from_driver_id = $1 OR to_driver_id = $1)
		  AND created_at >= $2 AND created_at < $3
		ORDER BY created_at`
	return s.queryTransfers(ctx, query, uuid.UUID(driverID), from, to)
}

func (s *PostgresStore) queryTransfers(ctx context.Context, query string, args ...any) ([]*models.ShiftTransferEvent, error) {
	rows, err := s.execer().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query shift transfers: %w", err)
	}
	defer rows.Close()

	var events []*models.ShiftTransferEvent
	for rows.Next() {
		var (
			id       uuid.UUID
			periodID uuid.UUID
			fromID   uuid.UUID
			toID     uuid.UUID
			reason   string
			created  time.Time
		)
		if err := rows.Scan(&id, &periodID, &fromID, &toID, &reason, &created); err != nil {
			return nil, fmt.Errorf("scan shift transfer: %w", err)
		}
		events = append(events, &models.ShiftTransferEvent{
			ID:           domain.ShiftTransferID(id),
			WorkPeriodID: domain.WorkPeriodID(periodID),
			FromDriverID: domain.DriverID(fromID),
			ToDriverID:   domain.DriverID(toID),
			Reason:       reason,
			CreatedAt:    created,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shift transfers: %w", err)
	}
	return events, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
