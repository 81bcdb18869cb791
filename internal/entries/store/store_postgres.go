package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rosterd/internal/entries/models"
	"rosterd/pkg/domain"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists the projection in PostgreSQL.
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

func (s *PostgresStore) Upsert(ctx context.Context, entry *models.EntryRecord) error {
	if entry == nil {
		return fmt.Errorf("entry is required")
	}
	query := `
		INSERT INTO entries_projection
			(id, driver_id, entry_type, source_type, source_id, effective_start_time, effective_end_time, reason, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_type, source_id) DO UPDATE SET
			effective_start_time = EXCLUDED.effective_start_time,
			effective_end_time   = EXCLUDED.effective_end_time,
			reason               = EXCLUDED.reason,
			updated_at           = EXCLUDED.updated_at
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		uuid.UUID(entry.DriverID),
		string(entry.Type),
		string(entry.SourceType),
		entry.SourceID,
		entry.EffectiveStartTime,
		nullableTime(entry.EffectiveEndTime),
		nullableString(entry.Reason),
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

const entryColumns = `id, driver_id, entry_type, source_type, source_id, effective_start_time, effective_end_time, COALESCE(reason, ''), updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.EntryID) (*models.EntryRecord, error) {
	query := `SELECT ` + entryColumns + ` FROM entries_projection WHERE id = $1`
	row := s.execer().QueryRowContext(ctx, query, uuid.UUID(id))
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) FindByDriver(ctx context.Context, driverID domain.DriverID, from, to time.Time) ([]*models.EntryRecord, error) {
	query := `SELECT ` + entryColumns + ` FROM entries_projection WHERE driver_id = $1`
	args := []any{uuid.UUID(driverID)}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND (effective_end_time IS NULL OR effective_end_time > $%d)", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND effective_start_time < $%d", len(args))
	}
	query += " ORDER BY effective_start_time"

	rows, err := s.execer().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.EntryRecord
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) DeleteByDriver(ctx context.Context, driverID domain.DriverID) error {
	query := `DELETE FROM entries_projection WHERE driver_id = $1`
	if _, err := s.execer().ExecContext(ctx, query, uuid.UUID(driverID)); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.EntryRecord, error) {
	var (
		id         uuid.UUID
		driverID   uuid.UUID
		entryType  string
		sourceType string
		sourceID   string
		start      time.Time
		end        sql.NullTime
		reason     string
		updated    time.Time
	)
	if err := row.Scan(&id, &driverID, &entryType, &sourceType, &sourceID, &start, &end, &reason, &updated); err != nil {
		return nil, err
	}
	entry := &models.EntryRecord{
		ID:                 domain.EntryID(id),
		DriverID:           domain.DriverID(driverID),
		Type:               models.EntryType(entryType),
		SourceType:         models.SourceType(sourceType),
		SourceID:           sourceID,
		EffectiveStartTime: start,
		Reason:             reason,
		UpdatedAt:          updated,
	}
	if end.Valid {
		entry.EffectiveEndTime = end.Time
	}
	return entry, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
