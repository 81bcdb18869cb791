package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rosterd/internal/leave/models"
	"rosterd/pkg/domain"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresEventStore persists leave events in PostgreSQL.
type PostgresEventStore struct {
	db *sql.DB
	tx *sql.Tx
}

func NewPostgresEventStore(db *sql.DB) *PostgresEventStore {
	return &PostgresEventStore{db: db}
}

func NewPostgresEventStoreTx(tx *sql.Tx) *PostgresEventStore {
	return &PostgresEventStore{tx: tx}
}

func (s *PostgresEventStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresEventStore) Save(ctx context.Context, leave *models.LeaveEvent) error {
	if leave == nil {
		return fmt.Errorf("leave event is required")
	}
	query := `
		INSERT INTO leave_events (id, driver_id, declared_start_time, declared_end_time, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(leave.ID),
		uuid.UUID(leave.DriverID),
		leave.DeclaredStartTime,
		leave.DeclaredEndTime,
		nullableString(leave.Reason),
		leave.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save leave event: %w", err)
	}
	return nil
}

const leaveColumns = `id, driver_id, declared_start_time, declared_end_time, COALESCE(reason, ''), created_at`

func (s *PostgresEventStore) FindByID(ctx context.Context, id domain.LeaveID) (*models.LeaveEvent, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_events WHERE id = $1`
	row := s.execer().QueryRowContext(ctx, query, uuid.UUID(id))
	leave, err := scanLeave(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find leave event: %w", err)
	}
	return leave, nil
}

func (s *PostgresEventStore) FindByDriver(ctx context.Context, driverID domain.DriverID) ([]*models.LeaveEvent, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_events WHERE driver_id = $1 ORDER BY created_at`
	rows, err := s.execer().QueryContext(ctx, query, uuid.UUID(driverID))
	if err != nil {
		return nil, fmt.Errorf("query leave events: %w", err)
	}
	defer rows.Close()

	var leaves []*models.LeaveEvent
	for rows.Next() {
		leave, err := scanLeave(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leave event: %w", err)
		}
		leaves = append(leaves, leave)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leave events: %w", err)
	}
	return leaves, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLeave(row rowScanner) (*models.LeaveEvent, error) {
	var (
		id       uuid.UUID
		driverID uuid.UUID
		start    time.Time
		end      time.Time
		reason   string
		created  time.Time
	)
	if err := row.Scan(&id, &driverID, &start, &end, &reason, &created); err != nil {
		return nil, err
	}
	return &models.LeaveEvent{
		ID:                domain.LeaveID(id),
		DriverID:          domain.DriverID(driverID),
		DeclaredStartTime: start,
		DeclaredEndTime:   end,
		Reason:            reason,
		CreatedAt:         created,
	}, nil
}

// PostgresCorrectionStore persists the append-only leave correction log.
type PostgresCorrectionStore struct {
	db *sql.DB
	tx *sql.Tx
}

func NewPostgresCorrectionStore(db *sql.DB) *PostgresCorrectionStore {
	return &PostgresCorrectionStore{db: db}
}

func NewPostgresCorrectionStoreTx(tx *sql.Tx) *PostgresCorrectionStore {
	return &PostgresCorrectionStore{tx: tx}
}

func (s *PostgresCorrectionStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresCorrectionStore) Append(ctx context.Context, correction *models.LeaveCorrection) error {
	if correction == nil {
		return fmt.Errorf("leave correction is required")
	}
	query := `
		INSERT INTO leave_corrections (id, leave_id, corrected_start_time, corrected_end_time, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(correction.ID),
		uuid.UUID(correction.LeaveID),
		correction.CorrectedStartTime,
		correction.CorrectedEndTime,
		nullableString(correction.Reason),
		correction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append leave correction: %w", err)
	}
	return nil
}

const leaveCorrectionColumns = `id, leave_id, corrected_start_time, corrected_end_time, COALESCE(reason, ''), created_at`

func (s *PostgresCorrectionStore) FindByLeave(ctx context.Context, leaveID domain.LeaveID) ([]*models.LeaveCorrection, error) {
	// seq preserves insertion order for the latest-wins tie-break.
	query := `SELECT ` + leaveCorrectionColumns + ` FROM leave_corrections
		WHERE leave_id = $1 ORDER BY created_at, seq`
	return s.queryCorrections(ctx, query, uuid.UUID(leaveID))
}

func (s *PostgresCorrectionStore) FindByLeaves(ctx context.Context, leaveIDs []domain.LeaveID) (map[domain.LeaveID][]*models.LeaveCorrection, error) {
	out := make(map[domain.LeaveID][]*models.LeaveCorrection, len(leaveIDs))
	if len(leaveIDs) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(leaveIDs))
	for _, id := range leaveIDs {
		ids = append(ids, id.String())
	}
	query := `SELECT ` + leaveCorrectionColumns + ` FROM leave_corrections
		WHERE leave_id = ANY($1::uuid[]) ORDER BY created_at, seq`
	corrections, err := s.queryCorrections(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range corrections {
		out[c.LeaveID] = append(out[c.LeaveID], c)
	}
	return out, nil
}

func (s *PostgresCorrectionStore) queryCorrections(ctx context.Context, query string, args ...any) ([]*models.LeaveCorrection, error) {
	rows, err := s.execer().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leave corrections: %w", err)
	}
	defer rows.Close()

	var corrections []*models.LeaveCorrection
	for rows.Next() {
		var (
			id      uuid.UUID
			leaveID uuid.UUID
			start   time.Time
			end     time.Time
			reason  string
			created time.Time
		)
		if err := rows.Scan(&id, &leaveID, &start, &end, &reason, &created); err != nil {
			return nil, fmt.Errorf("scan leave correction: %w", err)
		}
		corrections = append(corrections, &models.LeaveCorrection{
			ID:                 domain.LeaveCorrectionID(id),
			LeaveID:            domain.LeaveID(leaveID),
			CorrectedStartTime: start,
			CorrectedEndTime:   end,
			Reason:             reason,
			CreatedAt:          created,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leave corrections: %w", err)
	}
	return corrections, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
