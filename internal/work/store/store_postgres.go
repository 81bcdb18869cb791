package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"rosterd/internal/work/models"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

const pgUniqueViolation = "23505"

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresPeriodStore persists work periods in PostgreSQL.
type PostgresPeriodStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgresPeriodStore constructs a pool-backed period store.
func NewPostgresPeriodStore(db *sql.DB) *PostgresPeriodStore {
	return &PostgresPeriodStore{db: db}
}

// NewPostgresPeriodStoreTx constructs a period store bound to a transaction.
func NewPostgresPeriodStoreTx(tx *sql.Tx) *PostgresPeriodStore {
	return &PostgresPeriodStore{tx: tx}
}

func (s *PostgresPeriodStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresPeriodStore) Save(ctx context.Context, period *models.WorkPeriod) error {
	if period == nil {
		return fmt.Errorf("work period is required")
	}
	query := `
		INSERT INTO work_periods (id, driver_id, declared_start_time, declared_end_time, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET declared_end_time = EXCLUDED.declared_end_time,
		    status = EXCLUDED.status
		WHERE work_periods.status = 'OPEN'
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(period.ID),
		uuid.UUID(period.DriverID),
		period.DeclaredStartTime,
		period.DeclaredEndTime,
		string(period.Status),
		period.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// The partial unique index on (driver_id) WHERE status = 'OPEN'
			// is the storage-level backstop for the single-OPEN invariant.
			return dErrors.New(dErrors.CodeActiveWorkPeriodExists,
				"driver already has an open work period")
		}
		return fmt.Errorf("save work period: %w", err)
	}
	return nil
}

const periodColumns = `id, driver_id, declared_start_time, declared_end_time, status, created_at`

func (s *PostgresPeriodStore) FindByID(ctx context.Context, id domain.WorkPeriodID) (*models.WorkPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM work_periods WHERE id = $1`
	period, err := scanPeriod(s.execer().QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find work period: %w", err)
	}
	return period, nil
}

func (s *PostgresPeriodStore) FindOpenByDriver(ctx context.Context, driverID domain.DriverID) (*models.WorkPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM work_periods WHERE driver_id = $1 AND status = 'OPEN'`
	period, err := scanPeriod(s.execer().QueryRowContext(ctx, query, uuid.UUID(driverID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find open work period: %w", err)
	}
	return period, nil
}

func (s *PostgresPeriodStore) FindClosedByDriver(ctx context.Context, driverID domain.DriverID) ([]*models.WorkPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM work_periods
		WHERE driver_id = $1 AND status = 'CLOSED' ORDER BY created_at`
	return s.queryPeriods(ctx, query, uuid.UUID(driverID))
}

func (s *PostgresPeriodStore) FindByDriver(ctx context.Context, driverID domain.DriverID) ([]*models.WorkPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM work_periods WHERE driver_id = $1 ORDER BY created_at`
	return s.queryPeriods(ctx, query, uuid.UUID(driverID))
}

func (s *PostgresPeriodStore) FindEffectiveOverlapping(
	ctx context.Context,
	driverID domain.DriverID,
	candidate domain.TimeRange,
	excludeID domain.WorkPeriodID,
) ([]OverlappingWork, error) {
	// Phase 1: declared-time prefilter. Periods with corrections are included
	// unconditionally because their effective range may have drifted away from
	// the declared one in either direction.
	query := `SELECT ` + periodColumns + ` FROM work_periods wp
		WHERE wp.driver_id = $1 AND wp.status = 'CLOSED' AND wp.id <> $2
		  AND (
			(wp.declared_start_time < $4 AND wp.declared_end_time > $3)
			OR EXISTS (SELECT 1 FROM work_corrections wc WHERE wc.work_period_id = wp.id)
		  )
		ORDER BY wp.created_at`
	prefiltered, err := s.queryPeriods(ctx, query,
		uuid.UUID(driverID), uuid.UUID(excludeID), candidate.Start, candidate.End)
	if err != nil {
		return nil, err
	}
	if len(prefiltered) == 0 {
		return nil, nil
	}

	ids := make([]domain.WorkPeriodID, 0, len(prefiltered))
	for _, period := range prefiltered {
		ids = append(ids, period.ID)
	}
	corrections := &PostgresCorrectionStore{db: s.db, tx: s.tx}
	correctionsByPeriod, err := corrections.FindByWorkPeriods(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Phase 2: authoritative effective-time recheck.
	return recheckEffective(prefiltered, correctionsByPeriod, candidate, excludeID)
}

func (s *PostgresPeriodStore) queryPeriods(ctx context.Context, query string, args ...any) ([]*models.WorkPeriod, error) {
	rows, err := s.execer().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query work periods: %w", err)
	}
	defer rows.Close()

	var periods []*models.WorkPeriod
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work period: %w", err)
		}
		periods = append(periods, period)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work periods: %w", err)
	}
	return periods, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeriod(row rowScanner) (*models.WorkPeriod, error) {
	var (
		id       uuid.UUID
		driverID uuid.UUID
		start    time.Time
		end      sql.NullTime
		status   string
		created  time.Time
	)
	if err := row.Scan(&id, &driverID, &start, &end, &status, &created); err != nil {
		return nil, err
	}
	period := &models.WorkPeriod{
		ID:                domain.WorkPeriodID(id),
		DriverID:          domain.DriverID(driverID),
		DeclaredStartTime: start,
		Status:            models.Status(status),
		CreatedAt:         created,
	}
	if end.Valid {
		endTime := end.Time
		period.DeclaredEndTime = &endTime
	}
	return period, nil
}

// PostgresCorrectionStore persists the append-only work correction log.
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

func (s *PostgresCorrectionStore) Append(ctx context.Context, correction *models.WorkCorrection) error {
	if correction == nil {
		return fmt.Errorf("work correction is required")
	}
	query := `
		INSERT INTO work_corrections (id, work_period_id, corrected_start_time, corrected_end_time, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(correction.ID),
		uuid.UUID(correction.WorkPeriodID),
		correction.CorrectedStartTime,
		correction.CorrectedEndTime,
		nullableString(correction.Reason),
		correction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append work correction: %w", err)
	}
	return nil
}

const correctionColumns = `id, work_period_id, corrected_start_time, corrected_end_time, COALESCE(reason, ''), created_at`

func (s *PostgresCorrectionStore) FindByWorkPeriod(ctx context.Context, periodID domain.WorkPeriodID) ([]*models.WorkCorrection, error) {
	// seq preserves insertion order for the latest-wins tie-break.
	query := `SELECT ` + correctionColumns + ` FROM work_corrections
		WHERE work_period_id = $1 ORDER BY created_at, seq`
	return s.queryCorrections(ctx, query, uuid.UUID(periodID))
}

func (s *PostgresCorrectionStore) FindByWorkPeriods(ctx context.Context, periodIDs []domain.WorkPeriodID) (map[domain.WorkPeriodID][]*models.WorkCorrection, error) {
	out := make(map[domain.WorkPeriodID][]*models.WorkCorrection, len(periodIDs))
	if len(periodIDs) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(periodIDs))
	for _, id := range periodIDs {
		ids = append(ids, id.String())
	}
	query := `SELECT ` + correctionColumns + ` FROM work_corrections
		WHERE work_period_id = ANY($1::uuid[]) ORDER BY created_at, seq`
	corrections, err := s.queryCorrections(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range corrections {
		out[c.WorkPeriodID] = append(out[c.WorkPeriodID], c)
	}
	return out, nil
}

func (s *PostgresCorrectionStore) queryCorrections(ctx context.Context, query string, args ...any) ([]*models.WorkCorrection, error) {
	rows, err := s.execer().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query work corrections: %w", err)
	}
	defer rows.Close()

	var corrections []*models.WorkCorrection
	for rows.Next() {
		var (
			id       uuid.UUID
			periodID uuid.UUID
			start    time.Time
			end      time.Time
			reason   string
			created  time.Time
		)
		if err := rows.Scan(&id, &periodID, &start, &end, &reason, &created); err != nil {
			return nil, fmt.Errorf("scan work correction: %w", err)
		}
		corrections = append(corrections, &models.WorkCorrection{
			ID:                 domain.WorkCorrectionID(id),
			WorkPeriodID:       domain.WorkPeriodID(periodID),
			CorrectedStartTime: start,
			CorrectedEndTime:   end,
			Reason:             reason,
			CreatedAt:          created,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work corrections: %w", err)
	}
	return corrections, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
