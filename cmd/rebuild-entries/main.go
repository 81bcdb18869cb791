// Command rebuild-entries regenerates the timeline projection for one driver
// or for every driver with recorded work or leave. Run it after a projection
// schema change or to repair drift.
package main

import (
	"context"
	"database/sql"
	"flag"
	"os"

	entriesservice "rosterd/internal/entries/service"
	"rosterd/internal/platform/config"
	"rosterd/internal/platform/database"
	"rosterd/internal/platform/logger"
	"rosterd/internal/uow"
	"rosterd/pkg/domain"
)

func main() {
	driverFlag := flag.String("driver", "", "rebuild a single driver (uuid); default rebuilds all")
	flag.Parse()

	cfg := config.FromEnv()
	log := logger.New()

	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	ctx := context.Background()
	svc := entriesservice.NewService(uow.NewPostgres(pool.DB()), log)

	var driverIDs []domain.DriverID
	if *driverFlag != "" {
		driverID, err := domain.ParseDriverID(*driverFlag)
		if err != nil {
			log.Error("invalid driver id", "driver", *driverFlag)
			os.Exit(1)
		}
		driverIDs = []domain.DriverID{driverID}
	} else {
		driverIDs, err = allDriverIDs(ctx, pool.DB())
		if err != nil {
			log.Error("listing drivers failed", "error", err)
			os.Exit(1)
		}
	}

	total := 0
	for _, driverID := range driverIDs {
		count, err := svc.Rebuild(ctx, driverID)
		if err != nil {
			log.Error("rebuild failed", "driver_id", driverID.String(), "error", err)
			os.Exit(1)
		}
		total += count
	}
	log.Info("projection rebuilt", "drivers", len(driverIDs), "entries", total)
}

// allDriverIDs collects every driver that has work or leave on record.
func allDriverIDs(ctx context.Context, db *sql.DB) ([]domain.DriverID, error) {
	query := `
		SELECT DISTINCT driver_id FROM work_periods
		UNION
		SELECT DISTINCT driver_id FROM leave_events
	`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []domain.DriverID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := domain.ParseDriverID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
