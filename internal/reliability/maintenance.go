// Package reliability provides database maintenance for long-running
// deployments.
package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"stockfolio/internal/database"
)

// vacuumFreelistThreshold is the number of free pages above which a database
// is vacuumed during maintenance.
const vacuumFreelistThreshold = 100

// MaintenanceJob performs periodic database maintenance: integrity checks,
// WAL checkpoints to prevent bloat, and vacuum when fragmentation builds up.
// It implements cron.Job and is scheduled nightly.
type MaintenanceJob struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job over the given databases
func NewMaintenanceJob(databases map[string]*database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Run executes one maintenance pass. Failures on one database are logged and
// do not stop maintenance of the others.
func (j *MaintenanceJob) Run() {
	j.log.Info().Msg("Starting database maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for name, db := range j.databases {
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("Integrity check failed")
			continue
		}

		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("WAL checkpoint failed")
			continue
		}

		stats, err := db.GetStats()
		if err != nil {
			j.log.Warn().Err(err).Str("database", name).Msg("Failed to get database stats")
			continue
		}

		if stats.FreelistCount > vacuumFreelistThreshold {
			j.log.Info().
				Str("database", name).
				Int64("freelist", stats.FreelistCount).
				Msg("Vacuuming fragmented database")
			if err := db.Vacuum(); err != nil {
				j.log.Error().Err(err).Str("database", name).Msg("Vacuum failed")
			}
		}
	}

	j.log.Info().
		Dur("duration", time.Since(startTime)).
		Msg("Database maintenance completed")
}
