package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"stockfolio/internal/database"
)

// SystemHandlers provides health and system status endpoints
type SystemHandlers struct {
	log        zerolog.Logger
	usersDB    *database.DB
	sessionsDB *database.DB
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, usersDB, sessionsDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:        log.With().Str("handler", "system").Logger(),
		usersDB:    usersDB,
		sessionsDB: sessionsDB,
	}
}

/// HandleHealth reports service health: database reachability plus CPU and
// memory usage.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := "healthy"
	databases := map[string]string{}

	for name, db := range map[string]*database.DB{"users": h.usersDB, "sessions": h.sessionsDB} {
		if db == nil {
			continue
		}
		if err := db.QuickCheck(ctx); err != nil {
			h.log.Error().Err(err).Str("database", name).Msg("Database health check failed")
			databases[name] = "unreachable"
			status = "degraded"
		} else {
			databases[name] = "ok"
		}
	}

	cpuPct, memPct := h.systemStats()

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"databases": databases,
		"system": map[string]float64{
			"cpu_percent": cpuPct,
			"mem_percent": memPct,
		},
	}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode health response")
	}
}

// systemStats returns CPU and RAM usage percentages. Uses a short sampling
// interval so the health endpoint stays fast.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
