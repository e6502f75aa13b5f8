package server

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/aristath/bankmirror/internal/database"
	"github.com/aristath/bankmirror/internal/httputil"
	"github.com/aristath/bankmirror/internal/reliability"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// BackupRunner is satisfied by reliability.BackupService.
type BackupRunner interface {
	CreateAndUpload(ctx context.Context) (string, error)
	ListBackups(ctx context.Context) ([]reliability.BackupInfo, error)
}

// MaintenanceRunner is satisfied by reliability.MaintenanceService.
type MaintenanceRunner interface {
	Run(ctx context.Context) (*reliability.MaintenanceReport, error)
}

// JobLister reports the registered background jobs.
type JobLister interface {
	JobNames() []string
}

// SubscriberCounter reports live event subscribers.
type SubscriberCounter interface {
	SubscriberCount() int
}

// SystemStatusResponse is the body of GET /api/system/status.
type SystemStatusResponse struct {
	Status        string   `json:"status"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	Database      DBStatus `json:"database"`
	CPUPercent    float64  `json:"cpu_percent"`
	MemoryPercent float64  `json:"memory_percent"`
	Jobs          []string `json:"jobs"`
	Subscribers   int      `json:"event_subscribers"`
	BackupsOn     bool     `json:"backups_enabled"`
}

// DBStatus describes the cache database.
type DBStatus struct {
	Driver       string `json:"driver"`
	Healthy      bool   `json:"healthy"`
	Error        string `json:"error,omitempty"`
	SizeBytes    int64  `json:"size_bytes"`
	WALSizeBytes int64  `json:"wal_size_bytes"`
}

// SystemHandlers serves status and operational endpoints.
type SystemHandlers struct {
	db          *database.DB
	jobs        JobLister
	subscribers SubscriberCounter
	backups     BackupRunner // nil when backups are disabled
	maintenance MaintenanceRunner
	log         zerolog.Logger
	startedAt   time.Time
	hostStats   func() (float64, float64)
}

// NewSystemHandlers creates system handlers. backups may be nil.
func NewSystemHandlers(
	db *database.DB,
	jobs JobLister,
	subscribers SubscriberCounter,
	backups BackupRunner,
	maintenance MaintenanceRunner,
	log zerolog.Logger,
) *SystemHandlers {
	h := &SystemHandlers{
		db:          db,
		jobs:        jobs,
		subscribers: subscribers,
		backups:     backups,
		maintenance: maintenance,
		log:         log.With().Str("handler", "system").Logger(),
		startedAt:   time.Now(),
	}
	h.hostStats = h.getSystemStats
	return h
}

// HandleSystemStatus reports uptime, database health and host load.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Database:      DBStatus{Driver: h.db.Driver(), Healthy: true},
		Jobs:          []string{},
		BackupsOn:     h.backups != nil,
	}

	if err := h.db.HealthCheck(r.Context()); err != nil {
		response.Status = "degraded"
		response.Database.Healthy = false
		response.Database.Error = err.Error()
	} else if stats, err := h.db.GetStats(r.Context()); err == nil {
		response.Database.SizeBytes = stats.SizeBytes
		response.Database.WALSizeBytes = stats.WALSizeBytes
	}

	response.CPUPercent, response.MemoryPercent = h.hostStats()

	if h.jobs != nil {
		response.Jobs = h.jobs.JobNames()
		sort.Strings(response.Jobs)
	}
	if h.subscribers != nil {
		response.Subscribers = h.subscribers.SubscriberCount()
	}

	httputil.WriteJSON(w, h.log, http.StatusOK, response)
}

// HandleListBackups lists stored cache backups, newest first.
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		httputil.WriteError(w, h.log, http.StatusServiceUnavailable, "backups are not configured")
		return
	}

	backups, err := h.backups.ListBackups(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{"data": backups})
}

// HandleCreateBackup uploads a cache snapshot now.
func (h *SystemHandlers) HandleCreateBackup(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		httputil.WriteError(w, h.log, http.StatusServiceUnavailable, "backups are not configured")
		return
	}

	key, err := h.backups.CreateAndUpload(r.Context())
	if err != nil {
		if errors.Is(err, database.ErrSnapshotUnsupported) {
			httputil.WriteError(w, h.log, http.StatusServiceUnavailable, err.Error())
			return
		}
		httputil.WriteServiceError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, h.log, http.StatusCreated, map[string]string{"key": key})
}

// HandleRunMaintenance runs cache maintenance and returns its report.
func (h *SystemHandlers) HandleRunMaintenance(w http.ResponseWriter, r *http.Request) {
	report, err := h.maintenance.Run(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Maintenance failed")
		httputil.WriteJSON(w, h.log, http.StatusInternalServerError, map[string]interface{}{
			"error":  err.Error(),
			"report": report,
		})
		return
	}
	httputil.WriteJSON(w, h.log, http.StatusOK, report)
}

// getSystemStats returns CPU and RAM usage percentages. The CPU sample
// window is kept short so the endpoint stays responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
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
