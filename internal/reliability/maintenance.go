package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/bankmirror/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// minFreeDiskPercent is the free-space floor below which maintenance fails.
const minFreeDiskPercent = 5.0

// MaintenanceReport summarises one maintenance run.
type MaintenanceReport struct {
	IntegrityOK     bool    `json:"integrity_ok"`
	Checkpointed    bool    `json:"checkpointed"`
	DiskFreePercent float64 `json:"disk_free_percent"`
	SizeBytes       int64   `json:"size_bytes"`
}

// MaintenanceService runs periodic health work on the cache database.
type MaintenanceService struct {
	db      *database.DB
	dataDir string
	log     zerolog.Logger
	usage   func(path string) (*disk.UsageStat, error)
}

// NewMaintenanceService creates a maintenance service for db. dataDir is
// the directory whose filesystem is checked for free space.
func NewMaintenanceService(db *database.DB, dataDir string, log zerolog.Logger) *MaintenanceService {
	return &MaintenanceService{
		db:      db,
		dataDir: dataDir,
		log:     log.With().Str("service", "maintenance").Logger(),
		usage:   disk.Usage,
	}
}

// Run checks integrity, truncates the WAL and verifies free disk space.
func (s *MaintenanceService) Run(ctx context.Context) (*MaintenanceReport, error) {
	startTime := time.Now()
	report := &MaintenanceReport{}

	if err := s.db.QuickCheck(ctx); err != nil {
		return report, fmt.Errorf("integrity check failed: %w", err)
	}
	report.IntegrityOK = true

	if !s.db.IsPostgres() {
		if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			return report, fmt.Errorf("WAL checkpoint failed: %w", err)
		}
		report.Checkpointed = true
	}

	usage, err := s.usage(s.dataDir)
	if err != nil {
		return report, fmt.Errorf("failed to read disk usage: %w", err)
	}
	report.DiskFreePercent = 100 - usage.UsedPercent
	if report.DiskFreePercent < minFreeDiskPercent {
		return report, fmt.Errorf("low disk space: %.1f%% free on %s", report.DiskFreePercent, s.dataDir)
	}

	if stats, err := s.db.GetStats(ctx); err == nil {
		report.SizeBytes = stats.SizeBytes
	}

	s.log.Info().
		Dur("duration", time.Since(startTime)).
		Bool("checkpointed", report.Checkpointed).
		Float64("disk_free_percent", report.DiskFreePercent).
		Int64("size_bytes", report.SizeBytes).
		Msg("Maintenance completed")
	return report, nil
}
