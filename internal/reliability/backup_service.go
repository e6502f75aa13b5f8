package reliability

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aristath/bankmirror/internal/database"
	"github.com/aristath/bankmirror/internal/domain"
	"github.com/rs/zerolog"
)

const (
	backupFilePrefix   = "bank-cache-"
	backupFileSuffix   = ".db.gz"
	backupTimeLayout   = "2006-01-02-150405"
	eventBackupCreated = "BACKUP_COMPLETED"
)

// BackupInfo represents information about a stored backup
type BackupInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// BackupService snapshots the cache database and uploads it compressed.
type BackupService struct {
	db        *database.DB
	store     ObjectStore
	prefix    string
	retention int
	dataDir   string
	events    domain.EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewBackupService creates a backup service. retention is the number of
// backups kept after each upload; 0 keeps everything. events may be nil.
func NewBackupService(db *database.DB, store ObjectStore, prefix string, retention int, dataDir string, events domain.EventPublisher, log zerolog.Logger) *BackupService {
	return &BackupService{
		db:        db,
		store:     store,
		prefix:    strings.Trim(prefix, "/"),
		retention: retention,
		dataDir:   dataDir,
		events:    events,
		log:       log.With().Str("service", "backup").Logger(),
		now:       time.Now,
	}
}

// CreateAndUpload snapshots the cache, gzips it and uploads it to
// <prefix>/bank-cache-<timestamp>.db.gz, then rotates old backups.
// It returns the uploaded key.
func (s *BackupService) CreateAndUpload(ctx context.Context) (string, error) {
	s.log.Info().Msg("Starting cache backup")
	startTime := time.Now()

	stagingDir, err := os.MkdirTemp(s.dataDir, "backup-staging-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	snapshotPath := filepath.Join(stagingDir, "bank_cache.db")
	if err := s.db.Snapshot(ctx, snapshotPath); err != nil {
		return "", fmt.Errorf("failed to snapshot cache: %w", err)
	}

	archivePath := snapshotPath + ".gz"
	checksum, err := compressFile(snapshotPath, archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to compress snapshot: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	info, err := archive.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat archive: %w", err)
	}

	key := s.objectKey(s.now().UTC())
	if err := s.store.Upload(ctx, key, archive); err != nil {
		return "", err
	}

	s.log.Info().
		Dur("duration", time.Since(startTime)).
		Str("key", key).
		Int64("size_bytes", info.Size()).
		Str("checksum", checksum).
		Msg("Cache backup uploaded")

	if s.events != nil {
		s.events.Publish(eventBackupCreated, map[string]any{"key": key, "size_bytes": info.Size()})
	}

	if err := s.RotateOldBackups(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return key, nil
}

// ListBackups lists stored backups, newest first. Objects whose names do
// not carry a backup timestamp are ignored.
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, s.keyPrefix())
	if err != nil {
		return nil, err
	}

	now := s.now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		ts, ok := parseBackupKey(obj.Key)
		if !ok {
			s.log.Debug().Str("key", obj.Key).Msg("Ignoring foreign object")
			continue
		}
		backups = append(backups, BackupInfo{
			Key:       obj.Key,
			Timestamp: ts,
			SizeBytes: obj.Size,
			AgeHours:  int64(now.Sub(ts).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// RotateOldBackups keeps the newest retention backups and deletes the rest.
func (s *BackupService) RotateOldBackups(ctx context.Context) error {
	if s.retention <= 0 {
		return nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) <= s.retention {
		return nil
	}

	deleted := 0
	for _, backup := range backups[s.retention:] {
		if err := s.store.Delete(ctx, backup.Key); err != nil {
			s.log.Error().Err(err).Str("key", backup.Key).Msg("Failed to delete old backup")
			continue
		}
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Backup rotation completed")
	return nil
}

func (s *BackupService) keyPrefix() string {
	if s.prefix == "" {
		return backupFilePrefix
	}
	return s.prefix + "/" + backupFilePrefix
}

func (s *BackupService) objectKey(t time.Time) string {
	return s.keyPrefix() + t.Format(backupTimeLayout) + backupFileSuffix
}

func parseBackupKey(key string) (time.Time, bool) {
	name := path.Base(key)
	if !strings.HasPrefix(name, backupFilePrefix) || !strings.HasSuffix(name, backupFileSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, backupFilePrefix), backupFileSuffix)
	ts, err := time.Parse(backupTimeLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// compressFile gzips src into dst and returns the sha256 of the source.
func compressFile(src, dst string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	hash := sha256.New()
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(io.MultiWriter(gz, hash), in); err != nil {
		return "", err
	}
	if err := gz.Close(); err != nil {
		return "", err
	}
	if err := out.Sync(); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}
