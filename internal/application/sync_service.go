// Package application contains the application services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jobrunner/airportdb/internal/ports/output"
)

// ErrRateLimited is returned when the sync API rate limit is exceeded.
var ErrRateLimited = errors.New("rate limit exceeded")

// ErrNoDatabaseObject is returned when remote storage holds no database file.
var ErrNoDatabaseObject = errors.New("no database object in storage")

// SyncResult contains the result of a sync operation.
type SyncResult struct {
	Key             string    `json:"key"`
	Size            int64     `json:"size"`
	Updated         bool      `json:"updated"`
	SyncedAt        time.Time `json:"synced_at"`
	NextScheduledAt time.Time `json:"next_scheduled_at,omitempty"`
}

// Reloader drops a connection so that the next access reopens the file.
type Reloader interface {
	Reload() error
}

// SyncConfig holds configuration for the sync service.
type SyncConfig struct {
	Key      string        // object key; empty picks the newest database object
	Dest     string        // local database path
	Interval time.Duration // periodic schedule; zero disables it
}

// SyncService keeps the local database file in step with remote storage.
type SyncService struct {
	storage  output.ObjectStorage
	reloader Reloader
	key      string
	dest     string
	interval time.Duration
	logger   *slog.Logger

	// Lifecycle management
	stopCh chan struct{}
	wg     sync.WaitGroup

	// Rate limiting for API triggers
	lastAPISync time.Time
	apiMutex    sync.Mutex

	// Prevents concurrent sync operations
	syncOpMutex sync.Mutex
	synced      output.StorageObject

	// Track next scheduled sync for reporting
	nextSync time.Time
	syncMu   sync.RWMutex
}

// NewSyncService creates a new sync service.
func NewSyncService(storage output.ObjectStorage, reloader Reloader, cfg SyncConfig, logger *slog.Logger) *SyncService {
	return &SyncService{
		storage:  storage,
		reloader: reloader,
		key:      cfg.Key,
		dest:     cfg.Dest,
		interval: cfg.Interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		// Initialize to past time to allow immediate first API call
		lastAPISync: time.Now().Add(-31 * time.Second),
	}
}

// Start begins the periodic sync scheduler.
func (s *SyncService) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("periodic sync disabled")
		return
	}
	s.logger.Info("starting sync service", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx)
}

// run is the main sync loop.
func (s *SyncService) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Set initial next sync time
	s.setNextSync(time.Now().Add(s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sync service stopped: context canceled")
			return
		case <-s.stopCh:
			s.logger.Info("sync service stopped")
			return
		case <-ticker.C:
			s.logger.Debug("scheduled sync triggered")
			if _, err := s.Sync(ctx); err != nil {
				s.logger.Error("sync failed", "error", err)
			}
			s.setNextSync(time.Now().Add(s.interval))
		}
	}
}

// Stop gracefully stops the sync service.
func (s *SyncService) Stop() {
	s.logger.Info("stopping sync service")
	close(s.stopCh)
	s.wg.Wait()
}

// TriggerSync manually triggers a sync operation with rate limiting.
// Returns ErrRateLimited if called more than 2 times per minute.
func (s *SyncService) TriggerSync(ctx context.Context) (SyncResult, error) {
	s.apiMutex.Lock()
	defer s.apiMutex.Unlock()

	// Rate limit: 30 seconds cooldown (allows ~2 requests per minute)
	if time.Since(s.lastAPISync) < 30*time.Second {
		return SyncResult{}, ErrRateLimited
	}
	s.lastAPISync = time.Now()

	return s.Sync(ctx)
}

// Sync downloads the database object when it changed and reloads the
// connection. The file is replaced atomically.
func (s *SyncService) Sync(ctx context.Context) (SyncResult, error) {
	// Prevent concurrent sync operations
	s.syncOpMutex.Lock()
	defer s.syncOpMutex.Unlock()

	obj, err := s.selectObject(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{
		Key:             obj.Key,
		Size:            obj.Size,
		SyncedAt:        time.Now(),
		NextScheduledAt: s.getNextSync(),
	}

	if s.unchanged(obj) {
		s.logger.Debug("database unchanged, skipping download", "key", obj.Key)
		return result, nil
	}

	if err := s.replace(ctx, obj.Key); err != nil {
		return SyncResult{}, err
	}
	s.synced = obj

	if err := s.reloader.Reload(); err != nil {
		s.logger.Warn("reload after sync failed", "error", err)
	}

	result.Updated = true
	s.logger.Info("sync completed", "key", obj.Key, "size", obj.Size, "path", s.dest)
	return result, nil
}

// selectObject returns the configured object, or the most recently
// modified database file when no key is configured.
func (s *SyncService) selectObject(ctx context.Context) (output.StorageObject, error) {
	objects, err := s.storage.List(ctx)
	if err != nil {
		return output.StorageObject{}, fmt.Errorf("listing storage: %w", err)
	}

	var selected output.StorageObject
	found := false
	for _, obj := range objects {
		if s.key != "" {
			if obj.Key == s.key {
				return obj, nil
			}
			continue
		}
		if !output.IsDatabaseFile(obj.Key) {
			continue
		}
		if !found || obj.LastModified > selected.LastModified {
			selected = obj
			found = true
		}
	}

	if !found {
		if s.key != "" {
			return output.StorageObject{}, fmt.Errorf("%w: %s", ErrNoDatabaseObject, s.key)
		}
		return output.StorageObject{}, ErrNoDatabaseObject
	}
	return selected, nil
}

func (s *SyncService) unchanged(obj output.StorageObject) bool {
	if _, err := os.Stat(s.dest); err != nil {
		return false
	}
	if s.synced.Key != obj.Key {
		return false
	}
	if obj.ETag != "" {
		return obj.ETag == s.synced.ETag
	}
	return obj.Size == s.synced.Size && obj.LastModified == s.synced.LastModified
}

// replace downloads key next to the destination and renames it into place.
func (s *SyncService) replace(ctx context.Context, key string) error {
	if err := os.MkdirAll(filepath.Dir(s.dest), 0o750); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	tmp := s.dest + ".download"
	if err := s.storage.Download(ctx, key, tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("downloading %s: %w", key, err)
	}

	if err := os.Rename(tmp, s.dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing database file: %w", err)
	}
	return nil
}

// setNextSync updates the next scheduled sync time.
func (s *SyncService) setNextSync(t time.Time) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	s.nextSync = t
}

// getNextSync returns the next scheduled sync time.
func (s *SyncService) getNextSync() time.Time {
	s.syncMu.RLock()
	defer s.syncMu.RUnlock()
	return s.nextSync
}

// Interval returns the sync interval.
func (s *SyncService) Interval() time.Duration {
	return s.interval
}
