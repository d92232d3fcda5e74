package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"klens/internal/repository"
	"klens/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	retentionRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "klens_retention_runs_total",
		Help: "Completed retention sweeps.",
	})

	retentionFilesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "klens_retention_files_deleted_total",
		Help: "Files removed by the retention sweeper.",
	})

	retentionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "klens_retention_errors_total",
		Help: "Entries the retention sweeper failed to process.",
	})

	retentionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "klens_retention_duration_seconds",
		Help:    "Duration of retention sweeps.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// SweepResult summarizes one retention pass.
type SweepResult struct {
	// Scanned counts regular files inspected in both directories.
	Scanned  int
	Deleted  int
	Errors   int
	Duration time.Duration
}

// RetentionService deletes stored and staged files older than maxAge, along
// with their metadata rows. It does not know whether a file is in use.
type RetentionService struct {
	paths    *storage.Paths
	store    repository.DocumentStore
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex // serializes RunOnce
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRetentionService(
	paths *storage.Paths,
	store repository.DocumentStore,
	maxAge time.Duration,
	interval time.Duration,
	logger *zap.Logger,
) *RetentionService {
	return &RetentionService{
		paths:    paths,
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger.With(zap.String("component", "retention")),
		now:      time.Now,
	}
}

// Start sweeps once immediately and then on every interval until ctx is
// cancelled or Stop is called.
func (r *RetentionService) Start(ctx context.Context) {
	if r.cancel != nil {
		return
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(sweepCtx, r.done)

	r.logger.Info("Retention sweeper started",
		zap.Duration("interval", r.interval),
		zap.Duration("max_age", r.maxAge),
	)
}

// Stop cancels the background loop and waits for an in-flight sweep to finish.
func (r *RetentionService) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.logger.Info("Retention sweeper stopped")
}

func (r *RetentionService) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps the staging and final directories. Errors on individual
// entries are logged and counted; they never stop the sweep.
func (r *RetentionService) RunOnce(ctx context.Context) *SweepResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	result := &SweepResult{}
	now := r.now()

	for _, dir := range r.paths.Dirs() {
		r.sweepDir(ctx, dir, now, result)
	}

	result.Duration = time.Since(start)

	retentionRuns.Inc()
	retentionFilesDeleted.Add(float64(result.Deleted))
	retentionErrors.Add(float64(result.Errors))
	retentionDuration.Observe(result.Duration.Seconds())

	r.logger.Info("Retention sweep finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("deleted", result.Deleted),
		zap.Int("errors", result.Errors),
		zap.Duration("duration", result.Duration),
	)

	return result
}

func (r *RetentionService) sweepDir(ctx context.Context, dir string, now time.Time, result *SweepResult) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.logger.Error("Failed to list directory", zap.String("dir", dir), zap.Error(err))
		result.Errors++
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		result.Scanned++

		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			r.logger.Warn("Failed to stat file", zap.String("path", path), zap.Error(err))
			result.Errors++
			continue
		}

		if now.Sub(info.ModTime()) <= r.maxAge {
			continue
		}

		r.expire(ctx, path, result)
	}
}

// expire removes one expired file and its metadata row. A file already gone
// was reclaimed by someone else and is not counted.
func (r *RetentionService) expire(ctx context.Context, path string, result *SweepResult) {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return
		}
		r.logger.Warn("Failed to delete expired file", zap.String("path", path), zap.Error(err))
		result.Errors++
		return
	}
	result.Deleted++

	if r.store == nil {
		return
	}
	if _, err := r.store.DeleteByPath(ctx, path); err != nil {
		r.logger.Warn("Failed to delete document metadata", zap.String("path", path), zap.Error(err))
		result.Errors++
	}
}
