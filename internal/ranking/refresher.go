package ranking

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vetrina-app/vetrina/internal/jobs"
)

// DefaultRefreshInterval is the default interval between refresh cycles.
const DefaultRefreshInterval = 15 * time.Minute

// DefaultRefreshTimeout is the default timeout for a single refresh cycle.
const DefaultRefreshTimeout = 2 * time.Minute

// JobMetrics provides centralized background job metrics tracking.
type JobMetrics interface {
	IncJobsTotal(jobType, status string)
	ObserveJobDuration(jobType string, seconds float64)
	IncJobErrors(jobType, errorType string)
}

// RefreshJobConfig configures the ranked-set refresh job.
type RefreshJobConfig struct {
	// Interval is the duration between refresh cycles.
	Interval time.Duration
	// Logger for job activity.
	Logger *slog.Logger
	// Metrics for performance tracking.
	Metrics *Metrics
	// JobMetrics for centralized background job tracking.
	JobMetrics JobMetrics
	// Timeout for each refresh cycle.
	Timeout time.Duration
}

// RefreshJob periodically rebuilds all four ranked sets and swaps them
// into the snapshot store. A refresh that is still running when the next
// tick fires is skipped rather than queued, so two refreshes never race to
// swap the same set. Per-set failures are isolated: a failed set keeps
// serving its last good snapshot while the others still swap.
type RefreshJob struct {
	config  RefreshJobConfig
	builder *Builder
	store   *SnapshotStore

	busy atomic.Bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRefreshJob creates a new ranked-set refresh job.
func NewRefreshJob(config RefreshJobConfig, builder *Builder, store *SnapshotStore) *RefreshJob {
	if config.Interval == 0 {
		config.Interval = DefaultRefreshInterval
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultRefreshTimeout
	}

	return &RefreshJob{
		config:  config,
		builder: builder,
		store:   store,
	}
}

// Start begins the periodic refresh job.
// Returns immediately; the job runs in a background goroutine.
func (j *RefreshJob) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
	return nil
}

// Stop signals the refresh job to stop and waits for it to finish.
func (j *RefreshJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh := j.stopCh
	doneCh := j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// IsRunning returns whether the job is currently running.
func (j *RefreshJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// run is the main loop for the refresh job.
func (j *RefreshJob) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	// Build the initial sets immediately so discovery endpoints have data
	// without waiting a full interval.
	if !j.RefreshAll(ctx) {
		j.config.Logger.Warn("initial ranking refresh skipped, another refresh in progress")
	}

	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("ranking refresh job stopping due to context cancellation")
			return
		case <-j.stopCh:
			j.config.Logger.Info("ranking refresh job stopping due to stop signal")
			return
		case <-ticker.C:
			if !j.RefreshAll(ctx) {
				j.config.Logger.Warn("skipping scheduled ranking refresh, previous run still in progress")
			}
		}
	}
}

// RefreshAll rebuilds all four ranked sets from one coherent snapshot and
// swaps each into the store. Returns false if a refresh was already in
// progress and the call was skipped. Callable on-demand in addition to
// the timer.
func (j *RefreshJob) RefreshAll(parentCtx context.Context) bool {
	if !j.busy.CompareAndSwap(false, true) {
		return false
	}
	defer j.busy.Store(false)

	ctx, cancel := context.WithTimeout(parentCtx, j.config.Timeout)
	defer cancel()

	startTime := time.Now()

	snap, err := j.builder.LoadSnapshot(ctx)
	if err != nil {
		j.config.Logger.Error("failed to load ranking snapshot, keeping last good sets",
			"error", err)
		j.recordCycle(startTime, 0, len(SetNames))
		return true
	}

	builders := map[string]func(*Snapshot) ([]RankedEntry, error){
		SetTopRated: j.builder.BuildTopRated,
		SetTrending: j.builder.BuildTrending,
		SetNew:      j.builder.BuildNew,
		SetQuality:  j.builder.BuildQuality,
	}

	var failed int
	for _, name := range SetNames {
		entries, err := builders[name](snap)
		if err != nil {
			// The failed set keeps serving its last good snapshot; the next
			// scheduled tick retries it.
			failed++
			j.config.Logger.Error("failed to rebuild ranked set",
				"set", name,
				"error", err)
			if j.config.Metrics != nil {
				j.config.Metrics.IncRefreshErrors(name)
			}
			if j.config.JobMetrics != nil {
				j.config.JobMetrics.IncJobErrors(jobs.JobTypeRankingRefresh, "build_error")
			}
			continue
		}

		if err := j.store.Swap(name, entries, snap.Now); err != nil {
			failed++
			j.config.Logger.Error("failed to swap ranked set",
				"set", name,
				"error", err)
			continue
		}

		if j.config.Metrics != nil {
			j.config.Metrics.SetRankedSetSize(name, float64(len(entries)))
		}
		j.config.Logger.Debug("ranked set refreshed",
			"set", name,
			"entries", len(entries))
	}

	j.recordCycle(startTime, len(SetNames)-failed, failed)
	return true
}

// recordCycle updates metrics and logs completion of one refresh cycle.
func (j *RefreshJob) recordCycle(startTime time.Time, refreshed, failed int) {
	duration := time.Since(startTime).Seconds()

	status := jobs.StatusSuccess
	if failed > 0 {
		status = jobs.StatusFailure
	}

	if j.config.Metrics != nil {
		j.config.Metrics.IncRefreshTotal()
		j.config.Metrics.ObserveRefreshDuration(duration)
		j.config.Metrics.SetLastRefreshTimestamp(float64(time.Now().Unix()))
	}
	if j.config.JobMetrics != nil {
		j.config.JobMetrics.IncJobsTotal(jobs.JobTypeRankingRefresh, status)
		j.config.JobMetrics.ObserveJobDuration(jobs.JobTypeRankingRefresh, duration)
	}

	j.config.Logger.Info("ranking refresh completed",
		"duration_seconds", duration,
		"sets_refreshed", refreshed,
		"sets_failed", failed)
}
