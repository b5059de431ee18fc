package ranking

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vetrina-app/vetrina/internal/business"
	"github.com/vetrina-app/vetrina/internal/jobs"
	"github.com/vetrina-app/vetrina/internal/review"
	"github.com/vetrina-app/vetrina/internal/stats"
)

func newTestRefreshJob(t *testing.T) (*RefreshJob, *SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	businesses := business.NewInMemoryBusinessRepository()
	reviews := review.NewInMemoryReviewRepository()
	store := stats.NewInMemoryStatsStore()

	err := businesses.Insert(ctx, &business.Business{
		ID:        "b1",
		Name:      "established",
		Category:  "cafe",
		Status:    business.StatusActive,
		Verified:  true,
		CreatedAt: time.Now().Add(-30 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to insert business: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := reviews.Create(ctx, &review.Review{BusinessID: "b1", Rating: 5}); err != nil {
			t.Fatalf("failed to create review: %v", err)
		}
	}
	bs := stats.NewZeroStats("b1")
	bs.TotalReviews = 5
	bs.AverageRating = 5
	if err := store.Upsert(ctx, bs); err != nil {
		t.Fatalf("failed to upsert stats: %v", err)
	}

	builder := NewBuilder(businesses, reviews, store, nil, 100)
	snapshots := NewSnapshotStore()
	job := NewRefreshJob(RefreshJobConfig{
		Interval: time.Hour,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, builder, snapshots)
	return job, snapshots
}

func TestRefreshAllPopulatesAllSets(t *testing.T) {
	job, snapshots := newTestRefreshJob(t)

	if !job.RefreshAll(context.Background()) {
		t.Fatal("expected RefreshAll to run")
	}

	// b1 qualifies for every set: 5 reviews at 5.0, recent activity, within
	// the new window, active for quality.
	for _, name := range SetNames {
		set, err := snapshots.Get(name)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", name, err)
		}
		if len(set.Entries) != 1 || set.Entries[0].BusinessID != "b1" {
			t.Errorf("set %s = %v, want [b1]", name, entryIDs(set.Entries))
		}
	}
}

func TestRefreshAllSkipsWhenBusy(t *testing.T) {
	job, snapshots := newTestRefreshJob(t)

	job.busy.Store(true)
	if job.RefreshAll(context.Background()) {
		t.Error("expected RefreshAll to report a skip while another run holds the slot")
	}
	job.busy.Store(false)

	set, err := snapshots.Get(SetTopRated)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(set.Entries) != 0 {
		t.Errorf("skipped run must not touch the sets, got %v", entryIDs(set.Entries))
	}

	if !job.RefreshAll(context.Background()) {
		t.Error("expected RefreshAll to run once the slot frees up")
	}
}

func TestRefreshAllStampsConsistentRefreshTime(t *testing.T) {
	job, snapshots := newTestRefreshJob(t)

	if !job.RefreshAll(context.Background()) {
		t.Fatal("expected RefreshAll to run")
	}

	first, err := snapshots.Get(SetNames[0])
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	for _, name := range SetNames[1:] {
		set, err := snapshots.Get(name)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", name, err)
		}
		if !set.RefreshedAt.Equal(first.RefreshedAt) {
			t.Errorf("set %s refreshed at %v, want %v shared by the whole cycle",
				name, set.RefreshedAt, first.RefreshedAt)
		}
	}
}

func TestRefreshJobLifecycle(t *testing.T) {
	job, snapshots := newTestRefreshJob(t)

	if job.IsRunning() {
		t.Error("job should not be running before Start")
	}

	ctx := context.Background()
	if err := job.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !job.IsRunning() {
		t.Error("job should be running after Start")
	}

	// Starting again is a no-op.
	if err := job.Start(ctx); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	// The job refreshes once on startup before the first tick.
	deadline := time.After(2 * time.Second)
	for {
		set, err := snapshots.Get(SetQuality)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(set.Entries) > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the startup refresh")
		case <-time.After(5 * time.Millisecond):
		}
	}

	job.Stop()
	if job.IsRunning() {
		t.Error("job should not be running after Stop")
	}

	// Stopping again is a no-op.
	job.Stop()
}

func TestRefreshJobStopsOnContextCancel(t *testing.T) {
	job, _ := newTestRefreshJob(t)

	ctx, cancel := context.WithCancel(context.Background())
	if err := job.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()

	// The run loop exits on its own; Stop still unblocks because doneCh
	// closes either way.
	done := make(chan struct{})
	go func() {
		job.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancellation")
	}
}

func TestNewRefreshJobDefaults(t *testing.T) {
	job := NewRefreshJob(RefreshJobConfig{}, nil, nil)

	if job.config.Interval != DefaultRefreshInterval {
		t.Errorf("interval = %v, want %v", job.config.Interval, DefaultRefreshInterval)
	}
	if job.config.Timeout != DefaultRefreshTimeout {
		t.Errorf("timeout = %v, want %v", job.config.Timeout, DefaultRefreshTimeout)
	}
	if job.config.Logger == nil {
		t.Error("expected a default logger")
	}
}

type recordingJobMetrics struct {
	totals    map[string]int
	errors    map[string]int
	durations int
}

func newRecordingJobMetrics() *recordingJobMetrics {
	return &recordingJobMetrics{
		totals: make(map[string]int),
		errors: make(map[string]int),
	}
}

func (m *recordingJobMetrics) IncJobsTotal(jobType, status string) {
	m.totals[jobType+"/"+status]++
}

func (m *recordingJobMetrics) ObserveJobDuration(jobType string, seconds float64) {
	m.durations++
}

func (m *recordingJobMetrics) IncJobErrors(jobType, errorType string) {
	m.errors[jobType+"/"+errorType]++
}

func TestRefreshAllReportsJobMetrics(t *testing.T) {
	job, _ := newTestRefreshJob(t)
	jm := newRecordingJobMetrics()
	job.config.JobMetrics = jm

	if !job.RefreshAll(context.Background()) {
		t.Fatal("expected RefreshAll to run")
	}

	if got := jm.totals[jobs.JobTypeRankingRefresh+"/"+jobs.StatusSuccess]; got != 1 {
		t.Errorf("success total = %d, want 1", got)
	}
	if jm.durations != 1 {
		t.Errorf("duration observations = %d, want 1", jm.durations)
	}
	if len(jm.errors) != 0 {
		t.Errorf("unexpected job errors: %v", jm.errors)
	}
}
