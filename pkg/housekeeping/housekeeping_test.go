package housekeeping

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logbarn/logbarn/pkg/cluster"
	"github.com/logbarn/logbarn/pkg/config"
	"github.com/logbarn/logbarn/pkg/metrics"
)

type fakePurgeStore struct {
	mu sync.Mutex

	recordsCalls    int
	recordsCutoff   time.Time
	recordsArchived bool
	recordsErr      error
	recordsPurged   int64

	websitesCalls  int
	websitesCutoff time.Time
	websitesPurged int64
}

func (f *fakePurgeStore) PurgeRecordsBefore(ctx context.Context, cutoff time.Time, requireArchived bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordsCalls++
	f.recordsCutoff = cutoff
	f.recordsArchived = requireArchived
	if f.recordsErr != nil {
		return 0, f.recordsErr
	}
	return f.recordsPurged, nil
}

func (f *fakePurgeStore) PurgeInactiveWebsites(ctx context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.websitesCalls++
	f.websitesCutoff = olderThan
	return f.websitesPurged, nil
}

func retentionConfig() config.Retention {
	return config.Retention{LogDays: 30, InactiveWebsiteDays: 45}
}

func newTestScheduler(store *fakePurgeStore) *Scheduler {
	return NewScheduler(retentionConfig(), false, store, cluster.New("0"))
}

func TestJobDue(t *testing.T) {
	base := time.Date(2025, 6, 1, 2, 5, 0, 0, time.Local)

	tests := []struct {
		name string
		job  job
		now  time.Time
		want bool
	}{
		{"never ran at trigger hour", job{hour: 2}, base, true},
		{"wrong hour", job{hour: 2}, base.Add(3 * time.Hour), false},
		{"still running", job{hour: 2, running: true}, base, false},
		{"already ran today", job{hour: 2, lastRun: base.Add(-4 * time.Minute)}, base, false},
		{"ran yesterday", job{hour: 2, lastRun: base.AddDate(0, 0, -1)}, base, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.job.due(tt.now); got != tt.want {
				t.Errorf("due(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestDispatchRunsDueJob(t *testing.T) {
	store := &fakePurgeStore{}
	s := newTestScheduler(store)

	s.dispatch(time.Date(2025, 6, 1, purgeRecordsHour, 1, 0, 0, time.Local))
	s.wg.Wait()

	assert.Equal(t, 1, store.recordsCalls)
	assert.Equal(t, 0, store.websitesCalls)
}

func TestDispatchOncePerDay(t *testing.T) {
	store := &fakePurgeStore{}
	s := newTestScheduler(store)
	now := time.Date(2025, 6, 1, purgeRecordsHour, 1, 0, 0, time.Local)

	s.dispatch(now)
	s.wg.Wait()
	s.dispatch(now.Add(10 * time.Minute))
	s.wg.Wait()

	assert.Equal(t, 1, store.recordsCalls)
}

func TestDispatchRunsAgainNextDay(t *testing.T) {
	store := &fakePurgeStore{}
	s := newTestScheduler(store)
	now := time.Date(2025, 6, 1, purgeRecordsHour, 1, 0, 0, time.Local)

	s.dispatch(now)
	s.wg.Wait()
	s.dispatch(now.AddDate(0, 0, 1))
	s.wg.Wait()

	assert.Equal(t, 2, store.recordsCalls)
}

func TestDispatchEachJobAtItsHour(t *testing.T) {
	store := &fakePurgeStore{}
	s := newTestScheduler(store)

	s.dispatch(time.Date(2025, 6, 1, purgeWebsitesHour, 0, 0, 0, time.Local))
	s.wg.Wait()

	assert.Equal(t, 0, store.recordsCalls)
	assert.Equal(t, 1, store.websitesCalls)
}

func TestDispatchSkipsOffWorkerZero(t *testing.T) {
	store := &fakePurgeStore{}
	s := NewScheduler(retentionConfig(), false, store, cluster.New("4"))

	s.dispatch(time.Date(2025, 6, 1, purgeRecordsHour, 1, 0, 0, time.Local))
	s.wg.Wait()

	assert.Equal(t, 0, store.recordsCalls)
	assert.Equal(t, 0, store.websitesCalls)
}

func TestDispatchSkipsRunningJob(t *testing.T) {
	store := &fakePurgeStore{}
	s := newTestScheduler(store)
	s.jobs[0].running = true

	s.dispatch(time.Date(2025, 6, 1, purgeRecordsHour, 1, 0, 0, time.Local))
	s.wg.Wait()

	assert.Equal(t, 0, store.recordsCalls)
}

func TestPurgeRecordsCutoff(t *testing.T) {
	t.Run("standalone purges by age alone", func(t *testing.T) {
		store := &fakePurgeStore{recordsPurged: 12}
		s := NewScheduler(retentionConfig(), false, store, cluster.New("0"))

		require.NoError(t, s.purgeRecords(context.Background()))
		assert.False(t, store.recordsArchived)
		assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, -30), store.recordsCutoff, 2*time.Second)
	})

	t.Run("forwarding node spares unarchived rows", func(t *testing.T) {
		store := &fakePurgeStore{}
		s := NewScheduler(retentionConfig(), true, store, cluster.New("0"))

		require.NoError(t, s.purgeRecords(context.Background()))
		assert.True(t, store.recordsArchived)
	})
}

func TestPurgeWebsitesCutoff(t *testing.T) {
	store := &fakePurgeStore{websitesPurged: 3}
	s := newTestScheduler(store)

	require.NoError(t, s.purgeWebsites(context.Background()))
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, -45), store.websitesCutoff, 2*time.Second)
}

func TestExecuteCountsFailure(t *testing.T) {
	store := &fakePurgeStore{recordsErr: errors.New("lock wait timeout")}
	s := newTestScheduler(store)

	before := testutil.ToFloat64(metrics.JobFailures.WithLabelValues(JobPurgeRecords))
	s.execute(s.jobs[0])
	after := testutil.ToFloat64(metrics.JobFailures.WithLabelValues(JobPurgeRecords))

	assert.Equal(t, before+1, after)
	assert.Equal(t, 1, store.recordsCalls)
}

func TestStartStop(t *testing.T) {
	store := &fakePurgeStore{}
	s := newTestScheduler(store)

	s.Start()
	s.Stop()
}
