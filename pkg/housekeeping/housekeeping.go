package housekeeping

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/logbarn/logbarn/pkg/cluster"
	"github.com/logbarn/logbarn/pkg/config"
	"github.com/logbarn/logbarn/pkg/log"
	"github.com/logbarn/logbarn/pkg/metrics"
)

// Job trigger hours on the local clock
const (
	purgeRecordsHour  = 2
	purgeWebsitesHour = 3
)

// checkInterval is how often the supervisor evaluates due jobs
const checkInterval = time.Minute

// jobTimeout bounds one job run; purges on a backlogged table can be slow
const jobTimeout = 10 * time.Minute

// Job names, used as metric labels and in logs
const (
	JobPurgeRecords  = "purge_records"
	JobPurgeWebsites = "purge_websites"
)

// Store is the storage surface housekeeping needs
type Store interface {
	PurgeRecordsBefore(ctx context.Context, cutoff time.Time, requireArchived bool) (int64, error)
	PurgeInactiveWebsites(ctx context.Context, olderThan time.Time) (int64, error)
}

// job is one scheduled task with its own overlap guard.
// lastRun and running are guarded by the scheduler mutex.
type job struct {
	name    string
	hour    int
	run     func(ctx context.Context) error
	lastRun time.Time
	running bool
}

// due reports whether the job should fire at now. A job fires at most
// once per day, within its trigger hour, and never while a previous run
// is still going.
func (j *job) due(now time.Time) bool {
	if j.running {
		return false
	}
	if now.Hour() != j.hour {
		return false
	}
	return !sameDay(j.lastRun, now)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Scheduler runs the daily retention jobs: purging expired log records
// and removing websites with no recent activity
type Scheduler struct {
	cfg             config.Retention
	requireArchived bool
	store           Store
	instance        cluster.Instance
	logger          zerolog.Logger

	mu   sync.Mutex
	jobs []*job
	wg   sync.WaitGroup

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewScheduler creates the housekeeping supervisor. With requireArchived
// set, record purging spares rows not yet propagated upstream.
func NewScheduler(cfg config.Retention, requireArchived bool, st Store, instance cluster.Instance) *Scheduler {
	s := &Scheduler{
		cfg:             cfg,
		requireArchived: requireArchived,
		store:           st,
		instance:        instance,
		logger:          log.WithComponent("housekeeping"),
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
	s.jobs = []*job{
		{name: JobPurgeRecords, hour: purgeRecordsHour, run: s.purgeRecords},
		{name: JobPurgeWebsites, hour: purgeWebsitesHour, run: s.purgeWebsites},
	}
	return s
}

// Start begins the supervision loop
func (s *Scheduler) Start() {
	go s.runLoop()
}

// Stop signals shutdown and waits for in-flight jobs, bounded by the
// per-job timeout
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Scheduler) runLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.dispatch(time.Now())
		case <-s.stopCh:
			s.wg.Wait()
			return
		}
	}
}

// dispatch fires every due job in its own goroutine
func (s *Scheduler) dispatch(now time.Time) {
	// Singleton tasks; membership can change between cycles
	if !s.instance.IsWorkerZero() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		if !j.due(now) {
			continue
		}
		j.lastRun = now
		j.running = true
		s.wg.Add(1)
		go func(j *job) {
			defer s.wg.Done()
			s.execute(j)
			s.mu.Lock()
			j.running = false
			s.mu.Unlock()
		}(j)
	}
}

// execute runs one job, isolating its failure to a log line and a counter
func (s *Scheduler) execute(j *job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	timer := metrics.NewTimer()
	err := j.run(ctx)
	timer.ObserveDurationVec(metrics.JobDuration, j.name)

	if err != nil {
		metrics.JobFailures.WithLabelValues(j.name).Inc()
		s.logger.Error().Err(err).Str("job", j.name).Msg("Housekeeping job failed")
		return
	}
	s.logger.Info().Str("job", j.name).Dur("took", timer.Duration()).Msg("Housekeeping job finished")
}

func (s *Scheduler) purgeRecords(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.LogDays)
	n, err := s.store.PurgeRecordsBefore(ctx, cutoff, s.requireArchived)
	if err != nil {
		return err
	}
	metrics.PurgedRecords.Add(float64(n))
	if n > 0 {
		s.logger.Info().Int64("records", n).Time("cutoff", cutoff).Msg("Purged expired log records")
	}
	return nil
}

func (s *Scheduler) purgeWebsites(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.InactiveWebsiteDays)
	n, err := s.store.PurgeInactiveWebsites(ctx, cutoff)
	if err != nil {
		return err
	}
	metrics.PurgedWebsites.Add(float64(n))
	if n > 0 {
		s.logger.Info().Int64("websites", n).Time("cutoff", cutoff).Msg("Purged inactive websites")
	}
	return nil
}
