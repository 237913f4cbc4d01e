package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/city-weather/internal/weather"
)

// Batcher runs one batch of city pipelines.
type Batcher interface {
	FetchAndStore(ctx context.Context, cities []string) ([]weather.Outcome, error)
}

// Scheduler periodically fetches weather for the configured cities.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Batcher
	cities    []string
	interval  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Scheduler.
func New(cities []string, interval time.Duration, service Batcher) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		cities:    cities,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first batch runs immediately. Overlapping runs are skipped.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		log.Info("scheduler: no cities configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).SingletonMode().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Infof("scheduler: fetching %d cities every %s", len(s.cities), interval)
	return nil
}

func (s *Scheduler) run() {
	entry := log.WithField("run_id", uuid.NewString())
	entry.Info("scheduler: running weather fetch job")

	outcomes, err := s.service.FetchAndStore(s.ctx, s.cities)
	if err != nil {
		entry.Errorf("scheduler: %v", err)
	}

	sum := weather.Summarize(outcomes)
	entry.Infof("scheduler: completed weather fetch job (%d ok, %d failed)", sum.Succeeded, sum.Failed)
}

// Stop stops the scheduler and cancels in-flight fetches.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
