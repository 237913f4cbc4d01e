package weather

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Service orchestrates the per-city pipelines and persists their outcomes.
type Service struct {
	geocoder   Geocoder
	forecaster Forecaster
	store      Store
	recorder   Recorder
	observer   Observer
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithStore saves every outcome of FetchAndStore in st.
func WithStore(st Store) Option {
	return func(s *Service) { s.store = st }
}

// WithRecorder hands every batch of FetchAndStore to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithObserver reports every outcome to o.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// NewService creates a new Service.
func NewService(geocoder Geocoder, forecaster Forecaster, opts ...Option) *Service {
	s := &Service{
		geocoder:   geocoder,
		forecaster: forecaster,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunAll processes every city concurrently and returns one Outcome per
// city in input order. A failing or panicking city never affects the
// others and the call returns only after the slowest city is done.
func (s *Service) RunAll(ctx context.Context, cities []string) []Outcome {
	outcomes := make([]Outcome, len(cities))

	var wg conc.WaitGroup
	for i, city := range cities {
		wg.Go(func() {
			var pc panics.Catcher
			pc.Try(func() {
				outcomes[i] = s.ProcessCity(ctx, city)
			})
			if r := pc.Recovered(); r != nil {
				log.Errorf("pipeline for %q panicked: %v", city, r.Value)
				outcomes[i] = Outcome{
					City:      city,
					Status:    StatusInternalFailure,
					Reason:    fmt.Sprint(r.Value),
					FetchedAt: s.now().UTC(),
					Err:       r.AsError(),
				}
			}
		})
	}
	wg.Wait()

	return outcomes
}

// FetchAndStore runs a batch, saves each outcome in the store and hands
// the batch to the recorder. Outcomes are always complete; the error
// only reports a recorder failure.
func (s *Service) FetchAndStore(ctx context.Context, cities []string) ([]Outcome, error) {
	log.Infof("fetching weather for %d cities", len(cities))
	outcomes := s.RunAll(ctx, cities)

	if s.store != nil {
		for _, o := range outcomes {
			s.store.SaveOutcome(o)
		}
	}

	sum := Summarize(outcomes)
	log.Infof("batch completed: %d ok, %d failed", sum.Succeeded, sum.Failed)

	if s.recorder != nil && len(outcomes) > 0 {
		if err := s.recorder.Record(outcomes); err != nil {
			return outcomes, fmt.Errorf("record outcomes: %w", err)
		}
	}
	return outcomes, nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(city string) (Outcome, error) {
	if s.store == nil {
		return Outcome{}, fmt.Errorf("no store configured")
	}
	return s.store.GetLatest(city)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(city string, from, to time.Time) ([]Outcome, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no store configured")
	}
	return s.store.GetRange(city, from, to)
}
