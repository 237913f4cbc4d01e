package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	coords map[string]Coordinates
	errs   map[string]error
	delay  map[string]time.Duration
}

func (f *fakeGeocoder) Resolve(ctx context.Context, city string) (Coordinates, error) {
	if d := f.delay[city]; d > 0 {
		time.Sleep(d)
	}
	if err := f.errs[city]; err != nil {
		return Coordinates{}, err
	}
	c, ok := f.coords[city]
	if !ok {
		return Coordinates{}, fmt.Errorf("%w: %s", ErrNotFound, city)
	}
	return c, nil
}

type fakeForecaster struct {
	readings map[Coordinates]Reading
	errs     map[Coordinates]error
	panics   map[Coordinates]bool
}

func (f *fakeForecaster) Current(ctx context.Context, c Coordinates) (Reading, error) {
	if f.panics[c] {
		panic("boom")
	}
	if err := f.errs[c]; err != nil {
		return Reading{}, err
	}
	return f.readings[c], nil
}

var (
	berlin = Coordinates{Latitude: 52.52, Longitude: 13.41}
	paris  = Coordinates{Latitude: 48.85, Longitude: 2.35}
	london = Coordinates{Latitude: 51.51, Longitude: -0.13}
)

func newFakes() (*fakeGeocoder, *fakeForecaster) {
	geo := &fakeGeocoder{
		coords: map[string]Coordinates{"Berlin": berlin, "Paris": paris, "London": london},
		errs:   map[string]error{},
		delay:  map[string]time.Duration{},
	}
	fc := &fakeForecaster{
		readings: map[Coordinates]Reading{
			berlin: {Temperature: 12.5, WindSpeed: 9.4, Condition: ConditionCloudy},
			paris:  {Temperature: 15.1, WindSpeed: 4.2, Condition: ConditionClear},
			london: {Temperature: 11.0, WindSpeed: 20.3, Condition: ConditionRain},
		},
		errs:   map[Coordinates]error{},
		panics: map[Coordinates]bool{},
	}
	return geo, fc
}

func cityStatuses(outcomes []Outcome) []string {
	out := make([]string, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.City + ":" + string(o.Status)
	}
	return out
}

func TestRunAllAllSucceed(t *testing.T) {
	geo, fc := newFakes()
	svc := NewService(geo, fc)

	outcomes := svc.RunAll(context.Background(), []string{"Berlin", "Paris"})

	require.Len(t, outcomes, 2)
	assert.Equal(t, Outcome{City: "Berlin", Status: StatusSuccess, Temperature: 12.5, WindSpeed: 9.4, Condition: ConditionCloudy},
		withoutTime(outcomes[0]))
	assert.Equal(t, "Paris", outcomes[1].City)
	assert.Equal(t, 15.1, outcomes[1].Temperature)
	assert.False(t, outcomes[0].FetchedAt.IsZero())
}

func TestRunAllGeocodeNotFound(t *testing.T) {
	geo, fc := newFakes()
	svc := NewService(geo, fc)

	outcomes := svc.RunAll(context.Background(), []string{"Atlantis", "Paris"})

	assert.Equal(t, []string{"Atlantis:geocode_failure", "Paris:success"}, cityStatuses(outcomes))
	assert.ErrorIs(t, outcomes[0].Err, ErrNotFound)
	assert.Equal(t, "city not found", outcomes[0].Reason)
	assert.Empty(t, outcomes[0].Stage)
}

func TestRunAllNetworkFailureStages(t *testing.T) {
	geo, fc := newFakes()
	geo.errs["London"] = &FetchError{Kind: FetchConnectionRefused, Err: errors.New("refused")}
	fc.errs[paris] = &FetchError{Kind: FetchReadTimeout, Err: errors.New("deadline")}
	svc := NewService(geo, fc)

	outcomes := svc.RunAll(context.Background(), []string{"Berlin", "Paris", "London"})

	assert.Equal(t, []string{"Berlin:success", "Paris:network_failure", "London:network_failure"}, cityStatuses(outcomes))
	assert.Equal(t, StageWeather, outcomes[1].Stage)
	assert.Equal(t, "read timeout", outcomes[1].Reason)
	assert.Equal(t, StageGeocode, outcomes[2].Stage)
	assert.Equal(t, "connection refused", outcomes[2].Reason)

	var fe *FetchError
	require.ErrorAs(t, outcomes[1].Err, &fe)
	assert.Equal(t, FetchReadTimeout, fe.Kind)
}

func TestRunAllMalformedWeather(t *testing.T) {
	geo, fc := newFakes()
	fc.errs[berlin] = fmt.Errorf("%w: missing current_weather", ErrMalformedResponse)
	svc := NewService(geo, fc)

	outcomes := svc.RunAll(context.Background(), []string{"Berlin", "Paris"})

	assert.Equal(t, []string{"Berlin:weather_failure", "Paris:success"}, cityStatuses(outcomes))
	assert.Equal(t, "malformed response", outcomes[0].Reason)
}

func TestRunAllRecoversPanics(t *testing.T) {
	geo, fc := newFakes()
	fc.panics[paris] = true
	svc := NewService(geo, fc)

	outcomes := svc.RunAll(context.Background(), []string{"Paris", "Berlin"})

	assert.Equal(t, []string{"Paris:internal_failure", "Berlin:success"}, cityStatuses(outcomes))
	assert.Equal(t, "boom", outcomes[0].Reason)
	assert.Error(t, outcomes[0].Err)
}

func TestRunAllKeepsInputOrder(t *testing.T) {
	geo, fc := newFakes()
	// the first city finishes last
	geo.delay["Berlin"] = 50 * time.Millisecond
	svc := NewService(geo, fc)

	cities := []string{"Berlin", "Paris", "Atlantis", "London", "Paris"}
	outcomes := svc.RunAll(context.Background(), cities)

	require.Len(t, outcomes, len(cities))
	for i, city := range cities {
		assert.Equal(t, city, outcomes[i].City)
	}
	assert.Equal(t, outcomes[1].Temperature, outcomes[4].Temperature)
}

func TestRunAllEmpty(t *testing.T) {
	geo, fc := newFakes()
	svc := NewService(geo, fc)

	outcomes := svc.RunAll(context.Background(), ParseCities(" ,: \t"))
	assert.NotNil(t, outcomes)
	assert.Empty(t, outcomes)
}

func TestRunAllIsConcurrent(t *testing.T) {
	geo, fc := newFakes()
	cities := []string{"Berlin", "Paris", "London"}
	for _, c := range cities {
		geo.delay[c] = 100 * time.Millisecond
	}
	svc := NewService(geo, fc)

	start := time.Now()
	outcomes := svc.RunAll(context.Background(), cities)

	assert.Len(t, outcomes, 3)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

type memStore struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (m *memStore) SaveOutcome(o Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, o)
}

func (m *memStore) GetLatest(city string) (Outcome, error) { return Outcome{}, nil }

func (m *memStore) GetRange(city string, from, to time.Time) ([]Outcome, error) { return nil, nil }

type recorderFunc func([]Outcome) error

func (f recorderFunc) Record(o []Outcome) error { return f(o) }

type countingObserver struct {
	mu    sync.Mutex
	count map[Status]int
}

func (c *countingObserver) ObserveOutcome(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count[o.Status]++
}

func TestFetchAndStore(t *testing.T) {
	geo, fc := newFakes()
	st := &memStore{}
	obs := &countingObserver{count: map[Status]int{}}
	var recorded []Outcome
	svc := NewService(geo, fc,
		WithStore(st),
		WithObserver(obs),
		WithRecorder(recorderFunc(func(o []Outcome) error {
			recorded = o
			return nil
		})),
	)

	outcomes, err := svc.FetchAndStore(context.Background(), []string{"Berlin", "Atlantis"})
	require.NoError(t, err)

	assert.Len(t, st.outcomes, 2)
	assert.Equal(t, outcomes, recorded)
	assert.Equal(t, 1, obs.count[StatusSuccess])
	assert.Equal(t, 1, obs.count[StatusGeocodeFailure])
}

func TestFetchAndStoreRecorderError(t *testing.T) {
	geo, fc := newFakes()
	svc := NewService(geo, fc, WithRecorder(recorderFunc(func([]Outcome) error {
		return errors.New("disk full")
	})))

	outcomes, err := svc.FetchAndStore(context.Background(), []string{"Berlin", "Paris"})
	assert.ErrorContains(t, err, "disk full")
	assert.Len(t, outcomes, 2)
}

func TestSummarize(t *testing.T) {
	sum := Summarize([]Outcome{
		{Status: StatusSuccess, Temperature: 10, WindSpeed: 3},
		{Status: StatusSuccess, Temperature: 20, WindSpeed: 12},
		{Status: StatusWeatherFailure},
	})
	assert.Equal(t, Summary{Total: 3, Succeeded: 2, Failed: 1, MeanTemperature: 15, MaxWindSpeed: 12}, sum)

	assert.Equal(t, Summary{Total: 1, Failed: 1}, Summarize([]Outcome{{Status: StatusNetworkFailure}}))
}

func withoutTime(o Outcome) Outcome {
	o.FetchedAt = time.Time{}
	return o
}
