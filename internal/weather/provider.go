package weather

import (
	"context"
	"time"
)

// Geocoder resolves a city name to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, city string) (Coordinates, error)
}

// Forecaster fetches the current weather at coordinates.
type Forecaster interface {
	Current(ctx context.Context, coords Coordinates) (Reading, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveOutcome(o Outcome)
	GetLatest(city string) (Outcome, error)
	GetRange(city string, from, to time.Time) ([]Outcome, error)
}

// Recorder persists a finished batch, e.g. the daily CSV log.
type Recorder interface {
	Record(outcomes []Outcome) error
}

// Observer is notified of every pipeline outcome.
type Observer interface {
	ObserveOutcome(o Outcome)
}
