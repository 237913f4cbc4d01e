package weather

import (
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Coordinates is the position a city name geocodes to.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Reading is the current weather at a set of coordinates.
type Reading struct {
	Temperature float64   // °C
	WindSpeed   float64   // km/h
	Condition   Condition
	ObservedAt  time.Time // always UTC
}

// Status tags which variant an Outcome is.
type Status string

const (
	StatusSuccess         Status = "success"
	StatusGeocodeFailure  Status = "geocode_failure"
	StatusWeatherFailure  Status = "weather_failure"
	StatusNetworkFailure  Status = "network_failure"
	StatusInternalFailure Status = "internal_failure"
)

// Stage names the pipeline step a network failure happened in.
type Stage string

const (
	StageGeocode Stage = "geocode"
	StageWeather Stage = "weather"
)

// Outcome is the terminal result of processing one city.
// Temperature, WindSpeed and Condition are only meaningful on success;
// Stage is only set for network failures.
type Outcome struct {
	City        string    `json:"city"`
	Status      Status    `json:"status"`
	Stage       Stage     `json:"stage,omitempty"`
	Temperature float64   `json:"temperatureC"`
	WindSpeed   float64   `json:"windSpeedKmh"`
	Condition   Condition `json:"condition,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	FetchedAt   time.Time `json:"fetchedAt"`

	Err error `json:"-"`
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

// Describe returns a short human readable status for tables and logs.
func (o Outcome) Describe() string {
	switch o.Status {
	case StatusSuccess:
		return "ok"
	case StatusGeocodeFailure:
		if o.Reason != "" {
			return "geocode failed: " + o.Reason
		}
		return "geocode failed"
	case StatusWeatherFailure:
		return "weather failed: " + o.Reason
	case StatusNetworkFailure:
		return "network error (" + string(o.Stage) + "): " + o.Reason
	default:
		return "internal error: " + o.Reason
	}
}
