package weather

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

// ProcessCity runs geocode then weather for a single city and folds any
// failure into the returned Outcome. It never returns an error.
func (s *Service) ProcessCity(ctx context.Context, city string) Outcome {
	out := s.processCity(ctx, city)
	out.FetchedAt = s.now().UTC()

	log.WithFields(log.Fields{
		"city":   city,
		"status": out.Status,
	}).Debugf("city processed: %s", out.Describe())

	if s.observer != nil {
		s.observer.ObserveOutcome(out)
	}
	return out
}

func (s *Service) processCity(ctx context.Context, city string) Outcome {
	coords, err := s.geocoder.Resolve(ctx, city)
	if err != nil {
		return failure(city, StageGeocode, err)
	}

	reading, err := s.forecaster.Current(ctx, coords)
	if err != nil {
		return failure(city, StageWeather, err)
	}

	return Outcome{
		City:        city,
		Status:      StatusSuccess,
		Temperature: reading.Temperature,
		WindSpeed:   reading.WindSpeed,
		Condition:   reading.Condition,
	}
}

// failure maps a stage error onto the matching Outcome variant.
func failure(city string, stage Stage, err error) Outcome {
	out := Outcome{City: city, Err: err}

	var fe *FetchError
	switch {
	case errors.As(err, &fe):
		out.Status = StatusNetworkFailure
		out.Stage = stage
		out.Reason = fe.Kind.String()
	case stage == StageGeocode:
		out.Status = StatusGeocodeFailure
		out.Reason = reason(err)
	default:
		out.Status = StatusWeatherFailure
		out.Reason = reason(err)
	}
	return out
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	case errors.Is(err, ErrMalformedResponse):
		return ErrMalformedResponse.Error()
	default:
		return err.Error()
	}
}
