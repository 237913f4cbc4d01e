package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/city-weather/internal/weather"
)

// OpenMeteoProvider implements weather.Forecaster for the Open-Meteo forecast API.
type OpenMeteoProvider struct {
	client  Getter
	baseURL string
	now     func() time.Time
}

func NewOpenMeteoProvider(client Getter, baseURL string) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/") + "/v1/forecast",
		now:     time.Now,
	}
}

type forecastResponse struct {
	CurrentWeather *struct {
		Temperature *float64 `json:"temperature"`
		WindSpeed   *float64 `json:"windspeed"`
		WeatherCode *int     `json:"weathercode"`
		Time        string   `json:"time"`
	} `json:"current_weather"`
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Current returns the current temperature and wind speed at coords.
func (p *OpenMeteoProvider) Current(ctx context.Context, coords weather.Coordinates) (weather.Reading, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	values.Set("current_weather", "true")

	body, err := p.client.Get(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()))
	if err != nil {
		return weather.Reading{}, err
	}

	var payload forecastResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Reading{}, fmt.Errorf("%w: forecast: %v", weather.ErrMalformedResponse, err)
	}

	cw := payload.CurrentWeather
	switch {
	case payload.Error:
		return weather.Reading{}, fmt.Errorf("%w: forecast: %s", weather.ErrMalformedResponse, payload.Reason)
	case cw == nil:
		return weather.Reading{}, fmt.Errorf("%w: forecast: missing current_weather", weather.ErrMalformedResponse)
	case cw.Temperature == nil || cw.WindSpeed == nil:
		return weather.Reading{}, fmt.Errorf("%w: forecast: missing temperature or windspeed", weather.ErrMalformedResponse)
	}

	// Open-Meteo reports local ISO8601 without seconds or zone.
	ts, err := time.Parse("2006-01-02T15:04", cw.Time)
	if err != nil {
		ts = p.now().UTC()
	}

	cond := weather.ConditionUnknown
	if cw.WeatherCode != nil {
		cond = mapOpenMeteoCondition(*cw.WeatherCode)
	}

	return weather.Reading{
		Temperature: *cw.Temperature,
		WindSpeed:   *cw.WindSpeed,
		Condition:   cond,
		ObservedAt:  ts,
	}, nil
}

func mapOpenMeteoCondition(code int) weather.Condition {
	// Mapping based on Open-Meteo weather codes (simplified).
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
