package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/city-weather/internal/weather"
)

type AppConfig struct {
	GeocodeBaseURL string        `validate:"required,url"`
	WeatherBaseURL string        `validate:"required,url"`
	HTTPTimeout    time.Duration `validate:"gt=0"`

	// Circuit breaker per upstream host; 0 disables it.
	BreakerFailureThreshold uint32
	BreakerCooldown         time.Duration `validate:"gte=0"`

	// Daily CSV log location.
	ReportDir    string `validate:"required"`
	ReportPrefix string `validate:"required"`

	// Cities fetched periodically in serve mode and how often.
	Cities        []string
	FetchInterval time.Duration `validate:"gt=0"`

	// In-memory store retention.
	StoreMaxHistory int           // max number of outcomes per city (0 = unlimited)
	StoreMaxAge     time.Duration // max age of outcomes (0 = unlimited)

	MaxCitiesPerRequest int `validate:"gt=0"`

	Port     string `validate:"required,numeric"`
	LogLevel string `validate:"required,oneof=trace debug info warn warning error fatal panic"`
}

var validate = validator.New()

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}
	cfg := &AppConfig{}

	cfg.GeocodeBaseURL = getenvDefault("GEOCODE_BASE_URL", "https://geocoding-api.open-meteo.com")
	cfg.WeatherBaseURL = getenvDefault("WEATHER_BASE_URL", "https://api.open-meteo.com")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	threshold, err := strconv.ParseUint(getenvDefault("BREAKER_FAILURE_THRESHOLD", "0"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid BREAKER_FAILURE_THRESHOLD: %w", err)
	}
	cfg.BreakerFailureThreshold = uint32(threshold)
	if cfg.BreakerCooldown, err = getenvDuration("BREAKER_COOLDOWN", "30s"); err != nil {
		return nil, err
	}

	cfg.ReportDir = getenvDefault("REPORT_DIR", ".")
	cfg.ReportPrefix = getenvDefault("REPORT_PREFIX", "weather")

	cfg.Cities = weather.ParseCities(os.Getenv("WEATHER_CITIES"))
	// Scheduler interval: default 15 minutes.
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.MaxCitiesPerRequest = getenvInt("MAX_CITIES_PER_REQUEST", 50)
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// InitLogger applies the configured level to the global logrus logger.
func (c *AppConfig) InitLogger() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	log.SetLevel(level)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
