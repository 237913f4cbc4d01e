package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	httpapi "github.com/i474232898/city-weather/internal/api/http"
	"github.com/i474232898/city-weather/internal/config"
	"github.com/i474232898/city-weather/internal/metrics"
	"github.com/i474232898/city-weather/internal/report"
	"github.com/i474232898/city-weather/internal/scheduler"
	"github.com/i474232898/city-weather/internal/store"
	"github.com/i474232898/city-weather/internal/weather"
	"github.com/i474232898/city-weather/internal/weather/providers"
)

const usage = `usage:
  city-weather [city ...]   fetch current weather once (prompts when no cities are given)
  city-weather serve        run the HTTP API and the periodic fetcher`

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	switch {
	case len(args) == 1 && args[0] == "serve":
		err = serve(ctx, cfg)
	case len(args) == 1 && (args[0] == "-h" || args[0] == "--help" || args[0] == "help"):
		fmt.Println(usage)
	default:
		err = runOnce(ctx, cfg, args, os.Stdin, os.Stdout)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func newService(cfg *config.AppConfig, m *metrics.Metrics, opts ...weather.Option) *weather.Service {
	// Shared HTTP client for outbound calls; each call carries its own timeout.
	client := providers.NewHTTPClient(providers.HTTPClientConfig{
		Client:  &http.Client{},
		Timeout: cfg.HTTPTimeout,
		Breaker: providers.BreakerConfig{
			FailureThreshold: cfg.BreakerFailureThreshold,
			Cooldown:         cfg.BreakerCooldown,
		},
	}, m)

	opts = append(opts,
		weather.WithObserver(m),
		weather.WithRecorder(report.NewCSVLog(cfg.ReportDir, cfg.ReportPrefix)),
	)
	return weather.NewService(
		providers.NewGeocodingProvider(client, cfg.GeocodeBaseURL),
		providers.NewOpenMeteoProvider(client, cfg.WeatherBaseURL),
		opts...,
	)
}

// runOnce fetches the given cities, or prompts for them, prints the
// table and appends the CSV log.
func runOnce(ctx context.Context, cfg *config.AppConfig, args []string, in io.Reader, out io.Writer) error {
	raw := strings.Join(args, " ")
	if len(args) == 0 {
		fmt.Fprint(out, "Enter city names separated by spaces, commas or colons: ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read cities: %w", err)
		}
		raw = line
	}

	cities := weather.ParseCities(raw)
	if len(cities) == 0 {
		fmt.Fprintln(out, "no cities given")
		return nil
	}

	service := newService(cfg, metrics.New())
	outcomes, recordErr := service.FetchAndStore(ctx, cities)
	if err := report.WriteTable(out, outcomes); err != nil {
		return err
	}
	return recordErr
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	m := metrics.New()

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	service := newService(cfg, m, weather.WithStore(memStore))

	// Scheduler that periodically fetches and stores data.
	sched := scheduler.New(cfg.Cities, cfg.FetchInterval, service)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(service, m.Registry(), cfg.MaxCitiesPerRequest)

	go func() {
		log.Infof("listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	return nil
}
