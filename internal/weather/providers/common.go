package providers

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/i474232898/city-weather/internal/weather"
)

const maxBodyBytes = 4 << 20

// BreakerConfig controls the optional per-host circuit breaker.
// A FailureThreshold of zero disables it.
type BreakerConfig struct {
	FailureThreshold uint32
	Cooldown         time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Timeout time.Duration
	Breaker BreakerConfig
}

// FailureObserver is notified once per failed outbound call.
type FailureObserver interface {
	ObserveFetchFailure(kind weather.FetchKind)
}

// HTTPClient issues single-attempt GET requests bounded by one
// connect+read timeout and classifies transport failures.
type HTTPClient struct {
	cfg      HTTPClientConfig
	observer FailureObserver

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

var errNoHTTPClient = errors.New("http client not configured")

// NewHTTPClient creates an HTTPClient. observer may be nil.
func NewHTTPClient(cfg HTTPClientConfig, observer FailureObserver) *HTTPClient {
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	return &HTTPClient{
		cfg:      cfg,
		observer: observer,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Get fetches rawURL and returns the response body whatever the status
// code; deciding whether the body is an application error is up to the
// caller. Every failure is a *weather.FetchError.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := c.get(ctx, rawURL)
	if err == nil {
		return body, nil
	}

	fe := &weather.FetchError{Kind: weather.FetchOther, URL: rawURL, Err: err}
	errors.As(err, &fe)
	c.report(fe)
	return nil, fe
}

func (c *HTTPClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	if c.cfg.Client == nil {
		return nil, errNoHTTPClient
	}

	cb := c.breaker(rawURL)
	if cb == nil {
		return c.do(ctx, rawURL)
	}

	result, err := cb.Execute(func() (interface{}, error) {
		return c.do(ctx, rawURL)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &weather.FetchError{Kind: weather.FetchOther, URL: rawURL, Err: err}
	}
	if err != nil {
		return nil, err
	}
	body, _ := result.([]byte)
	return body, nil
}

// do performs the request. The timeout covers dialing, headers and
// reading the body.
func (c *HTTPClient) do(ctx context.Context, rawURL string) ([]byte, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	var connected atomic.Bool
	ctx = httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
		GotConn: func(httptrace.GotConnInfo) { connected.Store(true) },
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &weather.FetchError{Kind: weather.FetchOther, URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.cfg.Client.Do(req)
	if err != nil {
		return nil, &weather.FetchError{Kind: classify(err, connected.Load()), URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &weather.FetchError{Kind: classify(err, true), URL: rawURL, Err: err}
	}

	log.Debugf("GET %s -> %d (%d bytes)", rawURL, resp.StatusCode, len(body))
	return body, nil
}

// classify decides the failure kind. A timeout before a connection was
// obtained is a connect timeout, afterwards a read timeout.
func classify(err error, connected bool) weather.FetchKind {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return weather.FetchConnectionRefused
	case isTimeout(err) && connected:
		return weather.FetchReadTimeout
	case isTimeout(err):
		return weather.FetchConnectTimeout
	default:
		return weather.FetchOther
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (c *HTTPClient) report(fe *weather.FetchError) {
	entry := log.WithFields(log.Fields{"url": fe.URL, "kind": fe.Kind.String()})
	switch fe.Kind {
	case weather.FetchConnectTimeout:
		entry.Warn("timeout error: the request took too long to connect")
	case weather.FetchReadTimeout:
		entry.Warn("timeout error: reading the response took too long")
	case weather.FetchConnectionRefused:
		entry.Warn("connection error: could not reach the server")
	default:
		entry.Warnf("request error: %v", fe.Err)
	}

	if c.observer != nil {
		c.observer.ObserveFetchFailure(fe.Kind)
	}
}

// breaker returns the circuit breaker for the URL's host, or nil when
// breakers are disabled.
func (c *HTTPClient) breaker(rawURL string) *gobreaker.CircuitBreaker {
	if c.cfg.Breaker.FailureThreshold == 0 {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.breakers[u.Host]
	if !ok {
		threshold := c.cfg.Breaker.FailureThreshold
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        u.Host,
			MaxRequests: 1,
			Timeout:     c.cfg.Breaker.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warnf("circuit breaker %s: %s -> %s", name, from, to)
			},
		})
		c.breakers[u.Host] = cb
	}
	return cb
}
