package lookup

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultRateLimit  = 2.0
	DefaultMaxRetries = 4
	InitialBackoff    = time.Second
	MaxBackoff        = 30 * time.Second
	userAgent         = "bookorg/1.0 (+https://github.com/shishobooks/bookorg)"
)

// ErrUnexpectedStatus is returned for responses that are neither successful, a
// plain miss, nor worth retrying.
var ErrUnexpectedStatus = errors.New("unexpected status")

// HTTP performs rate limited JSON GETs with retries on throttling and transient
// server errors. One HTTP is meant to be shared by every worker talking to the
// same service.
type HTTP struct {
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

type HTTPOption func(*HTTP)

// WithTimeout bounds each individual request.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

// WithRateLimit sets the sustained requests per second. Zero or less disables
// limiting.
func WithRateLimit(perSecond float64) HTTPOption {
	return func(h *HTTP) {
		if perSecond <= 0 {
			h.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		h.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func WithMaxRetries(n int) HTTPOption {
	return func(h *HTTP) {
		if n >= 0 {
			h.maxRetries = n
		}
	}
}

// WithBackoff overrides the retry delays. Mostly useful in tests.
func WithBackoff(initial, maximum time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.initialBackoff = initial
		h.maxBackoff = maximum
	}
}

// WithHTTPClient overrides the default HTTP client. Its timeout is kept.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		if client != nil {
			h.client = client
		}
	}
}

func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{
		client:         &http.Client{Timeout: DefaultTimeout},
		limiter:        rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		maxRetries:     DefaultMaxRetries,
		initialBackoff: InitialBackoff,
		maxBackoff:     MaxBackoff,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// GetJSON decodes the body of a 200 response into v and reports true. A 404 is a
// miss and reports false with no error.
func (h *HTTP) GetJSON(ctx context.Context, url string, v interface{}) (bool, error) {
	log := logger.FromContext(ctx)

	for attempt := 0; ; attempt++ {
		if err := h.limiter.Wait(ctx); err != nil {
			return false, errors.WithStack(err)
		}

		status, retryAfter, err := h.get(ctx, url, v)
		if err == nil {
			return status == http.StatusOK, nil
		}
		if !isRetriable(ctx, status, err) || attempt >= h.maxRetries {
			return false, err
		}

		delay := h.backoff(attempt, retryAfter)
		log.Warn("retrying request", logger.Data{"url": url, "status": status, "attempt": attempt + 1, "delay": delay.String()})
		if err := SleepWithContext(ctx, delay); err != nil {
			return false, errors.WithStack(err)
		}
	}
}

func (h *HTTP) get(ctx context.Context, url string, v interface{}) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, 0, errors.WithStack(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return resp.StatusCode, 0, errors.Wrap(err, "failed to decode response")
		}
		return resp.StatusCode, 0, nil
	case http.StatusNotFound:
		return resp.StatusCode, 0, nil
	default:
		return resp.StatusCode, parseRetryAfter(resp.Header.Get("Retry-After")), errors.Wrapf(ErrUnexpectedStatus, "%s returned %d", url, resp.StatusCode)
	}
}

func (h *HTTP) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return min(retryAfter, h.maxBackoff)
	}
	d := h.initialBackoff << attempt
	if d <= 0 || d > h.maxBackoff {
		d = h.maxBackoff
	}
	if d > 1 {
		// Up to 50% jitter so parallel workers do not retry in lockstep.
		d = d/2 + time.Duration(rand.Int64N(int64(d/2)+1))
	}
	return d
}

func isRetriable(ctx context.Context, status int, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	case 0:
		// Transport failures (timeouts, refused connections) have no status.
		return true
	}
	return false
}

// parseRetryAfter understands the delay-seconds form of Retry-After.
func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
