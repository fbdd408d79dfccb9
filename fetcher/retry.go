package fetcher

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryConfig controls how requests to youtube.com are repeated after a
// throttled or broken response. The wait doubles every attempt unless youtube
// sends a Retry-After hint, and never exceeds MaxWait.
type RetryConfig struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries:  3,
	InitialWait: 500 * time.Millisecond,
	MaxWait:     30 * time.Second,
}

func (rc RetryConfig) backoff(attempt int, hint time.Duration) time.Duration {
	wait := hint
	if wait <= 0 {
		wait = rc.InitialWait
		for i := 0; i < attempt && wait < rc.MaxWait; i++ {
			wait *= 2
		}
	}
	if wait > rc.MaxWait {
		wait = rc.MaxWait
	}

	return wait
}

// throttledError is a response youtube wants us to repeat later.
type throttledError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (te *throttledError) Error() string {
	if te.RetryAfter > 0 {
		return fmt.Sprintf("youtube answered %d, retry after %s", te.StatusCode, te.RetryAfter)
	}
	return fmt.Sprintf("youtube answered %d", te.StatusCode)
}

// checkThrottled closes the body and returns a throttledError for 429 and
// the 5xx codes youtube uses when overloaded.
func checkThrottled(resp *http.Response, now time.Time) error {
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
	default:
		return nil
	}
	resp.Body.Close()

	return &throttledError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), now),
	}
}

// parseRetryAfter reads both forms of the header: delay in seconds or an
// http date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}

	return 0
}

func transient(err error) bool {
	var te *throttledError
	if errors.As(err, &te) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
