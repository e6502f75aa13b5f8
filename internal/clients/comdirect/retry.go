package comdirect

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultRetryStatusCodes are retried unless a policy says otherwise.
var DefaultRetryStatusCodes = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// MaxBackoff caps the exponential backoff between attempts.
const MaxBackoff = 10 * time.Minute

// RetryPolicy bounds how often and how patiently a request is retried.
// It is immutable once built and safe to share.
type RetryPolicy struct {
	maxAttempts int
	backoffBase time.Duration
	codes       map[int]struct{}
}

// NewRetryPolicy builds a policy. With no codes the defaults apply.
func NewRetryPolicy(maxAttempts int, backoffBase time.Duration, codes ...int) (RetryPolicy, error) {
	if maxAttempts < 1 {
		return RetryPolicy{}, fmt.Errorf("max attempts must be at least 1, got %d", maxAttempts)
	}
	if backoffBase < 0 {
		return RetryPolicy{}, fmt.Errorf("backoff base must not be negative, got %s", backoffBase)
	}
	if len(codes) == 0 {
		codes = DefaultRetryStatusCodes
	}

	set := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return RetryPolicy{maxAttempts: maxAttempts, backoffBase: backoffBase, codes: set}, nil
}

// DefaultRetryPolicy is three attempts, 500ms base, default status codes.
func DefaultRetryPolicy() RetryPolicy {
	p, _ := NewRetryPolicy(3, 500*time.Millisecond)
	return p
}

func (p RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

func (p RetryPolicy) BackoffBase() time.Duration {
	return p.backoffBase
}

// StatusCodes returns the retryable status codes in ascending order.
func (p RetryPolicy) StatusCodes() []int {
	out := make([]int, 0, len(p.codes))
	for c := range p.codes {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// Retryable reports whether a response with this status may be retried.
func (p RetryPolicy) Retryable(status int) bool {
	_, ok := p.codes[status]
	return ok
}

// ShouldRetry reports whether another attempt follows attempt (1-based).
func (p RetryPolicy) ShouldRetry(status, attempt int) bool {
	return p.Retryable(status) && attempt < p.maxAttempts
}

// Backoff is base * 2^(attempt-1), capped at MaxBackoff.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if p.backoffBase == 0 {
		return 0
	}
	d := float64(p.backoffBase) * math.Pow(2, float64(attempt-1))
	if d >= float64(MaxBackoff) {
		return MaxBackoff
	}
	return time.Duration(d)
}

// Delay picks the wait before the next attempt. A 429 with a numeric
// Retry-After waits exactly that many seconds; everything else backs off.
func (p RetryPolicy) Delay(status int, retryAfter string, attempt int) time.Duration {
	if status == http.StatusTooManyRequests {
		if d, ok := parseRetryAfter(retryAfter); ok {
			return d
		}
	}
	return p.Backoff(attempt)
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
		return 0, false
	}
	if d := secs * float64(time.Second); d < float64(math.MaxInt64) {
		return time.Duration(d), true
	}
	return time.Duration(math.MaxInt64), true
}
