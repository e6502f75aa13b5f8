package comdirect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/aristath/bankmirror/internal/domain"
	"github.com/rs/zerolog"
)

// Request is one logical call. Params with nil values (including typed nil
// pointers) are dropped before sending.
type Request struct {
	Method  string
	Path    string
	Params  map[string]any
	Headers map[string]string
	Body    any
}

// Outcome is the response of the final attempt.
type Outcome struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

// JSON decodes the body keeping numbers exact.
func (o *Outcome) JSON() (any, error) {
	if len(bytes.TrimSpace(o.Body)) == 0 {
		return nil, nil
	}
	return domain.ParseJSON(o.Body)
}

// Sleeper waits between attempts. It blocks the caller and is not cancellable.
type Sleeper func(time.Duration)

// Executor issues requests under a RetryPolicy.
type Executor struct {
	baseURL *url.URL
	client  *http.Client
	policy  RetryPolicy
	sleep   Sleeper
	log     zerolog.Logger
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) ExecutorOption {
	return func(e *Executor) { e.client = c }
}

// WithRetryPolicy replaces DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) ExecutorOption {
	return func(e *Executor) { e.policy = p }
}

// WithSleeper replaces time.Sleep, mainly for tests.
func WithSleeper(s Sleeper) ExecutorOption {
	return func(e *Executor) { e.sleep = s }
}

// NewExecutor creates an executor rooted at baseURL.
func NewExecutor(baseURL string, log zerolog.Logger, opts ...ExecutorOption) (*Executor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host required", baseURL)
	}

	e := &Executor{
		baseURL: u,
		client:  &http.Client{Timeout: 30 * time.Second},
		policy:  DefaultRetryPolicy(),
		sleep:   time.Sleep,
		log:     log.With().Str("client", "comdirect").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Policy returns the executor's retry policy.
func (e *Executor) Policy() RetryPolicy {
	return e.policy
}

// Do sends req until it succeeds, fails permanently, or the attempt budget
// runs out. Statuses 200-399 are success; anything else ends in *UpstreamError.
// Transport errors are returned immediately without retrying.
func (e *Executor) Do(ctx context.Context, req Request) (*Outcome, error) {
	target := e.resolve(req.Path, req.Params)
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var payload []byte
	if req.Body != nil {
		var err error
		if payload, err = json.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	start := time.Now()
	defer func() {
		upstreamRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	maxAttempts := e.policy.MaxAttempts()
	for attempt := 1; ; attempt++ {
		outcome, err := e.send(ctx, method, target, req.Headers, payload)
		if err != nil {
			upstreamAttemptsTotal.WithLabelValues(method, "error").Inc()
			return nil, fmt.Errorf("%s %s: %w", method, target, err)
		}
		outcome.Attempts = attempt
		upstreamAttemptsTotal.WithLabelValues(method, strconv.Itoa(outcome.StatusCode)).Inc()

		e.log.Debug().
			Str("method", method).
			Str("url", target).
			Int("status", outcome.StatusCode).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Msg("Upstream attempt finished")

		if !e.policy.ShouldRetry(outcome.StatusCode, attempt) {
			if outcome.StatusCode >= 200 && outcome.StatusCode < 400 {
				return outcome, nil
			}
			upErr := buildUpstreamError(method, target, outcome)
			e.log.Warn().
				Str("method", method).
				Str("url", target).
				Int("status", outcome.StatusCode).
				Int("attempts", attempt).
				Msg("Upstream request failed")
			return nil, upErr
		}

		delay := e.policy.Delay(outcome.StatusCode, outcome.Header.Get("Retry-After"), attempt)
		upstreamRetriesTotal.WithLabelValues(strconv.Itoa(outcome.StatusCode)).Inc()
		e.log.Debug().
			Str("method", method).
			Str("url", target).
			Int("status", outcome.StatusCode).
			Dur("delay", delay).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Msg("Retrying upstream request")
		e.sleep(delay)
	}
}

func (e *Executor) send(ctx context.Context, method, target string, headers map[string]string, payload []byte) (*Outcome, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Outcome{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// resolve joins path onto the base URL and encodes the non-nil params.
func (e *Executor) resolve(path string, params map[string]any) string {
	u := e.baseURL.JoinPath(path)

	q := url.Values{}
	for k, v := range params {
		if s, ok := formatParam(v); ok {
			q.Set(k, s)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// formatParam renders a query value; ok is false for nil and typed nil.
func formatParam(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case *string:
		if t == nil {
			return "", false
		}
		return *t, true
	case int:
		return strconv.Itoa(t), true
	case *int:
		if t == nil {
			return "", false
		}
		return strconv.Itoa(*t), true
	case bool:
		return strconv.FormatBool(t), true
	case *bool:
		if t == nil {
			return "", false
		}
		return strconv.FormatBool(*t), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return "", false
		}
		if rv.Kind() == reflect.Pointer {
			return fmt.Sprint(rv.Elem().Interface()), true
		}
	}
	return fmt.Sprint(v), true
}

func buildUpstreamError(method, target string, outcome *Outcome) *UpstreamError {
	var body any = string(outcome.Body)
	if parsed, err := outcome.JSON(); err == nil && parsed != nil {
		body = parsed
	}
	return &UpstreamError{
		Method:     method,
		URL:        target,
		StatusCode: outcome.StatusCode,
		Body:       body,
	}
}
