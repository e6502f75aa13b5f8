package comdirect

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedResponse struct {
	status int
	header map[string]string
	body   string
}

// scriptedServer answers with responses in order and repeats the last one.
func scriptedServer(t *testing.T, responses ...scriptedResponse) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := int(atomic.AddInt32(&calls, 1)) - 1
		if i >= len(responses) {
			i = len(responses) - 1
		}
		resp := responses[i]
		for k, v := range resp.header {
			w.Header().Set(k, v)
		}
		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(resp.body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.delays = append(s.delays, d)
}

func newTestExecutor(t *testing.T, baseURL string, policy RetryPolicy, rec *sleepRecorder) *Executor {
	t.Helper()
	exec, err := NewExecutor(baseURL, zerolog.Nop(), WithRetryPolicy(policy), WithSleeper(rec.sleep))
	require.NoError(t, err)
	return exec
}

func TestExecutor_RetryAfterOn429(t *testing.T) {
	server, calls := scriptedServer(t,
		scriptedResponse{status: 429, header: map[string]string{"Retry-After": "1"}},
		scriptedResponse{status: 200, body: `{"ok": true}`},
	)
	rec := &sleepRecorder{}
	exec := newTestExecutor(t, server.URL, DefaultRetryPolicy(), rec)

	outcome, err := exec.Do(context.Background(), Request{Path: "ping"})
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{time.Second}, rec.delays)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	assert.Equal(t, 200, outcome.StatusCode)
	assert.Equal(t, 2, outcome.Attempts)
	assert.JSONEq(t, `{"ok": true}`, string(outcome.Body))
}

func TestExecutor_ExponentialBackoffThenFailure(t *testing.T) {
	server, calls := scriptedServer(t,
		scriptedResponse{status: 500, body: `{"code": "ERR"}`},
	)
	policy, err := NewRetryPolicy(3, 500*time.Millisecond)
	require.NoError(t, err)
	rec := &sleepRecorder{}
	exec := newTestExecutor(t, server.URL, policy, rec)

	outcome, err := exec.Do(context.Background(), Request{Path: "ping"})
	assert.Nil(t, outcome)

	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, rec.delays)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, 500, upErr.StatusCode)
	assert.Equal(t, map[string]any{"code": "ERR"}, upErr.Body)
}

func TestExecutor_NonRetryableFailsImmediately(t *testing.T) {
	server, calls := scriptedServer(t,
		scriptedResponse{status: 404, body: "no such account"},
	)
	rec := &sleepRecorder{}
	exec := newTestExecutor(t, server.URL, DefaultRetryPolicy(), rec)

	_, err := exec.Do(context.Background(), Request{Path: "ping"})

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, 404, upErr.StatusCode)
	assert.Equal(t, "no such account", upErr.Body)
	assert.Empty(t, rec.delays)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestExecutor_SingleAttemptNeverSleeps(t *testing.T) {
	server, calls := scriptedServer(t,
		scriptedResponse{status: 503},
	)
	policy, err := NewRetryPolicy(1, time.Second)
	require.NoError(t, err)
	rec := &sleepRecorder{}
	exec := newTestExecutor(t, server.URL, policy, rec)

	_, err = exec.Do(context.Background(), Request{Path: "ping"})

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, 503, upErr.StatusCode)
	assert.Empty(t, rec.delays)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestExecutor_RedirectStatusIsSuccess(t *testing.T) {
	server, _ := scriptedServer(t,
		scriptedResponse{status: http.StatusNotModified},
	)
	rec := &sleepRecorder{}
	exec := newTestExecutor(t, server.URL, DefaultRetryPolicy(), rec)

	outcome, err := exec.Do(context.Background(), Request{Path: "ping"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, outcome.StatusCode)
}

func TestExecutor_DropsNilParams(t *testing.T) {
	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	exec := newTestExecutor(t, server.URL, DefaultRetryPolicy(), &sleepRecorder{})

	var missing *string
	var missingInt *int
	first := 5
	_, err := exec.Do(context.Background(), Request{
		Path: "ping",
		Params: map[string]any{
			"a":            nil,
			"b":            "x",
			"state":        missing,
			"paging-first": &first,
			"limit":        missingInt,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "b=x&paging-first=5", rawQuery)
}

func TestExecutor_ForwardsHeadersAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, `{"sessionId":"S"}`, r.Header.Get("x-http-request-info"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	exec := newTestExecutor(t, server.URL, DefaultRetryPolicy(), &sleepRecorder{})
	outcome, err := exec.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "session",
		Headers: map[string]string{
			"Authorization":       "Bearer token",
			"x-http-request-info": `{"sessionId":"S"}`,
		},
		Body: map[string]string{"id": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, outcome.StatusCode)
}

func TestExecutor_TransportErrorIsNotRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	rec := &sleepRecorder{}
	exec := newTestExecutor(t, url, DefaultRetryPolicy(), rec)

	_, err := exec.Do(context.Background(), Request{Path: "ping"})
	require.Error(t, err)

	var upErr *UpstreamError
	assert.False(t, errors.As(err, &upErr))
	assert.Empty(t, rec.delays)
}

func TestNewExecutor_InvalidBaseURL(t *testing.T) {
	_, err := NewExecutor("not a url", zerolog.Nop())
	assert.Error(t, err)
}

func TestFormatParam(t *testing.T) {
	s := "v"
	b := true
	var nilBool *bool

	testCases := []struct {
		name  string
		in    any
		out   string
		valid bool
	}{
		{"nil", nil, "", false},
		{"string", "x", "x", true},
		{"string pointer", &s, "v", true},
		{"int", 3, "3", true},
		{"bool pointer", &b, "true", true},
		{"nil bool pointer", nilBool, "", false},
		{"int64", int64(9), "9", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, ok := formatParam(tc.in)
			assert.Equal(t, tc.valid, ok)
			assert.Equal(t, tc.out, out)
		})
	}
}
