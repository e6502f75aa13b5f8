package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliTestKey = "cli-secret"

// fakeAPI serves canned responses and records the requests it saw.
type fakeAPI struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	reply := func(status int, body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.requests = append(f.requests, r)
			f.bodies = append(f.bodies, string(data))
			f.mu.Unlock()

			if r.Header.Get("X-API-Key") != cliTestKey {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid or missing API key"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}
	}

	mux.Handle("/api/system/status", reply(200, `{"status":"healthy"}`))
	mux.Handle("/api/clients/U1/balances", reply(200,
		`{"data":[{"account_id":"A1","amount":"100.50","currency":"EUR"},{"account_id":"A2","amount":"-3.00","currency":"EUR"}],"refreshed":true}`))
	mux.Handle("/api/accounts/A1/transactions", reply(200,
		`{"data":[{"external_id":"R1","account_id":"A1","booking_date":"2026-01-02","booking_status":"BOOKED","amount":"-5.00","currency":"EUR","counterparty":"Shop","remittance_info":"coffee"},`+
			`{"external_id":"R2","account_id":"A1","booking_date":"2026-01-01","booking_status":"BOOKED","amount":"20.00","currency":"EUR","counterparty":null,"remittance_info":null}],"refreshed":false}`))
	mux.Handle("/api/orders", reply(200,
		`{"data":[{"id":7,"instrument":"DE0001","side":"buy","order_type":"limit","quantity":"2","limit_price":"10.5","status":"pending","notes":null,"created_at":"2026-01-01T10:00:00Z","updated_at":"2026-01-01T10:00:00Z"}]}`))
	mux.Handle("/api/orders/7/status", reply(200,
		`{"id":7,"instrument":"DE0001","side":"buy","order_type":"limit","quantity":"2","limit_price":"10.5","status":"executed","notes":null,"created_at":"2026-01-01T10:00:00Z","updated_at":"2026-01-01T10:05:00Z"}`))
	mux.Handle("/api/orders/8/status", reply(404, `{"error":"order 8: not found"}`))
	mux.Handle("/api/sync-logs", reply(200,
		`{"data":[{"id":1,"run_id":"r","job_name":"balance_refresh","status":"failed","detail":"timeout","started_at":"2026-01-01T10:00:00Z","finished_at":"2026-01-01T10:00:02Z"}]}`))
	mux.Handle("/api/settings", reply(200, `{"api_key":"********","user_id":"U1","account_id":null}`))
	return mux
}

func (f *fakeAPI) last() (*http.Request, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1], f.bodies[len(f.bodies)-1]
}

func runCLI(t *testing.T, env map[string]string, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(&out, envMap(env))
	root.SetIn(strings.NewReader(stdin))
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func newFakeAPI(t *testing.T) (*fakeAPI, map[string]string) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	return api, map[string]string{EnvAPIURL: srv.URL, EnvCLIKey: cliTestKey}
}

func configFlag(t *testing.T) []string {
	return []string{"--config", filepath.Join(t.TempDir(), "config.yaml")}
}

func TestBalancesCommand(t *testing.T) {
	api, env := newFakeAPI(t)

	out, err := runCLI(t, env, "", append(configFlag(t), "balances", "U1", "--refresh", "--chart", "--bank-token", "tok")...)
	require.NoError(t, err)

	assert.Contains(t, out, "A1")
	assert.Contains(t, out, "100.50")
	assert.Contains(t, out, "Balances")
	assert.Contains(t, out, "source: upstream")

	req, _ := api.last()
	assert.Equal(t, "true", req.URL.Query().Get("refresh"))
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
	assert.NotEmpty(t, req.Header.Get("X-Request-Id"))
}

func TestBalancesCommand_Export(t *testing.T) {
	_, env := newFakeAPI(t)
	path := filepath.Join(t.TempDir(), "out.json")

	out, err := runCLI(t, env, "", append(configFlag(t), "balances", "U1", "--export", path)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 balances")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Len(t, got, 2)
}

func TestTransactionsCommand_Stats(t *testing.T) {
	api, env := newFakeAPI(t)

	out, err := runCLI(t, env, "", append(configFlag(t), "transactions", "A1", "--stats", "--state", "BOOKED", "--limit", "5")...)
	require.NoError(t, err)

	assert.Contains(t, out, "coffee")
	assert.Contains(t, out, "inflow")
	assert.Contains(t, out, "20.00")
	assert.Contains(t, out, "15.00") // sum

	req, _ := api.last()
	assert.Equal(t, "BOOKED", req.URL.Query().Get("transactionState"))
	assert.Equal(t, "5", req.URL.Query().Get("paging-first"))
}

func TestOrdersCommands(t *testing.T) {
	api, env := newFakeAPI(t)

	out, err := runCLI(t, env, "", append(configFlag(t), "orders", "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "DE0001")
	assert.Contains(t, out, "pending")

	out, err = runCLI(t, env, "", append(configFlag(t), "orders", "status", "7", "executed")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Order 7 is now executed")
	_, body := api.last()
	assert.JSONEq(t, `{"status":"executed"}`, body)

	_, err = runCLI(t, env, "", append(configFlag(t), "orders", "status", "8", "executed")...)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestOrdersCreate_ValidatesQuantityLocally(t *testing.T) {
	_, env := newFakeAPI(t)

	_, err := runCLI(t, env, "", append(configFlag(t), "orders", "create", "DE0001", "--quantity", "lots")...)
	assert.ErrorContains(t, err, "invalid --quantity")
}

func TestSyncLogsCommand(t *testing.T) {
	_, env := newFakeAPI(t)

	out, err := runCLI(t, env, "", append(configFlag(t), "sync-logs", "--limit", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "balance_refresh")
	assert.Contains(t, out, "timeout")
	assert.Contains(t, out, "2s")
}

func TestSettingsCommands(t *testing.T) {
	api, env := newFakeAPI(t)

	out, err := runCLI(t, env, "", append(configFlag(t), "settings", "show")...)
	require.NoError(t, err)
	assert.Contains(t, out, "********")

	_, err = runCLI(t, env, "", append(configFlag(t), "settings", "set", "user_id=U2", "account_id=")...)
	require.NoError(t, err)
	req, body := api.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.JSONEq(t, `{"user_id":"U2","account_id":""}`, body)

	_, err = runCLI(t, env, "", append(configFlag(t), "settings", "set", "nonsense")...)
	assert.ErrorContains(t, err, "KEY=VALUE")
}

func TestLogin_ReadsKeyFromStdinAndSavesConfig(t *testing.T) {
	_, env := newFakeAPI(t)
	url := env[EnvAPIURL]
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := runCLI(t, nil, cliTestKey+"\n", "--config", path, "--api-url", url, "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in")

	cfg, err := LoadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, url, cfg.APIURL)
	assert.Equal(t, cliTestKey, cfg.APIKey)

	// The saved file now authenticates later commands.
	out, err = runCLI(t, nil, "", "--config", path, "sync-logs")
	require.NoError(t, err)
	assert.Contains(t, out, "balance_refresh")
}

func TestLogin_RejectsWrongKey(t *testing.T) {
	_, env := newFakeAPI(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runCLI(t, nil, "", "--config", path, "--api-url", env[EnvAPIURL], "--api-key", "wrong", "login")
	assert.ErrorContains(t, err, "login failed")
	assert.NoFileExists(t, path)
}

func TestCommandsRequireAPIKey(t *testing.T) {
	_, err := runCLI(t, nil, "", append(configFlag(t), "sync-logs")...)
	assert.ErrorContains(t, err, "no API key")
}
