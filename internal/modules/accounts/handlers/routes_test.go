package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/bankmirror/internal/clients/comdirect"
	"github.com/aristath/bankmirror/internal/domain"
	"github.com/aristath/bankmirror/internal/modules/accounts"
	testingpkg "github.com/aristath/bankmirror/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*chi.Mux, *testingpkg.MockBankingClient) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "")
	t.Cleanup(cleanup)

	client := testingpkg.NewMockBankingClient()
	repo := accounts.NewPositionRepository(db, zerolog.Nop())
	service := accounts.NewAccountService(client, repo, db, nil, zerolog.Nop())

	router := chi.NewRouter()
	NewHandler(service, zerolog.Nop()).RegisterRoutes(router)
	return router, client
}

type balancesBody struct {
	Data []struct {
		AccountID string  `json:"account_id"`
		Amount    *string `json:"amount"`
		Currency  *string `json:"currency"`
	} `json:"data"`
	Refreshed bool `json:"refreshed"`
}

func TestRegisterRoutes(t *testing.T) {
	router, _ := setupRouter(t)

	testCases := []struct {
		method string
		path   string
		name   string
	}{
		{"GET", "/clients/U1/balances", "GetBalances"},
		{"POST", "/clients/U1/balances/refresh", "RefreshBalances"},
		{"GET", "/clients/U1/balances/summary", "GetBalanceSummary"},
		{"GET", "/clients/U1/sessions", "GetSessions"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code, "route %s %s", tc.method, tc.path)
		})
	}
}

func TestHandleGetBalances_CacheFillThenCached(t *testing.T) {
	router, client := setupRouter(t)
	client.SetBalances(testingpkg.NewBalanceFixture("A1", "100.50", "EUR"))

	get := func() balancesBody {
		req := httptest.NewRequest("GET", "/clients/U1/balances", nil)
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body balancesBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}

	first := get()
	assert.True(t, first.Refreshed)
	require.Len(t, first.Data, 1)
	assert.Equal(t, "A1", first.Data[0].AccountID)
	assert.Equal(t, "100.50", *first.Data[0].Amount)
	assert.Equal(t, "EUR", *first.Data[0].Currency)
	assert.Equal(t, "Bearer token", client.LastHeaders()["Authorization"])

	second := get()
	assert.False(t, second.Refreshed)
	assert.Equal(t, 1, client.BalanceCalls())
}

func TestHandleRefreshBalances_UpstreamErrorIsBadGateway(t *testing.T) {
	router, client := setupRouter(t)
	client.SetError(&comdirect.UpstreamError{StatusCode: 401, Body: map[string]interface{}{"code": "unauthorized"}})

	req := httptest.NewRequest("POST", "/clients/U1/balances/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(401), body["upstream_status"])
	assert.Equal(t, map[string]interface{}{"code": "unauthorized"}, body["upstream_body"])
}

func TestHandleGetSessions_DecodeErrorIsBadGateway(t *testing.T) {
	router, client := setupRouter(t)
	client.SetError(&domain.DecodeError{Target: "Session", Value: 42})

	req := httptest.NewRequest("GET", "/clients/U1/sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
