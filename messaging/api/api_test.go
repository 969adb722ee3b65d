package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dividendtoken/engine/metrics"
	"dividendtoken/state/token"
)

var controller = strings.Repeat("c", 64)

func newServer(t *testing.T) *Server {
	t.Helper()
	tk, err := token.New(token.Config{Controller: controller})
	require.NoError(t, err)
	return New("127.0.0.1:0", tk)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestSupply(t *testing.T) {
	s := newServer(t)
	rr := get(t, s, "/api/supply")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SupplyResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "0", resp.TotalSupply)
	assert.Nil(t, resp.Era)
	assert.Nil(t, resp.StartedAt)
	assert.False(t, resp.Emitting)
	assert.Equal(t, controller, resp.Controller)
	assert.Equal(t, token.DefaultPool, resp.Pool)
}

func TestAccount(t *testing.T) {
	s := newServer(t)
	rr := get(t, s, "/api/accounts/"+controller)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp AccountResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "0", resp.Balance)
	assert.Equal(t, "0", resp.Withdrawable)
	assert.False(t, resp.Blacklisted)

	rr = get(t, s, "/api/accounts/nope")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/accounts/{account}", "400"))
	get(t, s, "/api/accounts/nope")
	after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/accounts/{account}", "400"))
	assert.Equal(t, before+1, after)
}

func TestAllowanceAndClaim(t *testing.T) {
	s := newServer(t)
	rr := get(t, s, "/api/accounts/"+controller+"/allowances/"+strings.Repeat("d", 64))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"allowance":"0"}`, rr.Body.String())

	rr = get(t, s, "/api/claims/01")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"claimed":false`)

	rr = get(t, s, "/api/claims/xyz")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)
	rr := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "dividendtoken_")
}
