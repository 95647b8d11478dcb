/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Record ingestion and reconciliation report composition
- Refund preview
- Day resolution and penalty rate propagation through settings updates
*/
package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madrasa/finance-engine/api"
	"github.com/madrasa/finance-engine/report"
	"github.com/madrasa/finance-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler := api.NewHandler(memory.New())
	srv := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// =============================================================================
// RECONCILIATION FLOW
// =============================================================================

func TestReconciliationReport_EndToEnd(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "/api/fees",
		`{"student_id":"std-1","academic_year_code":"2025","total_amount":"10000","advance_payment":"2000"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = post(t, srv, "/api/transactions",
		`{"student_id":"std-1","academic_year_code":"2025","kind":"payment","amount":"5000"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = post(t, srv, "/api/transactions",
		`{"student_id":"std-1","academic_year_code":"2025","kind":"discount","amount":"500"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = post(t, srv, "/api/general-transactions", `{"kind":"revenue","amount":"3000"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = post(t, srv, "/api/general-transactions", `{"kind":"expense","amount":"1000"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var rep report.Report
	getJSON(t, srv, "/api/reports/reconciliation", &rep)

	assert.Equal(t, "10000", rep.Aggregates.TotalRevenue.String())
	assert.Equal(t, "1000", rep.Aggregates.TotalExpenses.String())
	assert.Equal(t, "7000", rep.Aggregates.StudentCollection.String())
	assert.Equal(t, 70.0, rep.Aggregates.CollectionRate)
	assert.Equal(t, "2500", rep.Aggregates.PendingPayments.String())
	require.Len(t, rep.Students, 1)
	assert.Equal(t, 1, rep.StatusCounts.InProgress)
}

func TestCreateFee_MalformedAmountRejected(t *testing.T) {
	srv := newTestServer(t)

	// The letter O where a zero belongs. The fee must be rejected, not
	// recorded with a zero amount.
	resp := post(t, srv, "/api/fees",
		`{"student_id":"std-1","academic_year_code":"2025","total_amount":"1O000"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Details string `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Contains(t, body.Details, "total_amount")

	var rep report.Report
	getJSON(t, srv, "/api/reports/reconciliation", &rep)
	assert.Equal(t, "0", rep.Aggregates.TotalFees.String(), "rejected fee must not be recorded")
}

func TestAppendTransaction_MalformedAmountRejected(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "/api/transactions",
		`{"student_id":"std-1","academic_year_code":"2025","kind":"payment","amount":"ten"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRefundPreview_MalformedAmountRejected(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "/api/refunds/preview", `{"total_paid":"1O000"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAppendTransaction_UnknownKindRejected(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "/api/transactions",
		`{"student_id":"std-1","academic_year_code":"2025","kind":"bonus","amount":"100"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// REFUND PREVIEW
// =============================================================================

func TestRefundPreview(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "/api/refunds/preview", `{
		"total_paid": "10000",
		"registration_fee_amount": "500",
		"monthly_tuition_fee": "800",
		"months_studied": 3,
		"admin_fee_percentage": 5
	}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res struct {
		FinalRefund     string `json:"final_refund"`
		TotalDeductions string `json:"total_deductions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "6745", res.FinalRefund)
	assert.Equal(t, "3255", res.TotalDeductions)
}

func TestRefundPreview_MonthsDerivedFromDates(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "/api/refunds/preview", `{
		"total_paid": "5000",
		"monthly_tuition_fee": "1000",
		"enrollment_date": "2025-01-15",
		"withdrawal_date": "2025-03-01"
	}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res struct {
		StudiedCost string `json:"studied_cost"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "3000", res.StudiedCost, "Jan..Mar inclusive is 3 months")
}

// =============================================================================
// SCHEDULE AND PENALTY
// =============================================================================

func TestPenalty_RateChangePropagatesImmediately(t *testing.T) {
	srv := newTestServer(t)

	var before api.PenaltyResponse
	getJSON(t, srv, "/api/schedule/penalty?late=60", &before)
	assert.Equal(t, 60.0, before.Deduction, "default rate is 1.0")

	// Administrator raises the rate to 5.0.
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/admin/settings",
		strings.NewReader(`{"lateness_penalty_rate": 5.0}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var after api.PenaltyResponse
	getJSON(t, srv, "/api/schedule/penalty?late=60", &after)
	assert.Equal(t, 300.0, after.Deduction, "new rate must apply with no caching")
}

func TestResolveDay_OverridePrecedence(t *testing.T) {
	srv := newTestServer(t)

	// 2025-03-07 is a Friday; default weekend includes Saturday/Sunday,
	// so first make Friday a weekend day, then override it to work.
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/admin/settings",
		strings.NewReader(`{"weekend_days": [5, 6]}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var day struct {
		IsOff  bool    `json:"is_off"`
		Rate   float64 `json:"rate"`
		Source string  `json:"source"`
	}
	getJSON(t, srv, "/api/schedule/day?date=2025-03-07", &day)
	assert.True(t, day.IsOff)
	assert.Equal(t, "global_fallback", day.Source)

	resp = post(t, srv, "/api/schedule/overrides",
		`{"date":"2025-03-07","day_type":"work","pay_rate":1.5}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	getJSON(t, srv, "/api/schedule/day?date=2025-03-07", &day)
	assert.False(t, day.IsOff)
	assert.Equal(t, 1.5, day.Rate)
	assert.Equal(t, "calendar", day.Source)
}
