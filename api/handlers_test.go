package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibret/equb-engine/api"
	"github.com/hibret/equb-engine/equb"
	"github.com/hibret/equb-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// 2025-08-30 is a Saturday.
var testAnchor = time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	handler := api.NewHandler(store, equb.NewCalendar(testAnchor), log)
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, server *httptest.Server, method, path string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// createPlan registers a member and opens a 5000/day plan, returning the
// plan's ID.
func createPlan(t *testing.T, server *httptest.Server) string {
	t.Helper()

	var member struct {
		ID string `json:"id"`
	}
	status := doJSON(t, server, http.MethodPost, "/api/members", map[string]any{
		"name": "Abebe", "type": "regular",
	}, &member)
	require.Equal(t, http.StatusCreated, status)

	var plan struct {
		ID string `json:"id"`
	}
	status = doJSON(t, server, http.MethodPost, "/api/plans", map[string]any{
		"member_id":    member.ID,
		"daily_amount": "5000",
		"start_date":   "2025-08-30",
	}, &plan)
	require.Equal(t, http.StatusCreated, status)
	return plan.ID
}

func recordCollection(t *testing.T, server *httptest.Server, planID string, week, day int) api.CollectionDTO {
	t.Helper()

	var dto api.CollectionDTO
	status := doJSON(t, server, http.MethodPost, "/api/collections", map[string]any{
		"plan_id": planID, "week": week, "day": day, "amount": "5000", "source": "cash",
	}, &dto)
	require.Equal(t, http.StatusCreated, status)
	return dto
}

// =============================================================================
// DIRECTORY
// =============================================================================

func TestAPI_CreatePlan_DerivesTotals(t *testing.T) {
	server := newTestServer(t)

	var member struct {
		ID string `json:"id"`
	}
	doJSON(t, server, http.MethodPost, "/api/members", map[string]any{"name": "Abebe"}, &member)

	var plan api.PlanDTO
	status := doJSON(t, server, http.MethodPost, "/api/plans", map[string]any{
		"member_id":    member.ID,
		"daily_amount": "5000",
		"start_date":   "2025-08-30",
	}, &plan)
	require.Equal(t, http.StatusCreated, status)

	assert.Equal(t, "2026-02-28", plan.EndDate)
	assert.Equal(t, "910000", plan.TotalAmount)
	assert.Equal(t, "active", plan.Status)
}

func TestAPI_CreatePlan_UnknownMember_404(t *testing.T) {
	server := newTestServer(t)

	var errResp api.ErrorResponse
	status := doJSON(t, server, http.MethodPost, "/api/plans", map[string]any{
		"member_id": "ghost", "daily_amount": "5000", "start_date": "2025-08-30",
	}, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_CreateMember_MissingName_400(t *testing.T) {
	server := newTestServer(t)

	var errResp api.ErrorResponse
	status := doJSON(t, server, http.MethodPost, "/api/members", map[string]any{
		"phone": "0911000000",
	}, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, errResp.Error)
}

// =============================================================================
// COLLECTIONS
// =============================================================================

func TestAPI_RecordCollection_DuplicateSlot_409(t *testing.T) {
	server := newTestServer(t)
	planID := createPlan(t, server)

	recordCollection(t, server, planID, 1, 1)

	var errResp api.ErrorResponse
	status := doJSON(t, server, http.MethodPost, "/api/collections", map[string]any{
		"plan_id": planID, "week": 1, "day": 1, "amount": "5000",
	}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
}

func TestAPI_CancelCollection_ReopensSlot(t *testing.T) {
	server := newTestServer(t)
	planID := createPlan(t, server)

	first := recordCollection(t, server, planID, 1, 1)

	var cancelled api.CollectionDTO
	status := doJSON(t, server, http.MethodDelete, "/api/collections/"+first.ID,
		map[string]any{"reason": "wrong member"}, &cancelled)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, cancelled.Cancelled)

	recordCollection(t, server, planID, 1, 1)
}

func TestAPI_ListDue_ReflectsPayments(t *testing.T) {
	server := newTestServer(t)
	planID := createPlan(t, server)

	var due []api.DueItemDTO
	status := doJSON(t, server, http.MethodGet, "/api/due?date=2025-08-30", nil, &due)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, due, 1)
	assert.Equal(t, planID, due[0].PlanID)

	recordCollection(t, server, planID, 1, 1)

	status = doJSON(t, server, http.MethodGet, "/api/due?date=2025-08-30", nil, &due)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, due)
}

// =============================================================================
// ARREARS FLOW
// =============================================================================

func TestAPI_CloseRolloverPay_FullFlow(t *testing.T) {
	// GIVEN: Week 1 with only day 1 paid
	// WHEN: Closing the week, rolling it over, and paying 2000
	// THEN: The account tracks 30000 total, 28000 remaining
	server := newTestServer(t)
	planID := createPlan(t, server)

	recordCollection(t, server, planID, 1, 1)

	var closed api.CloseWeekResponse
	status := doJSON(t, server, http.MethodPost, "/api/weeks/1/close", map[string]any{}, &closed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 6, closed.Created)

	var folded []api.AccumulatedDTO
	status = doJSON(t, server, http.MethodPost, "/api/arrears/rollover",
		map[string]any{"week": 1}, &folded)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, folded, 1)
	assert.Equal(t, "30000", folded[0].TotalArrears)

	var account api.AccumulatedDTO
	status = doJSON(t, server, http.MethodPost, "/api/arrears/payments", map[string]any{
		"plan_id": planID, "amount": "2000",
	}, &account)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "28000", account.Remaining)

	var stmt api.StatementDTO
	status = doJSON(t, server, http.MethodGet,
		fmt.Sprintf("/api/plans/%s/statement", planID), nil, &stmt)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, stmt.Accumulated)
	require.Len(t, stmt.History, 1)
	assert.Equal(t, "30000", stmt.History[0].RemainingBefore)
	assert.Equal(t, "28000", stmt.History[0].RemainingAfter)
}

func TestAPI_Rollover_SameWeekTwice_409(t *testing.T) {
	server := newTestServer(t)
	planID := createPlan(t, server)

	doJSON(t, server, http.MethodPost, "/api/weeks/1/close", map[string]any{}, nil)

	status := doJSON(t, server, http.MethodPost, "/api/arrears/rollover",
		map[string]any{"plan_id": planID, "week": 1}, nil)
	require.Equal(t, http.StatusOK, status)

	var errResp api.ErrorResponse
	status = doJSON(t, server, http.MethodPost, "/api/arrears/rollover",
		map[string]any{"plan_id": planID, "week": 1}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
}

// =============================================================================
// RECONCILIATION & VAULT
// =============================================================================

func TestAPI_Reconcile_UsesVaultDeposits(t *testing.T) {
	// GIVEN: 32000 deposited for week 1 against an expected 35000
	// WHEN: Reconciling without passing an actual amount
	// THEN: The vault total stands in and the difference is -3000
	server := newTestServer(t)
	createPlan(t, server)

	status := doJSON(t, server, http.MethodPost, "/api/vault/deposits", map[string]any{
		"week": 1, "amount": "32000",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var rec api.ReconciliationDTO
	status = doJSON(t, server, http.MethodPost, "/api/reconciliations",
		map[string]any{"week": 1}, &rec)
	require.Equal(t, http.StatusCreated, status)

	assert.Equal(t, "35000", rec.Expected)
	assert.Equal(t, "32000", rec.Actual)
	assert.Equal(t, "-3000", rec.Difference)
	assert.Equal(t, "pending", rec.Status)
}

func TestAPI_Reconcile_SameWeekTwice_409(t *testing.T) {
	server := newTestServer(t)
	createPlan(t, server)

	body := map[string]any{"week": 1, "actual": "35000"}
	status := doJSON(t, server, http.MethodPost, "/api/reconciliations", body, nil)
	require.Equal(t, http.StatusCreated, status)

	var errResp api.ErrorResponse
	status = doJSON(t, server, http.MethodPost, "/api/reconciliations", body, &errResp)
	assert.Equal(t, http.StatusConflict, status)
}

func TestAPI_CompleteReconciliation(t *testing.T) {
	server := newTestServer(t)
	createPlan(t, server)

	doJSON(t, server, http.MethodPost, "/api/reconciliations",
		map[string]any{"week": 1, "actual": "35000"}, nil)

	var rec api.ReconciliationDTO
	status := doJSON(t, server, http.MethodPost, "/api/reconciliations/1/complete",
		map[string]any{"notes": "verified"}, &rec)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", rec.Status)
}

func TestAPI_VaultBalance(t *testing.T) {
	server := newTestServer(t)

	doJSON(t, server, http.MethodPost, "/api/vault/deposits",
		map[string]any{"week": 1, "amount": "35000"}, nil)
	doJSON(t, server, http.MethodPost, "/api/vault/withdrawals",
		map[string]any{"amount": "5000"}, nil)

	var balance api.VaultBalanceDTO
	status := doJSON(t, server, http.MethodGet, "/api/vault/balance", nil, &balance)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "30000", balance.Balance)
}
