/*
handlers.go - HTTP API handlers for the savings association engine

PURPOSE:
  Exposes the accounting engine via REST API. Handles HTTP request/response,
  JSON serialization, input validation, and delegates to domain logic.

ENDPOINTS:
  Directory:
    GET    /api/members                      List members
    POST   /api/members                      Register member
    GET    /api/members/{id}                 Get member
    GET    /api/plans                        List active plans
    POST   /api/plans                        Open savings plan
    GET    /api/plans/{id}                   Get plan
    GET    /api/plans/{id}/collections       Payment history for a plan
    GET    /api/plans/{id}/statement         Full arrears statement

  Collection:
    GET    /api/due?date=YYYY-MM-DD          What each plan owes that day
    POST   /api/collections                  Record a daily payment
    DELETE /api/collections/{id}             Cancel a payment (soft)

  Arrears:
    POST   /api/weeks/{week}/close           Derive missed-day records
    POST   /api/arrears/daily/payments       Pay one daily arrear
    POST   /api/arrears/rollover             Fold a week into the accounts
    POST   /api/arrears/payments             Pay down an accumulated balance
    GET    /api/arrears                      List accumulated accounts

  Reconciliation:
    GET    /api/reconciliations              List reconciliations
    POST   /api/reconciliations              Reconcile a week
    GET    /api/reconciliations/{week}       Get one reconciliation
    POST   /api/reconciliations/{week}/complete  Mark reviewed

  Vault:
    POST   /api/vault/deposits               Record cash in
    POST   /api/vault/withdrawals            Record cash out
    GET    /api/vault/entries                Cash ledger
    GET    /api/vault/balance                Current cash position

ERROR HANDLING:
  Domain errors map to HTTP status by classification:
  - 400: validation errors, invalid amounts
  - 404: unknown member/plan/record
  - 409: duplicate payment, week already rolled/reconciled
  - 500: invariant violations, storage failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hibret/equb-engine/equb"
	"github.com/hibret/equb-engine/store/sqlite"
	"github.com/hibret/equb-engine/vault"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Calendar equb.Calendar

	collections *equb.CollectionLedger
	schedule    *equb.Schedule
	arrears     *equb.ArrearsCalculator
	accumulator *equb.Accumulator
	reconciler  *equb.Reconciler
	vault       *vault.Ledger

	validate *validator.Validate
	log      *logrus.Logger
}

// NewHandler wires the engine components around the given store and calendar.
func NewHandler(store *sqlite.Store, cal equb.Calendar, log *logrus.Logger) *Handler {
	return &Handler{
		Store:       store,
		Calendar:    cal,
		collections: equb.NewCollectionLedger(store, cal),
		schedule:    equb.NewSchedule(store, cal),
		arrears:     equb.NewArrearsCalculator(store, cal),
		accumulator: equb.NewAccumulator(store, cal),
		reconciler:  equb.NewReconciler(store, cal),
		vault:       vault.NewLedger(store),
		validate:    validator.New(),
		log:         log,
	}
}

// =============================================================================
// DIRECTORY HANDLERS
// =============================================================================

// ListMembers returns directory members; ?include_archived=true includes
// archived ones.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	members, err := h.Store.ListMembers(r.Context(), includeArchived)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list members", err)
		return
	}

	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = toMemberDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateMember registers a member in the directory.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if !h.decode(w, r, &req) {
		return
	}

	memberType := equb.MemberType(req.Type)
	if memberType == "" {
		memberType = equb.MemberRegular
	}

	member := equb.Member{
		ID:        equb.MemberID(uuid.NewString()),
		Name:      req.Name,
		Phone:     req.Phone,
		Type:      memberType,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveMember(r.Context(), member); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save member", err)
		return
	}

	h.log.WithFields(logrus.Fields{"member_id": member.ID, "name": member.Name}).
		Info("member registered")
	writeJSON(w, http.StatusCreated, toMemberDTO(member))
}

// GetMember returns a single member.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id := equb.MemberID(chi.URLParam(r, "id"))

	member, err := h.Store.GetMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get member", err)
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(*member))
}

// ListPlans returns all active savings plans.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Store.GetActivePlans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}

	dtos := make([]PlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = toPlanDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePlan opens a savings plan; end date and total derive from the daily
// amount and start date.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if !h.decode(w, r, &req) {
		return
	}

	daily, err := decimal.NewFromString(req.DailyAmount)
	if err != nil || !daily.IsPositive() {
		writeError(w, http.StatusBadRequest, "daily_amount must be a positive decimal", err)
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD", err)
		return
	}

	member, err := h.Store.GetMember(r.Context(), equb.MemberID(req.MemberID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get member", err)
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}

	plan := equb.NewSavingsPlan(
		equb.PlanID(uuid.NewString()), member.ID, req.SequenceNo, daily, start)
	plan.CollectionDays = req.CollectionDays
	plan.GraceDays = req.GraceDays

	if err := h.Store.SavePlan(r.Context(), plan); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save plan", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"plan_id":      plan.ID,
		"member_id":    plan.MemberID,
		"daily_amount": plan.DailyAmount,
	}).Info("plan opened")
	writeJSON(w, http.StatusCreated, toPlanDTO(plan))
}

// GetPlan returns a single savings plan.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := equb.PlanID(chi.URLParam(r, "id"))

	plan, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get plan", err)
		return
	}
	if plan == nil {
		writeError(w, http.StatusNotFound, "Plan not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(*plan))
}

// GetPlanCollections returns every payment recorded against a plan,
// cancelled ones included.
func (h *Handler) GetPlanCollections(w http.ResponseWriter, r *http.Request) {
	id := equb.PlanID(chi.URLParam(r, "id"))

	collections, err := h.Store.ListCollections(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list collections", err)
		return
	}

	dtos := make([]CollectionDTO, len(collections))
	for i, c := range collections {
		dtos[i] = toCollectionDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPlanStatement returns the plan's full arrears picture: account,
// payment ledger, and audit history.
func (h *Handler) GetPlanStatement(w http.ResponseWriter, r *http.Request) {
	id := equb.PlanID(chi.URLParam(r, "id"))

	stmt, err := h.accumulator.Statement(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to build statement", err)
		return
	}

	resp := StatementDTO{
		Plan:     toPlanDTO(stmt.Plan),
		Payments: make([]ArrearPaymentDTO, len(stmt.Payments)),
		History:  make([]PaymentHistoryDTO, len(stmt.History)),
	}
	if stmt.Accumulated != nil {
		acc := toAccumulatedDTO(*stmt.Accumulated)
		resp.Accumulated = &acc
	}
	for i, p := range stmt.Payments {
		resp.Payments[i] = toArrearPaymentDTO(p)
	}
	for i, hh := range stmt.History {
		resp.History[i] = toPaymentHistoryDTO(hh)
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// COLLECTION HANDLERS
// =============================================================================

// ListDue returns what every active plan owes on a calendar date
// (?date=YYYY-MM-DD, default today).
func (h *Handler) ListDue(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := time.Parse(dateLayout, q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", err)
			return
		}
		date = parsed
	}

	items, err := h.schedule.DueOn(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute due items", err)
		return
	}

	dtos := make([]DueItemDTO, len(items))
	for i, item := range items {
		dtos[i] = DueItemDTO{
			PlanID:   string(item.Plan.ID),
			MemberID: string(item.Plan.MemberID),
			Week:     item.Week,
			Day:      item.Day,
			Date:     item.Date,
			Amount:   item.Amount.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordCollection fills one (plan, week, day) payment slot.
func (h *Handler) RecordCollection(w http.ResponseWriter, r *http.Request) {
	var req RecordCollectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a decimal string", err)
		return
	}

	collection, err := h.collections.RecordPayment(r.Context(), equb.RecordPaymentInput{
		PlanID:      equb.PlanID(req.PlanID),
		Week:        req.Week,
		Day:         req.Day,
		Amount:      amount,
		Source:      req.Source,
		Reference:   req.Reference,
		CollectorID: equb.MemberID(req.CollectorID),
	})
	if err != nil {
		h.writeDomainError(w, "Failed to record payment", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"plan_id": collection.PlanID,
		"week":    collection.Week,
		"day":     collection.Day,
		"amount":  collection.Amount,
	}).Info("payment recorded")
	writeJSON(w, http.StatusCreated, toCollectionDTO(*collection))
}

// CancelCollection soft-cancels a payment, reopening its slot.
func (h *Handler) CancelCollection(w http.ResponseWriter, r *http.Request) {
	id := equb.CollectionID(chi.URLParam(r, "id"))

	var req CancelCollectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	collection, err := h.collections.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		h.writeDomainError(w, "Failed to cancel payment", err)
		return
	}

	h.log.WithFields(logrus.Fields{"collection_id": id, "reason": req.Reason}).
		Info("payment cancelled")
	writeJSON(w, http.StatusOK, toCollectionDTO(*collection))
}

// =============================================================================
// ARREARS HANDLERS
// =============================================================================

// CloseWeek derives missed-day records for every active plan for the week.
func (h *Handler) CloseWeek(w http.ResponseWriter, r *http.Request) {
	week, ok := h.weekParam(w, r)
	if !ok {
		return
	}

	created, err := h.arrears.CloseWeek(r.Context(), week)
	if err != nil {
		h.writeDomainError(w, "Failed to close week", err)
		return
	}

	resp := CloseWeekResponse{
		Week:    week,
		Created: len(created),
		Arrears: make([]DailyArrearDTO, len(created)),
	}
	for i, a := range created {
		resp.Arrears[i] = toDailyArrearDTO(a)
	}

	h.log.WithFields(logrus.Fields{"week": week, "created": len(created)}).
		Info("week closed")
	writeJSON(w, http.StatusOK, resp)
}

// PayDailyArrear applies a payment to a single missed-day record.
func (h *Handler) PayDailyArrear(w http.ResponseWriter, r *http.Request) {
	var req PayDailyArrearRequest
	if !h.decode(w, r, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a decimal string", err)
		return
	}

	arrear, err := h.arrears.PayDailyArrear(r.Context(),
		equb.PlanID(req.PlanID), req.Week, req.Day, amount)
	if err != nil {
		h.writeDomainError(w, "Failed to pay arrear", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyArrearDTO(*arrear))
}

// Rollover folds a closed week's unpaid arrears into the accumulated
// accounts. Empty plan_id rolls every active plan.
func (h *Handler) Rollover(w http.ResponseWriter, r *http.Request) {
	var req RolloverRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.PlanID != "" {
		acc, err := h.accumulator.Rollover(r.Context(), equb.PlanID(req.PlanID), req.Week)
		if err != nil {
			h.writeDomainError(w, "Failed to roll over", err)
			return
		}
		if acc == nil {
			writeJSON(w, http.StatusOK, []AccumulatedDTO{})
			return
		}
		writeJSON(w, http.StatusOK, []AccumulatedDTO{toAccumulatedDTO(*acc)})
		return
	}

	accounts, err := h.accumulator.RolloverAll(r.Context(), req.Week)
	if err != nil {
		h.writeDomainError(w, "Failed to roll over", err)
		return
	}

	dtos := make([]AccumulatedDTO, len(accounts))
	for i, acc := range accounts {
		dtos[i] = toAccumulatedDTO(acc)
	}
	h.log.WithFields(logrus.Fields{"week": req.Week, "accounts": len(accounts)}).
		Info("week rolled over")
	writeJSON(w, http.StatusOK, dtos)
}

// RecordArrearPayment pays down a plan's accumulated balance. The payment
// ledger entry and audit trail row are written in the same transaction.
func (h *Handler) RecordArrearPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordArrearPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a decimal string", err)
		return
	}

	input := equb.ArrearPaymentInput{
		PlanID:     equb.PlanID(req.PlanID),
		Amount:     amount,
		RecorderID: equb.MemberID(req.RecorderID),
		Notes:      req.Notes,
	}
	if req.PaidAt != "" {
		paidAt, err := time.Parse(dateLayout, req.PaidAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "paid_at must be YYYY-MM-DD", err)
			return
		}
		input.PaidAt = paidAt
	}

	acc, err := h.accumulator.RecordArrearPayment(r.Context(), input)
	if err != nil {
		h.writeDomainError(w, "Failed to record arrear payment", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"plan_id":   req.PlanID,
		"amount":    amount,
		"remaining": acc.Remaining,
	}).Info("arrear payment recorded")
	writeJSON(w, http.StatusCreated, toAccumulatedDTO(*acc))
}

// ListAccumulated returns every plan's arrears account.
func (h *Handler) ListAccumulated(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.ListAccumulated(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list arrears", err)
		return
	}

	dtos := make([]AccumulatedDTO, len(accounts))
	for i, acc := range accounts {
		dtos[i] = toAccumulatedDTO(acc)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

// ListReconciliations returns all weekly reconciliations, oldest first.
func (h *Handler) ListReconciliations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.ListReconciliations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reconciliations", err)
		return
	}

	dtos := make([]ReconciliationDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toReconciliationDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Reconcile opens the reconciliation record for a week. When actual is
// omitted, the week's vault deposits stand in for the counted cash.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if !h.decode(w, r, &req) {
		return
	}

	var actual decimal.Decimal
	if req.Actual != "" {
		parsed, err := decimal.NewFromString(req.Actual)
		if err != nil {
			writeError(w, http.StatusBadRequest, "actual must be a decimal string", err)
			return
		}
		actual = parsed
	} else {
		deposited, err := h.vault.WeeklyDeposit(r.Context(), req.Week)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read vault deposits", err)
			return
		}
		actual = deposited
	}

	rec, err := h.reconciler.Reconcile(r.Context(), req.Week, actual,
		equb.MemberID(req.PerformerID), req.Notes)
	if err != nil {
		h.writeDomainError(w, "Failed to reconcile week", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"week":       rec.Week,
		"expected":   rec.Expected,
		"actual":     rec.Actual,
		"difference": rec.Difference,
	}).Info("week reconciled")
	writeJSON(w, http.StatusCreated, toReconciliationDTO(*rec))
}

// GetReconciliation returns one week's reconciliation.
func (h *Handler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	week, ok := h.weekParam(w, r)
	if !ok {
		return
	}

	rec, err := h.Store.GetReconciliation(r.Context(), week)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reconciliation", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Reconciliation not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toReconciliationDTO(*rec))
}

// CompleteReconciliation marks a week's reconciliation reviewed.
func (h *Handler) CompleteReconciliation(w http.ResponseWriter, r *http.Request) {
	week, ok := h.weekParam(w, r)
	if !ok {
		return
	}

	var req CompleteReconciliationRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.reconciler.Complete(r.Context(), week, req.Notes)
	if err != nil {
		h.writeDomainError(w, "Failed to complete reconciliation", err)
		return
	}
	writeJSON(w, http.StatusOK, toReconciliationDTO(*rec))
}

// =============================================================================
// VAULT HANDLERS
// =============================================================================

// RecordDeposit records cash entering the vault.
func (h *Handler) RecordDeposit(w http.ResponseWriter, r *http.Request) {
	h.recordVaultEntry(w, r, vault.Deposit)
}

// RecordWithdrawal records cash leaving the vault.
func (h *Handler) RecordWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.recordVaultEntry(w, r, vault.Withdrawal)
}

func (h *Handler) recordVaultEntry(w http.ResponseWriter, r *http.Request, typ vault.EntryType) {
	var req VaultEntryRequest
	if !h.decode(w, r, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a decimal string", err)
		return
	}

	var entry *vault.Entry
	if typ == vault.Deposit {
		entry, err = h.vault.RecordDeposit(r.Context(), req.Week, amount,
			equb.MemberID(req.RecorderID), req.Notes)
	} else {
		entry, err = h.vault.RecordWithdrawal(r.Context(), amount,
			equb.MemberID(req.RecorderID), req.Notes)
	}
	if err != nil {
		h.writeDomainError(w, "Failed to record vault entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, toVaultEntryDTO(*entry))
}

// ListVaultEntries returns the full cash ledger.
func (h *Handler) ListVaultEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListVaultEntries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list vault entries", err)
		return
	}

	dtos := make([]VaultEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toVaultEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetVaultBalance returns the current cash position.
func (h *Handler) GetVaultBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.vault.Balance(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, VaultBalanceDTO{Balance: balance.String()})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses and validates a JSON request body; on failure it writes the
// error response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func (h *Handler) weekParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil || week < 1 {
		writeError(w, http.StatusBadRequest, "week must be a positive integer", err)
		return 0, false
	}
	return week, true
}

// writeDomainError maps a domain error to its HTTP status.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case equb.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case equb.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case equb.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// =============================================================================
// DTO MAPPING
// =============================================================================

func toMemberDTO(m equb.Member) MemberDTO {
	return MemberDTO{
		ID:        string(m.ID),
		Name:      m.Name,
		Phone:     m.Phone,
		Type:      string(m.Type),
		Archived:  m.Archived,
		CreatedAt: m.CreatedAt.Format(timeLayout),
	}
}

func toPlanDTO(p equb.SavingsPlan) PlanDTO {
	return PlanDTO{
		ID:             string(p.ID),
		MemberID:       string(p.MemberID),
		SequenceNo:     p.SequenceNo,
		DailyAmount:    p.DailyAmount.String(),
		StartDate:      p.StartDate.Format(dateLayout),
		EndDate:        p.EndDate.Format(dateLayout),
		TotalAmount:    p.TotalAmount.String(),
		Status:         string(p.Status),
		CollectionDays: p.CollectionDays,
		GraceDays:      p.GraceDays,
	}
}

func toCollectionDTO(c equb.DailyCollection) CollectionDTO {
	return CollectionDTO{
		ID:           string(c.ID),
		PlanID:       string(c.PlanID),
		Date:         c.Date.Format(dateLayout),
		Week:         c.Week,
		Day:          c.Day,
		DayName:      equb.DayName(c.Day),
		Amount:       c.Amount.String(),
		Source:       c.Source,
		Reference:    c.Reference,
		CollectorID:  string(c.CollectorID),
		RecordedAt:   c.RecordedAt.Format(timeLayout),
		Cancelled:    c.Cancelled,
		CancelReason: c.CancelReason,
	}
}

func toDailyArrearDTO(a equb.DailyArrear) DailyArrearDTO {
	dto := DailyArrearDTO{
		ID:         a.ID,
		PlanID:     string(a.PlanID),
		Week:       a.Week,
		Day:        a.Day,
		Date:       a.Date.Format(dateLayout),
		AmountDue:  a.AmountDue.String(),
		PaidAmount: a.PaidAmount.String(),
		Remaining:  a.Remaining.String(),
		IsPaid:     a.IsPaid,
	}
	if a.PaidDate != nil {
		dto.PaidDate = a.PaidDate.Format(timeLayout)
	}
	return dto
}

func toAccumulatedDTO(a equb.AccumulatedArrears) AccumulatedDTO {
	return AccumulatedDTO{
		PlanID:         string(a.PlanID),
		LastWeekNumber: a.LastWeekNumber,
		TotalArrears:   a.TotalArrears.String(),
		PaidAmount:     a.PaidAmount.String(),
		Remaining:      a.Remaining.String(),
		IsPaid:         a.IsPaid,
		UpdatedAt:      a.UpdatedAt.Format(timeLayout),
	}
}

func toArrearPaymentDTO(p equb.AccumulatedArrearPayment) ArrearPaymentDTO {
	return ArrearPaymentDTO{
		ID:         p.ID,
		PlanID:     string(p.PlanID),
		Week:       p.Week,
		Day:        p.Day,
		Amount:     p.Amount.String(),
		PaidAt:     p.PaidAt.Format(timeLayout),
		RecorderID: string(p.RecorderID),
		Notes:      p.Notes,
	}
}

func toPaymentHistoryDTO(hh equb.WeeklyArrearPaymentHistory) PaymentHistoryDTO {
	return PaymentHistoryDTO{
		ID:              hh.ID,
		PlanID:          string(hh.PlanID),
		Week:            hh.Week,
		PaidAt:          hh.PaidAt.Format(timeLayout),
		Amount:          hh.Amount.String(),
		RemainingBefore: hh.RemainingBefore.String(),
		RemainingAfter:  hh.RemainingAfter.String(),
		Notes:           hh.Notes,
	}
}

func toReconciliationDTO(rec equb.WeeklyReconciliation) ReconciliationDTO {
	return ReconciliationDTO{
		ID:          rec.ID,
		Week:        rec.Week,
		WeekStart:   rec.WeekStart.Format(dateLayout),
		WeekEnd:     rec.WeekEnd.Format(dateLayout),
		Expected:    rec.Expected.String(),
		Actual:      rec.Actual.String(),
		Difference:  rec.Difference.String(),
		Notes:       rec.Notes,
		Status:      string(rec.Status),
		PerformerID: string(rec.PerformerID),
		CreatedAt:   rec.CreatedAt.Format(timeLayout),
	}
}

func toVaultEntryDTO(e vault.Entry) VaultEntryDTO {
	return VaultEntryDTO{
		ID:         e.ID,
		Type:       string(e.Type),
		Week:       e.Week,
		Amount:     e.Amount.String(),
		Notes:      e.Notes,
		RecorderID: string(e.RecorderID),
		RecordedAt: e.RecordedAt.Format(timeLayout),
	}
}
