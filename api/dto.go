/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  Defines the JSON shapes exchanged with clients, decoupled from the domain
  types. Amounts travel as strings to avoid float rounding; dates travel as
  "2006-01-02", timestamps as RFC3339.

VALIDATION:
  Request structs carry go-playground/validator tags; handlers.go validates
  before touching domain logic.

SEE ALSO:
  - handlers.go: Uses these types
  - equb/types.go: Domain types these map from
*/
package api

// =============================================================================
// REQUESTS
// =============================================================================

// CreateMemberRequest registers a member in the directory.
type CreateMemberRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone"`
	Type  string `json:"type" validate:"omitempty,oneof=regular collector"`
}

// CreatePlanRequest opens a savings plan for a member.
type CreatePlanRequest struct {
	MemberID       string `json:"member_id" validate:"required"`
	SequenceNo     int    `json:"sequence_no" validate:"min=0"`
	DailyAmount    string `json:"daily_amount" validate:"required"`
	StartDate      string `json:"start_date" validate:"required,datetime=2006-01-02"`
	CollectionDays []int  `json:"collection_days" validate:"omitempty,dive,min=1,max=7"`
	GraceDays      int    `json:"grace_days" validate:"min=0"`
}

// RecordCollectionRequest records one daily payment against a plan slot.
type RecordCollectionRequest struct {
	PlanID      string `json:"plan_id" validate:"required"`
	Week        int    `json:"week" validate:"required,min=1"`
	Day         int    `json:"day" validate:"required,min=1,max=7"`
	Amount      string `json:"amount" validate:"required"`
	Source      string `json:"source" validate:"omitempty,oneof=cash transfer mobile"`
	Reference   string `json:"reference"`
	CollectorID string `json:"collector_id"`
}

// CancelCollectionRequest soft-cancels a recorded payment.
type CancelCollectionRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// PayDailyArrearRequest applies a payment to one daily arrear row.
type PayDailyArrearRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
	Week   int    `json:"week" validate:"required,min=1"`
	Day    int    `json:"day" validate:"required,min=1,max=7"`
	Amount string `json:"amount" validate:"required"`
}

// RecordArrearPaymentRequest pays down a plan's accumulated balance.
type RecordArrearPaymentRequest struct {
	PlanID     string `json:"plan_id" validate:"required"`
	Amount     string `json:"amount" validate:"required"`
	RecorderID string `json:"recorder_id"`
	Notes      string `json:"notes"`
	PaidAt     string `json:"paid_at" validate:"omitempty,datetime=2006-01-02"`
}

// RolloverRequest folds a closed week's unpaid arrears into the accumulated
// accounts. Empty plan_id rolls every active plan.
type RolloverRequest struct {
	PlanID string `json:"plan_id"`
	Week   int    `json:"week" validate:"required,min=1"`
}

// ReconcileRequest opens the weekly reconciliation record.
type ReconcileRequest struct {
	Week        int    `json:"week" validate:"required,min=1"`
	Actual      string `json:"actual"` // empty means use the week's vault deposits
	PerformerID string `json:"performer_id"`
	Notes       string `json:"notes"`
}

// CompleteReconciliationRequest marks a reconciliation reviewed.
type CompleteReconciliationRequest struct {
	Notes string `json:"notes"`
}

// VaultEntryRequest records a cash movement in the vault.
type VaultEntryRequest struct {
	Week       int    `json:"week" validate:"min=0"`
	Amount     string `json:"amount" validate:"required"`
	RecorderID string `json:"recorder_id"`
	Notes      string `json:"notes"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// MemberDTO is the JSON shape of a directory member.
type MemberDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Type      string `json:"type"`
	Archived  bool   `json:"archived"`
	CreatedAt string `json:"created_at"`
}

// PlanDTO is the JSON shape of a savings plan.
type PlanDTO struct {
	ID             string `json:"id"`
	MemberID       string `json:"member_id"`
	SequenceNo     int    `json:"sequence_no"`
	DailyAmount    string `json:"daily_amount"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	TotalAmount    string `json:"total_amount"`
	Status         string `json:"status"`
	CollectionDays []int  `json:"collection_days,omitempty"`
	GraceDays      int    `json:"grace_days,omitempty"`
}

// CollectionDTO is the JSON shape of a daily collection record.
type CollectionDTO struct {
	ID           string `json:"id"`
	PlanID       string `json:"plan_id"`
	Date         string `json:"date"`
	Week         int    `json:"week"`
	Day          int    `json:"day"`
	DayName      string `json:"day_name"`
	Amount       string `json:"amount"`
	Source       string `json:"source,omitempty"`
	Reference    string `json:"reference,omitempty"`
	CollectorID  string `json:"collector_id,omitempty"`
	RecordedAt   string `json:"recorded_at"`
	Cancelled    bool   `json:"cancelled"`
	CancelReason string `json:"cancel_reason,omitempty"`
}

// DueItemDTO is one outstanding contribution for a collection round.
type DueItemDTO struct {
	PlanID   string `json:"plan_id"`
	MemberID string `json:"member_id"`
	Week     int    `json:"week"`
	Day      int    `json:"day"`
	Date     string `json:"date"`
	Amount   string `json:"amount"`
}

// DailyArrearDTO is the JSON shape of one missed-day record.
type DailyArrearDTO struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	Week       int    `json:"week"`
	Day        int    `json:"day"`
	Date       string `json:"date"`
	AmountDue  string `json:"amount_due"`
	PaidAmount string `json:"paid_amount"`
	Remaining  string `json:"remaining"`
	IsPaid     bool   `json:"is_paid"`
	PaidDate   string `json:"paid_date,omitempty"`
}

// AccumulatedDTO is the JSON shape of a plan's arrears account.
type AccumulatedDTO struct {
	PlanID         string `json:"plan_id"`
	LastWeekNumber int    `json:"last_week_number"`
	TotalArrears   string `json:"total_arrears"`
	PaidAmount     string `json:"paid_amount"`
	Remaining      string `json:"remaining"`
	IsPaid         bool   `json:"is_paid"`
	UpdatedAt      string `json:"updated_at"`
}

// ArrearPaymentDTO is one entry from the arrear payment ledger.
type ArrearPaymentDTO struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	Week       int    `json:"week"`
	Day        int    `json:"day"`
	Amount     string `json:"amount"`
	PaidAt     string `json:"paid_at"`
	RecorderID string `json:"recorder_id,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// PaymentHistoryDTO is one audit-trail entry with the balance around it.
type PaymentHistoryDTO struct {
	ID              string `json:"id"`
	PlanID          string `json:"plan_id"`
	Week            int    `json:"week"`
	PaidAt          string `json:"paid_at"`
	Amount          string `json:"amount"`
	RemainingBefore string `json:"remaining_before"`
	RemainingAfter  string `json:"remaining_after"`
	Notes           string `json:"notes,omitempty"`
}

// StatementDTO bundles a plan with its full arrears picture.
type StatementDTO struct {
	Plan        PlanDTO             `json:"plan"`
	Accumulated *AccumulatedDTO     `json:"accumulated,omitempty"`
	Payments    []ArrearPaymentDTO  `json:"payments"`
	History     []PaymentHistoryDTO `json:"history"`
}

// ReconciliationDTO is the JSON shape of a weekly reconciliation.
type ReconciliationDTO struct {
	ID          string `json:"id"`
	Week        int    `json:"week"`
	WeekStart   string `json:"week_start"`
	WeekEnd     string `json:"week_end"`
	Expected    string `json:"expected"`
	Actual      string `json:"actual"`
	Difference  string `json:"difference"`
	Notes       string `json:"notes,omitempty"`
	Status      string `json:"status"`
	PerformerID string `json:"performer_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// VaultEntryDTO is the JSON shape of a vault ledger entry.
type VaultEntryDTO struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Week       int    `json:"week,omitempty"`
	Amount     string `json:"amount"`
	Notes      string `json:"notes,omitempty"`
	RecorderID string `json:"recorder_id,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

// VaultBalanceDTO reports the current cash position.
type VaultBalanceDTO struct {
	Balance string `json:"balance"`
}

// CloseWeekResponse summarizes one arrears close run.
type CloseWeekResponse struct {
	Week    int              `json:"week"`
	Created int              `json:"created"`
	Arrears []DailyArrearDTO `json:"arrears"`
}

// ErrorResponse is the error body returned for all non-2xx statuses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
