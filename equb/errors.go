/*
errors.go - Centralized error types for the accounting core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As; structured types carry the
  context (plan id, week, amounts) needed for user-facing messages and
  for diagnosing invariant violations.

ERROR CATEGORIES:
  1. Validation errors   - non-positive amounts, missing references
  2. Conflict errors     - duplicate payment, double rollover/reconciliation
  3. Invariant errors    - internal consistency failures; abort the transaction
  4. Schema errors       - forward migration failures

PROPAGATION:
  Validation and conflict errors are expected and recoverable; they surface
  to the caller as typed results. Invariant violations are programmer errors:
  they abort the enclosing store transaction and are never swallowed.

SEE ALSO:
  - collections.go, accumulator.go, reconcile.go: producers of these errors
  - api/handlers.go: HTTP status mapping via IsClientError/IsConflict/IsNotFound
*/
package equb

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned for non-positive amounts or payments
	// exceeding the remaining balance.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrDuplicatePayment is returned when a second active payment is
	// attempted for an already-filled (plan, week, day) slot.
	ErrDuplicatePayment = errors.New("duplicate payment for slot")

	// ErrAlreadyRolled is returned when a week's arrears would be folded into
	// the accumulated balance twice. A no-op conflict, not corruption.
	ErrAlreadyRolled = errors.New("week already rolled into accumulated arrears")

	// ErrAlreadyReconciled is returned when reconciliation is attempted twice
	// for the same week.
	ErrAlreadyReconciled = errors.New("week already reconciled")

	// ErrInvariantViolation indicates an internal consistency check failed.
	// Fatal: the enclosing transaction must abort rather than persist a
	// corrupted ledger.
	ErrInvariantViolation = errors.New("ledger invariant violation")

	// ErrSchemaUpgrade indicates a forward migration failed.
	ErrSchemaUpgrade = errors.New("schema upgrade failed")

	ErrMemberNotFound     = errors.New("member not found")
	ErrPlanNotFound       = errors.New("plan not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrArrearNotFound     = errors.New("arrear not found")
	ErrNoAccumulated      = errors.New("no accumulated arrears for plan")

	ErrReconciliationNotFound = errors.New("reconciliation not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidAmountError details an amount rejection.
type InvalidAmountError struct {
	Op     string // operation, e.g. "record payment"
	Amount decimal.Decimal
	Limit  *decimal.Decimal // set when the amount exceeded a remaining balance
}

func (e *InvalidAmountError) Error() string {
	if e.Limit != nil {
		return fmt.Sprintf("%s: amount %s exceeds remaining %s", e.Op, e.Amount, *e.Limit)
	}
	return fmt.Sprintf("%s: amount %s must be positive", e.Op, e.Amount)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// DuplicatePaymentError identifies the slot and the existing record.
type DuplicatePaymentError struct {
	PlanID     PlanID
	Week, Day  int
	ExistingID CollectionID
}

func (e *DuplicatePaymentError) Error() string {
	return fmt.Sprintf("plan %s already has an active payment for W%d/D%d (collection %s)",
		e.PlanID, e.Week, e.Day, e.ExistingID)
}

func (e *DuplicatePaymentError) Unwrap() error { return ErrDuplicatePayment }

// AlreadyRolledError reports a rollover attempted at or below the high-water week.
type AlreadyRolledError struct {
	PlanID   PlanID
	Week     int
	LastWeek int
}

func (e *AlreadyRolledError) Error() string {
	return fmt.Sprintf("plan %s: week %d already rolled (last folded week %d)",
		e.PlanID, e.Week, e.LastWeek)
}

func (e *AlreadyRolledError) Unwrap() error { return ErrAlreadyRolled }

// AlreadyReconciledError reports a second reconciliation for a week.
type AlreadyReconciledError struct {
	Week       int
	ExistingID string
}

func (e *AlreadyReconciledError) Error() string {
	return fmt.Sprintf("week %d already reconciled (record %s)", e.Week, e.ExistingID)
}

func (e *AlreadyReconciledError) Unwrap() error { return ErrAlreadyReconciled }

// InvariantViolationError carries full context for diagnosis. Producing one
// always aborts the enclosing transaction.
type InvariantViolationError struct {
	PlanID PlanID
	Week   int
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation: plan %s week %d: %s", e.PlanID, e.Week, e.Detail)
}

func (e *InvariantViolationError) Unwrap() error { return ErrInvariantViolation }

// SchemaUpgradeError names the migration step that failed.
type SchemaUpgradeError struct {
	Step string
	Err  error
}

func (e *SchemaUpgradeError) Error() string {
	return fmt.Sprintf("schema upgrade step %q: %v", e.Step, e.Err)
}

func (e *SchemaUpgradeError) Unwrap() error { return ErrSchemaUpgrade }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount)
}

// IsConflict returns true for expected no-op conflicts (duplicate payment,
// double rollover, double reconciliation).
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicatePayment) ||
		errors.Is(err, ErrAlreadyRolled) ||
		errors.Is(err, ErrAlreadyReconciled)
}

// IsNotFound returns true if the error indicates a missing reference.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrCollectionNotFound) ||
		errors.Is(err, ErrArrearNotFound) ||
		errors.Is(err, ErrNoAccumulated) ||
		errors.Is(err, ErrReconciliationNotFound)
}
