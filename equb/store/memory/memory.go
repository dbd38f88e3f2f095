// Package memory provides an in-memory Store implementation (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hibret/equb-engine/equb"
	"github.com/hibret/equb-engine/vault"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of equb.TxStore and vault.Store
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	members     map[equb.MemberID]equb.Member
	plans       map[equb.PlanID]equb.SavingsPlan
	collections map[equb.CollectionID]equb.DailyCollection
	arrears     map[slot]equb.DailyArrear
	accumulated map[equb.PlanID]equb.AccumulatedArrears
	payments    []equb.AccumulatedArrearPayment
	history     []equb.WeeklyArrearPaymentHistory
	recons      map[int]equb.WeeklyReconciliation
	vaultLog    []vault.Entry

	cycleStart *time.Time
}

type slot struct {
	Plan equb.PlanID
	Week int
	Day  int
}

func New() *Memory {
	return &Memory{
		members:     make(map[equb.MemberID]equb.Member),
		plans:       make(map[equb.PlanID]equb.SavingsPlan),
		collections: make(map[equb.CollectionID]equb.DailyCollection),
		arrears:     make(map[slot]equb.DailyArrear),
		accumulated: make(map[equb.PlanID]equb.AccumulatedArrears),
		recons:      make(map[int]equb.WeeklyReconciliation),
	}
}

// WithTx runs fn against the store directly. The memory store has no
// rollback; tests that need atomicity guarantees use the sqlite store.
func (m *Memory) WithTx(_ context.Context, fn func(equb.Store) error) error {
	return fn(m)
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (m *Memory) SaveMember(_ context.Context, mem equb.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[mem.ID] = mem
	return nil
}

func (m *Memory) GetMember(_ context.Context, id equb.MemberID) (*equb.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mem, ok := m.members[id]; ok {
		return &mem, nil
	}
	return nil, nil
}

func (m *Memory) ListMembers(_ context.Context, includeArchived bool) ([]equb.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []equb.Member
	for _, mem := range m.members {
		if !includeArchived && mem.Archived {
			continue
		}
		out = append(out, mem)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SavePlan(_ context.Context, p equb.SavingsPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p
	return nil
}

func (m *Memory) GetPlan(_ context.Context, id equb.PlanID) (*equb.SavingsPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.plans[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *Memory) GetActivePlans(_ context.Context) ([]equb.SavingsPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []equb.SavingsPlan
	for _, p := range m.plans {
		if p.Status == equb.PlanActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// COLLECTIONS
// =============================================================================

func (m *Memory) InsertCollection(_ context.Context, c equb.DailyCollection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[c.ID] = c
	return nil
}

func (m *Memory) GetCollection(_ context.Context, id equb.CollectionID) (*equb.DailyCollection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.collections[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *Memory) ActiveCollection(_ context.Context, planID equb.PlanID, week, day int) (*equb.DailyCollection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.collections {
		if c.PlanID == planID && c.Week == week && c.Day == day && c.Active() {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) UpdateCollection(_ context.Context, c equb.DailyCollection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[c.ID]; !ok {
		return equb.ErrCollectionNotFound
	}
	m.collections[c.ID] = c
	return nil
}

func (m *Memory) ListCollections(_ context.Context, planID equb.PlanID) ([]equb.DailyCollection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []equb.DailyCollection
	for _, c := range m.collections {
		if c.PlanID == planID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].Day < out[j].Day
	})
	return out, nil
}

func (m *Memory) SumCollections(_ context.Context, week int) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, c := range m.collections {
		if c.Week == week && c.Active() {
			total = total.Add(c.Amount)
		}
	}
	return total, nil
}

// =============================================================================
// ARREARS
// =============================================================================

func (m *Memory) UpsertDailyArrear(_ context.Context, a equb.DailyArrear) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := slot{Plan: a.PlanID, Week: a.Week, Day: a.Day}
	if _, ok := m.arrears[k]; ok {
		return nil
	}
	m.arrears[k] = a
	return nil
}

func (m *Memory) GetDailyArrear(_ context.Context, planID equb.PlanID, week, day int) (*equb.DailyArrear, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.arrears[slot{Plan: planID, Week: week, Day: day}]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *Memory) UpdateDailyArrear(_ context.Context, a equb.DailyArrear) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := slot{Plan: a.PlanID, Week: a.Week, Day: a.Day}
	if _, ok := m.arrears[k]; !ok {
		return equb.ErrArrearNotFound
	}
	m.arrears[k] = a
	return nil
}

func (m *Memory) ListDailyArrears(_ context.Context, planID equb.PlanID, week int) ([]equb.DailyArrear, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []equb.DailyArrear
	for k, a := range m.arrears {
		if k.Plan == planID && k.Week == week {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (m *Memory) GetAccumulated(_ context.Context, planID equb.PlanID) (*equb.AccumulatedArrears, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.accumulated[planID]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *Memory) SaveAccumulated(_ context.Context, a equb.AccumulatedArrears) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accumulated[a.PlanID] = a
	return nil
}

func (m *Memory) ListAccumulated(_ context.Context) ([]equb.AccumulatedArrears, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []equb.AccumulatedArrears
	for _, a := range m.accumulated {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlanID < out[j].PlanID })
	return out, nil
}

func (m *Memory) InsertArrearPayment(_ context.Context, p equb.AccumulatedArrearPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, p)
	return nil
}

func (m *Memory) ListArrearPayments(_ context.Context, planID equb.PlanID) ([]equb.AccumulatedArrearPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []equb.AccumulatedArrearPayment
	for _, p := range m.payments {
		if p.PlanID == planID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) SumArrearPayments(_ context.Context, week int) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, p := range m.payments {
		if p.Week == week {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (m *Memory) InsertPaymentHistory(_ context.Context, h equb.WeeklyArrearPaymentHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, h)
	return nil
}

func (m *Memory) ListPaymentHistory(_ context.Context, planID equb.PlanID) ([]equb.WeeklyArrearPaymentHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []equb.WeeklyArrearPaymentHistory
	for _, h := range m.history {
		if h.PlanID == planID {
			out = append(out, h)
		}
	}
	return out, nil
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func (m *Memory) InsertReconciliation(_ context.Context, r equb.WeeklyReconciliation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recons[r.Week]; ok {
		return &equb.AlreadyReconciledError{Week: r.Week, ExistingID: m.recons[r.Week].ID}
	}
	m.recons[r.Week] = r
	return nil
}

func (m *Memory) GetReconciliation(_ context.Context, week int) (*equb.WeeklyReconciliation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.recons[week]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *Memory) UpdateReconciliation(_ context.Context, r equb.WeeklyReconciliation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recons[r.Week]; !ok {
		return equb.ErrReconciliationNotFound
	}
	m.recons[r.Week] = r
	return nil
}

func (m *Memory) ListReconciliations(_ context.Context) ([]equb.WeeklyReconciliation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []equb.WeeklyReconciliation
	for _, r := range m.recons {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out, nil
}

// =============================================================================
// VAULT (vault.Store)
// =============================================================================

func (m *Memory) InsertVaultEntry(_ context.Context, e vault.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vaultLog = append(m.vaultLog, e)
	return nil
}

func (m *Memory) ListVaultEntries(_ context.Context) ([]vault.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]vault.Entry, len(m.vaultLog))
	copy(out, m.vaultLog)
	return out, nil
}

func (m *Memory) WeeklyDepositTotal(_ context.Context, week int) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, e := range m.vaultLog {
		if e.Type == vault.Deposit && e.Week == week {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (m *Memory) VaultBalance(_ context.Context) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, e := range m.vaultLog {
		if e.Type == vault.Deposit {
			total = total.Add(e.Amount)
		} else {
			total = total.Sub(e.Amount)
		}
	}
	return total, nil
}

// =============================================================================
// SETTINGS (equb.SettingsSource)
// =============================================================================

func (m *Memory) GetCycleStartDate(_ context.Context) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cycleStart, nil
}

func (m *Memory) SetCycleStartDate(_ context.Context, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycleStart = &t
	return nil
}
