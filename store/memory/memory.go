// Package memory provides an in-memory Store implementation (for testing/dev).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/madrasa/finance-engine/finance"
	"github.com/madrasa/finance-engine/schedule"
	"github.com/madrasa/finance-engine/store"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	fees         []finance.FeeRecord
	superseded   map[feeKey]int // index of the active fee per student/year
	transactions []finance.TransactionRecord
	general      []finance.GeneralTransactionRecord
	salaries     map[string]finance.SalaryRecord
	overrides    map[schedule.Date]schedule.CalendarOverride
	weekSettings map[time.Weekday]schedule.WeekDaySetting
	settings     *schedule.GlobalSettings
}

type feeKey struct {
	StudentID string
	YearCode  string
}

func New() *Memory {
	return &Memory{
		superseded:   make(map[feeKey]int),
		salaries:     make(map[string]finance.SalaryRecord),
		overrides:    make(map[schedule.Date]schedule.CalendarOverride),
		weekSettings: make(map[time.Weekday]schedule.WeekDaySetting),
	}
}

// SaveFee supersedes any prior fee for the same student and year.
func (m *Memory) SaveFee(_ context.Context, fee finance.FeeRecord) error {
	if fee.TotalAmount.IsNegative() || fee.AdvancePayment.IsNegative() {
		return fmt.Errorf("fee for %s: %w", fee.StudentID, finance.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := feeKey{StudentID: fee.StudentID, YearCode: fee.AcademicYearCode}
	if i, ok := m.superseded[k]; ok {
		// Supersede in place: the active slot is replaced, history is
		// the data layer's concern here, not the engine's.
		m.fees[i] = fee
		return nil
	}
	m.fees = append(m.fees, fee)
	m.superseded[k] = len(m.fees) - 1
	return nil
}

func (m *Memory) AppendTransaction(_ context.Context, tx finance.TransactionRecord) error {
	if _, err := finance.ParseTransactionKind(string(tx.Kind)); err != nil {
		return err
	}
	if tx.Amount.IsNegative() {
		return fmt.Errorf("transaction for %s: %w", tx.StudentID, finance.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *Memory) AppendGeneralTransaction(_ context.Context, gt finance.GeneralTransactionRecord) error {
	if _, err := finance.ParseGeneralKind(string(gt.Kind)); err != nil {
		return err
	}
	if gt.Amount.IsNegative() {
		return fmt.Errorf("general transaction: %w", finance.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.general = append(m.general, gt)
	return nil
}

func (m *Memory) SaveSalary(_ context.Context, sal finance.SalaryRecord) error {
	if _, err := finance.ParseSalaryStatus(string(sal.Status)); err != nil {
		return err
	}
	if sal.NetSalary.IsNegative() {
		return fmt.Errorf("salary for %s: %w", sal.EmployeeID, finance.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.salaries[sal.EmployeeID] = sal
	return nil
}

func (m *Memory) SaveOverride(_ context.Context, ov schedule.CalendarOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[ov.Date] = ov
	return nil
}

func (m *Memory) SaveWeekDaySetting(_ context.Context, ws schedule.WeekDaySetting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weekSettings[ws.DayOfWeek] = ws
	return nil
}

func (m *Memory) SaveSettings(_ context.Context, gs schedule.GlobalSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &gs
	return nil
}

func (m *Memory) Settings(_ context.Context) (schedule.GlobalSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return schedule.DefaultSettings(), nil
	}
	return *m.settings, nil
}

// LoadSnapshot copies everything under one lock acquisition, which is
// this implementation's version of a single read transaction.
func (m *Memory) LoadSnapshot(_ context.Context) (*store.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := &store.Snapshot{
		Fees:         append([]finance.FeeRecord(nil), m.fees...),
		Transactions: append([]finance.TransactionRecord(nil), m.transactions...),
		General:      append([]finance.GeneralTransactionRecord(nil), m.general...),
		Overrides:    make(map[schedule.Date]schedule.CalendarOverride, len(m.overrides)),
		WeekSettings: make(map[time.Weekday]schedule.WeekDaySetting, len(m.weekSettings)),
		Settings:     schedule.DefaultSettings(),
	}
	for _, sal := range m.salaries {
		snap.Salaries = append(snap.Salaries, sal)
	}
	sort.Slice(snap.Salaries, func(i, j int) bool {
		return snap.Salaries[i].EmployeeID < snap.Salaries[j].EmployeeID
	})
	for k, v := range m.overrides {
		snap.Overrides[k] = v
	}
	for k, v := range m.weekSettings {
		snap.WeekSettings[k] = v
	}
	if m.settings != nil {
		snap.Settings = *m.settings
	}
	return snap, nil
}

func (m *Memory) Close() error { return nil }
