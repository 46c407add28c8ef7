package manager

import (
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/qmx/lib/cash"
	"github.com/ValentinKolb/qmx/lib/common"
	"github.com/ValentinKolb/qmx/lib/database"
	"github.com/ValentinKolb/qmx/lib/stats"
	"github.com/ValentinKolb/qmx/lib/store"
	"github.com/ValentinKolb/qmx/lib/student"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("manager")

// Manager is the thread-safe facade over a database.Database.
//
// Thread-safety: every method may be called concurrently.
type Manager struct {
	mu       sync.RWMutex
	db       *database.Database
	autoSave bool
	now      func() time.Time
}

// New opens the database described by cfg
func New(cfg common.Config) (*Manager, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	return FromDatabase(db, cfg.AutoSave), nil
}

// FromDatabase wraps an already opened database
func FromDatabase(db *database.Database, autoSave bool) *Manager {
	m := &Manager{db: db, autoSave: autoSave, now: time.Now}
	db.Cash.Now = m.clock
	return m
}

// SetClock replaces the time source used for overdue checks, generated
// installments and reports
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// clock is handed to the cash database and is only called while m.mu is held
func (m *Manager) clock() time.Time {
	return m.now()
}

// Save persists the whole database
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Save()
}

// afterMutation saves when auto-save is enabled. m.mu must be write locked.
func (m *Manager) afterMutation(op string) error {
	if !m.autoSave {
		return nil
	}
	if err := m.db.Save(); err != nil {
		log.Errorf("auto-save after %s failed: %v", op, err)
		return fmt.Errorf("auto-save after %s: %w", op, err)
	}
	return nil
}

// Info returns the store metadata of every record kind
func (m *Manager) Info() []store.Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db.Info()
}

// Config returns the configuration of the underlying database
func (m *Manager) Config() common.Config {
	return m.db.Config()
}

func notFound(kind string, id uint64) error {
	return store.NewError(store.RetCNotFound, fmt.Sprintf("%s %d not found", kind, id))
}

// --------------------------------------------------------------------------
// Students
// --------------------------------------------------------------------------

// CreateStudent validates b and inserts the student, returning its id
func (m *Manager) CreateStudent(b *StudentBuilder) (uint64, error) {
	s, err := b.Build()
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.db.Student.Insert(s)
	log.Debugf("created student %d (%s)", id, s.Name)
	return id, m.afterMutation("create student")
}

// GetStudent returns a copy of student id
func (m *Manager) GetStudent(id uint64) (*student.Student, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.db.Student.Get(id)
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// UpdateStudent applies u to student id. Either all changes are applied or
// none; a missing id yields an error matching store.ErrNotFound.
func (m *Manager) UpdateStudent(id uint64, u *StudentUpdater) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var applyErr error
	res := m.db.Student.Update(id, func(s *student.Student) store.MutationResult {
		cp := s.Clone()
		if applyErr = u.applyTo(cp); applyErr != nil {
			return store.Skipped
		}
		*s = *cp
		return store.Applied
	})
	switch {
	case res == store.NotFound:
		return notFound("student", id)
	case applyErr != nil:
		return applyErr
	case res != store.Applied:
		return validationError("update of student %d was rejected", id)
	}
	return m.afterMutation("update student")
}

// DeleteStudent removes student id. Cash records of the student are kept.
func (m *Manager) DeleteStudent(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.db.Student.Remove(id); !ok {
		return notFound("student", id)
	}
	return m.afterMutation("delete student")
}

// SearchStudents returns copies of all students matching q, ordered by id
func (m *Manager) SearchStudents(q *StudentQuery) []*student.Student {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*student.Student
	for _, s := range m.db.Student.All() {
		if q == nil || q.matches(s) {
			out = append(out, s.Clone())
		}
	}
	return out
}

// ListStudents returns copies of all students ordered by id
func (m *Manager) ListStudents() []*student.Student {
	return m.SearchStudents(nil)
}

// --------------------------------------------------------------------------
// Cash
// --------------------------------------------------------------------------

// RecordCash validates b and inserts the record, returning its id. A record
// referencing a student must reference an existing one.
func (m *Manager) RecordCash(b *CashBuilder) (uint64, error) {
	c, err := b.Build()
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c.StudentID != nil && !m.db.Student.Has(*c.StudentID) {
		return 0, notFound("student", *c.StudentID)
	}
	if err := m.db.Cash.CheckInstallment(0, c.Installment); err != nil {
		return 0, err
	}
	id := m.db.Cash.Insert(c)
	log.Debugf("recorded cash %d over %d", id, c.Amount)
	return id, m.afterMutation("record cash")
}

// GetCash returns a copy of cash record id
func (m *Manager) GetCash(id uint64) (*cash.Cash, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.db.Cash.Get(id)
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// UpdateCash applies u to cash record id with the same all-or-nothing
// semantics as UpdateStudent
func (m *Manager) UpdateCash(id uint64, u *CashUpdater) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var applyErr error
	res := m.db.Cash.Update(id, func(c *cash.Cash) store.MutationResult {
		cp := c.Clone()
		if applyErr = u.applyTo(cp); applyErr != nil {
			return store.Skipped
		}
		if installmentMoved(c.Installment, cp.Installment) {
			if applyErr = m.db.Cash.CheckInstallment(id, cp.Installment); applyErr != nil {
				return store.Skipped
			}
		}
		*c = *cp
		return store.Applied
	})
	switch {
	case res == store.NotFound:
		return notFound("cash record", id)
	case applyErr != nil:
		return applyErr
	case res != store.Applied:
		return validationError("update of cash record %d was rejected", id)
	}
	return m.afterMutation("update cash")
}

// installmentMoved reports whether an update changed the plan membership or
// plan terms of a record
func installmentMoved(before, after *cash.Installment) bool {
	if after == nil {
		return false
	}
	if before == nil {
		return true
	}
	return before.PlanID != after.PlanID ||
		before.CurrentInstallment != after.CurrentInstallment ||
		before.TotalAmount != after.TotalAmount ||
		before.TotalInstallments != after.TotalInstallments ||
		before.Frequency != after.Frequency
}

// DeleteCash removes cash record id
func (m *Manager) DeleteCash(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.db.Cash.Remove(id); !ok {
		return notFound("cash record", id)
	}
	return m.afterMutation("delete cash")
}

// SearchCash returns copies of all cash records matching q, ordered by id
func (m *Manager) SearchCash(q *CashQuery) []*cash.Cash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*cash.Cash
	for _, c := range m.db.Cash.All() {
		if q == nil || q.matches(c) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// StudentCash returns copies of all cash records of student id
func (m *Manager) StudentCash(studentID uint64) []*cash.Cash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneCash(m.db.Cash.ForStudent(studentID))
}

func cloneCash(recs []*cash.Cash) []*cash.Cash {
	out := make([]*cash.Cash, 0, len(recs))
	for _, c := range recs {
		out = append(out, c.Clone())
	}
	return out
}

// --------------------------------------------------------------------------
// Installments
// --------------------------------------------------------------------------

// GenerateNextInstallment creates the next installment of planID due at due
func (m *Manager) GenerateNextInstallment(planID uint64, due time.Time) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, err := m.db.Cash.GenerateNextInstallment(planID, due)
	if err != nil {
		return 0, err
	}
	return id, m.afterMutation("generate installment")
}

// GenerateNextInstallmentAuto creates the next installment of planID with a
// due date derived from the plan frequency
func (m *Manager) GenerateNextInstallmentAuto(planID uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, err := m.db.Cash.GenerateNextInstallmentAuto(planID)
	if err != nil {
		return 0, err
	}
	return id, m.afterMutation("generate installment")
}

// CancelPlan cancels every installment of planID and returns how many changed
func (m *Manager) CancelPlan(planID uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.db.Cash.CancelPlan(planID)
	if n == 0 {
		return 0, nil
	}
	return n, m.afterMutation("cancel plan")
}

// OverdueInstallments returns copies of all installments past due now.
// Nothing is modified.
func (m *Manager) OverdueInstallments() []*cash.Cash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneCash(m.db.Cash.OverdueInstallments(m.now()))
}

// MarkOverdue moves every pending installment past due to Overdue
func (m *Manager) MarkOverdue() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.db.Cash.MarkOverdue(m.now())
	if n == 0 {
		return 0, nil
	}
	return n, m.afterMutation("mark overdue")
}

// MarkPaid marks installment id as paid
func (m *Manager) MarkPaid(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.db.Cash.MarkPaid(id); err != nil {
		return err
	}
	return m.afterMutation("mark paid")
}

// UpcomingInstallments returns copies of at most limit open installments due
// within horizon, earliest first
func (m *Manager) UpcomingInstallments(horizon time.Duration, limit int) []*cash.Cash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneCash(m.db.Cash.UpcomingInstallments(m.now(), horizon, limit))
}

// PlanSummary reports the state of planID
func (m *Manager) PlanSummary(planID uint64) (cash.PlanSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db.Cash.PlanSummary(planID)
}

// --------------------------------------------------------------------------
// Statistics
// --------------------------------------------------------------------------

func (m *Manager) Dashboard() stats.Dashboard {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stats.NewDashboard(m.db.Student, m.db.Cash, m.now())
}

func (m *Manager) StudentStats(id uint64) (stats.StudentStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stats.NewStudentStats(m.db.Student, m.db.Cash, id, m.now())
}

func (m *Manager) FinancialStats(period stats.TimePeriod) stats.Financial {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stats.NewFinancial(m.db.Cash, period, m.now())
}

// --------------------------------------------------------------------------
// Export
// --------------------------------------------------------------------------

// ExportJSON returns the persisted JSON form of the store of kind
func (m *Manager) ExportJSON(kind string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch kind {
	case common.KindStudent:
		return m.db.Student.JSON(), nil
	case common.KindCash:
		return m.db.Cash.JSON(), nil
	default:
		return "", validationError("unknown record kind %q", kind)
	}
}
