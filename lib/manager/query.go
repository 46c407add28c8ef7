package manager

import (
	"strings"
	"time"

	"github.com/ValentinKolb/qmx/lib/cash"
	"github.com/ValentinKolb/qmx/lib/student"
)

// query is a conjunction of filters; an empty query matches everything
type query[T any] struct {
	filters []func(T) bool
}

func (q *query[T]) add(f func(T) bool) {
	q.filters = append(q.filters, f)
}

func (q *query[T]) matches(rec T) bool {
	for _, f := range q.filters {
		if !f(rec) {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Student Query
// --------------------------------------------------------------------------

// StudentQuery selects students matching all added filters
type StudentQuery struct {
	query[*student.Student]
}

func NewStudentQuery() *StudentQuery {
	return &StudentQuery{}
}

// NameContains matches names containing s, ignoring case
func (q *StudentQuery) NameContains(s string) *StudentQuery {
	needle := strings.ToLower(s)
	q.add(func(st *student.Student) bool {
		return strings.Contains(strings.ToLower(st.Name), needle)
	})
	return q
}

// AgeRange matches ages within [min, max]
func (q *StudentQuery) AgeRange(min, max uint8) *StudentQuery {
	q.add(func(st *student.Student) bool { return st.Age >= min && st.Age <= max })
	return q
}

func (q *StudentQuery) Class(class student.Class) *StudentQuery {
	q.add(func(st *student.Student) bool { return st.Class == class })
	return q
}

func (q *StudentQuery) Subject(subject student.Subject) *StudentQuery {
	q.add(func(st *student.Student) bool { return st.Subject == subject })
	return q
}

func (q *StudentQuery) HasMembership(has bool) *StudentQuery {
	q.add(func(st *student.Student) bool { return st.HasMembership() == has })
	return q
}

func (q *StudentQuery) MembershipActiveAt(at time.Time) *StudentQuery {
	q.add(func(st *student.Student) bool { return st.MembershipActiveAt(at) })
	return q
}

// --------------------------------------------------------------------------
// Cash Query
// --------------------------------------------------------------------------

// CashQuery selects cash records matching all added filters
type CashQuery struct {
	query[*cash.Cash]
}

func NewCashQuery() *CashQuery {
	return &CashQuery{}
}

func (q *CashQuery) StudentID(id uint64) *CashQuery {
	q.add(func(c *cash.Cash) bool { return c.BelongsTo(id) })
	return q
}

// AmountRange matches amounts within [min, max]
func (q *CashQuery) AmountRange(min, max int64) *CashQuery {
	q.add(func(c *cash.Cash) bool { return c.Amount >= min && c.Amount <= max })
	return q
}

func (q *CashQuery) HasInstallment(has bool) *CashQuery {
	q.add(func(c *cash.Cash) bool { return (c.Installment != nil) == has })
	return q
}

func (q *CashQuery) PlanID(planID uint64) *CashQuery {
	q.add(func(c *cash.Cash) bool { return c.InPlan(planID) })
	return q
}

func (q *CashQuery) Status(status cash.Status) *CashQuery {
	q.add(func(c *cash.Cash) bool { return c.Installment != nil && c.Installment.Status == status })
	return q
}

// DateRange matches records created within [start, end]
func (q *CashQuery) DateRange(start, end time.Time) *CashQuery {
	q.add(func(c *cash.Cash) bool { return !c.CreatedAt.Before(start) && !c.CreatedAt.After(end) })
	return q
}
