package stats

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/qmx/lib/cash"
	"github.com/ValentinKolb/qmx/lib/store"
	"github.com/ValentinKolb/qmx/lib/student"
	"github.com/ValentinKolb/qmx/lib/util"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("stats")

// --------------------------------------------------------------------------
// Dashboard
// --------------------------------------------------------------------------

// Dashboard summarizes the whole database
type Dashboard struct {
	TotalStudents           int        `json:"total_students" yaml:"total_students"`
	TotalRevenue            int64      `json:"total_revenue" yaml:"total_revenue"`
	TotalExpense            int64      `json:"total_expense" yaml:"total_expense"`
	NetIncome               int64      `json:"net_income" yaml:"net_income"`
	AverageScore            float64    `json:"average_score" yaml:"average_score"`
	MaxScore                float64    `json:"max_score" yaml:"max_score"`
	Scores                  util.Stats `json:"scores" yaml:"scores"`
	ActiveCourses           int        `json:"active_courses" yaml:"active_courses"`
	OutstandingInstallments int        `json:"outstanding_installments" yaml:"outstanding_installments"`
	OverdueInstallments     int        `json:"overdue_installments" yaml:"overdue_installments"`
}

// NewDashboard computes the dashboard. Revenue sums non-negative amounts,
// expense sums the absolute value of negative ones. Active courses counts
// the distinct classes in use, Others excluded.
func NewDashboard(students *student.Database, cashDB *cash.Database, now time.Time) Dashboard {
	d := Dashboard{TotalStudents: students.Len()}

	classes := make(map[student.Class]struct{})
	var scores []float64
	for _, s := range students.All() {
		if s.Class != student.ClassOthers {
			classes[s.Class] = struct{}{}
		}
		scores = append(scores, s.Rings...)
	}
	d.ActiveCourses = len(classes)
	d.Scores = util.NewStats(scores)
	d.AverageScore = d.Scores.Mean
	if d.Scores.Max > 0 {
		d.MaxScore = d.Scores.Max
	}

	for _, c := range cashDB.All() {
		if c.Amount >= 0 {
			d.TotalRevenue += c.Amount
		} else {
			d.TotalExpense += -c.Amount
		}
		if c.Installment == nil {
			continue
		}
		if c.Installment.Status.Outstanding() {
			d.OutstandingInstallments++
		}
		if c.Installment.Status == cash.StatusOverdue || c.Installment.IsOverdue(now) {
			d.OverdueInstallments++
		}
	}
	d.NetIncome = d.TotalRevenue - d.TotalExpense

	log.Debugf("dashboard: %d students, revenue %d, expense %d", d.TotalStudents, d.TotalRevenue, d.TotalExpense)
	return d
}

// --------------------------------------------------------------------------
// Student
// --------------------------------------------------------------------------

// MembershipState classifies a student's membership
type MembershipState string

const (
	MembershipNone    MembershipState = "None"
	MembershipActive  MembershipState = "Active"
	MembershipExpired MembershipState = "Expired"
)

// Membership is the membership state at the reference time. Until is the
// expiry date for Active and Expired.
type Membership struct {
	State MembershipState `json:"state" yaml:"state"`
	Until *time.Time      `json:"until,omitempty" yaml:"until,omitempty"`
}

// StudentStats summarizes one student
type StudentStats struct {
	StudentID      uint64     `json:"student_id" yaml:"student_id"`
	Name           string     `json:"name" yaml:"name"`
	TotalPayments  int64      `json:"total_payments" yaml:"total_payments"`
	PaymentCount   int        `json:"payment_count" yaml:"payment_count"`
	AverageScore   *float64   `json:"average_score,omitempty" yaml:"average_score,omitempty"`
	ScoreCount     int        `json:"score_count" yaml:"score_count"`
	Scores         util.Stats `json:"scores" yaml:"scores"`
	OpenPlans      int        `json:"open_plans" yaml:"open_plans"`
	OutstandingDue int64      `json:"outstanding_due" yaml:"outstanding_due"`
	Membership     Membership `json:"membership" yaml:"membership"`
}

// NewStudentStats computes the report of student id. A missing student
// yields an error matching store.ErrNotFound.
func NewStudentStats(students *student.Database, cashDB *cash.Database, id uint64, now time.Time) (StudentStats, error) {
	s, ok := students.Get(id)
	if !ok {
		return StudentStats{}, store.NewError(store.RetCNotFound, fmt.Sprintf("student %d not found", id))
	}

	st := StudentStats{
		StudentID:  id,
		Name:       s.Name,
		ScoreCount: len(s.Rings),
		Scores:     util.NewStats(s.Rings),
		Membership: membershipAt(s, now),
	}
	if avg, ok := s.AverageScore(); ok {
		st.AverageScore = &avg
	}

	plans := make(map[uint64]struct{})
	for _, c := range cashDB.ForStudent(id) {
		st.TotalPayments += c.Amount
		st.PaymentCount++
		if c.Installment != nil && c.Installment.Status.Outstanding() {
			plans[c.Installment.PlanID] = struct{}{}
			st.OutstandingDue += c.Amount
		}
	}
	st.OpenPlans = len(plans)
	return st, nil
}

func membershipAt(s *student.Student, now time.Time) Membership {
	if s.MembershipStart == nil || s.MembershipEnd == nil {
		return Membership{State: MembershipNone}
	}
	end := *s.MembershipEnd
	if now.After(end) {
		return Membership{State: MembershipExpired, Until: &end}
	}
	return Membership{State: MembershipActive, Until: &end}
}

// --------------------------------------------------------------------------
// Financial
// --------------------------------------------------------------------------

// Financial summarizes the cash records created within a period
type Financial struct {
	Period           string    `json:"period" yaml:"period"`
	Start            time.Time `json:"start" yaml:"start"`
	End              time.Time `json:"end" yaml:"end"`
	TotalIncome      int64     `json:"total_income" yaml:"total_income"`
	TotalExpense     int64     `json:"total_expense" yaml:"total_expense"`
	NetIncome        int64     `json:"net_income" yaml:"net_income"`
	TransactionCount int       `json:"transaction_count" yaml:"transaction_count"`
	InstallmentCount int       `json:"installment_count" yaml:"installment_count"`
}

// NewFinancial computes the financial report of records whose creation time
// lies within period, resolved against now
func NewFinancial(cashDB *cash.Database, period TimePeriod, now time.Time) Financial {
	f := Financial{Period: period.String()}
	f.Start, f.End = period.Bounds(now)

	for _, c := range cashDB.All() {
		if !period.Contains(c.CreatedAt, now) {
			continue
		}
		f.TransactionCount++
		if c.Amount > 0 {
			f.TotalIncome += c.Amount
		} else {
			f.TotalExpense += -c.Amount
		}
		if c.Installment != nil {
			f.InstallmentCount++
		}
	}
	f.NetIncome = f.TotalIncome - f.TotalExpense
	return f
}
