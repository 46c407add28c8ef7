package manager

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/qmx/lib/cash"
	"github.com/ValentinKolb/qmx/lib/common"
	"github.com/ValentinKolb/qmx/lib/stats"
	"github.com/ValentinKolb/qmx/lib/store"
	"github.com/ValentinKolb/qmx/lib/student"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, autoSave bool) (*Manager, common.Config) {
	t.Helper()
	cfg := common.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.AutoSave = autoSave
	m, err := New(cfg)
	require.NoError(t, err)
	m.SetClock(func() time.Time { return t0 })
	return m, cfg
}

func TestCreateAndGetStudent(t *testing.T) {
	m, _ := newTestManager(t, false)

	id, err := m.CreateStudent(NewStudentBuilder("  Alice ", 30).
		Class(student.ClassTenTry).
		Subject(student.SubjectArchery).
		Phone("13800138000"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	s, ok := m.GetStudent(id)
	require.True(t, ok)
	assert.Equal(t, "Alice", s.Name)
	require.NotNil(t, s.LessonLeft)
	assert.Equal(t, student.TenTryLessons, *s.LessonLeft)

	// returned records are copies
	s.Name = "Mallory"
	again, _ := m.GetStudent(id)
	assert.Equal(t, "Alice", again.Name)

	_, ok = m.GetStudent(99)
	assert.False(t, ok)
}

func TestBuilderValidation(t *testing.T) {
	m, _ := newTestManager(t, false)

	_, err := m.CreateStudent(NewStudentBuilder("   ", 20))
	assert.ErrorIs(t, err, store.ErrValidation)

	_, err = m.CreateStudent(NewStudentBuilder("Bob", 20).Class(student.ClassMonth).LessonLeft(3))
	assert.ErrorIs(t, err, store.ErrValidation)

	_, err = m.CreateStudent(NewStudentBuilder("Bob", 20).Membership(t0, t0.AddDate(0, 0, -1)))
	assert.ErrorIs(t, err, store.ErrValidation)

	_, err = m.RecordCash(NewCashBuilder(0))
	assert.ErrorIs(t, err, store.ErrValidation)

	_, err = m.RecordCash(NewCashBuilder(100).StudentID(42))
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.Equal(t, 0, len(m.ListStudents()))
	assert.Equal(t, 0, len(m.SearchCash(nil)))
}

func TestUpdateStudentLeaveSetClear(t *testing.T) {
	m, _ := newTestManager(t, false)
	id, err := m.CreateStudent(NewStudentBuilder("Alice", 30).Phone("123").Note("left handed"))
	require.NoError(t, err)

	u := NewStudentUpdater().Leave("phone").ClearNote().Age(31).AddRing(9.5).AddRing(8)
	assert.Equal(t, []Change{
		{Field: "phone", Action: Leave},
		{Field: "note", Action: Clear},
		{Field: "age", Action: Set},
		{Field: "rings", Action: Set},
		{Field: "rings", Action: Set},
	}, u.Changes())
	require.NoError(t, m.UpdateStudent(id, u))

	s, _ := m.GetStudent(id)
	assert.Equal(t, "123", s.Phone)
	assert.Empty(t, s.Note)
	assert.Equal(t, uint8(31), s.Age)
	assert.Equal(t, []float64{9.5, 8}, s.Rings)

	assert.True(t, NewStudentUpdater().Leave("name").IsEmpty())
	assert.False(t, NewStudentUpdater().ClearPhone().IsEmpty())
}

func TestUpdateStudentIsAllOrNothing(t *testing.T) {
	m, _ := newTestManager(t, false)
	id, err := m.CreateStudent(NewStudentBuilder("Alice", 30))
	require.NoError(t, err)

	err = m.UpdateStudent(id, NewStudentUpdater().Name("Alicia").SetRing(3, 10))
	assert.ErrorIs(t, err, store.ErrValidation)

	s, _ := m.GetStudent(id)
	assert.Equal(t, "Alice", s.Name)
	assert.Empty(t, s.Rings)

	err = m.UpdateStudent(99, NewStudentUpdater().Name("Nobody"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateStudentClassResetsLessons(t *testing.T) {
	m, _ := newTestManager(t, false)
	id, err := m.CreateStudent(NewStudentBuilder("Alice", 30).Class(student.ClassTenTry).LessonLeft(4))
	require.NoError(t, err)

	require.NoError(t, m.UpdateStudent(id, NewStudentUpdater().Class(student.ClassYear)))
	s, _ := m.GetStudent(id)
	assert.Nil(t, s.LessonLeft)

	err = m.UpdateStudent(id, NewStudentUpdater().LessonLeft(2))
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestSearchStudents(t *testing.T) {
	m, _ := newTestManager(t, false)
	for _, b := range []*StudentBuilder{
		NewStudentBuilder("Alice", 30).Class(student.ClassYear).Membership(t0.AddDate(0, -1, 0), t0.AddDate(0, 11, 0)),
		NewStudentBuilder("alina", 17).Subject(student.SubjectArchery),
		NewStudentBuilder("Bob", 45).Class(student.ClassYear),
	} {
		_, err := m.CreateStudent(b)
		require.NoError(t, err)
	}

	names := func(ss []*student.Student) []string {
		var out []string
		for _, s := range ss {
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Alice", "alina"}, names(m.SearchStudents(NewStudentQuery().NameContains("ALI"))))
	assert.Equal(t, []string{"Alice", "Bob"}, names(m.SearchStudents(NewStudentQuery().AgeRange(18, 99))))
	assert.Equal(t, []string{"Bob"}, names(m.SearchStudents(NewStudentQuery().Class(student.ClassYear).HasMembership(false))))
	assert.Equal(t, []string{"alina"}, names(m.SearchStudents(NewStudentQuery().Subject(student.SubjectArchery))))
	assert.Equal(t, []string{"Alice"}, names(m.SearchStudents(NewStudentQuery().MembershipActiveAt(t0))))
	assert.Len(t, m.ListStudents(), 3)
}

func TestDeleteStudentKeepsCash(t *testing.T) {
	m, _ := newTestManager(t, false)
	sid, err := m.CreateStudent(NewStudentBuilder("Alice", 30))
	require.NoError(t, err)
	_, err = m.RecordCash(NewCashBuilder(500).StudentID(sid))
	require.NoError(t, err)

	require.NoError(t, m.DeleteStudent(sid))
	assert.ErrorIs(t, m.DeleteStudent(sid), store.ErrNotFound)
	assert.Len(t, m.StudentCash(sid), 1)

	// identifiers are never reused
	next, err := m.CreateStudent(NewStudentBuilder("Bob", 40))
	require.NoError(t, err)
	assert.Equal(t, sid+1, next)
}

func TestCashLifecycle(t *testing.T) {
	m, _ := newTestManager(t, false)
	sid, err := m.CreateStudent(NewStudentBuilder("Alice", 30))
	require.NoError(t, err)

	id, err := m.RecordCash(NewCashBuilder(1200).StudentID(sid).Note("course fee").CreatedAt(t0))
	require.NoError(t, err)
	_, err = m.RecordCash(NewCashBuilder(-300).Note("targets").CreatedAt(t0.AddDate(0, 0, 1)))
	require.NoError(t, err)

	require.NoError(t, m.UpdateCash(id, NewCashUpdater().Amount(1500).ClearNote()))
	c, ok := m.GetCash(id)
	require.True(t, ok)
	assert.Equal(t, int64(1500), c.Amount)
	assert.Nil(t, c.Note)
	assert.True(t, c.BelongsTo(sid))

	assert.ErrorIs(t, m.UpdateCash(id, NewCashUpdater().ClearStudentID().Amount(0)), store.ErrValidation)
	c, _ = m.GetCash(id)
	assert.True(t, c.BelongsTo(sid))

	assert.Len(t, m.SearchCash(NewCashQuery().AmountRange(-1000, 0)), 1)
	assert.Len(t, m.SearchCash(NewCashQuery().StudentID(sid)), 1)
	assert.Len(t, m.SearchCash(NewCashQuery().DateRange(t0, t0)), 1)
	assert.Len(t, m.SearchCash(NewCashQuery().HasInstallment(true)), 0)

	require.NoError(t, m.DeleteCash(id))
	assert.ErrorIs(t, m.DeleteCash(id), store.ErrNotFound)
	assert.ErrorIs(t, m.UpdateCash(id, NewCashUpdater().Amount(1)), store.ErrNotFound)
}

func TestInstallmentPassthroughs(t *testing.T) {
	m, _ := newTestManager(t, false)
	sid, err := m.CreateStudent(NewStudentBuilder("Alice", 30))
	require.NoError(t, err)

	due := t0.AddDate(0, 0, -5)
	planID, err := m.RecordCash(NewCashBuilder(1000).StudentID(sid).CreatedAt(due).Installment(&cash.Installment{
		TotalAmount:        3000,
		TotalInstallments:  3,
		CurrentInstallment: 1,
		Frequency:          cash.FrequencyMonthly,
		DueDate:            due,
	}))
	require.NoError(t, err)

	first, _ := m.GetCash(planID)
	assert.Equal(t, planID, first.Installment.PlanID)
	assert.Equal(t, cash.StatusPending, first.Installment.Status)

	overdue := m.OverdueInstallments()
	require.Len(t, overdue, 1)
	// the query does not modify the record
	first, _ = m.GetCash(planID)
	assert.Equal(t, cash.StatusPending, first.Installment.Status)

	n, err := m.MarkOverdue()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	second, err := m.GenerateNextInstallmentAuto(planID)
	require.NoError(t, err)
	rec, _ := m.GetCash(second)
	assert.Equal(t, uint32(2), rec.Installment.CurrentInstallment)
	assert.Equal(t, due.AddDate(0, 1, 0), rec.Installment.DueDate)
	assert.Equal(t, t0, rec.CreatedAt)

	upcoming := m.UpcomingInstallments(60*24*time.Hour, 10)
	require.Len(t, upcoming, 2)
	assert.Equal(t, planID, upcoming[0].UID())

	require.NoError(t, m.MarkPaid(planID))
	assert.ErrorIs(t, m.MarkPaid(planID), cash.ErrInvalidTransition)

	summary, err := m.PlanSummary(planID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), summary.PaidAmount)
	assert.Equal(t, 2, summary.Generated)

	cancelled, err := m.CancelPlan(planID)
	require.NoError(t, err)
	assert.Equal(t, 2, cancelled)
	cancelled, err = m.CancelPlan(planID)
	require.NoError(t, err)
	assert.Equal(t, 0, cancelled)

	assert.Len(t, m.SearchCash(NewCashQuery().PlanID(planID).Status(cash.StatusCancelled)), 2)

	_, err = m.GenerateNextInstallment(12345, t0)
	assert.True(t, errors.Is(err, cash.ErrPlanNotFound))
}

func TestRecordCashRejectsForeignPlanID(t *testing.T) {
	m, _ := newTestManager(t, false)

	inst := func(planID uint64, total int64, count uint32, freq cash.Frequency, current uint32) *cash.Installment {
		return &cash.Installment{
			PlanID:             planID,
			TotalAmount:        total,
			TotalInstallments:  count,
			CurrentInstallment: current,
			Frequency:          freq,
			DueDate:            t0,
		}
	}

	// plan 3 does not exist; uid 3 is handed out below
	_, err := m.RecordCash(NewCashBuilder(300).Installment(inst(3, 900, 3, cash.FrequencyWeekly, 1)))
	assert.ErrorIs(t, err, cash.ErrPlanNotFound)
	assert.Empty(t, m.SearchCash(nil))

	_, err = m.RecordCash(NewCashBuilder(50))
	require.NoError(t, err)
	_, err = m.RecordCash(NewCashBuilder(60))
	require.NoError(t, err)
	planID, err := m.RecordCash(NewCashBuilder(1000).Installment(inst(0, 5000, 5, cash.FrequencyMonthly, 1)))
	require.NoError(t, err)
	require.Equal(t, uint64(3), planID)

	_, err = m.RecordCash(NewCashBuilder(300).Installment(inst(planID, 900, 3, cash.FrequencyWeekly, 2)))
	assert.ErrorIs(t, err, cash.ErrPlanConflict)
	_, err = m.RecordCash(NewCashBuilder(1000).Installment(inst(planID, 5000, 5, cash.FrequencyMonthly, 1)))
	assert.ErrorIs(t, err, cash.ErrPlanConflict)

	second, err := m.RecordCash(NewCashBuilder(1000).Installment(inst(planID, 5000, 5, cash.FrequencyMonthly, 2)))
	require.NoError(t, err)

	summary, err := m.PlanSummary(planID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Generated)
	assert.Equal(t, int64(5000), summary.TotalAmount)
	assert.Equal(t, uint32(5), summary.TotalInstallments)

	// moving a record into the plan goes through the same checks
	plain, err := m.RecordCash(NewCashBuilder(70))
	require.NoError(t, err)
	err = m.UpdateCash(plain, NewCashUpdater().Installment(*inst(planID, 5000, 5, cash.FrequencyMonthly, 2)))
	assert.ErrorIs(t, err, cash.ErrPlanConflict)
	err = m.UpdateCash(plain, NewCashUpdater().Installment(*inst(77, 5000, 5, cash.FrequencyMonthly, 1)))
	assert.ErrorIs(t, err, cash.ErrPlanNotFound)
	c, _ := m.GetCash(plain)
	assert.Nil(t, c.Installment)

	require.NoError(t, m.UpdateCash(plain, NewCashUpdater().Installment(*inst(planID, 5000, 5, cash.FrequencyMonthly, 3))))
	require.NoError(t, m.UpdateCash(plain, NewCashUpdater().Installment(*inst(0, 200, 2, cash.FrequencyWeekly, 1))))
	c, _ = m.GetCash(plain)
	assert.Equal(t, plain, c.Installment.PlanID)

	// status changes leave plan membership alone
	require.NoError(t, m.MarkPaid(second))
}

func TestStatsPassthroughs(t *testing.T) {
	m, _ := newTestManager(t, false)
	sid, err := m.CreateStudent(NewStudentBuilder("Alice", 30).Class(student.ClassYear))
	require.NoError(t, err)
	require.NoError(t, m.UpdateStudent(sid, NewStudentUpdater().SetRings([]float64{8, 10})))

	_, err = m.RecordCash(NewCashBuilder(1000).StudentID(sid).CreatedAt(t0))
	require.NoError(t, err)
	_, err = m.RecordCash(NewCashBuilder(-200).CreatedAt(t0.AddDate(-1, 0, 0)))
	require.NoError(t, err)

	dash := m.Dashboard()
	assert.Equal(t, 1, dash.TotalStudents)
	assert.Equal(t, int64(1000), dash.TotalRevenue)
	assert.Equal(t, int64(200), dash.TotalExpense)
	assert.Equal(t, 10.0, dash.MaxScore)

	st, err := m.StudentStats(sid)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), st.TotalPayments)
	require.NotNil(t, st.AverageScore)
	assert.Equal(t, 9.0, *st.AverageScore)

	_, err = m.StudentStats(99)
	assert.ErrorIs(t, err, store.ErrNotFound)

	month := m.FinancialStats(stats.TimePeriod{Kind: stats.ThisMonth})
	assert.Equal(t, int64(1000), month.TotalIncome)
	assert.Equal(t, int64(0), month.TotalExpense)
	assert.Equal(t, 1, month.TransactionCount)
}

func TestAutoSave(t *testing.T) {
	m, cfg := newTestManager(t, true)
	id, err := m.CreateStudent(NewStudentBuilder("Alice", 30))
	require.NoError(t, err)

	reopened, err := New(cfg)
	require.NoError(t, err)
	s, ok := reopened.GetStudent(id)
	require.True(t, ok)
	assert.Equal(t, "Alice", s.Name)
}

func TestExplicitSave(t *testing.T) {
	m, cfg := newTestManager(t, false)
	_, err := m.CreateStudent(NewStudentBuilder("Alice", 30))
	require.NoError(t, err)

	reopened, err := New(cfg)
	require.NoError(t, err)
	assert.Empty(t, reopened.ListStudents())

	require.NoError(t, m.Save())
	reopened, err = New(cfg)
	require.NoError(t, err)
	assert.Len(t, reopened.ListStudents(), 1)

	// the counter file keeps the next id ahead of the saved ones
	id, err := reopened.CreateStudent(NewStudentBuilder("Bob", 40))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)
}

func TestExportJSON(t *testing.T) {
	m, _ := newTestManager(t, false)
	_, err := m.CreateStudent(NewStudentBuilder("Alice", 30))
	require.NoError(t, err)

	out, err := m.ExportJSON(common.KindStudent)
	require.NoError(t, err)
	assert.Contains(t, out, `"1":`)
	assert.Contains(t, out, `"Alice"`)

	_, err = m.ExportJSON("lessons")
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestConcurrentAccess(t *testing.T) {
	m, _ := newTestManager(t, false)

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	ids := make(chan uint64, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := m.CreateStudent(NewStudentBuilder("Student", 20))
				if err != nil {
					t.Error(err)
					return
				}
				ids <- id
				_ = m.ListStudents()
				_ = m.Dashboard()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)
}
