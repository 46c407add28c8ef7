package cash

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/qmx/lib/counter"
	"github.com/ValentinKolb/qmx/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPlan inserts the first installment of a plan and returns the plan id
func newPlan(t *testing.T, db *Database, studentID uint64, total int64, count uint32, freq Frequency, due time.Time) uint64 {
	t.Helper()
	inst, err := NewInstallment(0, total, count, freq, due)
	require.NoError(t, err)
	c := &Cash{
		StudentID:   &studentID,
		Amount:      InstallmentAmount(total, count, 1),
		CreatedAt:   due,
		Installment: inst,
	}
	db.Insert(c)
	return c.Installment.PlanID
}

func newTestDatabase(t *testing.T) *Database {
	db := NewDatabase(filepath.Join(t.TempDir(), "cash_database.json"), nil)
	db.Now = func() time.Time { return t0 }
	return db
}

func TestPlanIDDefaultsToRecordID(t *testing.T) {
	db := newTestDatabase(t)
	db.Insert(New(50)) // plain record takes id 1

	planID := newPlan(t, db, 7, 3000, 3, FrequencyMonthly, t0)
	assert.Equal(t, uint64(2), planID)

	joined, err := NewInstallment(planID, 3000, 3, FrequencyMonthly, t0)
	require.NoError(t, err)
	joined.CurrentInstallment = 2
	require.NoError(t, db.CheckInstallment(0, joined))
	db.Insert(&Cash{Amount: joined.Amount(), Installment: joined})
	assert.Equal(t, planID, joined.PlanID)
	assert.Len(t, db.InstallmentsForPlan(planID), 2)
}

func TestCheckInstallmentRejectsUnknownPlan(t *testing.T) {
	db := newTestDatabase(t)

	// plan 3 does not exist yet, but uid 3 will start a plan of its own
	unknown, err := NewInstallment(3, 900, 3, FrequencyWeekly, t0)
	require.NoError(t, err)
	err = db.CheckInstallment(0, unknown)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	assert.ErrorIs(t, err, store.ErrValidation)

	db.Insert(New(50))
	db.Insert(New(60))
	planID := newPlan(t, db, 7, 5000, 5, FrequencyMonthly, t0)
	require.Equal(t, uint64(3), planID)

	plan := db.InstallmentsForPlan(planID)
	require.Len(t, plan, 1)
	assert.Equal(t, int64(5000), plan[0].Installment.TotalAmount)
	assert.Equal(t, uint32(5), plan[0].Installment.TotalInstallments)
	assert.Equal(t, FrequencyMonthly, plan[0].Installment.Frequency)
}

func TestCheckInstallmentRequiresMatchingTerms(t *testing.T) {
	db := newTestDatabase(t)
	planID := newPlan(t, db, 7, 3000, 3, FrequencyMonthly, t0)

	join := func(total int64, count uint32, freq Frequency, current uint32) *Installment {
		inst, err := NewInstallment(planID, total, count, freq, t0)
		require.NoError(t, err)
		inst.CurrentInstallment = current
		return inst
	}

	tests := []struct {
		name string
		inst *Installment
		want error
	}{
		{"matching terms, free number", join(3000, 3, FrequencyMonthly, 2), nil},
		{"different total", join(900, 3, FrequencyMonthly, 2), ErrPlanConflict},
		{"different count", join(3000, 4, FrequencyMonthly, 2), ErrPlanConflict},
		{"different frequency", join(3000, 3, FrequencyWeekly, 2), ErrPlanConflict},
		{"number already taken", join(3000, 3, FrequencyMonthly, 1), ErrPlanConflict},
		{"number out of range", join(3000, 3, FrequencyMonthly, 4), ErrPlanConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.CheckInstallment(0, tt.inst)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, store.ErrValidation)
		})
	}

	// a record is never in conflict with itself
	first, ok := db.Get(planID)
	require.True(t, ok)
	assert.NoError(t, db.CheckInstallment(planID, first.Installment))

	// a record may start a plan under its own uid
	plain := db.Insert(New(10))
	own, err := NewInstallment(plain, 200, 2, FrequencyWeekly, t0)
	require.NoError(t, err)
	assert.NoError(t, db.CheckInstallment(plain, own))
	assert.NoError(t, db.CheckInstallment(0, &Installment{TotalAmount: 200, TotalInstallments: 2, CurrentInstallment: 1}))
}

func TestGenerateNextInstallmentRejectsCancelledPlan(t *testing.T) {
	db := newTestDatabase(t)
	planID := newPlan(t, db, 1, 300, 3, FrequencyWeekly, t0)
	require.Equal(t, 1, db.CancelPlan(planID))

	_, err := db.GenerateNextInstallment(planID, t0.AddDate(0, 0, 7))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = db.GenerateNextInstallmentAuto(planID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Len(t, db.InstallmentsForPlan(planID), 1)
}

func TestGenerateNextInstallmentMonotonic(t *testing.T) {
	db := newTestDatabase(t)
	planID := newPlan(t, db, 7, 3000, 3, FrequencyMonthly, t0)

	id2, err := db.GenerateNextInstallment(planID, t0.AddDate(0, 1, 0))
	require.NoError(t, err)
	rec2, ok := db.Get(id2)
	require.True(t, ok)
	assert.Equal(t, uint32(2), rec2.Installment.CurrentInstallment)
	assert.Equal(t, StatusPending, rec2.Installment.Status)
	assert.Equal(t, int64(1000), rec2.Amount)
	assert.True(t, rec2.BelongsTo(7))
	assert.Equal(t, t0, rec2.CreatedAt)

	id3, err := db.GenerateNextInstallment(planID, t0.AddDate(0, 2, 0))
	require.NoError(t, err)
	assert.Greater(t, id3, id2)
	rec3, _ := db.Get(id3)
	assert.Equal(t, uint32(3), rec3.Installment.CurrentInstallment)

	_, err = db.GenerateNextInstallment(planID, t0.AddDate(0, 3, 0))
	assert.True(t, errors.Is(err, ErrPlanComplete), "got %v", err)
	assert.True(t, errors.Is(err, store.ErrValidation))
	assert.False(t, errors.Is(err, ErrPlanNotFound))

	_, err = db.GenerateNextInstallment(12345, t0)
	assert.True(t, errors.Is(err, ErrPlanNotFound), "got %v", err)

	plan := db.InstallmentsForPlan(planID)
	require.Len(t, plan, 3)
	var total int64
	for i, c := range plan {
		assert.Equal(t, uint32(i+1), c.Installment.CurrentInstallment)
		total += c.Amount
	}
	assert.Equal(t, int64(3000), total)
}

func TestGenerateNextInstallmentFollowsHighestNumber(t *testing.T) {
	db := newTestDatabase(t)

	// installments inserted out of order: current 1 due 30 days ago, current 2 due tomorrow
	second, _ := NewInstallment(5, 900, 3, FrequencyWeekly, t0.AddDate(0, 0, 1))
	second.CurrentInstallment = 2
	first, _ := NewInstallment(5, 900, 3, FrequencyWeekly, t0.AddDate(0, 0, -30))
	db.Insert(&Cash{Amount: 300, Installment: second})
	db.Insert(&Cash{Amount: 300, Installment: first})

	id, err := db.GenerateNextInstallmentAuto(5)
	require.NoError(t, err)
	rec, _ := db.Get(id)
	assert.Equal(t, uint32(3), rec.Installment.CurrentInstallment)
	assert.Equal(t, t0.AddDate(0, 0, 8), rec.Installment.DueDate)

	_, err = db.GenerateNextInstallmentAuto(5)
	assert.True(t, errors.Is(err, ErrPlanComplete))

	_, err = db.GenerateNextInstallmentAuto(6)
	assert.True(t, errors.Is(err, ErrPlanNotFound))
}

func TestOverdueInstallmentsIsPure(t *testing.T) {
	db := newTestDatabase(t)
	past := t0.AddDate(0, 0, -10)

	pendingPlan := newPlan(t, db, 1, 100, 2, FrequencyWeekly, past)
	paidPlan := newPlan(t, db, 2, 100, 2, FrequencyWeekly, past)
	futurePlan := newPlan(t, db, 3, 100, 2, FrequencyWeekly, t0.AddDate(0, 0, 10))
	require.NoError(t, db.MarkPaid(paidPlan))

	before := db.JSON()
	overdue := db.OverdueInstallments(t0)
	require.Len(t, overdue, 1)
	assert.Equal(t, pendingPlan, overdue[0].UID())
	assert.Equal(t, StatusPending, overdue[0].Installment.Status)
	assert.Equal(t, before, db.JSON(), "query must not mutate")

	// due exactly now is not overdue
	assert.Empty(t, db.OverdueInstallments(past))

	assert.Equal(t, 1, db.MarkOverdue(t0))
	rec, _ := db.Get(pendingPlan)
	assert.Equal(t, StatusOverdue, rec.Installment.Status)
	assert.Empty(t, db.OverdueInstallments(t0), "overdue records are no longer pending")
	assert.Equal(t, 0, db.MarkOverdue(t0))

	rec, _ = db.Get(futurePlan)
	assert.Equal(t, StatusPending, rec.Installment.Status)
}

func TestCancelPlanCoversEveryStatus(t *testing.T) {
	db := newTestDatabase(t)
	planID := newPlan(t, db, 1, 400, 4, FrequencyWeekly, t0.AddDate(0, 0, -14))
	second, err := db.GenerateNextInstallment(planID, t0.AddDate(0, 0, -7))
	require.NoError(t, err)
	_, err = db.GenerateNextInstallment(planID, t0.AddDate(0, 0, 7))
	require.NoError(t, err)
	other := newPlan(t, db, 2, 100, 2, FrequencyWeekly, t0)

	require.NoError(t, db.MarkPaid(planID))
	require.Equal(t, 1, db.MarkOverdue(t0))

	assert.Equal(t, 3, db.CancelPlan(planID))
	for _, c := range db.InstallmentsForPlan(planID) {
		assert.Equal(t, StatusCancelled, c.Installment.Status, "cash %d", c.UID())
	}
	rec, _ := db.Get(second)
	assert.Equal(t, StatusCancelled, rec.Installment.Status)

	otherRec, _ := db.Get(other)
	assert.Equal(t, StatusPending, otherRec.Installment.Status)

	assert.Equal(t, 0, db.CancelPlan(planID), "second cancel changes nothing")
	assert.Equal(t, 0, db.CancelPlan(9999))
}

func TestMarkPaidTransitions(t *testing.T) {
	db := newTestDatabase(t)
	planID := newPlan(t, db, 1, 200, 2, FrequencyWeekly, t0.AddDate(0, 0, -1))
	plain := db.Insert(New(10))

	require.Equal(t, 1, db.MarkOverdue(t0))
	require.NoError(t, db.MarkPaid(planID), "overdue -> paid")

	err := db.MarkPaid(planID)
	assert.True(t, errors.Is(err, ErrInvalidTransition), "got %v", err)

	db.CancelPlan(planID)
	err = db.MarkPaid(planID)
	assert.True(t, errors.Is(err, ErrInvalidTransition), "got %v", err)

	err = db.MarkPaid(plain)
	assert.True(t, errors.Is(err, store.ErrValidation), "got %v", err)

	err = db.MarkPaid(424242)
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func TestUpcomingInstallments(t *testing.T) {
	db := newTestDatabase(t)
	late := newPlan(t, db, 1, 100, 2, FrequencyWeekly, t0.AddDate(0, 0, -3))
	soon := newPlan(t, db, 2, 100, 2, FrequencyWeekly, t0.AddDate(0, 0, 2))
	later := newPlan(t, db, 3, 100, 2, FrequencyWeekly, t0.AddDate(0, 0, 5))
	farAway := newPlan(t, db, 4, 100, 2, FrequencyWeekly, t0.AddDate(0, 2, 0))
	paid := newPlan(t, db, 5, 100, 2, FrequencyWeekly, t0.AddDate(0, 0, 1))
	require.NoError(t, db.MarkPaid(paid))
	db.MarkOverdue(t0)

	ids := func(recs []*Cash) []uint64 {
		var out []uint64
		for _, c := range recs {
			out = append(out, c.UID())
		}
		return out
	}

	week := 7 * 24 * time.Hour
	assert.Equal(t, []uint64{late, soon, later}, ids(db.UpcomingInstallments(t0, week, 0)))
	assert.Equal(t, []uint64{late, soon}, ids(db.UpcomingInstallments(t0, week, 2)))
	assert.Contains(t, ids(db.UpcomingInstallments(t0, 365*24*time.Hour, 0)), farAway)
	assert.Empty(t, db.UpcomingInstallments(t0.AddDate(-1, 0, 0), time.Hour, 0))
}

func TestPlanSummary(t *testing.T) {
	db := newTestDatabase(t)
	planID := newPlan(t, db, 3, 1000, 3, FrequencyMonthly, t0.AddDate(0, 0, -5))
	_, err := db.GenerateNextInstallment(planID, t0.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.NoError(t, db.MarkPaid(planID))

	sum, err := db.PlanSummary(planID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Generated)
	assert.Equal(t, int64(333), sum.PaidAmount)
	assert.Equal(t, int64(333), sum.OutstandingAmount)
	assert.Equal(t, int64(334), sum.UngeneratedAmount)
	assert.Equal(t, map[Status]int{StatusPaid: 1, StatusPending: 1}, sum.StatusCounts)
	require.NotNil(t, sum.NextDue)
	assert.Equal(t, t0.AddDate(0, 1, 0), *sum.NextDue)
	assert.False(t, sum.CompletelyAssigned)
	require.NotNil(t, sum.StudentID)
	assert.Equal(t, uint64(3), *sum.StudentID)

	_, err = db.PlanSummary(777)
	assert.True(t, errors.Is(err, ErrPlanNotFound))
}

func TestStudentInstallments(t *testing.T) {
	db := newTestDatabase(t)
	newPlan(t, db, 1, 100, 2, FrequencyWeekly, t0)
	newPlan(t, db, 2, 100, 2, FrequencyWeekly, t0)
	sid := uint64(1)
	db.Insert(&Cash{StudentID: &sid, Amount: 20, CreatedAt: t0})

	assert.Len(t, db.StudentInstallments(1), 1)
	assert.Len(t, db.ForStudent(1), 2)
	assert.Len(t, db.Installments(), 2)
	assert.Empty(t, db.StudentInstallments(3))
}

func TestEngineSurvivesSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cash_database.json")
	c := counter.New(filepath.Join(dir, "cash_uid_counter"))

	db := NewDatabase(path, c)
	db.Now = func() time.Time { return t0 }

	inst, err := NewInstallment(1, 3000, 3, FrequencyMonthly, t0)
	require.NoError(t, err)
	db.Insert(&Cash{Amount: 3000, CreatedAt: t0, Installment: inst})

	t1 := t0.AddDate(0, 1, 0)
	id, err := db.GenerateNextInstallment(1, t1)
	require.NoError(t, err)
	require.NoError(t, c.Persist())
	require.NoError(t, db.Save())

	reloaded, err := LoadDatabase(path, counter.New(filepath.Join(dir, "cash_uid_counter")))
	require.NoError(t, err)

	plan := reloaded.InstallmentsForPlan(1)
	require.Len(t, plan, 2)
	assert.Equal(t, uint32(1), plan[0].Installment.CurrentInstallment)
	assert.Equal(t, uint32(2), plan[1].Installment.CurrentInstallment)
	assert.Equal(t, id, plan[1].UID())
	assert.Equal(t, t1, plan[1].Installment.DueDate)

	next, err := reloaded.GenerateNextInstallment(1, t1.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Greater(t, next, id)
}
