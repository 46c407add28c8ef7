package cash

import (
	"fmt"
	"slices"
	"time"

	"github.com/ValentinKolb/qmx/lib/store"
	"github.com/ValentinKolb/qmx/lib/util"
)

var (
	// ErrPlanNotFound is returned when no record belongs to the plan
	ErrPlanNotFound = store.NewError(store.RetCValidation, "plan not found")
	// ErrPlanComplete is returned when all installments of a plan exist
	ErrPlanComplete = store.NewError(store.RetCValidation, "plan already complete")
	// ErrInvalidTransition is returned for status changes the state machine forbids
	ErrInvalidTransition = store.NewError(store.RetCValidation, "invalid installment status transition")
	// ErrPlanConflict is returned when an installment does not fit the plan it names
	ErrPlanConflict = store.NewError(store.RetCValidation, "installment conflicts with its plan")
)

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

// Installments returns all records that belong to a plan
func (db *Database) Installments() []*Cash {
	return db.Filter(func(c *Cash) bool { return c.Installment != nil })
}

// InstallmentsForPlan returns the records of planID ordered by installment
// number
func (db *Database) InstallmentsForPlan(planID uint64) []*Cash {
	plan := db.Filter(func(c *Cash) bool { return c.InPlan(planID) })
	slices.SortStableFunc(plan, func(a, b *Cash) int {
		return int(a.Installment.CurrentInstallment) - int(b.Installment.CurrentInstallment)
	})
	return plan
}

// OverdueInstallments returns pending installments due before now. The
// status of the returned records is not changed; see MarkOverdue.
func (db *Database) OverdueInstallments(now time.Time) []*Cash {
	return db.Filter(func(c *Cash) bool {
		return c.Installment != nil && c.Installment.IsOverdue(now)
	})
}

// StudentInstallments returns the installments linked to studentID
func (db *Database) StudentInstallments(studentID uint64) []*Cash {
	return db.Filter(func(c *Cash) bool {
		return c.Installment != nil && c.BelongsTo(studentID)
	})
}

// latestInstallment returns the plan record with the highest installment
// number
func (db *Database) latestInstallment(planID uint64) (*Cash, bool) {
	var latest *Cash
	for _, c := range db.All() {
		if !c.InPlan(planID) {
			continue
		}
		if latest == nil || c.Installment.CurrentInstallment > latest.Installment.CurrentInstallment {
			latest = c
		}
	}
	return latest, latest != nil
}

// UpcomingInstallments returns up to limit outstanding installments (pending
// or overdue) due before now+horizon, earliest due first. A limit <= 0
// returns all of them.
func (db *Database) UpcomingInstallments(now time.Time, horizon time.Duration, limit int) []*Cash {
	until := now.Add(horizon)
	queue := util.NewDueQueue()
	for id, c := range db.All() {
		if c.Installment == nil || !c.Installment.Status.Outstanding() {
			continue
		}
		if !c.Installment.DueDate.Before(until) {
			continue
		}
		queue.Add(id, c.Installment.DueDate.Unix())
	}

	var out []*Cash
	for limit <= 0 || len(out) < limit {
		next, ok := queue.PopItem()
		if !ok {
			break
		}
		if c, ok := db.Get(next.Key); ok {
			out = append(out, c)
		}
	}
	return out
}

// PlanSummary aggregates the state of one plan
type PlanSummary struct {
	PlanID             uint64         `json:"plan_id" yaml:"plan_id"`
	StudentID          *uint64        `json:"student_id,omitempty" yaml:"student_id,omitempty"`
	TotalAmount        int64          `json:"total_amount" yaml:"total_amount"`
	TotalInstallments  uint32         `json:"total_installments" yaml:"total_installments"`
	Generated          int            `json:"generated" yaml:"generated"`
	PaidAmount         int64          `json:"paid_amount" yaml:"paid_amount"`
	OutstandingAmount  int64          `json:"outstanding_amount" yaml:"outstanding_amount"`
	CancelledAmount    int64          `json:"cancelled_amount" yaml:"cancelled_amount"`
	UngeneratedAmount  int64          `json:"ungenerated_amount" yaml:"ungenerated_amount"`
	StatusCounts       map[Status]int `json:"status_counts" yaml:"status_counts"`
	NextDue            *time.Time     `json:"next_due,omitempty" yaml:"next_due,omitempty"`
	Frequency          Frequency      `json:"frequency" yaml:"frequency"`
	LatestInstallment  uint32         `json:"latest_installment" yaml:"latest_installment"`
	CompletelyAssigned bool           `json:"completely_assigned" yaml:"completely_assigned"`
}

// PlanSummary returns the aggregated state of planID
func (db *Database) PlanSummary(planID uint64) (PlanSummary, error) {
	plan := db.InstallmentsForPlan(planID)
	if len(plan) == 0 {
		return PlanSummary{}, fmt.Errorf("summarize plan %d: %w", planID, ErrPlanNotFound)
	}

	latest := plan[len(plan)-1].Installment
	sum := PlanSummary{
		PlanID:             planID,
		StudentID:          plan[0].StudentID,
		TotalAmount:        latest.TotalAmount,
		TotalInstallments:  latest.TotalInstallments,
		Generated:          len(plan),
		StatusCounts:       make(map[Status]int),
		Frequency:          latest.Frequency,
		LatestInstallment:  latest.CurrentInstallment,
		CompletelyAssigned: latest.IsLast(),
	}

	var assigned int64
	for _, c := range plan {
		inst := c.Installment
		sum.StatusCounts[inst.Status]++
		assigned += c.Amount
		switch {
		case inst.Status == StatusPaid:
			sum.PaidAmount += c.Amount
		case inst.Status == StatusCancelled:
			sum.CancelledAmount += c.Amount
		case inst.Status.Outstanding():
			sum.OutstandingAmount += c.Amount
			if sum.NextDue == nil || inst.DueDate.Before(*sum.NextDue) {
				due := inst.DueDate
				sum.NextDue = &due
			}
		}
	}
	if !sum.CompletelyAssigned {
		sum.UngeneratedAmount = sum.TotalAmount - assigned
	}
	return sum, nil
}

// --------------------------------------------------------------------------
// Mutations
// --------------------------------------------------------------------------

// GenerateNextInstallment inserts the installment following the latest one
// of planID, due at due, and returns its identifier. The new record copies
// the plan terms and owner of the latest installment and starts Pending.
func (db *Database) GenerateNextInstallment(planID uint64, due time.Time) (uint64, error) {
	latest, ok := db.latestInstallment(planID)
	if !ok {
		return 0, fmt.Errorf("generate installment for plan %d: %w", planID, ErrPlanNotFound)
	}

	prev := latest.Installment
	if prev.Status == StatusCancelled {
		return 0, fmt.Errorf("generate installment for cancelled plan %d: %w", planID, ErrInvalidTransition)
	}
	if prev.IsLast() {
		return 0, fmt.Errorf("generate installment %d/%d for plan %d: %w",
			prev.CurrentInstallment+1, prev.TotalInstallments, planID, ErrPlanComplete)
	}

	next := &Installment{
		PlanID:             planID,
		TotalAmount:        prev.TotalAmount,
		TotalInstallments:  prev.TotalInstallments,
		CurrentInstallment: prev.CurrentInstallment + 1,
		Frequency:          prev.Frequency,
		DueDate:            due,
		Status:             StatusPending,
	}

	rec := &Cash{
		Amount:      next.Amount(),
		CreatedAt:   db.Now(),
		Installment: next,
	}
	if latest.StudentID != nil {
		sid := *latest.StudentID
		rec.StudentID = &sid
	}
	if latest.Note != nil {
		note := *latest.Note
		rec.Note = &note
	}

	id := db.Insert(rec)
	log.Infof("plan %d: generated installment %d/%d as cash %d, due %s",
		planID, next.CurrentInstallment, next.TotalInstallments, id, due.Format(time.DateOnly))
	return id, nil
}

// GenerateNextInstallmentAuto is GenerateNextInstallment with the due date
// derived from the latest installment and the plan frequency
func (db *Database) GenerateNextInstallmentAuto(planID uint64) (uint64, error) {
	latest, ok := db.latestInstallment(planID)
	if !ok {
		return 0, fmt.Errorf("generate installment for plan %d: %w", planID, ErrPlanNotFound)
	}
	inst := latest.Installment
	return db.GenerateNextInstallment(planID, inst.Frequency.Next(inst.DueDate))
}

// CancelPlan marks every installment of planID Cancelled, paid ones
// included, and returns the number of records changed. Records that are
// already cancelled are not counted, so cancelling twice returns 0.
func (db *Database) CancelPlan(planID uint64) int {
	ids := db.planIDs(planID)
	count := db.UpdateBatch(ids, func(c *Cash) store.MutationResult {
		if c.Installment.Status == StatusCancelled {
			return store.Skipped
		}
		if c.Installment.Status == StatusPaid {
			log.Warningf("plan %d: cancelling paid installment %d (cash %d)", planID, c.Installment.CurrentInstallment, c.UID())
		}
		c.Installment.Status = StatusCancelled
		return store.Applied
	})
	log.Infof("plan %d: cancelled %d of %d installments", planID, count, len(ids))
	return count
}

// MarkOverdue moves every pending installment due before now to Overdue and
// returns the number of records changed
func (db *Database) MarkOverdue(now time.Time) int {
	var ids []uint64
	for _, c := range db.OverdueInstallments(now) {
		ids = append(ids, c.UID())
	}
	return db.UpdateBatch(ids, func(c *Cash) store.MutationResult {
		if !c.Installment.IsOverdue(now) {
			return store.Skipped
		}
		c.Installment.Status = StatusOverdue
		return store.Applied
	})
}

// MarkPaid moves the installment stored under id from Pending or Overdue to
// Paid
func (db *Database) MarkPaid(id uint64) error {
	var reason error
	res := db.Update(id, func(c *Cash) store.MutationResult {
		if c.Installment == nil {
			reason = store.NewError(store.RetCValidation, "record is not an installment")
			return store.Skipped
		}
		if !c.Installment.Status.Outstanding() {
			reason = fmt.Errorf("%s -> %s: %w", c.Installment.Status, StatusPaid, ErrInvalidTransition)
			return store.Skipped
		}
		c.Installment.Status = StatusPaid
		return store.Applied
	})

	switch res {
	case store.Applied:
		return nil
	case store.NotFound:
		return store.NewError(store.RetCNotFound, fmt.Sprintf("cash %d not found", id))
	default:
		return fmt.Errorf("mark cash %d paid: %w", id, reason)
	}
}

// CheckInstallment validates inst as the installment of record self, where
// self is 0 for a record that is not inserted yet. A plan id of 0 or self
// starts a new plan. Any other plan id must name an existing plan with the
// same terms whose installment number inst.CurrentInstallment is still free.
func (db *Database) CheckInstallment(self uint64, inst *Installment) error {
	if inst == nil {
		return nil
	}
	if inst.TotalInstallments == 0 || inst.CurrentInstallment == 0 || inst.CurrentInstallment > inst.TotalInstallments {
		return fmt.Errorf("installment %d/%d is out of range: %w", inst.CurrentInstallment, inst.TotalInstallments, ErrPlanConflict)
	}

	var members []*Cash
	for _, c := range db.InstallmentsForPlan(inst.PlanID) {
		if c.UID() != self {
			members = append(members, c)
		}
	}

	if len(members) == 0 {
		if inst.PlanID == 0 || inst.PlanID == self {
			return nil
		}
		return fmt.Errorf("join plan %d: %w", inst.PlanID, ErrPlanNotFound)
	}

	ref := members[0].Installment
	if ref.TotalAmount != inst.TotalAmount || ref.TotalInstallments != inst.TotalInstallments || ref.Frequency != inst.Frequency {
		return fmt.Errorf("plan %d has terms %d in %d %s installments, got %d in %d %s: %w",
			inst.PlanID, ref.TotalAmount, ref.TotalInstallments, ref.Frequency,
			inst.TotalAmount, inst.TotalInstallments, inst.Frequency, ErrPlanConflict)
	}
	for _, c := range members {
		if c.Installment.CurrentInstallment == inst.CurrentInstallment {
			return fmt.Errorf("plan %d already has installment %d as cash %d: %w",
				inst.PlanID, inst.CurrentInstallment, c.UID(), ErrPlanConflict)
		}
	}
	return nil
}

func (db *Database) planIDs(planID uint64) []uint64 {
	var ids []uint64
	for id, c := range db.All() {
		if c.InPlan(planID) {
			ids = append(ids, id)
		}
	}
	return ids
}
