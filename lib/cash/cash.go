package cash

import (
	"time"

	"github.com/ValentinKolb/qmx/lib/store"
)

// Cash is a single financial record. Optional fields are pointers.
type Cash struct {
	store.Identity `yaml:",inline"`

	StudentID   *uint64      `json:"student_id,omitempty" yaml:"student_id,omitempty"`
	Amount      int64        `json:"amount" yaml:"amount"`
	Note        *string      `json:"note,omitempty" yaml:"note,omitempty"`
	CreatedAt   time.Time    `json:"created_at" yaml:"created_at"`
	Installment *Installment `json:"installment,omitempty" yaml:"installment,omitempty"`
}

// New returns an unsaved record for amount created now
func New(amount int64) *Cash {
	return &Cash{
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
}

// BelongsTo reports whether the record is linked to studentID
func (c *Cash) BelongsTo(studentID uint64) bool {
	return c.StudentID != nil && *c.StudentID == studentID
}

// IsIncome reports whether the amount is positive
func (c *Cash) IsIncome() bool {
	return c.Amount > 0
}

// InPlan reports whether the record is an installment of planID
func (c *Cash) InPlan(planID uint64) bool {
	return c.Installment != nil && c.Installment.PlanID == planID
}

// Clone returns a deep copy. The copy keeps the identifier.
func (c *Cash) Clone() *Cash {
	cp := *c
	if c.StudentID != nil {
		v := *c.StudentID
		cp.StudentID = &v
	}
	if c.Note != nil {
		v := *c.Note
		cp.Note = &v
	}
	if c.Installment != nil {
		v := *c.Installment
		cp.Installment = &v
	}
	return &cp
}
