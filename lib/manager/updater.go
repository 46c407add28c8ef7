package manager

import (
	"slices"
	"strings"
	"time"

	"github.com/ValentinKolb/qmx/lib/cash"
	"github.com/ValentinKolb/qmx/lib/student"
)

// Action is what an updater does to one field
type Action uint8

const (
	// Leave keeps the field unchanged
	Leave Action = iota
	// Set assigns a value
	Set
	// Clear resets an optional field to unset
	Clear
)

func (a Action) String() string {
	switch a {
	case Leave:
		return "Leave"
	case Set:
		return "Set"
	case Clear:
		return "Clear"
	default:
		return "Unknown"
	}
}

// Change is one (field, action) pair of an updater
type Change struct {
	Field  string
	Action Action
}

type fieldUpdate[T any] struct {
	Change
	apply func(T) error
}

// updater is an ordered list of field updates applied to a copy of a record.
// Either every update succeeds or the record is left unchanged.
type updater[T any] struct {
	updates []fieldUpdate[T]
}

func (u *updater[T]) add(field string, action Action, apply func(T) error) {
	u.updates = append(u.updates, fieldUpdate[T]{Change: Change{Field: field, Action: action}, apply: apply})
}

// Changes lists the recorded (field, action) pairs in order
func (u *updater[T]) Changes() []Change {
	out := make([]Change, 0, len(u.updates))
	for _, up := range u.updates {
		out = append(out, up.Change)
	}
	return out
}

// IsEmpty reports whether the updater would change nothing
func (u *updater[T]) IsEmpty() bool {
	return !slices.ContainsFunc(u.updates, func(up fieldUpdate[T]) bool { return up.Action != Leave })
}

func (u *updater[T]) applyTo(rec T) error {
	for _, up := range u.updates {
		if up.Action == Leave || up.apply == nil {
			continue
		}
		if err := up.apply(rec); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Student Updater
// --------------------------------------------------------------------------

// StudentUpdater changes fields of an existing student
type StudentUpdater struct {
	updater[*student.Student]
}

func NewStudentUpdater() *StudentUpdater {
	return &StudentUpdater{}
}

// Leave records that field stays unchanged. It has no effect on the record.
func (u *StudentUpdater) Leave(field string) *StudentUpdater {
	u.add(field, Leave, nil)
	return u
}

func (u *StudentUpdater) Name(name string) *StudentUpdater {
	u.add("name", Set, func(s *student.Student) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return validationError("student name must not be empty")
		}
		s.Name = name
		return nil
	})
	return u
}

func (u *StudentUpdater) Age(age uint8) *StudentUpdater {
	u.add("age", Set, func(s *student.Student) error {
		s.Age = age
		return nil
	})
	return u
}

func (u *StudentUpdater) Phone(phone string) *StudentUpdater {
	u.add("phone", Set, func(s *student.Student) error {
		s.Phone = phone
		return nil
	})
	return u
}

func (u *StudentUpdater) ClearPhone() *StudentUpdater {
	u.add("phone", Clear, func(s *student.Student) error {
		s.Phone = ""
		return nil
	})
	return u
}

// Class changes the class and resets the lesson count like student.SetClass
func (u *StudentUpdater) Class(class student.Class) *StudentUpdater {
	u.add("class", Set, func(s *student.Student) error {
		if _, err := student.ParseClass(string(class)); err != nil {
			return err
		}
		s.SetClass(class)
		return nil
	})
	return u
}

func (u *StudentUpdater) Subject(subject student.Subject) *StudentUpdater {
	u.add("subject", Set, func(s *student.Student) error {
		if _, err := student.ParseSubject(string(subject)); err != nil {
			return err
		}
		s.Subject = subject
		return nil
	})
	return u
}

// LessonLeft sets the remaining lessons of a TenTry student
func (u *StudentUpdater) LessonLeft(lessons uint32) *StudentUpdater {
	u.add("lesson_left", Set, func(s *student.Student) error {
		if s.Class != student.ClassTenTry {
			return validationError("lessons left only apply to class %s, not %s", student.ClassTenTry, s.Class)
		}
		s.LessonLeft = &lessons
		return nil
	})
	return u
}

func (u *StudentUpdater) ClearLessonLeft() *StudentUpdater {
	u.add("lesson_left", Clear, func(s *student.Student) error {
		s.LessonLeft = nil
		return nil
	})
	return u
}

func (u *StudentUpdater) Note(note string) *StudentUpdater {
	u.add("note", Set, func(s *student.Student) error {
		s.Note = note
		return nil
	})
	return u
}

func (u *StudentUpdater) ClearNote() *StudentUpdater {
	u.add("note", Clear, func(s *student.Student) error {
		s.Note = ""
		return nil
	})
	return u
}

func (u *StudentUpdater) AddRing(score float64) *StudentUpdater {
	u.add("rings", Set, func(s *student.Student) error {
		s.AddRing(score)
		return nil
	})
	return u
}

// SetRing overwrites the score at index i; an index out of range fails the
// whole update
func (u *StudentUpdater) SetRing(i int, score float64) *StudentUpdater {
	u.add("rings", Set, func(s *student.Student) error {
		return s.SetRing(i, score)
	})
	return u
}

// SetRings replaces all scores
func (u *StudentUpdater) SetRings(scores []float64) *StudentUpdater {
	scores = slices.Clone(scores)
	u.add("rings", Set, func(s *student.Student) error {
		s.Rings = slices.Clone(scores)
		return nil
	})
	return u
}

func (u *StudentUpdater) ClearRings() *StudentUpdater {
	u.add("rings", Clear, func(s *student.Student) error {
		s.Rings = []float64{}
		return nil
	})
	return u
}

func (u *StudentUpdater) Membership(start, end time.Time) *StudentUpdater {
	u.add("membership", Set, func(s *student.Student) error {
		if end.Before(start) {
			return validationError("membership ends before it starts")
		}
		s.MembershipStart, s.MembershipEnd = &start, &end
		return nil
	})
	return u
}

func (u *StudentUpdater) ClearMembership() *StudentUpdater {
	u.add("membership", Clear, func(s *student.Student) error {
		s.MembershipStart, s.MembershipEnd = nil, nil
		return nil
	})
	return u
}

// --------------------------------------------------------------------------
// Cash Updater
// --------------------------------------------------------------------------

// CashUpdater changes fields of an existing cash record
type CashUpdater struct {
	updater[*cash.Cash]
}

func NewCashUpdater() *CashUpdater {
	return &CashUpdater{}
}

// Leave records that field stays unchanged. It has no effect on the record.
func (u *CashUpdater) Leave(field string) *CashUpdater {
	u.add(field, Leave, nil)
	return u
}

func (u *CashUpdater) StudentID(id uint64) *CashUpdater {
	u.add("student_id", Set, func(c *cash.Cash) error {
		c.StudentID = &id
		return nil
	})
	return u
}

func (u *CashUpdater) ClearStudentID() *CashUpdater {
	u.add("student_id", Clear, func(c *cash.Cash) error {
		c.StudentID = nil
		return nil
	})
	return u
}

func (u *CashUpdater) Amount(amount int64) *CashUpdater {
	u.add("amount", Set, func(c *cash.Cash) error {
		if amount == 0 {
			return validationError("cash amount must not be zero")
		}
		c.Amount = amount
		return nil
	})
	return u
}

func (u *CashUpdater) Note(note string) *CashUpdater {
	u.add("note", Set, func(c *cash.Cash) error {
		c.Note = &note
		return nil
	})
	return u
}

func (u *CashUpdater) ClearNote() *CashUpdater {
	u.add("note", Clear, func(c *cash.Cash) error {
		c.Note = nil
		return nil
	})
	return u
}

func (u *CashUpdater) CreatedAt(at time.Time) *CashUpdater {
	u.add("created_at", Set, func(c *cash.Cash) error {
		c.CreatedAt = at
		return nil
	})
	return u
}

// Installment replaces the installment metadata. A zero PlanID makes the
// record start its own plan; any other PlanID must name an existing plan
// with the same terms, which Manager.UpdateCash checks.
func (u *CashUpdater) Installment(inst cash.Installment) *CashUpdater {
	u.add("installment", Set, func(c *cash.Cash) error {
		if inst.TotalInstallments == 0 || inst.CurrentInstallment == 0 || inst.CurrentInstallment > inst.TotalInstallments {
			return validationError("installment %d/%d is out of range", inst.CurrentInstallment, inst.TotalInstallments)
		}
		cp := inst
		if cp.PlanID == 0 {
			cp.PlanID = c.UID()
		}
		c.Installment = &cp
		return nil
	})
	return u
}

func (u *CashUpdater) ClearInstallment() *CashUpdater {
	u.add("installment", Clear, func(c *cash.Cash) error {
		c.Installment = nil
		return nil
	})
	return u
}
