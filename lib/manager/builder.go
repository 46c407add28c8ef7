package manager

import (
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/qmx/lib/cash"
	"github.com/ValentinKolb/qmx/lib/store"
	"github.com/ValentinKolb/qmx/lib/student"
)

func validationError(format string, args ...any) error {
	return store.NewError(store.RetCValidation, fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Student Builder
// --------------------------------------------------------------------------

// StudentBuilder assembles a new student
type StudentBuilder struct {
	name            string
	age             uint8
	phone           string
	class           student.Class
	subject         student.Subject
	lessonLeft      *uint32
	note            string
	membershipStart *time.Time
	membershipEnd   *time.Time
}

// NewStudentBuilder starts a student with class and subject Others
func NewStudentBuilder(name string, age uint8) *StudentBuilder {
	return &StudentBuilder{
		name:    name,
		age:     age,
		class:   student.ClassOthers,
		subject: student.SubjectOthers,
	}
}

func (b *StudentBuilder) Phone(phone string) *StudentBuilder {
	b.phone = phone
	return b
}

// Class sets the class. TenTry students start with student.TenTryLessons
// unless LessonLeft overrides it.
func (b *StudentBuilder) Class(class student.Class) *StudentBuilder {
	b.class = class
	return b
}

func (b *StudentBuilder) Subject(subject student.Subject) *StudentBuilder {
	b.subject = subject
	return b
}

// LessonLeft overrides the lesson count, only valid for TenTry
func (b *StudentBuilder) LessonLeft(lessons uint32) *StudentBuilder {
	b.lessonLeft = &lessons
	return b
}

func (b *StudentBuilder) Note(note string) *StudentBuilder {
	b.note = note
	return b
}

func (b *StudentBuilder) Membership(start, end time.Time) *StudentBuilder {
	b.membershipStart, b.membershipEnd = &start, &end
	return b
}

// Build validates the input and returns the unsaved student
func (b *StudentBuilder) Build() (*student.Student, error) {
	name := strings.TrimSpace(b.name)
	if name == "" {
		return nil, validationError("student name must not be empty")
	}
	if _, err := student.ParseClass(string(b.class)); err != nil {
		return nil, err
	}
	if _, err := student.ParseSubject(string(b.subject)); err != nil {
		return nil, err
	}
	if b.lessonLeft != nil && b.class != student.ClassTenTry {
		return nil, validationError("lessons left only apply to class %s, not %s", student.ClassTenTry, b.class)
	}
	if b.membershipStart != nil && b.membershipEnd.Before(*b.membershipStart) {
		return nil, validationError("membership ends before it starts")
	}

	s := student.New(name, b.age)
	s.Phone = b.phone
	s.Subject = b.subject
	s.Note = b.note
	s.SetClass(b.class)
	if b.lessonLeft != nil {
		lessons := *b.lessonLeft
		s.LessonLeft = &lessons
	}
	if b.membershipStart != nil {
		start, end := *b.membershipStart, *b.membershipEnd
		s.MembershipStart, s.MembershipEnd = &start, &end
	}
	return s, nil
}

// --------------------------------------------------------------------------
// Cash Builder
// --------------------------------------------------------------------------

// CashBuilder assembles a new cash record
type CashBuilder struct {
	amount      int64
	studentID   *uint64
	note        *string
	createdAt   *time.Time
	installment *cash.Installment
}

// NewCashBuilder starts a record over amount (negative for expenses)
func NewCashBuilder(amount int64) *CashBuilder {
	return &CashBuilder{amount: amount}
}

func (b *CashBuilder) StudentID(id uint64) *CashBuilder {
	b.studentID = &id
	return b
}

func (b *CashBuilder) Note(note string) *CashBuilder {
	b.note = &note
	return b
}

// CreatedAt overrides the creation time, which defaults to the time of Build
func (b *CashBuilder) CreatedAt(at time.Time) *CashBuilder {
	b.createdAt = &at
	return b
}

// Installment makes the record part of a plan. A zero PlanID starts a new
// plan named after the record; any other PlanID must name an existing plan
// with the same terms and a free installment number, which
// Manager.RecordCash checks.
func (b *CashBuilder) Installment(inst *cash.Installment) *CashBuilder {
	b.installment = inst
	return b
}

// Build validates the input and returns the unsaved record
func (b *CashBuilder) Build() (*cash.Cash, error) {
	if b.amount == 0 {
		return nil, validationError("cash amount must not be zero")
	}

	c := cash.New(b.amount)
	if b.createdAt != nil {
		c.CreatedAt = *b.createdAt
	}
	if b.studentID != nil {
		id := *b.studentID
		c.StudentID = &id
	}
	if b.note != nil {
		note := *b.note
		c.Note = &note
	}
	if b.installment != nil {
		inst := *b.installment
		if inst.TotalInstallments == 0 || inst.CurrentInstallment == 0 || inst.CurrentInstallment > inst.TotalInstallments {
			return nil, validationError("installment %d/%d is out of range", inst.CurrentInstallment, inst.TotalInstallments)
		}
		if inst.Status == "" {
			inst.Status = cash.StatusPending
		}
		c.Installment = &inst
	}
	return c, nil
}
