package student

import (
	"fmt"
	"slices"
	"time"

	"github.com/ValentinKolb/qmx/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("student")

// TenTryLessons is the number of lessons a TenTry student starts with
const TenTryLessons uint32 = 10

// --------------------------------------------------------------------------
// Enums
// --------------------------------------------------------------------------

// Class is the course package a student booked
type Class string

const (
	ClassTenTry Class = "TenTry"
	ClassMonth  Class = "Month"
	ClassYear   Class = "Year"
	ClassOthers Class = "Others"
)

// Classes lists all valid classes
var Classes = []Class{ClassTenTry, ClassMonth, ClassYear, ClassOthers}

// ParseClass validates s as a Class
func ParseClass(s string) (Class, error) {
	c := Class(s)
	if !slices.Contains(Classes, c) {
		return "", store.NewError(store.RetCValidation, fmt.Sprintf("unknown class %q", s))
	}
	return c, nil
}

func (c *Class) UnmarshalText(text []byte) error {
	parsed, err := ParseClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Subject is the discipline a student trains
type Subject string

const (
	SubjectShooting Subject = "Shooting"
	SubjectArchery  Subject = "Archery"
	SubjectOthers   Subject = "Others"
)

// Subjects lists all valid subjects
var Subjects = []Subject{SubjectShooting, SubjectArchery, SubjectOthers}

// ParseSubject validates s as a Subject
func ParseSubject(s string) (Subject, error) {
	sub := Subject(s)
	if !slices.Contains(Subjects, sub) {
		return "", store.NewError(store.RetCValidation, fmt.Sprintf("unknown subject %q", s))
	}
	return sub, nil
}

func (s *Subject) UnmarshalText(text []byte) error {
	parsed, err := ParseSubject(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// --------------------------------------------------------------------------
// Student
// --------------------------------------------------------------------------

// Student is a student profile. Optional fields are pointers; nil means unset.
type Student struct {
	store.Identity `yaml:",inline"`

	Name            string     `json:"name" yaml:"name"`
	Age             uint8      `json:"age" yaml:"age"`
	Phone           string     `json:"phone" yaml:"phone"`
	Class           Class      `json:"class" yaml:"class"`
	Subject         Subject    `json:"subject" yaml:"subject"`
	LessonLeft      *uint32    `json:"lesson_left,omitempty" yaml:"lesson_left,omitempty"`
	Rings           []float64  `json:"rings" yaml:"rings"`
	Note            string     `json:"note" yaml:"note"`
	MembershipStart *time.Time `json:"membership_start,omitempty" yaml:"membership_start,omitempty"`
	MembershipEnd   *time.Time `json:"membership_end,omitempty" yaml:"membership_end,omitempty"`
}

// New returns an unsaved student with class and subject Others
func New(name string, age uint8) *Student {
	return &Student{
		Name:    name,
		Age:     age,
		Class:   ClassOthers,
		Subject: SubjectOthers,
		Rings:   []float64{},
	}
}

// SetClass changes the class. Switching to TenTry resets the remaining
// lessons to TenTryLessons; every other class has no lesson count.
func (s *Student) SetClass(class Class) {
	if class == ClassTenTry {
		lessons := TenTryLessons
		s.LessonLeft = &lessons
	} else {
		s.LessonLeft = nil
	}
	log.Debugf("student %d: class %s -> %s", s.UID(), s.Class, class)
	s.Class = class
}

// AddRing appends a score
func (s *Student) AddRing(score float64) {
	s.Rings = append(s.Rings, score)
}

// SetRing overwrites the score at index i
func (s *Student) SetRing(i int, score float64) error {
	if i < 0 || i >= len(s.Rings) {
		return store.NewError(store.RetCValidation, fmt.Sprintf("ring index %d out of range [0,%d)", i, len(s.Rings)))
	}
	s.Rings[i] = score
	return nil
}

// AverageScore returns the mean of all rings and false if there are none
func (s *Student) AverageScore() (float64, bool) {
	if len(s.Rings) == 0 {
		return 0, false
	}
	var sum float64
	for _, r := range s.Rings {
		sum += r
	}
	return sum / float64(len(s.Rings)), true
}

// HasMembership reports whether a membership start date is set
func (s *Student) HasMembership() bool {
	return s.MembershipStart != nil
}

// MembershipActiveAt reports whether at lies within [start, end]. Students
// without both dates are never active.
func (s *Student) MembershipActiveAt(at time.Time) bool {
	if s.MembershipStart == nil || s.MembershipEnd == nil {
		return false
	}
	return !at.Before(*s.MembershipStart) && !at.After(*s.MembershipEnd)
}

// Clone returns a deep copy. The copy keeps the identifier.
func (s *Student) Clone() *Student {
	c := *s
	if s.LessonLeft != nil {
		v := *s.LessonLeft
		c.LessonLeft = &v
	}
	if s.Rings != nil {
		c.Rings = slices.Clone(s.Rings)
	}
	if s.MembershipStart != nil {
		v := *s.MembershipStart
		c.MembershipStart = &v
	}
	if s.MembershipEnd != nil {
		v := *s.MembershipEnd
		c.MembershipEnd = &v
	}
	return &c
}
