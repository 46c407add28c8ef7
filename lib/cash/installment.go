package cash

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/qmx/lib/store"
)

// --------------------------------------------------------------------------
// Status
// --------------------------------------------------------------------------

// Status is the payment state of one installment
type Status string

const (
	StatusPending   Status = "Pending"
	StatusPaid      Status = "Paid"
	StatusOverdue   Status = "Overdue"
	StatusCancelled Status = "Cancelled"
)

// Outstanding reports whether the installment still has to be paid
func (s Status) Outstanding() bool {
	return s == StatusPending || s == StatusOverdue
}

func (s *Status) UnmarshalText(text []byte) error {
	switch st := Status(text); st {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
		*s = st
		return nil
	default:
		return store.NewError(store.RetCValidation, fmt.Sprintf("unknown installment status %q", string(text)))
	}
}

// --------------------------------------------------------------------------
// Frequency
// --------------------------------------------------------------------------

// FrequencyKind is the unit of a payment interval
type FrequencyKind uint8

const (
	Weekly FrequencyKind = iota
	Monthly
	Quarterly
	CustomDays
)

// Frequency is the interval between two installments of a plan. Days is
// only used by CustomDays.
//
// Text form: "weekly", "monthly", "quarterly" or "custom:<days>".
type Frequency struct {
	Kind FrequencyKind
	Days uint32
}

var (
	FrequencyWeekly    = Frequency{Kind: Weekly}
	FrequencyMonthly   = Frequency{Kind: Monthly}
	FrequencyQuarterly = Frequency{Kind: Quarterly}
)

// EveryDays returns a custom frequency of n days
func EveryDays(n uint32) Frequency {
	return Frequency{Kind: CustomDays, Days: n}
}

// Next returns the due date following due. Months are added calendar-wise,
// so Jan 31 + monthly normalizes into March like time.AddDate.
func (f Frequency) Next(due time.Time) time.Time {
	switch f.Kind {
	case Weekly:
		return due.AddDate(0, 0, 7)
	case Monthly:
		return due.AddDate(0, 1, 0)
	case Quarterly:
		return due.AddDate(0, 3, 0)
	default:
		return due.AddDate(0, 0, int(f.Days))
	}
}

func (f Frequency) String() string {
	switch f.Kind {
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	default:
		return "custom:" + strconv.FormatUint(uint64(f.Days), 10)
	}
}

// ParseFrequency parses the text form of a Frequency
func ParseFrequency(s string) (Frequency, error) {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "weekly":
		return FrequencyWeekly, nil
	case "monthly":
		return FrequencyMonthly, nil
	case "quarterly":
		return FrequencyQuarterly, nil
	}

	if days, ok := strings.CutPrefix(s, "custom:"); ok {
		n, err := strconv.ParseUint(days, 10, 32)
		if err != nil || n == 0 {
			return Frequency{}, store.NewError(store.RetCValidation, fmt.Sprintf("invalid custom frequency %q", s))
		}
		return EveryDays(uint32(n)), nil
	}
	return Frequency{}, store.NewError(store.RetCValidation, fmt.Sprintf("unknown frequency %q", s))
}

func (f Frequency) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Frequency) UnmarshalText(text []byte) error {
	parsed, err := ParseFrequency(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// --------------------------------------------------------------------------
// Installment
// --------------------------------------------------------------------------

// Installment attaches a cash record to a payment plan
type Installment struct {
	PlanID             uint64    `json:"plan_id" yaml:"plan_id"`
	TotalAmount        int64     `json:"total_amount" yaml:"total_amount"`
	TotalInstallments  uint32    `json:"total_installments" yaml:"total_installments"`
	CurrentInstallment uint32    `json:"current_installment" yaml:"current_installment"`
	Frequency          Frequency `json:"frequency" yaml:"frequency"`
	DueDate            time.Time `json:"due_date" yaml:"due_date"`
	Status             Status    `json:"status" yaml:"status"`
}

// NewInstallment returns the first installment of a new plan. A zero planID
// makes the plan take the identifier of the record it is inserted with.
func NewInstallment(planID uint64, totalAmount int64, totalInstallments uint32, freq Frequency, due time.Time) (*Installment, error) {
	if totalInstallments == 0 {
		return nil, store.NewError(store.RetCValidation, "a plan needs at least one installment")
	}
	if totalAmount == 0 {
		return nil, store.NewError(store.RetCValidation, "plan amount must not be zero")
	}
	return &Installment{
		PlanID:             planID,
		TotalAmount:        totalAmount,
		TotalInstallments:  totalInstallments,
		CurrentInstallment: 1,
		Frequency:          freq,
		DueDate:            due,
		Status:             StatusPending,
	}, nil
}

// InstallmentAmount returns the amount due for installment n (1-based) of
// a plan. Every installment pays total/count; the last one also carries the
// remainder so the plan sums to total exactly.
func InstallmentAmount(total int64, count, n uint32) int64 {
	if count == 0 {
		return 0
	}
	share := total / int64(count)
	if n == count {
		return total - share*int64(count-1)
	}
	return share
}

// Amount returns the amount due for this installment
func (i *Installment) Amount() int64 {
	return InstallmentAmount(i.TotalAmount, i.TotalInstallments, i.CurrentInstallment)
}

// IsLast reports whether this is the final installment of its plan
func (i *Installment) IsLast() bool {
	return i.CurrentInstallment >= i.TotalInstallments
}

// IsOverdue reports whether the installment is pending and due before now
func (i *Installment) IsOverdue(now time.Time) bool {
	return i.Status == StatusPending && i.DueDate.Before(now)
}
