// Package cash defines financial records, installment plans and the
// installment engine that operates on the cash store.
//
// A cash record is one income (positive amount) or expense (negative amount).
// Records that carry an Installment belong to a payment plan; all records of
// a plan share PlanID, TotalAmount, TotalInstallments and Frequency, and each
// has a distinct CurrentInstallment starting at 1.
//
// Installment status transitions:
//
//	Pending -> Paid        MarkPaid
//	Pending -> Overdue     MarkOverdue (never implicit, OverdueInstallments is a pure query)
//	Overdue -> Paid        MarkPaid
//	any     -> Cancelled   CancelPlan (already cancelled records are left alone)
//
// The engine only uses the public store.Store contract; Database embeds the
// store and adds the plan operations.
package cash
