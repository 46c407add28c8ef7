package plan

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ValentinKolb/qmx/cmd/util"
	"github.com/ValentinKolb/qmx/lib/cash"
	"github.com/ValentinKolb/qmx/lib/manager"
	"github.com/spf13/cobra"
)

var (
	createCmd = &cobra.Command{
		Use:   "create [student] [total] [count]",
		Short: "Starts an installment plan and records its first installment",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := util.ParseID("student", args[0])
			if err != nil {
				return err
			}
			total, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("total must be a whole number: %w", err)
			}
			count, err := strconv.ParseUint(args[2], 10, 32)
			if err != nil {
				return fmt.Errorf("count must be a positive number: %w", err)
			}

			freqStr, _ := cmd.Flags().GetString("frequency")
			freq, err := cash.ParseFrequency(freqStr)
			if err != nil {
				return err
			}
			due := time.Now().UTC()
			if dueStr, _ := cmd.Flags().GetString("due"); dueStr != "" {
				if due, err = util.ParseDate("due", dueStr); err != nil {
					return err
				}
			}

			inst, err := cash.NewInstallment(0, total, uint32(count), freq, due)
			if err != nil {
				return err
			}
			b := manager.NewCashBuilder(inst.Amount()).StudentID(sid).Installment(inst)
			if note, _ := cmd.Flags().GetString("note"); note != "" {
				b.Note(note)
			}

			id, err := mgr.RecordCash(b)
			if err != nil {
				return err
			}
			fmt.Printf("created plan %d, first installment %d due %s\n", id, id, due.Format(util.DateLayout))
			return nil
		},
	}
	nextCmd = &cobra.Command{
		Use:   "next [plan]",
		Short: "Generates the next installment of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planID, err := util.ParseID("plan", args[0])
			if err != nil {
				return err
			}

			var id uint64
			if dueStr, _ := cmd.Flags().GetString("due"); dueStr != "" {
				due, err := util.ParseDate("due", dueStr)
				if err != nil {
					return err
				}
				id, err = mgr.GenerateNextInstallment(planID, due)
				if err != nil {
					return err
				}
			} else if id, err = mgr.GenerateNextInstallmentAuto(planID); err != nil {
				return err
			}

			c, _ := mgr.GetCash(id)
			fmt.Printf("generated installment %d (%d/%d) due %s\n", id,
				c.Installment.CurrentInstallment, c.Installment.TotalInstallments, c.Installment.DueDate.Format(util.DateLayout))
			return nil
		},
	}
	cancelCmd = &cobra.Command{
		Use:   "cancel [plan]",
		Short: "Cancels every installment of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planID, err := util.ParseID("plan", args[0])
			if err != nil {
				return err
			}
			n, err := mgr.CancelPlan(planID)
			if err != nil {
				return err
			}
			fmt.Printf("cancelled %d installments of plan %d\n", n, planID)
			return nil
		},
	}
	overdueCmd = &cobra.Command{
		Use:   "overdue",
		Short: "Lists installments past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mark, _ := cmd.Flags().GetBool("mark"); mark {
				n, err := mgr.MarkOverdue()
				if err != nil {
					return err
				}
				fmt.Printf("marked %d installments as overdue\n", n)
				return nil
			}
			return util.Print(entries(mgr.OverdueInstallments()))
		},
	}
	upcomingCmd = &cobra.Command{
		Use:   "upcoming",
		Short: "Lists open installments due soon, earliest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			limit, _ := cmd.Flags().GetInt("limit")
			return util.Print(entries(mgr.UpcomingInstallments(time.Duration(days)*24*time.Hour, limit)))
		},
	}
	payCmd = &cobra.Command{
		Use:   "pay [id]",
		Short: "Marks an installment as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseID("id", args[0])
			if err != nil {
				return err
			}
			if err := mgr.MarkPaid(id); err != nil {
				return err
			}
			fmt.Printf("installment %d paid\n", id)
			return nil
		},
	}
	summaryCmd = &cobra.Command{
		Use:   "summary [plan]",
		Short: "Prints the paid and outstanding amounts of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planID, err := util.ParseID("plan", args[0])
			if err != nil {
				return err
			}
			sum, err := mgr.PlanSummary(planID)
			if err != nil {
				return err
			}
			return util.Print(sum)
		},
	}
)

func init() {
	// add flags
	createCmd.Flags().String("frequency", "monthly", util.WrapString("Installment frequency (weekly, monthly, quarterly, custom:N for every N days)"))
	createCmd.Flags().String("due", "", util.WrapString("Due date of the first installment (YYYY-MM-DD), defaults to today"))
	createCmd.Flags().String("note", "", util.WrapString("Note copied to every installment"))

	nextCmd.Flags().String("due", "", util.WrapString("Due date (YYYY-MM-DD), defaults to the previous due date plus the plan frequency"))

	overdueCmd.Flags().Bool("mark", false, util.WrapString("Set the status of every overdue pending installment to Overdue"))

	upcomingCmd.Flags().Int("days", 30, util.WrapString("How many days ahead to look"))
	upcomingCmd.Flags().Int("limit", 20, util.WrapString("Maximum number of installments to list (0 for all)"))
}

func entries(records []*cash.Cash) []util.Entry {
	out := make([]util.Entry, 0, len(records))
	for _, c := range records {
		out = append(out, util.Entry{ID: c.UID(), Record: c})
	}
	return out
}
