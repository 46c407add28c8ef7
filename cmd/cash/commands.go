package cash

import (
	"fmt"
	"strconv"

	"github.com/ValentinKolb/qmx/cmd/util"
	"github.com/ValentinKolb/qmx/lib/manager"
	"github.com/spf13/cobra"
)

var (
	addCmd = &cobra.Command{
		Use:   "add [amount]",
		Short: "Records a cash movement (negative amounts are expenses)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}

			b := manager.NewCashBuilder(amount)
			flags := cmd.Flags()
			if flags.Changed("student") {
				sid, _ := flags.GetUint64("student")
				b.StudentID(sid)
			}
			if note, _ := flags.GetString("note"); note != "" {
				b.Note(note)
			}
			if date, _ := flags.GetString("date"); date != "" {
				at, err := util.ParseDate("date", date)
				if err != nil {
					return err
				}
				b.CreatedAt(at)
			}

			id, err := mgr.RecordCash(b)
			if err != nil {
				return err
			}
			fmt.Printf("recorded cash %d\n", id)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Prints a cash record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseID("id", args[0])
			if err != nil {
				return err
			}
			c, ok := mgr.GetCash(id)
			if !ok {
				return fmt.Errorf("cash record %d not found", id)
			}
			return util.Print(util.Entry{ID: id, Record: c})
		},
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists cash records, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := manager.NewCashQuery()
			flags := cmd.Flags()
			if flags.Changed("student") {
				sid, _ := flags.GetUint64("student")
				q.StudentID(sid)
			}
			if flags.Changed("min") || flags.Changed("max") {
				minAmount, _ := flags.GetInt64("min")
				maxAmount, _ := flags.GetInt64("max")
				q.AmountRange(minAmount, maxAmount)
			}
			if flags.Changed("from") || flags.Changed("to") {
				fromStr, _ := flags.GetString("from")
				toStr, _ := flags.GetString("to")
				from, err := util.ParseDate("from", fromStr)
				if err != nil {
					return err
				}
				to, err := util.ParseDate("to", toStr)
				if err != nil {
					return err
				}
				// the end date is inclusive
				q.DateRange(from, to.AddDate(0, 0, 1).Add(-1))
			}
			if flags.Changed("installments") {
				has, _ := flags.GetBool("installments")
				q.HasInstallment(has)
			}

			records := mgr.SearchCash(q)
			entries := make([]util.Entry, 0, len(records))
			for _, c := range records {
				entries = append(entries, util.Entry{ID: c.UID(), Record: c})
			}
			return util.Print(entries)
		},
	}
	updateCmd = &cobra.Command{
		Use:   "update [id]",
		Short: "Updates the given fields of a cash record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseID("id", args[0])
			if err != nil {
				return err
			}

			u := manager.NewCashUpdater()
			flags := cmd.Flags()
			if flags.Changed("amount") {
				amount, _ := flags.GetInt64("amount")
				u.Amount(amount)
			}
			if flags.Changed("student") {
				sid, _ := flags.GetUint64("student")
				u.StudentID(sid)
			}
			if set, _ := flags.GetBool("clear-student"); set {
				u.ClearStudentID()
			}
			if flags.Changed("note") {
				note, _ := flags.GetString("note")
				u.Note(note)
			}
			if set, _ := flags.GetBool("clear-note"); set {
				u.ClearNote()
			}
			if u.IsEmpty() {
				return fmt.Errorf("nothing to update")
			}

			if err := mgr.UpdateCash(id, u); err != nil {
				return err
			}
			fmt.Printf("updated cash %d\n", id)
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "Deletes a cash record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseID("id", args[0])
			if err != nil {
				return err
			}
			if err := mgr.DeleteCash(id); err != nil {
				return err
			}
			fmt.Printf("deleted cash %d\n", id)
			return nil
		},
	}
)

func init() {
	// add flags
	addCmd.Flags().Uint64("student", 0, util.WrapString("ID of the student the record belongs to"))
	addCmd.Flags().String("note", "", util.WrapString("Free text note"))
	addCmd.Flags().String("date", "", util.WrapString("Creation date (YYYY-MM-DD), defaults to now"))

	listCmd.Flags().Uint64("student", 0, util.WrapString("Only records of this student"))
	listCmd.Flags().Int64("min", -1<<62, util.WrapString("Minimum amount"))
	listCmd.Flags().Int64("max", 1<<62, util.WrapString("Maximum amount"))
	listCmd.Flags().String("from", "0001-01-01", util.WrapString("Only records created on or after this date (YYYY-MM-DD)"))
	listCmd.Flags().String("to", "9999-12-30", util.WrapString("Only records created on or before this date (YYYY-MM-DD)"))
	listCmd.Flags().Bool("installments", false, util.WrapString("Only records with (true) or without (false) installment"))

	updateCmd.Flags().Int64("amount", 0, util.WrapString("New amount"))
	updateCmd.Flags().Uint64("student", 0, util.WrapString("New student ID"))
	updateCmd.Flags().Bool("clear-student", false, util.WrapString("Unlink the record from its student"))
	updateCmd.Flags().String("note", "", util.WrapString("New note"))
	updateCmd.Flags().Bool("clear-note", false, util.WrapString("Remove the note"))
}

func parseAmount(s string) (int64, error) {
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount must be a whole number: %w", err)
	}
	return amount, nil
}
