package student

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/qmx/cmd/util"
	"github.com/ValentinKolb/qmx/lib/manager"
	"github.com/ValentinKolb/qmx/lib/student"
	"github.com/spf13/cobra"
)

var (
	addCmd = &cobra.Command{
		Use:   "add [name] [age]",
		Short: "Adds a new student",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			age, err := parseAge(args[1])
			if err != nil {
				return err
			}

			b := manager.NewStudentBuilder(args[0], age)
			flags := cmd.Flags()
			if phone, _ := flags.GetString("phone"); phone != "" {
				b.Phone(phone)
			}
			if note, _ := flags.GetString("note"); note != "" {
				b.Note(note)
			}
			class, _ := flags.GetString("class")
			c, err := student.ParseClass(class)
			if err != nil {
				return err
			}
			b.Class(c)
			subject, _ := flags.GetString("subject")
			s, err := student.ParseSubject(subject)
			if err != nil {
				return err
			}
			b.Subject(s)
			if flags.Changed("lessons") {
				lessons, _ := flags.GetUint32("lessons")
				b.LessonLeft(lessons)
			}
			if flags.Changed("membership-start") || flags.Changed("membership-end") {
				start, end, err := membershipFlags(cmd)
				if err != nil {
					return err
				}
				b.Membership(start, end)
			}

			id, err := mgr.CreateStudent(b)
			if err != nil {
				return err
			}
			fmt.Printf("created student %d\n", id)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Prints a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseID("id", args[0])
			if err != nil {
				return err
			}
			s, ok := mgr.GetStudent(id)
			if !ok {
				return fmt.Errorf("student %d not found", id)
			}
			return util.Print(util.Entry{ID: id, Record: s})
		},
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists students, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := manager.NewStudentQuery()
			flags := cmd.Flags()
			if name, _ := flags.GetString("name"); name != "" {
				q.NameContains(name)
			}
			if class, _ := flags.GetString("class"); class != "" {
				c, err := student.ParseClass(class)
				if err != nil {
					return err
				}
				q.Class(c)
			}
			if subject, _ := flags.GetString("subject"); subject != "" {
				s, err := student.ParseSubject(subject)
				if err != nil {
					return err
				}
				q.Subject(s)
			}
			if flags.Changed("min-age") || flags.Changed("max-age") {
				minAge, _ := flags.GetUint8("min-age")
				maxAge, _ := flags.GetUint8("max-age")
				q.AgeRange(minAge, maxAge)
			}
			if flags.Changed("member") {
				member, _ := flags.GetBool("member")
				q.HasMembership(member)
			}

			students := mgr.SearchStudents(q)
			entries := make([]util.Entry, 0, len(students))
			for _, s := range students {
				entries = append(entries, util.Entry{ID: s.UID(), Record: s})
			}
			return util.Print(entries)
		},
	}
	updateCmd = &cobra.Command{
		Use:   "update [id]",
		Short: "Updates the given fields of a student",
		Long: util.WrapString(`Updates the given fields of a student. Fields without a flag are left unchanged;
optional fields are only removed by their --clear-* flag.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseID("id", args[0])
			if err != nil {
				return err
			}
			u, err := buildUpdater(cmd)
			if err != nil {
				return err
			}
			if u.IsEmpty() {
				return fmt.Errorf("nothing to update")
			}
			if err := mgr.UpdateStudent(id, u); err != nil {
				return err
			}
			fmt.Printf("updated student %d\n", id)
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "Deletes a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseID("id", args[0])
			if err != nil {
				return err
			}
			if err := mgr.DeleteStudent(id); err != nil {
				return err
			}
			fmt.Printf("deleted student %d\n", id)
			return nil
		},
	}
)

func init() {
	// add flags
	addCmd.Flags().String("phone", "", util.WrapString("Phone number"))
	addCmd.Flags().String("note", "", util.WrapString("Free text note"))
	addCmd.Flags().String("class", string(student.ClassOthers), util.WrapString("Class (TenTry, Month, Year, Others)"))
	addCmd.Flags().String("subject", string(student.SubjectOthers), util.WrapString("Subject (Shooting, Archery, Others)"))
	addCmd.Flags().Uint32("lessons", student.TenTryLessons, util.WrapString("Lessons left, only for class TenTry"))
	addMembershipFlags(addCmd)

	listCmd.Flags().String("name", "", util.WrapString("Only students whose name contains this text (case insensitive)"))
	listCmd.Flags().String("class", "", util.WrapString("Only students of this class"))
	listCmd.Flags().String("subject", "", util.WrapString("Only students of this subject"))
	listCmd.Flags().Uint8("min-age", 0, util.WrapString("Minimum age"))
	listCmd.Flags().Uint8("max-age", 255, util.WrapString("Maximum age"))
	listCmd.Flags().Bool("member", false, util.WrapString("Only students with (true) or without (false) a membership"))

	updateCmd.Flags().String("name", "", util.WrapString("New name"))
	updateCmd.Flags().Uint8("age", 0, util.WrapString("New age"))
	updateCmd.Flags().String("phone", "", util.WrapString("New phone number"))
	updateCmd.Flags().Bool("clear-phone", false, util.WrapString("Remove the phone number"))
	updateCmd.Flags().String("class", "", util.WrapString("New class, resets the lessons left"))
	updateCmd.Flags().String("subject", "", util.WrapString("New subject"))
	updateCmd.Flags().Uint32("lessons", 0, util.WrapString("New lessons left, only for class TenTry"))
	updateCmd.Flags().Bool("clear-lessons", false, util.WrapString("Remove the lessons left"))
	updateCmd.Flags().String("note", "", util.WrapString("New note"))
	updateCmd.Flags().Bool("clear-note", false, util.WrapString("Remove the note"))
	updateCmd.Flags().Float64Slice("add-ring", nil, util.WrapString("Append ring scores (comma separated)"))
	updateCmd.Flags().StringSlice("set-ring", nil, util.WrapString("Overwrite ring scores by position, e.g. 0=9.5"))
	updateCmd.Flags().Bool("clear-rings", false, util.WrapString("Remove all ring scores"))
	updateCmd.Flags().Bool("clear-membership", false, util.WrapString("Remove the membership"))
	addMembershipFlags(updateCmd)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func parseAge(s string) (uint8, error) {
	age, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("age must be a number between 0 and 255: %w", err)
	}
	return uint8(age), nil
}

func addMembershipFlags(cmd *cobra.Command) {
	cmd.Flags().String("membership-start", "", util.WrapString("Membership start date (YYYY-MM-DD)"))
	cmd.Flags().String("membership-end", "", util.WrapString("Membership end date (YYYY-MM-DD)"))
}

func membershipFlags(cmd *cobra.Command) (start, end time.Time, err error) {
	startStr, _ := cmd.Flags().GetString("membership-start")
	endStr, _ := cmd.Flags().GetString("membership-end")
	if startStr == "" || endStr == "" {
		return start, end, fmt.Errorf("a membership needs both --membership-start and --membership-end")
	}
	if start, err = util.ParseDate("membership-start", startStr); err != nil {
		return start, end, err
	}
	end, err = util.ParseDate("membership-end", endStr)
	return start, end, err
}

// buildUpdater translates the changed flags of cmd into a student updater
func buildUpdater(cmd *cobra.Command) (*manager.StudentUpdater, error) {
	u := manager.NewStudentUpdater()
	flags := cmd.Flags()

	if flags.Changed("name") {
		name, _ := flags.GetString("name")
		u.Name(name)
	}
	if flags.Changed("age") {
		age, _ := flags.GetUint8("age")
		u.Age(age)
	}
	if flags.Changed("phone") {
		phone, _ := flags.GetString("phone")
		u.Phone(phone)
	}
	if set, _ := flags.GetBool("clear-phone"); set {
		u.ClearPhone()
	}
	if flags.Changed("class") {
		class, _ := flags.GetString("class")
		c, err := student.ParseClass(class)
		if err != nil {
			return nil, err
		}
		u.Class(c)
	}
	if flags.Changed("subject") {
		subject, _ := flags.GetString("subject")
		s, err := student.ParseSubject(subject)
		if err != nil {
			return nil, err
		}
		u.Subject(s)
	}
	if flags.Changed("lessons") {
		lessons, _ := flags.GetUint32("lessons")
		u.LessonLeft(lessons)
	}
	if set, _ := flags.GetBool("clear-lessons"); set {
		u.ClearLessonLeft()
	}
	if flags.Changed("note") {
		note, _ := flags.GetString("note")
		u.Note(note)
	}
	if set, _ := flags.GetBool("clear-note"); set {
		u.ClearNote()
	}
	if set, _ := flags.GetBool("clear-rings"); set {
		u.ClearRings()
	}
	rings, _ := flags.GetFloat64Slice("add-ring")
	for _, r := range rings {
		u.AddRing(r)
	}
	positional, _ := flags.GetStringSlice("set-ring")
	for _, p := range positional {
		idx, val, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("set-ring must have the form index=score, got %q", p)
		}
		i, err := strconv.Atoi(idx)
		if err != nil {
			return nil, fmt.Errorf("invalid ring index %q: %w", idx, err)
		}
		score, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ring score %q: %w", val, err)
		}
		u.SetRing(i, score)
	}
	if set, _ := flags.GetBool("clear-membership"); set {
		u.ClearMembership()
	}
	if flags.Changed("membership-start") || flags.Changed("membership-end") {
		start, end, err := membershipFlags(cmd)
		if err != nil {
			return nil, err
		}
		u.Membership(start, end)
	}
	return u, nil
}
