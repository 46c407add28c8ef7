package stats

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/qmx/cmd/util"
	"github.com/ValentinKolb/qmx/lib/stats"
	"github.com/ValentinKolb/qmx/lib/store"
	"github.com/spf13/cobra"
)

var (
	dashboardCmd = &cobra.Command{
		Use:   "dashboard",
		Short: "Prints totals over the whole database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.Print(mgr.Dashboard())
		},
	}
	studentCmd = &cobra.Command{
		Use:   "student [id]",
		Short: "Prints payments, scores and membership of a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseID("id", args[0])
			if err != nil {
				return err
			}
			st, err := mgr.StudentStats(id)
			if err != nil {
				return err
			}
			return util.Print(st)
		},
	}
	financialCmd = &cobra.Command{
		Use:   "financial",
		Short: "Prints income and expenses of a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := periodFlags(cmd)
			if err != nil {
				return err
			}
			return util.Print(mgr.FinancialStats(period))
		},
	}
	metricsCmd = &cobra.Command{
		Use:   "metrics",
		Short: "Prints the store metrics of this process in Prometheus text format",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			store.WriteMetrics(os.Stdout)
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints size and identifier metadata of every store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := mgr.Config()
			fmt.Print(cfg.String())
			fmt.Println()
			return util.Print(mgr.Info())
		},
	}
)

func init() {
	// add flags
	financialCmd.Flags().String("period", "month", util.WrapString("Period to report (today, week, month, year, all)"))
	financialCmd.Flags().String("from", "", util.WrapString("Start date of a custom period (YYYY-MM-DD), overrides --period"))
	financialCmd.Flags().String("to", "", util.WrapString("Inclusive end date of a custom period (YYYY-MM-DD)"))
}

func periodFlags(cmd *cobra.Command) (stats.TimePeriod, error) {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	if fromStr == "" && toStr == "" {
		p, _ := cmd.Flags().GetString("period")
		return stats.ParsePeriod(p)
	}
	if fromStr == "" || toStr == "" {
		return stats.TimePeriod{}, fmt.Errorf("a custom period needs both --from and --to")
	}
	from, err := util.ParseDate("from", fromStr)
	if err != nil {
		return stats.TimePeriod{}, err
	}
	to, err := util.ParseDate("to", toStr)
	if err != nil {
		return stats.TimePeriod{}, err
	}
	return stats.CustomPeriod(from, to.AddDate(0, 0, 1).Add(-1)), nil
}
