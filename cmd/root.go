package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/qmx/cmd/cash"
	"github.com/ValentinKolb/qmx/cmd/export"
	"github.com/ValentinKolb/qmx/cmd/perf"
	"github.com/ValentinKolb/qmx/cmd/plan"
	"github.com/ValentinKolb/qmx/cmd/stats"
	"github.com/ValentinKolb/qmx/cmd/student"
	"github.com/ValentinKolb/qmx/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.2.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "qmx",
		Short: "student and cash records for a shooting and archery club",
		Long: fmt.Sprintf(`qmx (v%s)

An embedded storage core for students, cash records and installment plans,
persisted as crash-safe JSON files.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of qmx",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("qmx v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(student.StudentCommands)
	RootCmd.AddCommand(cash.CashCommands)
	RootCmd.AddCommand(plan.PlanCommands)
	RootCmd.AddCommand(stats.StatsCommands)
	RootCmd.AddCommand(export.ExportCmd)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupDatabaseFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
