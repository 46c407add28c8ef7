package stats

import (
	"github.com/ValentinKolb/qmx/cmd/util"
	"github.com/ValentinKolb/qmx/lib/manager"
	"github.com/spf13/cobra"
)

var (
	mgr *manager.Manager

	// StatsCommands represents the statistics command group
	StatsCommands = &cobra.Command{
		Use:               "stats",
		Short:             "Print reports over students and cash records",
		PersistentPreRunE: setupManager,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add subcommands
	StatsCommands.AddCommand(dashboardCmd)
	StatsCommands.AddCommand(studentCmd)
	StatsCommands.AddCommand(financialCmd)
	StatsCommands.AddCommand(metricsCmd)
	StatsCommands.AddCommand(infoCmd)
}

func setupManager(cmd *cobra.Command, _ []string) (err error) {
	mgr, err = util.OpenManager(cmd)
	return err
}
