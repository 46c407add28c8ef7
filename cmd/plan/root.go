package plan

import (
	"github.com/ValentinKolb/qmx/cmd/util"
	"github.com/ValentinKolb/qmx/lib/manager"
	"github.com/spf13/cobra"
)

var (
	mgr *manager.Manager

	// PlanCommands represents the installment plan command group
	PlanCommands = &cobra.Command{
		Use:                "plan",
		Short:              "Manage installment plans",
		PersistentPreRunE:  setupManager,
		PersistentPostRunE: commit,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add subcommands
	PlanCommands.AddCommand(createCmd)
	PlanCommands.AddCommand(nextCmd)
	PlanCommands.AddCommand(cancelCmd)
	PlanCommands.AddCommand(overdueCmd)
	PlanCommands.AddCommand(upcomingCmd)
	PlanCommands.AddCommand(payCmd)
	PlanCommands.AddCommand(summaryCmd)
}

func setupManager(cmd *cobra.Command, _ []string) (err error) {
	mgr, err = util.OpenManager(cmd)
	return err
}

func commit(_ *cobra.Command, _ []string) error {
	return util.Commit(mgr)
}
