package cash

import (
	"github.com/ValentinKolb/qmx/cmd/util"
	"github.com/ValentinKolb/qmx/lib/manager"
	"github.com/spf13/cobra"
)

var (
	mgr *manager.Manager

	// CashCommands represents the cash command group
	CashCommands = &cobra.Command{
		Use:                "cash",
		Short:              "Record income and expenses",
		PersistentPreRunE:  setupManager,
		PersistentPostRunE: commit,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add subcommands
	CashCommands.AddCommand(addCmd)
	CashCommands.AddCommand(getCmd)
	CashCommands.AddCommand(listCmd)
	CashCommands.AddCommand(updateCmd)
	CashCommands.AddCommand(deleteCmd)
}

func setupManager(cmd *cobra.Command, _ []string) (err error) {
	mgr, err = util.OpenManager(cmd)
	return err
}

func commit(_ *cobra.Command, _ []string) error {
	return util.Commit(mgr)
}
