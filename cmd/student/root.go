package student

import (
	"github.com/ValentinKolb/qmx/cmd/util"
	"github.com/ValentinKolb/qmx/lib/manager"
	"github.com/spf13/cobra"
)

var (
	mgr *manager.Manager

	// StudentCommands represents the student command group
	StudentCommands = &cobra.Command{
		Use:                "student",
		Short:              "Manage students",
		PersistentPreRunE:  setupManager,
		PersistentPostRunE: commit,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add subcommands
	StudentCommands.AddCommand(addCmd)
	StudentCommands.AddCommand(getCmd)
	StudentCommands.AddCommand(listCmd)
	StudentCommands.AddCommand(updateCmd)
	StudentCommands.AddCommand(deleteCmd)
}

func setupManager(cmd *cobra.Command, _ []string) (err error) {
	mgr, err = util.OpenManager(cmd)
	return err
}

func commit(_ *cobra.Command, _ []string) error {
	return util.Commit(mgr)
}
