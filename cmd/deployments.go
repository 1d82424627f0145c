package cmd

import (
	"fmt"

	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/ui"
	"github.com/spf13/cobra"
)

var deploymentsAll bool

var deploymentsCmd = &cobra.Command{
	Use:     "deployments",
	Aliases: []string{"ls"},
	Short:   "List recorded deployments",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := contract.NewRegistry(cfg.DeploymentsPath())
		if err := reg.Load(); err != nil {
			return err
		}
		records := reg.All()
		if !deploymentsAll {
			records = reg.ByNetwork(activeNetwork())
		}
		if len(records) == 0 {
			fmt.Println(ui.Info("No deployments recorded on " + activeNetwork() + "."))
			fmt.Println(ui.Hint("Deploy with: oburnctl deploy <plan>, or list every network with --all"))
			return nil
		}
		fmt.Println(deploymentsTable(records))
		fmt.Println(ui.Meta(fmt.Sprintf("%d deployment(s) · %s", len(records), cfg.DeploymentsPath())))
		return nil
	},
}

func deploymentsTable(records []*contract.Record) string {
	t := ui.NewTable([]ui.Column{
		{Title: "Contract", Width: 22},
		{Title: "Network", Width: 14},
		{Title: "Address", Width: 42},
		{Title: "Verify", Width: 10},
		{Title: "Deployed", Width: 20},
	})
	for _, r := range records {
		t.AddRow(ui.Row{r.Name, r.Network, r.Address, verifyLabel(r.Verify), r.DeployedAt})
	}
	return t.Render()
}

func init() {
	deploymentsCmd.Flags().BoolVar(&deploymentsAll, "all", false, "list deployments on every network")
}
