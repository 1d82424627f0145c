package cmd

import (
	"fmt"

	"github.com/onlyburns/oburnctl/internal/chain"
	"github.com/onlyburns/oburnctl/internal/ui"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the supported networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry()
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 14},
			{Title: "Display", Width: 24},
			{Title: "Chain ID", Width: 10},
			{Title: "Native", Width: 7},
			{Title: "Verify", Width: 6},
			{Title: "RPCs", Width: 5},
		})
		for _, n := range reg.All() {
			name := n.Name
			if name == activeNetwork() {
				name += " *"
			}
			verify := ""
			if chain.ShouldVerify(n.Name) {
				verify = "yes"
			}
			rpcs := len(n.RPCs) + len(cfg.RPCFor(n.Name))
			t.AddRow(ui.Row{name, n.DisplayName, fmt.Sprint(n.ChainID), n.Native, verify, fmt.Sprint(rpcs)})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d networks · * active (%s addresses)", len(reg.All()), modeLabel(production()))))
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use <network>",
	Short: "Set the default network",
	Long: `Set the default network and persist it to config.

With --prod or --test the address mode is persisted too.

Examples:
  oburnctl network use anvil
  oburnctl network use polygon-main --prod`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := chain.NewRegistry().Get(args[0]); err != nil {
			return fmt.Errorf("%w\n  run `oburnctl network list` to see all networks", err)
		}
		c, err := loadStoredConfig()
		if err != nil {
			return err
		}
		c.DefaultNetwork = args[0]
		if prodFlag || testFlag {
			c.Production = prodFlag
		}
		if err := c.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default network set to %s (%s addresses)", ui.ChainName(args[0]), modeLabel(c.Production))))
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkUseCmd)
}
