package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/onlyburns/oburnctl/internal/addrbook"
	"github.com/onlyburns/oburnctl/internal/chain"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/deploy"
	"github.com/onlyburns/oburnctl/internal/ui"
	"github.com/spf13/cobra"
)

var (
	deployRoleFlags = map[addrbook.Role]*string{}
	deploySet       []string
	deployWithMocks bool
)

var allRoles = []addrbook.Role{
	addrbook.TBURN, addrbook.OBURN, addrbook.USDC,
	addrbook.PresaleWallet, addrbook.ServiceWallet,
	addrbook.Router, addrbook.Pair, addrbook.BurnSwap,
}

var deployCmd = &cobra.Command{
	Use:   "deploy <plan>",
	Short: "Deploy a contract plan",
	Long: `Deploy one of the OnlyBurns plans and record it in the deployment registry.

Plans:
  presale-exchange   OburnTokenPresale(presaleWallet, oburn, usdc), then OburnExchange(tburn, oburn)
  token              OnlyBurns(router, serviceWallet, usdc)
  burnswap           BurnSwap(router, pair, oburn, usdc)
  mocks              three GenericTokens, MockUniswapV2Factory, MockUniswapV2Router02

Addresses resolve as: --<role> flag > production constant (--prod) > test constant.
On development networks the deployer is the presale wallet unless --presale-wallet is set.
On explorer-backed networks each contract is submitted for source verification.

Examples:
  oburnctl deploy mocks
  oburnctl deploy presale-exchange --with-mocks
  oburnctl deploy token --network polygon-test --usdc 0x...
  oburnctl deploy burnswap --prod --network polygon-main --pair 0x...`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: planNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, ok := deploy.Plans[args[0]]
		if !ok {
			return fmt.Errorf("unknown plan %q (one of: %s)", args[0], strings.Join(planNames(), ", "))
		}
		overrides, err := collectOverrides(cmd.Flags().Changed, deploySet)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		d, err := s.deployer()
		if err != nil {
			return err
		}

		if deployWithMocks && plan.Name != "mocks" {
			if !s.network.Dev {
				return fmt.Errorf("--with-mocks needs a development network, %s is not one", s.network.Name)
			}
			m, err := deploy.Mocks(ctx, d)
			printDeployments(s.network, m.All())
			if err != nil {
				return err
			}
			for r, a := range m.Addresses() {
				if overrides[r] == "" {
					overrides[r] = a.Hex()
				}
			}
		}

		prod := production()
		devPresaleWallet(plan, s.network, prod, overrides, s.tx.From())
		addrs, err := plan.Book.Resolve(prod, overrides, plan.Roles...)
		if err != nil {
			return err
		}

		fmt.Println(planSummary(plan, s, addrs, prod))
		if !confirmBroadcast(s.network, "Deploy "+plan.Name) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		deps, err := plan.Run(ctx, d, addrs)
		printDeployments(s.network, deps)
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%d contract(s) deployed on %s", len(deps), s.network.Name)))
		fmt.Println(ui.Hint("List them with: oburnctl deployments"))
		return nil
	},
}

func planNames() []string {
	names := make([]string, 0, len(deploy.Plans))
	for n := range deploy.Plans {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// devPresaleWallet lets the deployer collect presale funds on development
// networks when no presale wallet is given. Elsewhere the role stays
// unresolved and the plan is refused.
func devPresaleWallet(plan deploy.Plan, n chain.Network, prod bool, overrides map[addrbook.Role]string, from common.Address) {
	if !n.Dev || !containsRole(plan.Roles, addrbook.PresaleWallet) {
		return
	}
	if plan.Book.Lookup(prod, overrides, addrbook.PresaleWallet) == "" {
		overrides[addrbook.PresaleWallet] = from.Hex()
	}
}

func containsRole(roles []addrbook.Role, r addrbook.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

// collectOverrides merges --set role=addr pairs with the per-role flags.
// Per-role flags win.
func collectOverrides(changed func(string) bool, set []string) (map[addrbook.Role]string, error) {
	overrides, err := addrbook.ParseOverrides(set)
	if err != nil {
		return nil, err
	}
	var unknown []string
	for r := range overrides {
		if !containsRole(allRoles, r) {
			unknown = append(unknown, string(r))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown role(s): %s", strings.Join(unknown, ", "))
	}
	for r, v := range deployRoleFlags {
		if changed(string(r)) {
			overrides[r] = *v
		}
	}
	return overrides, nil
}

func planSummary(plan deploy.Plan, s *session, addrs addrbook.Addresses, prod bool) string {
	pairs := [][2]string{
		{"Network", fmt.Sprintf("%s (chain %d)", s.network.Name, s.network.ChainID)},
		{"Addresses", modeLabel(prod)},
		{"Deployer", s.tx.From().Hex()},
	}
	for _, r := range plan.Roles {
		pairs = append(pairs, [2]string{string(r), addrs.Get(r).Hex()})
	}
	block := ui.KeyValueBlock("Deploy "+plan.Name, pairs)
	if prod && !s.network.Dev {
		return ui.DangerBox(block)
	}
	return block
}

func printDeployments(n chain.Network, deps []*deploy.Deployment) {
	if len(deps) == 0 {
		return
	}
	t := ui.NewTable([]ui.Column{
		{Title: "Contract", Width: 22},
		{Title: "Address", Width: 42},
		{Title: "Block", Width: 9},
		{Title: "Gas", Width: 9},
		{Title: "Verify", Width: 10},
	})
	for _, d := range deps {
		t.AddRow(ui.Row{
			d.Name,
			d.Address.Hex(),
			fmt.Sprint(d.Block),
			fmt.Sprint(d.GasUsed),
			verifyLabel(d.Verify),
		})
	}
	fmt.Println(t.Render())
	if n.Explorer != "" {
		for _, d := range deps {
			fmt.Println(ui.Meta(fmt.Sprintf("%s/address/%s", n.Explorer, d.Address.Hex())))
		}
	}
}

func verifyLabel(status string) string {
	switch status {
	case contract.VerifyVerified:
		return ui.StyleSuccess.Render(status)
	case contract.VerifyFailed:
		return ui.StyleError.Render(status)
	case contract.VerifySubmitted:
		return ui.StyleInfo.Render(status)
	}
	return ui.StyleMeta.Render(status)
}

func init() {
	f := deployCmd.Flags()
	for _, r := range allRoles {
		deployRoleFlags[r] = f.String(string(r), "", fmt.Sprintf("override the %s address", r))
	}
	f.StringArrayVar(&deploySet, "set", nil, "override a role as role=address (repeatable)")
	f.BoolVar(&deployWithMocks, "with-mocks", false, "deploy mocks first and use them for unset roles (dev networks only)")
}
