package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/onlyburns/oburnctl/internal/config"
	"github.com/onlyburns/oburnctl/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"list"},
	Short:   "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		shown.ExplorerKeys = maskKeys(cfg.ExplorerKeys)
		data, err := json.MarshalIndent(&shown, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Println(string(data))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		fmt.Println(ui.Meta(fmt.Sprintf("Active network: %s (%s addresses)", activeNetwork(), modeLabel(production()))))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value...>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and save it.

Keys:
  default-network <name>
  default-wallet  <name>
  production      <true|false>
  artifacts-dir   <path>
  data-dir        <path>
  confirm-timeout <seconds>
  rpc             <network> <url>        add a custom RPC, tried first
  rpc-remove      <network> <url>
  explorer-key    <network> <api-key>`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadStoredConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, args[0], args[1:]); err != nil {
			return err
		}
		if err := c.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s updated", args[0])))
		return nil
	},
}

// loadStoredConfig re-reads the config file without env overrides, so that
// saving does not persist values that came from the environment.
func loadStoredConfig() (*config.Config, error) {
	return config.Load(cfg.Dir())
}

func setConfigValue(c *config.Config, key string, vals []string) error {
	want := func(n int) error {
		if len(vals) != n {
			return fmt.Errorf("%s takes %d value(s), got %d", key, n, len(vals))
		}
		return nil
	}
	switch key {
	case "default-network", "default-wallet", "artifacts-dir", "data-dir":
		if err := want(1); err != nil {
			return err
		}
		switch key {
		case "default-network":
			c.DefaultNetwork = vals[0]
		case "default-wallet":
			c.DefaultWallet = vals[0]
		case "artifacts-dir":
			c.ArtifactsDir = vals[0]
		case "data-dir":
			c.DataDir = vals[0]
		}
	case "production":
		if err := want(1); err != nil {
			return err
		}
		b, err := strconv.ParseBool(vals[0])
		if err != nil {
			return fmt.Errorf("production: %w", err)
		}
		c.Production = b
	case "confirm-timeout":
		if err := want(1); err != nil {
			return err
		}
		n, err := strconv.Atoi(vals[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("confirm-timeout: expected a positive number of seconds, got %q", vals[0])
		}
		c.ConfirmTimeout = n
	case "rpc":
		if err := want(2); err != nil {
			return err
		}
		return c.AddRPC(vals[0], vals[1])
	case "rpc-remove":
		if err := want(2); err != nil {
			return err
		}
		return c.RemoveRPC(vals[0], vals[1])
	case "explorer-key":
		if err := want(2); err != nil {
			return err
		}
		c.ExplorerKeys[vals[0]] = vals[1]
	default:
		return fmt.Errorf("unknown config key %q (see `oburnctl config set --help`)", key)
	}
	return nil
}

func maskKeys(keys map[string]string) map[string]string {
	out := make(map[string]string, len(keys))
	for n, k := range keys {
		if len(k) > 4 {
			k = strings.Repeat("*", len(k)-4) + k[len(k)-4:]
		}
		out[n] = k
	}
	return out
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
}
