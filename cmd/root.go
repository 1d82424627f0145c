package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/onlyburns/oburnctl/internal/config"
	"github.com/onlyburns/oburnctl/internal/ui"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/onlyburns/oburnctl/cmd.Version=1.2.3" .
var Version = "0.3.0"

var (
	cfgDir      string
	cfg         *config.Config
	verbose     bool
	networkFlag string
	prodFlag    bool
	testFlag    bool
	assumeYes   bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "oburnctl",
	Short: "Deploy and test the OnlyBurns contracts",
	Long: `oburnctl deploys the OnlyBurns contract set (presale, exchange, token,
BurnSwap), replays holder snapshots onto the new token, and runs the
acceptance suites against a development chain.

Addresses come from built-in production and test books. --prod and --test
override the configured mode for a single invocation; any role can be
overridden on the command line.`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		config.LoadDotEnv()
		setupLogging(verbose)

		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg.ApplyEnv()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(ui.Banner(Version))
		return cmd.Help()
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context; a transaction already broadcast is not recalled.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		stop()
		os.Exit(1)
	}
}

func init() {
	if envDir := os.Getenv(config.EnvConfigDir); envDir != "" {
		cfgDir = envDir
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.oburnctl)")
	pf.StringVarP(&networkFlag, "network", "n", "", "target network (default: configured default_network)")
	pf.BoolVar(&prodFlag, "prod", false, "use production addresses")
	pf.BoolVar(&testFlag, "test", false, "use test addresses")
	pf.BoolVarP(&assumeYes, "yes", "y", false, "skip confirmation prompts")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.MarkFlagsMutuallyExclusive("prod", "test")

	rootCmd.AddCommand(
		deployCmd,
		migrateCmd,
		verifyCmd,
		acceptCmd,
		deploymentsCmd,
		networkCmd,
		walletCmd,
		configCmd,
	)
}

// setupLogging installs the terminal handler on stderr.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	color := isatty.IsTerminal(os.Stderr.Fd())
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, color)))
}

// activeNetwork returns the network selected by flag, env or config.
func activeNetwork() string {
	if networkFlag != "" {
		return networkFlag
	}
	return cfg.DefaultNetwork
}

// production reports whether production addresses are in effect.
func production() bool {
	switch {
	case prodFlag:
		return true
	case testFlag:
		return false
	}
	return cfg.Production
}

// modeLabel names the address mode for display.
func modeLabel(prod bool) string {
	if prod {
		return "production"
	}
	return "test"
}

// stdoutIsTerminal reports whether live TUI views can be used.
func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}
