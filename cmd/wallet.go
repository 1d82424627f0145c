package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/onlyburns/oburnctl/internal/ui"
	"github.com/onlyburns/oburnctl/internal/wallet"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var walletKeyFlag string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the deployer key",
	Long: `Store the deployer's private key in the OS keychain.

PRIVATE_KEY in the environment (or .env) always takes precedence over a
stored key. On development networks the first well-known dev account is
used when neither is set.`,
}

var walletImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import a private key into the OS keychain",
	Long: `Import a hex private key and make it the default wallet if none is set.

Without --key the key is read from stdin (hidden when stdin is a terminal).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		hexKey := walletKeyFlag
		if hexKey == "" {
			var err error
			if hexKey, err = readKey(); err != nil {
				return err
			}
		}
		signer, err := wallet.NewSignerFromHex(hexKey)
		if err != nil {
			return err
		}
		if _, err := wallet.DefaultKeystore().Store(name, hexKey); err != nil {
			return err
		}

		c, err := loadStoredConfig()
		if err != nil {
			return err
		}
		if c.DefaultWallet == "" {
			c.DefaultWallet = name
			if err := c.Save(); err != nil {
				return err
			}
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q imported: %s", name, ui.Addr(signer.Address().Hex()))))
		if c.DefaultWallet != name {
			fmt.Println(ui.Hint(fmt.Sprintf("Make it the default with: oburnctl config set default-wallet %s", name)))
		}
		return nil
	},
}

var walletAddressCmd = &cobra.Command{
	Use:   "address [name]",
	Short: "Show the address that will sign transactions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := cfg.DefaultWallet
		if len(args) == 1 {
			name = args[0]
		}
		source := "keychain wallet " + name
		if os.Getenv(wallet.EnvPrivateKey) != "" {
			source = wallet.EnvPrivateKey + " environment variable"
		}
		signer, err := wallet.ResolveSigner(wallet.DefaultKeystore(), name)
		if err != nil {
			return err
		}
		fmt.Println(ui.Addr(signer.Address().Hex()))
		fmt.Println(ui.Meta("from " + source))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !assumeYes && !ui.ConfirmDanger(fmt.Sprintf("Delete the key for wallet %q from the keychain?", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		if err := wallet.DefaultKeystore().Delete(wallet.Ref(name)); err != nil {
			return err
		}
		c, err := loadStoredConfig()
		if err != nil {
			return err
		}
		if c.DefaultWallet == name {
			c.DefaultWallet = ""
			if err := c.Save(); err != nil {
				return err
			}
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

// readKey reads one key line from stdin, without echo on a terminal.
func readKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Private key: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading key from stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func init() {
	walletImportCmd.Flags().StringVar(&walletKeyFlag, "key", "", "hex private key (visible in shell history; prefer stdin)")
	walletCmd.AddCommand(walletImportCmd, walletAddressCmd, walletRemoveCmd)
}
