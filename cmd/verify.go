package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/onlyburns/oburnctl/internal/chain"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/explorer"
	"github.com/onlyburns/oburnctl/internal/ui"
	"github.com/spf13/cobra"
)

var (
	verifyWait  time.Duration
	verifyCheck bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify <contract>",
	Short: "Submit or check explorer verification for a recorded deployment",
	Long: `Re-submit source verification for a contract recorded in the deployment
registry on the active network, using the artifact's source, compiler
settings and the recorded constructor arguments.

The status is checked once after submission. Use --wait to keep polling,
or --check to only query the status of the last submission.

Examples:
  oburnctl verify OnlyBurns --network polygon-test
  oburnctl verify BurnSwap --network polygon-main --wait 2m
  oburnctl verify OburnExchange --check`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := resolveNetwork()
		if err != nil {
			return err
		}
		if n.ExplorerAPI == "" {
			return fmt.Errorf("%s has no explorer API", n.Name)
		}
		key := cfg.ExplorerKey(n.Name)
		if key == "" {
			return fmt.Errorf("%w for %s\n  set it with: oburnctl config set explorer-key %s <key>", explorer.ErrNoAPIKey, n.Name, n.Name)
		}

		reg := contract.NewRegistry(cfg.DeploymentsPath())
		if err := reg.Load(); err != nil {
			return err
		}
		rec, err := reg.Get(args[0], n.Name)
		if err != nil {
			return err
		}

		v := explorer.NewVerifier(n.ExplorerAPI, key)
		ctx := cmd.Context()
		if !verifyCheck {
			guid, err := submitVerification(ctx, v, rec)
			if err != nil {
				return recordFailure(reg, rec, err)
			}
			rec.Verify, rec.VerifyGUID = contract.VerifySubmitted, guid
			fmt.Println(ui.Success(fmt.Sprintf("Verification submitted for %s (guid %s)", rec.Name, guid)))
		}
		if rec.VerifyGUID == "" {
			return fmt.Errorf("%s on %s has no verification submission", rec.Name, n.Name)
		}

		rec.Verify = checkVerification(ctx, v, rec.VerifyGUID, verifyWait)
		reg.Add(rec)
		if err := reg.Save(); err != nil {
			return err
		}
		printVerifyStatus(n, rec)
		if rec.Verify == contract.VerifyFailed {
			return errors.New("verification failed")
		}
		return nil
	},
}

// recordFailure marks rec as failed in reg and returns err, together with
// any error saving the registry.
func recordFailure(reg *contract.Registry, rec *contract.Record, err error) error {
	rec.Verify = contract.VerifyFailed
	reg.Add(rec)
	return errors.Join(err, reg.Save())
}

func submitVerification(ctx context.Context, v *explorer.Verifier, rec *contract.Record) (string, error) {
	a, err := contract.NewArtifactStore(cfg.ArtifactsPath()).Load(rec.Name)
	if err != nil {
		return "", err
	}
	args, err := a.ParseConstructorArgs(rec.Constructor)
	if err != nil {
		return "", err
	}
	packed, err := a.PackConstructor(args...)
	if err != nil {
		return "", err
	}
	return v.Submit(ctx, explorer.RequestFor(a, common.HexToAddress(rec.Address), packed))
}

// checkVerification returns the registry status for guid. With wait > 0 it
// polls until the explorer decides or wait elapses.
func checkVerification(ctx context.Context, v *explorer.Verifier, guid string, wait time.Duration) string {
	var err error
	if wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		var sp *ui.Spinner
		if stdoutIsTerminal() {
			sp = ui.NewSpinner("Waiting for the explorer to verify " + guid)
			sp.Start()
		}
		err = v.WaitVerified(waitCtx, guid, 5*time.Second)
		if sp != nil {
			sp.Stop()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = explorer.ErrPending
		}
	} else {
		err = v.Status(ctx, guid)
	}
	switch {
	case err == nil:
		return contract.VerifyVerified
	case errors.Is(err, explorer.ErrPending):
		return contract.VerifySubmitted
	}
	fmt.Println(ui.Err(err.Error()))
	return contract.VerifyFailed
}

func printVerifyStatus(n chain.Network, rec *contract.Record) {
	pairs := [][2]string{
		{"Contract", rec.Name},
		{"Address", rec.Address},
		{"Status", rec.Verify},
		{"GUID", rec.VerifyGUID},
	}
	if n.Explorer != "" {
		pairs = append(pairs, [2]string{"Explorer", fmt.Sprintf("%s/address/%s#code", n.Explorer, rec.Address)})
	}
	fmt.Println(ui.KeyValueBlock("Verification", pairs))
	if rec.Verify == contract.VerifySubmitted {
		fmt.Println(ui.Hint(fmt.Sprintf("Still pending. Check again with: oburnctl verify %s --check --network %s", rec.Name, n.Name)))
	}
}

func init() {
	verifyCmd.Flags().DurationVar(&verifyWait, "wait", 0, "poll the status until verified or this long has passed")
	verifyCmd.Flags().BoolVar(&verifyCheck, "check", false, "only check the status of the recorded submission")
}
