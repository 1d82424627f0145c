package e2e_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "oburnctl-e2e-test")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "oburnctl")
	moduleRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		panic(err)
	}
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = moduleRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

// runCLI runs the binary in configDir with a clean environment, so no
// .env file or deployer key leaks into the test.
func runCLI(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = configDir
	cmd.Env = []string{
		"HOME=" + configDir,
		"PATH=" + os.Getenv("PATH"),
		"OBURNCTL_CONFIG_DIR=" + configDir,
	}
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestVersionFlag(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "oburnctl")
}

func TestBareInvocationShowsBanner(t *testing.T) {
	out, err := runCLI(t, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "OnlyBurns deploy & test tooling v")
	assert.Contains(t, out, "Available Commands")
}

func TestHelpCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--help")
	require.NoError(t, err)
	for _, sub := range []string{"deploy", "migrate", "verify", "accept", "deployments", "network", "wallet", "config"} {
		assert.Contains(t, out, sub)
	}
	assert.Contains(t, out, "--prod")
	assert.Contains(t, out, "--test")
}

func TestProdAndTestAreExclusive(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "--prod", "--test", "network", "list")
	assert.Error(t, err)
}

func TestNetworkList(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "network", "list")
	require.NoError(t, err)
	for _, n := range []string{"development", "anvil", "polygon-main", "polygon-test", "bsc-main"} {
		assert.Contains(t, out, n)
	}
}

func TestNetworkUsePersistsMode(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "--prod", "network", "use", "polygon-main")
	require.NoError(t, err)
	assert.Contains(t, out, "polygon-main")
	assert.Contains(t, out, "production")

	cfgOut, err := runCLI(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, cfgOut, `"default_network": "polygon-main"`)
	assert.Contains(t, cfgOut, `"production": true`)
}

func TestNetworkUseUnknown(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "network", "use", "unknownchain99")
	assert.Error(t, err)
}

func TestConfigSetAndShow(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "config", "set", "explorer-key", "polygon-test", "SECRETKEY1234")
	require.NoError(t, err)
	_, err = runCLI(t, dir, "config", "set", "artifacts-dir", "out")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"artifacts_dir": "out"`)
	assert.Contains(t, out, "1234")
	assert.NotContains(t, out, "SECRETKEY1234")
}

func TestConfigSetUnknownKey(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "config", "set", "colour", "blue")
	assert.Error(t, err)
}

func TestDeploymentsEmpty(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "deployments")
	require.NoError(t, err)
	assert.Contains(t, out, "No deployments")
}

func TestDeployRejectsUnknownPlan(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "deploy", "airdrop")
	assert.Error(t, err)
	assert.Contains(t, out, "unknown plan")
}

func TestDeployRejectsUnknownRole(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "deploy", "token", "--set", "treasury=0x01")
	assert.Error(t, err)
	assert.Contains(t, out, "unknown role")
}

func TestAcceptList(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "accept", "--list")
	require.NoError(t, err)
	for _, s := range []string{"exchange", "token", "presale", "burnswap"} {
		assert.Contains(t, out, s)
	}
}

func TestAcceptUnknownSuite(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "accept", "nosuchsuite")
	assert.Error(t, err)
	assert.Contains(t, out, "unknown suite")
}

func TestVerifyNeedsExplorer(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "verify", "OnlyBurns")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(out), "no explorer api")
}
