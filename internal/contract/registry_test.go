package contract_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryEmpty(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "deployments.json"))
	require.NoError(t, reg.Load())
	assert.Empty(t, reg.All())
}

func TestRegistryAddAndGet(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "deployments.json"))
	reg.Add(&contract.Record{Name: "OnlyBurns", Network: "bsc-test", Address: "0xabc"})

	got, err := reg.Get("OnlyBurns", "bsc-test")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", got.Address)

	_, err = reg.Get("OnlyBurns", "bsc-main")
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestRegistryLatestDeploymentWins(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "deployments.json"))
	reg.Add(&contract.Record{Name: "BurnSwap", Network: "polygon-test", Address: "0x1"})
	reg.Add(&contract.Record{Name: "BurnSwap", Network: "polygon-test", Address: "0x2"})

	got, err := reg.Get("BurnSwap", "polygon-test")
	require.NoError(t, err)
	assert.Equal(t, "0x2", got.Address)
	assert.Len(t, reg.All(), 1)
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployments.json")
	reg := contract.NewRegistry(path)
	reg.Add(&contract.Record{Name: "OburnExchange", Network: "development", Address: "0x2", Verify: contract.VerifySkipped})
	reg.Add(&contract.Record{Name: "OburnTokenPresale", Network: "development", Address: "0x1"})
	require.NoError(t, reg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded := contract.NewRegistry(path)
	require.NoError(t, reloaded.Load())
	all := reloaded.All()
	require.Len(t, all, 2)
	assert.Equal(t, "OburnExchange", all[0].Name)
	assert.Equal(t, contract.VerifySkipped, all[0].Verify)
}

func TestRegistryByNetworkAndRemove(t *testing.T) {
	reg := contract.NewRegistry(filepath.Join(t.TempDir(), "deployments.json"))
	reg.Add(&contract.Record{Name: "A", Network: "n1"})
	reg.Add(&contract.Record{Name: "B", Network: "n2"})

	assert.Len(t, reg.ByNetwork("n1"), 1)
	require.NoError(t, reg.Remove("A", "n1"))
	assert.Empty(t, reg.ByNetwork("n1"))
	assert.ErrorIs(t, reg.Remove("A", "n1"), contract.ErrNotFound)
}

func TestRegistryLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployments.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	assert.Error(t, contract.NewRegistry(path).Load())
}
