package chain_test

import (
	"testing"

	"github.com/onlyburns/oburnctl/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGet(t *testing.T) {
	registry := chain.NewRegistry()

	tests := []struct {
		name    string
		chainID int64
	}{
		{"development", 1337},
		{"anvil", 31337},
		{"mainnet", 1},
		{"polygon-main", 137},
		{"polygon-test", 80001},
		{"bsc-main", 56},
		{"bsc-test", 97},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := registry.Get(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.chainID, n.ChainID)
			assert.NotEmpty(t, n.RPCs)
		})
	}
}

func TestRegistryGetIsCaseInsensitive(t *testing.T) {
	n, err := chain.NewRegistry().Get("Polygon-Main")
	require.NoError(t, err)
	assert.Equal(t, "polygon-main", n.Name)
}

func TestRegistryGetUnknown(t *testing.T) {
	_, err := chain.NewRegistry().Get("fantom")
	assert.ErrorIs(t, err, chain.ErrNetworkNotFound)
}

func TestRegistryGetByChainID(t *testing.T) {
	n, err := chain.NewRegistry().GetByChainID(56)
	require.NoError(t, err)
	assert.Equal(t, "bsc-main", n.Name)

	_, err = chain.NewRegistry().GetByChainID(424242)
	assert.ErrorIs(t, err, chain.ErrNetworkNotFound)
}

func TestRegistryAllSorted(t *testing.T) {
	all := chain.NewRegistry().All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}
}

func TestDevNetworksHaveNoExplorer(t *testing.T) {
	for _, n := range chain.NewRegistry().All() {
		if n.Dev {
			assert.Empty(t, n.ExplorerAPI, n.Name)
			assert.False(t, chain.ShouldVerify(n.Name), n.Name)
		}
	}
}

func TestVerifyNetworksHaveExplorerAPI(t *testing.T) {
	registry := chain.NewRegistry()
	for _, name := range chain.VerifyNetworks {
		n, err := registry.Get(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, n.ExplorerAPI, name)
	}
}

func TestShouldVerify(t *testing.T) {
	assert.True(t, chain.ShouldVerify("polygon-main"))
	assert.True(t, chain.ShouldVerify("BSC-TEST"))
	assert.False(t, chain.ShouldVerify("development"))
	assert.False(t, chain.ShouldVerify(""))
}

func TestResolvePrependsCustomRPCs(t *testing.T) {
	n, err := chain.NewRegistry().Resolve("bsc-test", []string{"https://mine"})
	require.NoError(t, err)
	assert.Equal(t, "https://mine", n.RPCs[0])
	assert.Greater(t, len(n.RPCs), 1)

	orig, _ := chain.NewRegistry().Get("bsc-test")
	assert.NotEqual(t, "https://mine", orig.RPCs[0])
}
