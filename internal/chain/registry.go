package chain

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ErrNetworkNotFound is returned when a network is not in the registry.
var ErrNetworkNotFound = errors.New("network not found")

// Network holds the connection profile for one deployment target.
type Network struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	ChainID     int64    `json:"chain_id"`
	Native      string   `json:"native"`
	RPCs        []string `json:"rpcs"`
	Explorer    string   `json:"explorer,omitempty"`
	// Etherscan-compatible API root used for source verification.
	ExplorerAPI string `json:"explorer_api,omitempty"`
	// Dev marks local chains that expose funded, unlocked dev accounts.
	Dev bool `json:"dev,omitempty"`
}

// VerifyNetworks lists the networks where source verification is attempted
// after a deployment.
var VerifyNetworks = []string{
	"mainnet",
	"sepolia",
	"polygon-main",
	"polygon-test",
	"polygon-amoy",
	"bsc-main",
	"bsc-test",
}

// ShouldVerify reports whether network is on the verification allowlist.
func ShouldVerify(network string) bool {
	return slices.Contains(VerifyNetworks, strings.ToLower(network))
}

// Registry is the network registry.
type Registry struct {
	networks []Network
	byName   map[string]*Network
	byID     map[int64]*Network
}

// NewRegistry returns the registry of built-in networks.
func NewRegistry() *Registry {
	nets := allNetworks()
	r := &Registry{
		networks: nets,
		byName:   make(map[string]*Network, len(nets)),
		byID:     make(map[int64]*Network, len(nets)),
	}
	for i := range r.networks {
		n := &r.networks[i]
		r.byName[n.Name] = n
		if _, taken := r.byID[n.ChainID]; !taken {
			r.byID[n.ChainID] = n
		}
	}
	return r
}

// Get returns a network by name (case-insensitive).
func (r *Registry) Get(name string) (*Network, error) {
	n, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNetworkNotFound, name)
	}
	return n, nil
}

// GetByChainID returns the first network registered for chainID.
func (r *Registry) GetByChainID(id int64) (*Network, error) {
	n, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: chain id %d", ErrNetworkNotFound, id)
	}
	return n, nil
}

// All returns every network sorted by name.
func (r *Registry) All() []Network {
	out := slices.Clone(r.networks)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve returns a copy of the named network with custom RPCs placed ahead
// of the built-in ones.
func (r *Registry) Resolve(name string, custom []string) (Network, error) {
	n, err := r.Get(name)
	if err != nil {
		return Network{}, err
	}
	out := *n
	out.RPCs = append(slices.Clone(custom), n.RPCs...)
	if len(out.RPCs) == 0 {
		return Network{}, fmt.Errorf("no RPC endpoint configured for %s", name)
	}
	return out, nil
}

func allNetworks() []Network {
	return []Network{
		{
			Name: "development", DisplayName: "Local development chain", ChainID: 1337,
			Native: "ETH", RPCs: []string{"http://127.0.0.1:8545"}, Dev: true,
		},
		{
			Name: "anvil", DisplayName: "Anvil", ChainID: 31337,
			Native: "ETH", RPCs: []string{"http://127.0.0.1:8545"}, Dev: true,
		},
		{
			Name: "mainnet", DisplayName: "Ethereum", ChainID: 1, Native: "ETH",
			RPCs:        []string{"https://ethereum-rpc.publicnode.com", "https://eth.llamarpc.com"},
			Explorer:    "https://etherscan.io",
			ExplorerAPI: "https://api.etherscan.io",
		},
		{
			Name: "sepolia", DisplayName: "Ethereum Sepolia", ChainID: 11155111, Native: "ETH",
			RPCs:        []string{"https://ethereum-sepolia-rpc.publicnode.com"},
			Explorer:    "https://sepolia.etherscan.io",
			ExplorerAPI: "https://api-sepolia.etherscan.io",
		},
		{
			Name: "polygon-main", DisplayName: "Polygon", ChainID: 137, Native: "MATIC",
			RPCs:        []string{"https://polygon-rpc.com", "https://polygon-bor-rpc.publicnode.com"},
			Explorer:    "https://polygonscan.com",
			ExplorerAPI: "https://api.polygonscan.com",
		},
		{
			Name: "polygon-test", DisplayName: "Polygon Mumbai", ChainID: 80001, Native: "MATIC",
			RPCs:        []string{"https://rpc-mumbai.maticvigil.com"},
			Explorer:    "https://mumbai.polygonscan.com",
			ExplorerAPI: "https://api-testnet.polygonscan.com",
		},
		{
			Name: "polygon-amoy", DisplayName: "Polygon Amoy", ChainID: 80002, Native: "POL",
			RPCs:        []string{"https://rpc-amoy.polygon.technology"},
			Explorer:    "https://amoy.polygonscan.com",
			ExplorerAPI: "https://api-amoy.polygonscan.com",
		},
		{
			Name: "bsc-main", DisplayName: "BNB Smart Chain", ChainID: 56, Native: "BNB",
			RPCs:        []string{"https://bsc-dataseed.bnbchain.org", "https://bsc-rpc.publicnode.com"},
			Explorer:    "https://bscscan.com",
			ExplorerAPI: "https://api.bscscan.com",
		},
		{
			Name: "bsc-test", DisplayName: "BNB Smart Chain Testnet", ChainID: 97, Native: "tBNB",
			RPCs:        []string{"https://data-seed-prebsc-1-s1.bnbchain.org:8545"},
			Explorer:    "https://testnet.bscscan.com",
			ExplorerAPI: "https://api-testnet.bscscan.com",
		},
	}
}
