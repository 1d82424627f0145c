package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultNetwork   = "development"
	defaultArtifacts = "build/contracts"
	defaultData      = "data"

	configFile      = "config.json"
	deploymentsFile = "deployments.json"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfigDir = "OBURNCTL_CONFIG_DIR"
	EnvNetwork   = "OBURNCTL_NETWORK"
	EnvRPCURL    = "OBURNCTL_RPC_URL"
)

// explorerKeyEnv maps a network family prefix to the env var holding its
// explorer API key.
var explorerKeyEnv = map[string]string{
	"polygon": "POLYGONSCAN_TOKEN",
	"bsc":     "BSCSCAN_TOKEN",
	"mainnet": "ETHERSCAN_TOKEN",
	"sepolia": "ETHERSCAN_TOKEN",
}

// LoadDotEnv loads .env and then .env.local from the working directory.
// Missing files are not an error.
func LoadDotEnv() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")
}

// Load reads config from dir (or creates defaults). dir defaults to ~/.oburnctl.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".oburnctl")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}
	if cfg.ExplorerKeys == nil {
		cfg.ExplorerKeys = make(map[string]string)
	}
	return cfg, nil
}

// ApplyEnv overlays environment overrides onto the loaded config.
func (c *Config) ApplyEnv() {
	if n := os.Getenv(EnvNetwork); n != "" {
		c.DefaultNetwork = n
	}
	if u := os.Getenv(EnvRPCURL); u != "" {
		net := c.DefaultNetwork
		c.CustomRPCs[net] = append([]string{u}, slices.DeleteFunc(slices.Clone(c.CustomRPCs[net]), func(s string) bool { return s == u })...)
	}
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.configDir, configFile), c)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// DeploymentsPath is the JSON ledger of deployed contracts.
func (c *Config) DeploymentsPath() string {
	return filepath.Join(c.configDir, deploymentsFile)
}

// ArtifactsPath returns the compiled contract artifacts directory.
func (c *Config) ArtifactsPath() string { return c.ArtifactsDir }

// DataPath returns the directory holding holder snapshots.
func (c *Config) DataPath() string { return c.DataDir }

// AddRPC adds a custom RPC URL for a network.
func (c *Config) AddRPC(network, url string) error {
	if slices.Contains(c.CustomRPCs[network], url) {
		return fmt.Errorf("RPC %s already exists for network %s", url, network)
	}
	c.CustomRPCs[network] = append(c.CustomRPCs[network], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a network.
func (c *Config) RemoveRPC(network, url string) error {
	rpcs := c.CustomRPCs[network]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for network %s", url, network)
	}
	c.CustomRPCs[network] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// RPCFor returns custom RPCs for a network, most preferred first.
func (c *Config) RPCFor(network string) []string {
	return c.CustomRPCs[network]
}

// ExplorerKey returns the explorer API key for a network. A key stored in
// config wins over the environment.
func (c *Config) ExplorerKey(network string) string {
	if k := c.ExplorerKeys[network]; k != "" {
		return k
	}
	for prefix, env := range explorerKeyEnv {
		if strings.HasPrefix(network, prefix) {
			return os.Getenv(env)
		}
	}
	return ""
}

// ConfirmWait returns how long to wait for a transaction receipt.
func (c *Config) ConfirmWait() time.Duration {
	if c.ConfirmTimeout <= 0 {
		return TxConfirmTimeout
	}
	return time.Duration(c.ConfirmTimeout) * time.Second
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		DefaultNetwork: defaultNetwork,
		ArtifactsDir:   defaultArtifacts,
		DataDir:        defaultData,
		ConfirmTimeout: DefaultConfirmSec,
		CustomRPCs:     make(map[string][]string),
		ExplorerKeys:   make(map[string]string),
		configDir:      dir,
	}
}

// LoadJSON reads a JSON file into a new T. A missing file yields the zero value.
func LoadJSON[T any](path string) (*T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &zero, nil
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SaveJSON writes v as indented JSON with owner-only permissions.
func SaveJSON(path string, v any) error { return saveJSON(path, v) }

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
