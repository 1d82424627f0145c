package config

// Config holds all oburnctl configuration.
type Config struct {
	DefaultNetwork string              `json:"default_network"`
	DefaultWallet  string              `json:"default_wallet"`
	Production     bool                `json:"production"` // selects production addresses in the address book
	ArtifactsDir   string              `json:"artifacts_dir"`
	DataDir        string              `json:"data_dir"`
	ConfirmTimeout int                 `json:"confirm_timeout_seconds"`
	CustomRPCs     map[string][]string `json:"custom_rpcs"`
	ExplorerKeys   map[string]string   `json:"explorer_keys"`

	// internal: config dir path used for Save()
	configDir string
}
