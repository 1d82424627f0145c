package contract

import (
	"errors"
	"fmt"
	"sort"

	"github.com/onlyburns/oburnctl/internal/config"
)

// ErrNotFound is returned when a deployment is not in the registry.
var ErrNotFound = errors.New("deployment not found")

// Verification states recorded per deployment.
const (
	VerifySkipped   = "skipped"
	VerifySubmitted = "submitted"
	VerifyFailed    = "failed"
	VerifyVerified  = "verified"
)

// Record is one deployed contract.
type Record struct {
	Name        string   `json:"name"`
	Network     string   `json:"network"`
	Address     string   `json:"address"`
	TxHash      string   `json:"tx_hash"`
	Deployer    string   `json:"deployer"`
	DeployedAt  string   `json:"deployed_at"`
	Constructor []string `json:"constructor_args,omitempty"`
	Verify      string   `json:"verify,omitempty"`
	VerifyGUID  string   `json:"verify_guid,omitempty"`
}

// Registry stores deployment records in a JSON file.
type Registry struct {
	path    string
	records map[string]*Record // key: "name@network"
}

// NewRegistry creates a Registry backed by a JSON file.
func NewRegistry(path string) *Registry {
	return &Registry{path: path, records: make(map[string]*Record)}
}

// Load reads stored records from disk.
func (r *Registry) Load() error {
	entries, err := config.LoadJSON[[]Record](r.path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", r.path, err)
	}
	for i := range *entries {
		e := &(*entries)[i]
		r.records[key(e.Name, e.Network)] = e
	}
	return nil
}

// Save writes all records to disk, sorted.
func (r *Registry) Save() error {
	all := r.All()
	entries := make([]Record, 0, len(all))
	for _, e := range all {
		entries = append(entries, *e)
	}
	return config.SaveJSON(r.path, entries)
}

// Add adds or replaces a record. The latest deployment of a name on a
// network wins.
func (r *Registry) Add(e *Record) {
	r.records[key(e.Name, e.Network)] = e
}

// Get returns a record by name and network.
func (r *Registry) Get(name, network string) (*Record, error) {
	e, ok := r.records[key(name, network)]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrNotFound, name, network)
	}
	return e, nil
}

// ByNetwork returns all records for network.
func (r *Registry) ByNetwork(network string) []*Record {
	var out []*Record
	for _, e := range r.All() {
		if e.Network == network {
			out = append(out, e)
		}
	}
	return out
}

// All returns all records sorted by network, then name.
func (r *Registry) All() []*Record {
	out := make([]*Record, 0, len(r.records))
	for _, e := range r.records {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Network != out[j].Network {
			return out[i].Network < out[j].Network
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Remove deletes a record.
func (r *Registry) Remove(name, network string) error {
	k := key(name, network)
	if _, ok := r.records[k]; !ok {
		return fmt.Errorf("%w: %s on %s", ErrNotFound, name, network)
	}
	delete(r.records, k)
	return nil
}

func key(name, network string) string {
	return name + "@" + network
}
