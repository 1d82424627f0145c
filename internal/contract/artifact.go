package contract

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ErrArtifactNotFound is returned when no artifact file matches a contract name.
var ErrArtifactNotFound = errors.New("artifact not found")

// Compiler records the compiler settings needed for source verification.
type Compiler struct {
	Version          string
	OptimizerEnabled bool
	OptimizerRuns    int
	EVMVersion       string
}

// Artifact is a compiled contract: ABI, creation bytecode and, when the build
// tool keeps them, the flattened source and compiler settings.
type Artifact struct {
	Name       string
	ABI        abi.ABI
	Bytecode   []byte
	Source     string
	SourcePath string
	Compiler   Compiler
}

// rawArtifact covers Brownie, Hardhat and Foundry build outputs.
type rawArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
	Source       string          `json:"source"`
	SourcePath   string          `json:"sourcePath"`
	SourceName   string          `json:"sourceName"`
	Compiler     *struct {
		Version    string `json:"version"`
		EVMVersion string `json:"evm_version"`
		Optimizer  struct {
			Enabled bool `json:"enabled"`
			Runs    int  `json:"runs"`
		} `json:"optimizer"`
	} `json:"compiler"`
}

// LoadArtifact reads and parses one artifact file. The contract name defaults
// to the file name without extension.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read artifact file: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	a, err := ParseArtifact(name, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// ParseArtifact parses artifact JSON. A deployable artifact needs both an
// "abi" array and non-empty creation bytecode.
func ParseArtifact(name string, data []byte) (*Artifact, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("artifact file is empty")
	}

	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid artifact JSON: %w", err)
	}
	if len(raw.ABI) < 2 || raw.ABI[0] != '[' {
		return nil, errors.New("artifact has no \"abi\" array")
	}
	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("parsing artifact ABI: %w", err)
	}

	bcHex, err := extractBytecodeHex(raw.Bytecode)
	if err != nil {
		return nil, err
	}
	bcHex = strings.TrimPrefix(bcHex, "0x")
	if bcHex == "" {
		return nil, errors.New("artifact bytecode is empty, cannot deploy an interface or abstract contract")
	}
	if strings.Contains(bcHex, "__") {
		return nil, errors.New("artifact bytecode has unlinked library placeholders")
	}
	code, err := hex.DecodeString(bcHex)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode hex in artifact: %w", err)
	}

	a := &Artifact{
		Name:       name,
		ABI:        parsed,
		Bytecode:   code,
		Source:     raw.Source,
		SourcePath: raw.SourcePath,
	}
	if raw.ContractName != "" {
		a.Name = raw.ContractName
	}
	if a.SourcePath == "" {
		a.SourcePath = raw.SourceName
	}
	if raw.Compiler != nil {
		a.Compiler = Compiler{
			Version:          raw.Compiler.Version,
			OptimizerEnabled: raw.Compiler.Optimizer.Enabled,
			OptimizerRuns:    raw.Compiler.Optimizer.Runs,
			EVMVersion:       raw.Compiler.EVMVersion,
		}
	}
	return a, nil
}

// extractBytecodeHex handles the two common bytecode encodings:
//   - Brownie/Hardhat: "bytecode": "0x608060..." (string)
//   - Foundry:         "bytecode": {"object": "0x608060..."}
func extractBytecodeHex(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("artifact has no bytecode")
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str), nil
	}
	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Object != "" {
		return strings.TrimSpace(obj.Object), nil
	}
	return "", errors.New("bytecode field is neither a hex string nor a {\"object\":\"0x...\"} object")
}

// PackConstructor ABI-encodes constructor arguments.
func (a *Artifact) PackConstructor(args ...any) ([]byte, error) {
	packed, err := a.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s constructor: %w", a.Name, err)
	}
	return packed, nil
}

// DeployData returns creation bytecode followed by the encoded constructor args.
func (a *Artifact) DeployData(args ...any) ([]byte, error) {
	packed, err := a.PackConstructor(args...)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, len(a.Bytecode)+len(packed))
	data = append(data, a.Bytecode...)
	return append(data, packed...), nil
}

// ArtifactStore finds artifacts by contract name under a build directory.
type ArtifactStore struct {
	dir   string
	mu    sync.Mutex
	cache map[string]*Artifact
}

// NewArtifactStore returns a store rooted at dir.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir, cache: make(map[string]*Artifact)}
}

// Dir returns the root directory.
func (s *ArtifactStore) Dir() string { return s.dir }

// Load returns the artifact for name, searching the tree for <name>.json.
// Hardhat debug files (*.dbg.json) are ignored.
func (s *ArtifactStore) Load(name string) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.cache[name]; ok {
		return a, nil
	}

	want := name + ".json"
	var found string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == want {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("searching %s: %w", s.dir, err)
	}
	if found == "" {
		return nil, fmt.Errorf("%w: %s under %s", ErrArtifactNotFound, name, s.dir)
	}

	a, err := LoadArtifact(found)
	if err != nil {
		return nil, err
	}
	s.cache[name] = a
	return a, nil
}
