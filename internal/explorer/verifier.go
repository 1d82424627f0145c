// Package explorer submits contract source verification to
// Etherscan-compatible block explorer APIs.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/onlyburns/oburnctl/internal/config"
	"github.com/onlyburns/oburnctl/internal/contract"
)

var (
	// ErrNoAPIKey is returned when the explorer needs a key and none is set.
	ErrNoAPIKey = errors.New("explorer API key not set")
	// ErrPending is returned by Status while the explorer is still verifying.
	ErrPending = errors.New("verification pending")
)

// response is the Etherscan envelope. Result is a string for every call the
// verifier makes.
type response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// Request describes one contract to verify.
type Request struct {
	Address      common.Address
	ContractName string
	Source       string
	Compiler     contract.Compiler
	// ConstructorArgs is the ABI-encoded constructor input, without selector.
	ConstructorArgs []byte
}

// RequestFor builds a Request from a compiled artifact.
func RequestFor(a *contract.Artifact, addr common.Address, ctorArgs []byte) Request {
	return Request{
		Address:         addr,
		ContractName:    a.Name,
		Source:          a.Source,
		Compiler:        a.Compiler,
		ConstructorArgs: ctorArgs,
	}
}

// Verifier talks to one explorer API.
type Verifier struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewVerifier returns a Verifier for the API root apiURL.
func NewVerifier(apiURL, apiKey string) *Verifier {
	return &Verifier{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: config.VerifyTimeout},
	}
}

// Submit posts the source for verification and returns the explorer's GUID.
func (v *Verifier) Submit(ctx context.Context, req Request) (string, error) {
	if v.apiKey == "" {
		return "", ErrNoAPIKey
	}
	if req.Source == "" {
		return "", fmt.Errorf("%s: artifact carries no source", req.ContractName)
	}
	if req.Compiler.Version == "" {
		return "", fmt.Errorf("%s: artifact carries no compiler version", req.ContractName)
	}

	optimized := "0"
	if req.Compiler.OptimizerEnabled {
		optimized = "1"
	}
	form := url.Values{
		"apikey":                {v.apiKey},
		"module":                {"contract"},
		"action":                {"verifysourcecode"},
		"contractaddress":       {req.Address.Hex()},
		"sourceCode":            {req.Source},
		"codeformat":            {"solidity-single-file"},
		"contractname":          {req.ContractName},
		"compilerversion":       {compilerVersion(req.Compiler.Version)},
		"optimizationUsed":      {optimized},
		"runs":                  {strconv.Itoa(req.Compiler.OptimizerRuns)},
		"constructorArguements": {common.Bytes2Hex(req.ConstructorArgs)},
	}
	if req.Compiler.EVMVersion != "" {
		form.Set("evmversion", req.Compiler.EVMVersion)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.do(httpReq)
	if err != nil {
		return "", err
	}
	if resp.Status != "1" {
		return "", fmt.Errorf("explorer API: %s", errorText(resp))
	}
	return resp.Result, nil
}

// Status checks a submitted verification. It returns nil once verified and
// ErrPending while the explorer is still working.
func (v *Verifier) Status(ctx context.Context, guid string) error {
	q := url.Values{
		"apikey": {v.apiKey},
		"module": {"contract"},
		"action": {"checkverifystatus"},
		"guid":   {guid},
	}
	u := v.apiURL + sep(v.apiURL) + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := v.do(httpReq)
	if err != nil {
		return err
	}
	switch {
	case resp.Status == "1":
		return nil
	case strings.Contains(strings.ToLower(resp.Result), "pending"):
		return ErrPending
	case strings.Contains(strings.ToLower(resp.Result), "already verified"):
		return nil
	default:
		return fmt.Errorf("explorer API: %s", errorText(resp))
	}
}

// WaitVerified polls Status every interval until the verification settles.
func (v *Verifier) WaitVerified(ctx context.Context, guid string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		err := v.Status(ctx, guid)
		if !errors.Is(err, ErrPending) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (v *Verifier) do(req *http.Request) (*response, error) {
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer request failed: HTTP %d", resp.StatusCode)
	}
	var envelope response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("parsing explorer response: %w", err)
	}
	return &envelope, nil
}

func errorText(r *response) string {
	if r.Result != "" {
		return r.Result
	}
	return r.Message
}

// compilerVersion returns the explorer form of a solc version, e.g.
// "0.8.17+commit.8df45f5f" → "v0.8.17+commit.8df45f5f".
func compilerVersion(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// sep returns the separator for appending a query to apiURL. Etherscan V2
// roots already carry ?chainid=N.
func sep(apiURL string) string {
	if strings.Contains(apiURL, "?") {
		return "&"
	}
	return "?"
}
