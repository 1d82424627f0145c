package fixtures

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// Hand-assembled creation code for tiny test contracts.
const (
	// AnswerCode deploys a contract that returns uint256(42) for any call.
	AnswerCode = "0x600a600c600039600a6000f3" + "602a60005260206000f3"

	// RevertCode deploys a contract that reverts every call with Error("nope").
	RevertCode = "0x6057600c60003960576000f3" +
		"7f08c379a000000000000000000000000000000000000000000000000000000000" +
		"600052" +
		"6020600452" +
		"6004602452" +
		"7f6e6f706500000000000000000000000000000000000000000000000000000000" +
		"604452" +
		"60646000fd"

	// FailingInitCode reverts inside the constructor.
	FailingInitCode = "0x60006000fd"

	// QuoteCode deploys a router stand-in that answers every call with the
	// uint256[] {1000, 990}.
	QuoteCode = "0x601b600c600039601b6000f3" +
		"6020600052" +
		"6002602052" +
		"6103e8604052" +
		"6103de606052" +
		"60806000f3"
)

// AnswerABI describes AnswerCode with an optional address constructor.
const AnswerABI = `[
  {"type":"function","name":"answer","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"function","name":"poke","inputs":[{"name":"who","type":"address"},{"name":"flag","type":"bool"}],"outputs":[],"stateMutability":"nonpayable"}
]`

// AnswerWithCtorABI is AnswerABI plus a constructor(address).
const AnswerWithCtorABI = `[
  {"type":"constructor","inputs":[{"name":"factory","type":"address"}],"stateMutability":"nonpayable"},
  {"type":"function","name":"answer","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}
]`

// AddressCtorABI returns AnswerABI with a constructor taking n addresses.
func AddressCtorABI(n int) string {
	inputs := make([]map[string]string, n)
	for i := range inputs {
		inputs[i] = map[string]string{"name": fmt.Sprintf("a%d", i), "type": "address"}
	}
	ctor, _ := json.Marshal(map[string]any{"type": "constructor", "inputs": inputs, "stateMutability": "nonpayable"})
	return "[" + string(ctor) + "," + AnswerABI[1:]
}

// scenarioMethods are the contract methods the acceptance suites call, as
// name, input types, and output types.
var scenarioMethods = []struct {
	name    string
	in, out []string
}{
	{"answer", nil, []string{"uint256"}},
	// OburnExchange
	{"OBURNExchange", []string{"uint256"}, nil},
	{"withdrawSpecifiedTBURN", []string{"uint256"}, nil},
	{"withdrawSpecifiedOBURN", []string{"uint256"}, nil},
	{"withdrawAllTBURN", nil, nil},
	{"withdrawAllOBURN", nil, nil},
	{"rescueFundsWithAmount", []string{"address", "uint256"}, nil},
	{"rescueFunds", []string{"address"}, nil},
	{"pauseExchange", nil, nil},
	{"unpauseExchange", nil, nil},
	{"_tburn", nil, []string{"address"}},
	{"_oburn", nil, []string{"address"}},
	// OnlyBurns
	{"enableTrading", nil, nil},
	{"blacklistOrUnblacklistUser", []string{"address", "bool"}, nil},
	{"transfer", []string{"address", "uint256"}, []string{"bool"}},
	{"enableOrDisableDEXTrading", []string{"bool"}, nil},
	// OburnTokenPresale
	{"token", nil, []string{"address"}},
	{"lockSaleParameters", nil, nil},
	{"setWhitelistSaleActive", []string{"bool"}, nil},
	{"setPublicSaleActive", []string{"bool"}, nil},
	{"addAddressToWhitelist", []string{"address"}, nil},
	{"buyTokens", []string{"address", "uint256"}, nil},
	{"endSale", nil, nil},
	{"singleAddressCheckOburnAmountPurchased", nil, []string{"uint256"}},
	{"singleAddressCheckOburnAmountAvailable", nil, []string{"uint256"}},
	{"getMaxOburnPerAddress", nil, []string{"uint256"}},
	{"usdcRaised", nil, []string{"uint256"}},
	{"getWhitelistSaleRate", nil, []string{"uint256"}},
	{"getPublicSaleRate", nil, []string{"uint256"}},
	{"setWhitelistSaleRate", []string{"uint256"}, nil},
	{"setPublicSaleRate", []string{"uint256"}, nil},
	{"setMaxOburnPerAddress", []string{"uint256"}, nil},
	{"setWhitelistSaleOburnCap", []string{"uint256"}, nil},
	{"setPublicSaleOburnCap", []string{"uint256"}, nil},
	// BurnSwap
	{"OBURNBurnt", nil, []string{"uint256"}},
	{"exemptAddressFromFees", []string{"address", "bool"}, nil},
	{"purchaseOBURN", []string{"uint256", "uint256", "uint256"}, nil},
	{"sellOBURN", []string{"uint256", "uint256", "uint256"}, nil},
	{"withdrawUSDC", nil, nil},
}

func abiParams(types []string) []map[string]string {
	params := make([]map[string]string, len(types))
	for i, typ := range types {
		params[i] = map[string]string{"name": fmt.Sprintf("a%d", i), "type": typ}
	}
	return params
}

// ScenarioABI declares a constructor taking n addresses and every method the
// acceptance suites call. Paired with AnswerCode, each call returns 42 and
// each transaction succeeds.
func ScenarioABI(n int) string {
	ctorIn := make([]string, n)
	for i := range ctorIn {
		ctorIn[i] = "address"
	}
	entries := []map[string]any{
		{"type": "constructor", "inputs": abiParams(ctorIn), "stateMutability": "nonpayable"},
	}
	for _, m := range scenarioMethods {
		entries = append(entries, map[string]any{
			"type":            "function",
			"name":            m.name,
			"inputs":          abiParams(m.in),
			"outputs":         abiParams(m.out),
			"stateMutability": "nonpayable",
		})
	}
	data, _ := json.Marshal(entries)
	return string(data)
}

// fixturesDir returns the absolute path to the fixtures directory.
func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// Path returns the absolute path of a checked-in fixture file.
func Path(elem ...string) string {
	return filepath.Join(append([]string{fixturesDir()}, elem...)...)
}

// WriteArtifact writes a Brownie-style build artifact into dir and returns its path.
func WriteArtifact(t *testing.T, dir, name, abiJSON, bytecode string) string {
	t.Helper()
	var abi json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(abiJSON), &abi))

	art := map[string]any{
		"contractName": name,
		"abi":          abi,
		"bytecode":     bytecode,
		"source":       "// SPDX-License-Identifier: MIT\npragma solidity ^0.8.0;\ncontract " + name + " {}\n",
		"sourcePath":   "contracts/" + name + ".sol",
		"compiler": map[string]any{
			"version":     "0.8.17+commit.8df45f5f",
			"evm_version": "london",
			"optimizer":   map[string]any{"enabled": true, "runs": 200},
		},
	}
	data, err := json.MarshalIndent(art, "", "  ")
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name+".json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// DeployArtifacts lists the deployable contracts with their constructor arity.
var DeployArtifacts = map[string]int{
	"OburnTokenPresale":     3,
	"OburnExchange":         2,
	"OnlyBurns":             3,
	"BurnSwap":              4,
	"GenericToken":          0,
	"MockUniswapV2Factory":  0,
	"MockUniswapV2Router02": 1,
}

// WriteDeployArtifacts writes an AnswerCode artifact for every deployable
// contract into dir. Names listed in failing get FailingInitCode instead.
func WriteDeployArtifacts(t *testing.T, dir string, failing ...string) {
	t.Helper()
	fail := map[string]bool{}
	for _, n := range failing {
		fail[n] = true
	}
	for name, arity := range DeployArtifacts {
		code := AnswerCode
		if fail[name] {
			code = FailingInitCode
		}
		WriteArtifact(t, dir, name, AddressCtorABI(arity), code)
	}
}

// WriteScenarioArtifacts writes AnswerCode artifacts carrying ScenarioABI for
// every deployable contract into dir.
func WriteScenarioArtifacts(t *testing.T, dir string) {
	t.Helper()
	for name, arity := range DeployArtifacts {
		WriteArtifact(t, dir, name, ScenarioABI(arity), AnswerCode)
	}
}
