package explorer_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/explorer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var addr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

func request() explorer.Request {
	return explorer.Request{
		Address:      addr,
		ContractName: "BurnSwap",
		Source:       "pragma solidity ^0.8.17; contract BurnSwap {}",
		Compiler: contract.Compiler{
			Version:          "0.8.17+commit.8df45f5f",
			OptimizerEnabled: true,
			OptimizerRuns:    200,
			EVMVersion:       "london",
		},
		ConstructorArgs: common.FromHex("0x000000000000000000000000000000000000000000000000000000000000002a"),
	}
}

func explorerMock(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// ---------------------------------------------------------------------------
// Submit
// ---------------------------------------------------------------------------

func TestSubmitPostsVerifyForm(t *testing.T) {
	srv := explorerMock(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "KEY", r.PostForm.Get("apikey"))
		assert.Equal(t, "contract", r.PostForm.Get("module"))
		assert.Equal(t, "verifysourcecode", r.PostForm.Get("action"))
		assert.Equal(t, addr.Hex(), r.PostForm.Get("contractaddress"))
		assert.Equal(t, "BurnSwap", r.PostForm.Get("contractname"))
		assert.Equal(t, "solidity-single-file", r.PostForm.Get("codeformat"))
		assert.Equal(t, "v0.8.17+commit.8df45f5f", r.PostForm.Get("compilerversion"))
		assert.Equal(t, "1", r.PostForm.Get("optimizationUsed"))
		assert.Equal(t, "200", r.PostForm.Get("runs"))
		assert.Equal(t, "london", r.PostForm.Get("evmversion"))
		assert.Equal(t, "000000000000000000000000000000000000000000000000000000000000002a", r.PostForm.Get("constructorArguements"))
		w.Write([]byte(`{"status":"1","message":"OK","result":"guid-123"}`)) //nolint:errcheck
	})

	guid, err := explorer.NewVerifier(srv.URL, "KEY").Submit(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "guid-123", guid)
}

func TestSubmitExplorerError(t *testing.T) {
	srv := explorerMock(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Invalid API Key"}`)) //nolint:errcheck
	})
	_, err := explorer.NewVerifier(srv.URL, "KEY").Submit(context.Background(), request())
	assert.ErrorContains(t, err, "Invalid API Key")
}

func TestSubmitHTTPError(t *testing.T) {
	srv := explorerMock(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := explorer.NewVerifier(srv.URL, "KEY").Submit(context.Background(), request())
	assert.ErrorContains(t, err, "HTTP 502")
}

func TestSubmitPreconditions(t *testing.T) {
	var calls atomic.Int32
	srv := explorerMock(t, func(http.ResponseWriter, *http.Request) { calls.Add(1) })

	_, err := explorer.NewVerifier(srv.URL, "").Submit(context.Background(), request())
	assert.ErrorIs(t, err, explorer.ErrNoAPIKey)

	noSource := request()
	noSource.Source = ""
	_, err = explorer.NewVerifier(srv.URL, "KEY").Submit(context.Background(), noSource)
	assert.ErrorContains(t, err, "no source")

	assert.Zero(t, calls.Load())
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

func TestStatusOutcomes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
		fail bool
	}{
		{"verified", `{"status":"1","message":"OK","result":"Pass - Verified"}`, nil, false},
		{"pending", `{"status":"0","message":"NOTOK","result":"Pending in queue"}`, explorer.ErrPending, false},
		{"already", `{"status":"0","message":"NOTOK","result":"Already Verified"}`, nil, false},
		{"failed", `{"status":"0","message":"NOTOK","result":"Fail - Unable to verify"}`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := explorerMock(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "checkverifystatus", r.URL.Query().Get("action"))
				assert.Equal(t, "g1", r.URL.Query().Get("guid"))
				w.Write([]byte(tt.body)) //nolint:errcheck
			})
			err := explorer.NewVerifier(srv.URL, "KEY").Status(context.Background(), "g1")
			switch {
			case tt.fail:
				assert.ErrorContains(t, err, "Unable to verify")
			case tt.want != nil:
				assert.ErrorIs(t, err, tt.want)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestStatusAppendsToV2Root(t *testing.T) {
	srv := explorerMock(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "137", r.URL.Query().Get("chainid"))
		assert.Equal(t, "checkverifystatus", r.URL.Query().Get("action"))
		w.Write([]byte(`{"status":"1","message":"OK","result":"Pass - Verified"}`)) //nolint:errcheck
	})
	require.NoError(t, explorer.NewVerifier(srv.URL+"/v2/api?chainid=137", "KEY").Status(context.Background(), "g"))
}

func TestWaitVerifiedPollsUntilDone(t *testing.T) {
	var calls atomic.Int32
	srv := explorerMock(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Pending in queue"}`)) //nolint:errcheck
			return
		}
		w.Write([]byte(`{"status":"1","message":"OK","result":"Pass - Verified"}`)) //nolint:errcheck
	})
	err := explorer.NewVerifier(srv.URL, "KEY").WaitVerified(context.Background(), "g", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRequestFor(t *testing.T) {
	a := &contract.Artifact{Name: "OnlyBurns", Source: "src", Compiler: contract.Compiler{Version: "0.8.17"}}
	req := explorer.RequestFor(a, addr, []byte{1})
	assert.Equal(t, "OnlyBurns", req.ContractName)
	assert.Equal(t, "src", req.Source)
	assert.Equal(t, addr, req.Address)
}
