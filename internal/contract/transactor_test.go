package contract_test

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/test/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name, abiJSON, code string) *contract.Artifact {
	t.Helper()
	a, err := contract.LoadArtifact(fixtures.WriteArtifact(t, t.TempDir(), name, abiJSON, code))
	require.NoError(t, err)
	return a
}

func TestTransactorDeployAndCall(t *testing.T) {
	sim := fixtures.NewSimChain(t)
	ctx := context.Background()
	tx := sim.Transactor(t, 0)

	art := loadFixture(t, "Answer", fixtures.AnswerABI, fixtures.AnswerCode)
	addr, receipt, err := tx.Deploy(ctx, art)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.NotEqual(t, common.Address{}, addr)

	bound := contract.BindArtifact(art, addr, sim.Client)
	got, err := bound.CallBig(ctx, tx.From(), "answer")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Int64())

	_, err = bound.Transact(ctx, tx, "poke", tx.From(), true)
	require.NoError(t, err)
}

func TestTransactorChainID(t *testing.T) {
	sim := fixtures.NewSimChain(t)
	tx := sim.Transactor(t, 1)
	assert.Equal(t, int64(1337), tx.ChainID().Int64())
	assert.Equal(t, sim.Signers[1].Address(), tx.From())
}

func TestTransactorRevertReason(t *testing.T) {
	sim := fixtures.NewSimChain(t)
	ctx := context.Background()
	tx := sim.Transactor(t, 0)

	art := loadFixture(t, "Reverter", fixtures.AnswerABI, fixtures.RevertCode)
	addr, _, err := tx.Deploy(ctx, art)
	require.NoError(t, err)

	bound := contract.BindArtifact(art, addr, sim.Client)
	_, err = bound.Transact(ctx, tx, "poke", tx.From(), false)
	require.Error(t, err)

	var re *contract.RevertError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "nope", re.Reason)
	assert.Equal(t, "Reverter.poke", re.Method)

	_, err = bound.Call(ctx, tx.From(), "answer")
	assert.Equal(t, "nope", contract.RevertReason(err))
}

func TestTokenHelpersAgainstAnswerContract(t *testing.T) {
	sim := fixtures.NewSimChain(t)
	ctx := context.Background()
	tx := sim.Transactor(t, 0)

	art := loadFixture(t, "Answer", fixtures.AnswerABI, fixtures.AnswerCode)
	addr, _, err := tx.Deploy(ctx, art)
	require.NoError(t, err)

	// The answer contract returns 42 for every selector, which decodes as a
	// uint256 balance and a true bool.
	tok := contract.NewToken("OBURN", addr, sim.Client)
	bal, err := tok.BalanceOf(ctx, tx.From())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), bal)

	supply, err := tok.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), supply)

	_, err = tok.Transfer(ctx, tx, sim.Signers[1].Address(), big.NewInt(1))
	require.NoError(t, err)
	_, err = tok.Approve(ctx, tx, sim.Signers[1].Address(), big.NewInt(1))
	require.NoError(t, err)
}

func TestDeployMissingArtifactDir(t *testing.T) {
	_, err := contract.NewArtifactStore(filepath.Join(t.TempDir(), "build")).Load("GenericToken")
	assert.ErrorIs(t, err, contract.ErrArtifactNotFound)
}
