package migrate_test

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/onlyburns/oburnctl/internal/contract"
	"github.com/onlyburns/oburnctl/internal/migrate"
	"github.com/onlyburns/oburnctl/test/fixtures"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	to     common.Address
	amount *big.Int
}

type fakeToken struct {
	sent   []sent
	failAt int
}

func (f *fakeToken) Transfer(_ context.Context, to common.Address, amount *big.Int) (*types.Receipt, error) {
	if f.failAt > 0 && len(f.sent)+1 == f.failAt {
		return nil, errors.New("insufficient balance")
	}
	f.sent = append(f.sent, sent{to, amount})
	return &types.Receipt{TxHash: common.BigToHash(big.NewInt(int64(len(f.sent))))}, nil
}

type fakeNative struct{ calls int }

func (f *fakeNative) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	f.calls++
	return big.NewInt(int64(100 - f.calls)), nil
}

func writeSnapshots(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"TBURN": "HolderAddress,Balance\n" + holderA + ",1\n" + holderB + ",2.5\n",
		"OBURN": "HolderAddress,Balance\n" + holderB + ",10\n",
	}
	for sym, body := range files {
		require.NoError(t, os.WriteFile(migrate.SnapshotPath(dir, sym), []byte(body), 0o644))
	}
	return dir
}

// ---------------------------------------------------------------------------
// Replayer
// ---------------------------------------------------------------------------

func TestReplayTransferInOrder(t *testing.T) {
	dir := writeSnapshots(t)
	tok := &fakeToken{}
	var progress []migrate.Progress

	r := migrate.NewReplayer(tok, &fakeNative{}, common.HexToAddress(holderA), dir,
		migrate.WithProgress(func(p migrate.Progress) { progress = append(progress, p) }))
	rep, err := r.Run(context.Background(), migrate.ModeTransfer)
	require.NoError(t, err)

	require.Len(t, tok.sent, 3)
	assert.Equal(t, common.HexToAddress(holderA), tok.sent[0].to)
	assert.Equal(t, ether("1000000000000000000"), tok.sent[0].amount)
	assert.Equal(t, ether("2500000000000000000"), tok.sent[1].amount)
	assert.Equal(t, ether("10000000000000000000"), tok.sent[2].amount)

	assert.Equal(t, 3, rep.Sent)
	assert.Equal(t, big.NewInt(99), rep.NativeBefore)
	assert.Equal(t, big.NewInt(98), rep.NativeAfter)
	assert.True(t, decimal.RequireFromString("13.5").Equal(rep.Total))

	require.Len(t, progress, 3)
	assert.Equal(t, "TBURN", progress[0].Symbol)
	assert.Equal(t, 2, progress[1].Total)
	assert.Equal(t, "OBURN", progress[2].Symbol)
	assert.NotEqual(t, common.Hash{}, progress[2].TxHash)
}

func TestReplayReportSendsNothing(t *testing.T) {
	dir := writeSnapshots(t)
	tok := &fakeToken{}

	rep, err := migrate.NewReplayer(tok, &fakeNative{}, common.Address{}, dir).Run(context.Background(), migrate.ModeReport)
	require.NoError(t, err)
	assert.Empty(t, tok.sent)
	assert.Zero(t, rep.Sent)
	require.Len(t, rep.Tokens, 2)
	assert.Equal(t, "TBURN", rep.Tokens[0].Symbol)
	assert.Equal(t, 2, rep.Tokens[0].Holders)
	assert.True(t, decimal.RequireFromString("3.5").Equal(rep.Tokens[0].Sum))
	assert.True(t, decimal.RequireFromString("13.5").Equal(rep.Total))
	assert.Equal(t, "report", rep.Mode.String())
}

func TestReplayValidatesEverythingBeforeSending(t *testing.T) {
	dir := writeSnapshots(t)
	require.NoError(t, os.WriteFile(migrate.SnapshotPath(dir, "OBURN"), []byte(holderA+"\n"), 0o644))
	tok := &fakeToken{}

	_, err := migrate.NewReplayer(tok, &fakeNative{}, common.Address{}, dir).Run(context.Background(), migrate.ModeTransfer)
	assert.ErrorIs(t, err, migrate.ErrLengthMismatch)
	assert.Empty(t, tok.sent, "no partial application")
}

func TestReplayStopsAtFirstFailedTransfer(t *testing.T) {
	dir := writeSnapshots(t)
	tok := &fakeToken{failAt: 2}

	rep, err := migrate.NewReplayer(tok, &fakeNative{}, common.Address{}, dir).Run(context.Background(), migrate.ModeTransfer)
	require.Error(t, err)
	assert.ErrorContains(t, err, "TBURN holder 2 (line 3")
	assert.Equal(t, 1, rep.Sent)
	assert.Len(t, tok.sent, 1)
}

func TestReplayMissingSnapshot(t *testing.T) {
	_, err := migrate.NewReplayer(&fakeToken{}, &fakeNative{}, common.Address{}, t.TempDir()).Run(context.Background(), migrate.ModeReport)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReplayOnSimulatedChain(t *testing.T) {
	sim := fixtures.NewSimChain(t)
	ctx := context.Background()
	tx := sim.Transactor(t, 0)

	art, err := contract.LoadArtifact(fixtures.WriteArtifact(t, t.TempDir(), "GenericToken", fixtures.AnswerABI, fixtures.AnswerCode))
	require.NoError(t, err)
	addr, _, err := tx.Deploy(ctx, art)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "OBURNHolders.csv"), []byte("HolderAddress,Balance\n"+holderB+",5\n"), 0o644))

	token := contract.NewToken("OBURN", addr, sim.Client)
	r := migrate.NewReplayer(migrate.TokenTransferrer{Token: token, Tx: tx}, sim.Client, tx.From(), dir,
		migrate.WithSymbols("OBURN"))
	rep, err := r.Run(ctx, migrate.ModeTransfer)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Sent)
	assert.Equal(t, -1, rep.NativeAfter.Cmp(rep.NativeBefore), "gas was paid")
}
