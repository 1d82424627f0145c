package contract

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/onlyburns/oburnctl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dataError mimics the JSON-RPC error carrying revert data.
type dataError struct {
	msg  string
	data interface{}
}

func (e *dataError) Error() string          { return e.msg }
func (e *dataError) ErrorData() interface{} { return e.data }

// encodedReason is Error(string) encoding of "Pausable: paused".
func encodedReason() string {
	return "0x08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"0000000000000000000000000000000000000000000000000000000000000010" +
		"5061757361626c653a2070617573656400000000000000000000000000000000"
}

func TestSelectorKnownValues(t *testing.T) {
	assert.Equal(t, [4]byte{0xa9, 0x05, 0x9c, 0xbb}, Selector("transfer(address,uint256)"))
	assert.Equal(t, [4]byte{0x70, 0xa0, 0x82, 0x31}, Selector("balanceOf(address)"))
	assert.Equal(t, [4]byte{0x08, 0xc3, 0x79, 0xa0}, Selector("Error(string)"))
}

func TestDeployWaitsLongerThanCalls(t *testing.T) {
	to := common.HexToAddress("0x01")
	tx := &Transactor{timeout: config.TxConfirmTimeout, deployTimeout: config.TxDeployTimeout}
	assert.Equal(t, config.TxConfirmTimeout, tx.waitTimeout(&to))
	assert.Equal(t, config.TxDeployTimeout, tx.waitTimeout(nil))

	WithTimeout(10 * time.Minute)(tx)
	assert.Equal(t, 10*time.Minute, tx.waitTimeout(nil), "a longer confirm timeout also covers deploys")
}

func TestFallbackGasByKind(t *testing.T) {
	to := common.HexToAddress("0x01")
	transfer, err := funcTransfer.EncodeArgs(common.HexToAddress("0x02"), big.NewInt(5))
	require.NoError(t, err)
	approve, err := funcApprove.EncodeArgs(common.HexToAddress("0x02"), big.NewInt(5))
	require.NoError(t, err)

	assert.Equal(t, config.GasLimitDeploy, fallbackGas(nil, []byte{0x60, 0x80}))
	assert.Equal(t, config.GasLimitTransfer, fallbackGas(&to, transfer))
	assert.Equal(t, config.GasLimitContractCall, fallbackGas(&to, approve))
	assert.Equal(t, config.GasLimitContractCall, fallbackGas(&to, nil))
}

func TestRevertReasonFromData(t *testing.T) {
	err := &dataError{msg: "execution reverted", data: encodedReason()}
	assert.Equal(t, "Pausable: paused", RevertReason(err))
}

func TestRevertReasonFromMessage(t *testing.T) {
	tests := map[string]string{
		"execution reverted: Sender is blacklisted from trading.":                       "Sender is blacklisted from trading.",
		"VM Exception while processing transaction: revert Exceeds whitelist sale cap":  "Exceeds whitelist sale cap",
		"Error: VM Exception: reverted with reason string 'Sale parameters are locked'": "Sale parameters are locked",
		"insufficient funds for gas * price + value":                                    "",
	}
	for msg, want := range tests {
		assert.Equal(t, want, RevertReason(errors.New(msg)), msg)
	}
}

func TestRevertReasonCustomError(t *testing.T) {
	data := hexutil.Encode([]byte{0xde, 0xad, 0xbe, 0xef, 0x00})
	err := &dataError{msg: "execution reverted", data: data}
	assert.Equal(t, "custom error 0xdeadbeef", RevertReason(err))
}

func TestIsRevert(t *testing.T) {
	assert.True(t, IsRevert(errors.New("execution reverted: nope")))
	assert.True(t, IsRevert(&RevertError{Reason: "x"}))
	assert.False(t, IsRevert(errors.New("connection refused")))
	assert.False(t, IsRevert(nil))
}

func TestNewRevertErrorWrapsOnlyReverts(t *testing.T) {
	plain := errors.New("dial tcp: refused")
	assert.Same(t, plain, newRevertError("transfer", plain))

	err := newRevertError("transfer", errors.New("execution reverted: ERC20: insufficient allowance"))
	var re *RevertError
	assert.True(t, errors.As(err, &re))
	assert.Equal(t, "transfer", re.Method)
	assert.Equal(t, "ERC20: insufficient allowance", re.Reason)
	assert.Equal(t, "transfer reverted: ERC20: insufficient allowance", err.Error())
}

func TestNarrowSmallIntegers(t *testing.T) {
	u8, _ := abi.NewType("uint8", "", nil)
	u256, _ := abi.NewType("uint256", "", nil)
	i32, _ := abi.NewType("int32", "", nil)

	assert.Equal(t, uint8(5), narrow(u8, big.NewInt(5)))
	assert.Equal(t, int32(-3), narrow(i32, big.NewInt(-3)))
	assert.Equal(t, big.NewInt(7), narrow(u256, big.NewInt(7)))
	assert.Equal(t, "x", narrow(u8, "x"))
}
