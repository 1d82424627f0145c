package contract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	errorSelector = Selector("Error(string)")
	panicSelector = Selector("Panic(uint256)")
)

// RevertError is a contract-level rejection with its decoded reason.
type RevertError struct {
	Method string
	Reason string
	Err    error
}

func (e *RevertError) Error() string {
	target := e.Method
	if target == "" {
		target = "transaction"
	}
	if e.Reason == "" {
		return target + " reverted"
	}
	return fmt.Sprintf("%s reverted: %s", target, e.Reason)
}

func (e *RevertError) Unwrap() error { return e.Err }

// IsRevert reports whether err is a contract revert rather than a transport
// or signing failure.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	var re *RevertError
	if errors.As(err, &re) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") ||
		strings.Contains(msg, "vm exception") ||
		strings.Contains(msg, "revert")
}

// RevertReason extracts the revert reason from a node error. It prefers the
// ABI-encoded revert data and falls back to the message text.
func RevertReason(err error) string {
	if err == nil {
		return ""
	}
	var re *RevertError
	if errors.As(err, &re) && re.Reason != "" {
		return re.Reason
	}
	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if data, decErr := hexutil.Decode(s); decErr == nil {
				if reason := decodeRevertData(data); reason != "" {
					return reason
				}
			}
		}
	}
	return reasonFromMessage(err.Error())
}

func decodeRevertData(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	switch {
	case bytes.Equal(data[:4], errorSelector[:]), bytes.Equal(data[:4], panicSelector[:]):
		reason, err := abi.UnpackRevert(data)
		if err != nil {
			return ""
		}
		return reason
	default:
		return fmt.Sprintf("custom error %s", hexutil.Encode(data[:4]))
	}
}

func reasonFromMessage(msg string) string {
	for _, marker := range []string{
		"execution reverted: ",
		"VM Exception while processing transaction: revert ",
		"reverted with reason string ",
	} {
		if i := strings.Index(msg, marker); i >= 0 {
			return strings.Trim(strings.TrimSpace(msg[i+len(marker):]), "'\"")
		}
	}
	return ""
}

// newRevertError wraps err when it is a revert; other errors pass through.
func newRevertError(method string, err error) error {
	if err == nil || !IsRevert(err) {
		return err
	}
	var re *RevertError
	if errors.As(err, &re) {
		if re.Method == "" {
			re.Method = method
		}
		return re
	}
	return &RevertError{Method: method, Reason: RevertReason(err), Err: err}
}
