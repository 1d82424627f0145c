package config

import "time"

// Gas limits used when the node cannot estimate a transaction for a reason
// other than a revert. Actual usage is lower.
const (
	GasLimitTransfer     = uint64(80_000)
	GasLimitContractCall = uint64(300_000)
	GasLimitDeploy       = uint64(6_000_000)
)

// Timeouts.
const (
	DialTimeout       = 15 * time.Second
	TxConfirmTimeout  = 3 * time.Minute
	TxDeployTimeout   = 5 * time.Minute
	ReceiptPoll       = 2 * time.Second
	VerifyTimeout     = 30 * time.Second
	DevReceiptPoll    = 200 * time.Millisecond
	DefaultConfirmSec = 180
)
