package scanner

import (
	"context"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EventSource is the ledger the scanner reads from. Etherman is the real
// implementation; etherman.SimulatedLedger the test one.
type EventSource interface {
	CurrentHeight(ctx context.Context) (uint64, error)
	FilterDepositLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error)
}

// DepositEvent is one decoded TokensLocked log. Immutable once built.
// Nonce is the bridge-assigned sequence number and the sole replay key;
// (SourceTxHash, LogIndex) is kept for diagnostics only.
type DepositEvent struct {
	SourceTxHash ethcommon.Hash
	BlockNumber  uint64
	LogIndex     uint

	Nonce              uint64
	Token              ethcommon.Address
	Sender             ethcommon.Address
	Recipient          string
	Amount             *big.Int
	DestinationChainID uint64
}
