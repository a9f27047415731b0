package scanner

import (
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/lockmint-io/bridge-oracle/common"
	"github.com/lockmint-io/bridge-oracle/etherman"
)

// DecodeError marks a log that does not match the TokensLocked layout.
// Terminal for that log only; the window is not blocked by it.
type DecodeError struct {
	TxHash   ethcommon.Hash
	LogIndex uint
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("undecodable bridge log tx=%s idx=%d: %v",
		common.Shorten(e.TxHash.Hex(), 8), e.LogIndex, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(log types.Log, format string, args ...interface{}) error {
	return &DecodeError{
		TxHash:   log.TxHash,
		LogIndex: log.Index,
		Err:      fmt.Errorf(format, args...),
	}
}

// DecodeDepositLog turns a raw TokensLocked log into a DepositEvent.
// Indexed fields come out of topics 1..3, the rest out of the data payload.
func DecodeDepositLog(log types.Log) (*DepositEvent, error) {
	if len(log.Topics) != 4 {
		return nil, decodeErr(log, "expected 4 topics, got %d", len(log.Topics))
	}
	if log.Topics[0] != etherman.TokensLockedSignatureHash {
		return nil, decodeErr(log, "unexpected event signature %s", log.Topics[0].Hex())
	}

	nonceWord := new(big.Int).SetBytes(log.Topics[3].Bytes())
	if !nonceWord.IsUint64() {
		return nil, decodeErr(log, "nonce %s overflows uint64", nonceWord.String())
	}

	values, err := etherman.DepositDataArguments.Unpack(log.Data)
	if err != nil {
		return nil, decodeErr(log, "unpack data: %v", err)
	}
	if len(values) != 3 {
		return nil, decodeErr(log, "expected 3 data fields, got %d", len(values))
	}

	recipient, ok := values[0].(string)
	if !ok {
		return nil, decodeErr(log, "recipient is not a string")
	}
	amount, ok := values[1].(*big.Int)
	if !ok {
		return nil, decodeErr(log, "amount is not uint256")
	}
	destChainID, ok := values[2].(*big.Int)
	if !ok {
		return nil, decodeErr(log, "destinationChainId is not uint256")
	}
	if !destChainID.IsUint64() {
		return nil, decodeErr(log, "destinationChainId %s overflows uint64", destChainID.String())
	}

	return &DepositEvent{
		SourceTxHash:       log.TxHash,
		BlockNumber:        log.BlockNumber,
		LogIndex:           log.Index,
		Nonce:              nonceWord.Uint64(),
		Token:              ethcommon.BytesToAddress(log.Topics[1].Bytes()),
		Sender:             ethcommon.BytesToAddress(log.Topics[2].Bytes()),
		Recipient:          recipient,
		Amount:             common.BigIntClone(amount),
		DestinationChainID: destChainID.Uint64(),
	}, nil
}
