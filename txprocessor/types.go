package txprocessor

import (
	"context"

	"github.com/lockmint-io/bridge-oracle/scanner"
)

// MintAction is the destination-side instruction derived from one deposit.
// Built deterministically from the event so a re-dispatch carries exactly the
// same payload and the destination's own nonce check can deduplicate it.
type MintAction struct {
	Nonce              uint64 `json:"nonce"`
	Token              string `json:"token"`
	Recipient          string `json:"recipient"`
	Amount             string `json:"amount"` // decimal string, wei precision
	DestinationChainID uint64 `json:"destinationChainId"`
	SourceTxHash       string `json:"sourceTxHash"`
}

func BuildMintAction(ev *scanner.DepositEvent) *MintAction {
	return &MintAction{
		Nonce:              ev.Nonce,
		Token:              ev.Token.Hex(),
		Recipient:          ev.Recipient,
		Amount:             ev.Amount.String(),
		DestinationChainID: ev.DestinationChainID,
		SourceTxHash:       ev.SourceTxHash.Hex(),
	}
}

// SubmitResult is the destination's answer to one submission attempt.
// A transport failure is returned as an error instead, never as a result.
type SubmitResult struct {
	Accepted  bool
	ReceiptID string
	Reason    string // set when the destination rejected the action
}

// Submitter dispatches mint actions to the destination chain. The real
// submitter talks to the relayer API; the simulated one records intent.
// Implementations must tolerate being handed the same action twice.
type Submitter interface {
	Submit(ctx context.Context, action *MintAction) (*SubmitResult, error)
}

type Status string

const (
	StatusDispatched Status = "dispatched"
	StatusFailed     Status = "failed"
)

// Outcome is the terminal result of processing one accepted event.
type Outcome struct {
	Status  Status
	Receipt string
	Reason  string
}
