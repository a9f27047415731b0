package validator

import (
	"context"

	"github.com/lockmint-io/bridge-oracle/scanner"
)

type RejectReason string

const (
	ReasonDuplicateNonce       RejectReason = "duplicate_nonce"
	ReasonMalformedAddress     RejectReason = "malformed_address"
	ReasonAmountOutOfBounds    RejectReason = "amount_out_of_bounds"
	ReasonRiskFlagged          RejectReason = "risk_flagged"
	ReasonRiskCheckUnavailable RejectReason = "risk_check_unavailable"
)

// Result is a pure recommendation. Accepting an event never marks its nonce
// processed; that bookkeeping belongs to the orchestrator's window commit.
type Result struct {
	Accepted bool
	Reason   RejectReason
}

func Accept() Result {
	return Result{Accepted: true}
}

func Reject(reason RejectReason) Result {
	return Result{Reason: reason}
}

// NonceSet is the replay-protection view a check may consult.
type NonceSet interface {
	HasNonce(nonce uint64) bool
}

// Check is one predicate in the validation sequence.
type Check interface {
	Name() string
	Evaluate(ctx context.Context, ev *scanner.DepositEvent, processed NonceSet) Result
}
