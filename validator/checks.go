package validator

import (
	"context"
	"math/big"

	logger "github.com/sirupsen/logrus"

	"github.com/lockmint-io/bridge-oracle/common"
	"github.com/lockmint-io/bridge-oracle/riskoracle"
	"github.com/lockmint-io/bridge-oracle/scanner"
)

// replayCheck rejects any nonce already handed to the destination side.
type replayCheck struct{}

func (replayCheck) Name() string { return "replay" }

func (replayCheck) Evaluate(ctx context.Context, ev *scanner.DepositEvent, processed NonceSet) Result {
	if processed.HasNonce(ev.Nonce) {
		return Reject(ReasonDuplicateNonce)
	}
	return Accept()
}

// addressCheck rejects events whose sender or recipient is not a canonical,
// non-zero address of its chain.
type addressCheck struct{}

func (addressCheck) Name() string { return "address" }

func (addressCheck) Evaluate(ctx context.Context, ev *scanner.DepositEvent, processed NonceSet) Result {
	if common.IsZeroAddress(ev.Sender) {
		return Reject(ReasonMalformedAddress)
	}
	if !common.IsValidEthAddress(ev.Recipient) {
		return Reject(ReasonMalformedAddress)
	}
	return Accept()
}

// boundsCheck enforces 0 < amount <= maxDepositAmount.
type boundsCheck struct {
	maxDepositAmount *big.Int
}

func (boundsCheck) Name() string { return "bounds" }

func (c boundsCheck) Evaluate(ctx context.Context, ev *scanner.DepositEvent, processed NonceSet) Result {
	if ev.Amount == nil || ev.Amount.Sign() <= 0 {
		return Reject(ReasonAmountOutOfBounds)
	}
	if c.maxDepositAmount != nil && ev.Amount.Cmp(c.maxDepositAmount) > 0 {
		return Reject(ReasonAmountOutOfBounds)
	}
	return Accept()
}

// riskCheck consults the external screening oracle for both parties.
// Runs last so cheaper checks short-circuit before any network call.
//
// A transport failure is not a verdict. The default policy is fail-closed:
// the event is rejected with risk_check_unavailable and, since rejection is
// terminal, will not be retried. failOpen trades that safety for liveness
// and lets the event through on oracle downtime.
type riskCheck struct {
	oracle   riskoracle.Oracle
	failOpen bool
}

func (riskCheck) Name() string { return "risk" }

func (c riskCheck) Evaluate(ctx context.Context, ev *scanner.DepositEvent, processed NonceSet) Result {
	for _, addr := range []string{ev.Sender.Hex(), ev.Recipient} {
		verdict, err := c.oracle.Check(ctx, addr)
		if err != nil {
			if c.failOpen {
				logger.WithFields(logger.Fields{
					"nonce":   ev.Nonce,
					"address": common.Shorten(addr, 8),
				}).Warnf("risk oracle unavailable, passing event through (fail-open): %v", err)
				continue
			}
			return Reject(ReasonRiskCheckUnavailable)
		}
		if verdict == riskoracle.Blocked {
			return Reject(ReasonRiskFlagged)
		}
	}
	return Accept()
}
