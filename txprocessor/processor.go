// Package txprocessor turns accepted deposit events into destination-side
// mint actions and dispatches them. It keeps no replay state of its own;
// the orchestrator owns the processed-nonce set.
package txprocessor

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/lockmint-io/bridge-oracle/common"
	"github.com/lockmint-io/bridge-oracle/scanner"
)

// The destination bridge rejects a nonce it has already minted with this
// reason. Seeing it here means a previous dispatch succeeded but its
// acknowledgment was lost, so the deposit is effectively dispatched.
const reasonDuplicateNonce = "duplicate_nonce"

type Processor struct {
	submitter Submitter
}

func New(submitter Submitter) *Processor {
	return &Processor{submitter: submitter}
}

// Process dispatches one accepted event. A returned error is a transport
// failure and the caller decides whether to retry; an Outcome is terminal.
func (p *Processor) Process(ctx context.Context, ev *scanner.DepositEvent) (*Outcome, error) {
	action := BuildMintAction(ev)

	result, err := p.submitter.Submit(ctx, action)
	if err != nil {
		return nil, err
	}

	if result.Accepted {
		logger.WithFields(logger.Fields{
			"nonce":    ev.Nonce,
			"sourceTx": common.Shorten(ev.SourceTxHash.Hex(), 8),
			"amount":   common.WeiToEther(ev.Amount).String(),
			"receipt":  result.ReceiptID,
		}).Info("deposit dispatched to destination")
		return &Outcome{Status: StatusDispatched, Receipt: result.ReceiptID}, nil
	}

	if result.Reason == reasonDuplicateNonce {
		logger.WithField("nonce", ev.Nonce).
			Info("destination already minted this nonce, treating as dispatched")
		return &Outcome{Status: StatusDispatched, Receipt: result.ReceiptID}, nil
	}

	return &Outcome{Status: StatusFailed, Reason: result.Reason}, nil
}
