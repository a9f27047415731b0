// Package validator decides, per deposit event, whether the oracle should
// relay it. Checks run in a fixed order (replay, address, bounds, risk) and
// the first rejection wins, so the external risk call is only paid for
// events that already look sound.
package validator

import (
	"context"
	"math/big"

	"github.com/lockmint-io/bridge-oracle/common"
	"github.com/lockmint-io/bridge-oracle/riskoracle"
	"github.com/lockmint-io/bridge-oracle/scanner"
)

type Config struct {
	MaxDepositAmount *big.Int
	// RiskFailOpen makes an unreachable risk oracle pass events through
	// instead of rejecting them. Default false (fail-closed).
	RiskFailOpen bool
}

type Validator struct {
	checks []Check
}

func New(cfg *Config, oracle riskoracle.Oracle) *Validator {
	var maxAmount *big.Int
	if cfg.MaxDepositAmount != nil {
		maxAmount = common.BigIntClone(cfg.MaxDepositAmount)
	}

	return &Validator{
		checks: []Check{
			replayCheck{},
			addressCheck{},
			boundsCheck{maxDepositAmount: maxAmount},
			riskCheck{oracle: oracle, failOpen: cfg.RiskFailOpen},
		},
	}
}

// Validate runs the check sequence against one event. It never mutates the
// nonce set.
func (v *Validator) Validate(ctx context.Context, ev *scanner.DepositEvent, processed NonceSet) Result {
	for _, check := range v.checks {
		if res := check.Evaluate(ctx, ev, processed); !res.Accepted {
			return res
		}
	}
	return Accept()
}
