package orchestrator

import (
	"time"

	"github.com/lockmint-io/bridge-oracle/backoff"
)

const MinPollingInterval = 100 * time.Millisecond

type Config struct {
	// Blocks withheld from scanning so a reorganization below the head
	// cannot retract an event the oracle already acted on.
	ConfirmationDepth uint64
	// Upper bound on blocks per log query, sized against the node's
	// rate/response limits.
	ChunkSize uint64
	// Pause between cycles.
	PollingInterval time.Duration
	// Retry policy applied to every collaborator call.
	Retry backoff.Policy
}

func (cfg *Config) withDefaults() *Config {
	out := *cfg
	if out.ChunkSize == 0 {
		out.ChunkSize = 1000
	}
	if out.PollingInterval < MinPollingInterval {
		out.PollingInterval = MinPollingInterval
	}
	if out.Retry.MaxAttempts == 0 {
		out.Retry = backoff.DefaultPolicy()
	}
	return &out
}
