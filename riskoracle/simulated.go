package riskoracle

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/lockmint-io/bridge-oracle/common"
)

// SimulatedOracle is an in-memory oracle for tests: a blocklist plus
// optional failure injection.
type SimulatedOracle struct {
	mu        sync.Mutex
	blocked   map[string]bool
	failCalls int
	CallCount int
}

func NewSimulatedOracle() *SimulatedOracle {
	return &SimulatedOracle{blocked: make(map[string]bool)}
}

func (o *SimulatedOracle) Block(address string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.blocked[strings.ToLower(address)] = true
}

// FailNextCalls makes the next n Check calls fail with a transport error.
func (o *SimulatedOracle) FailNextCalls(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failCalls = n
}

func (o *SimulatedOracle) Check(ctx context.Context, address string) (Verdict, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.CallCount++
	if o.failCalls > 0 {
		o.failCalls--
		return Blocked, common.WrapTransport("sim_risk_check", errors.New("injected failure"))
	}

	if o.blocked[strings.ToLower(address)] {
		return Blocked, nil
	}
	return Allowed, nil
}
