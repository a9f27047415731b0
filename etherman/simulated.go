// Simulated ledger for tests: an in-memory event source with the same
// surface as Etherman, plus failure injection.

package etherman

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/lockmint-io/bridge-oracle/common"
)

var errInjected = errors.New("injected transport failure")

// SimDeposit describes one deposit to plant on the simulated chain.
type SimDeposit struct {
	BlockNumber        uint64
	LogIndex           uint
	Nonce              uint64
	Token              ethcommon.Address
	Sender             ethcommon.Address
	Recipient          string
	Amount             *big.Int
	DestinationChainID uint64
}

type SimulatedLedger struct {
	mu sync.Mutex

	height uint64
	logs   []types.Log

	failHeightCalls int
	failFilterCalls int
	failOnCall      map[int]bool
	FilterCallCount int
}

func NewSimulatedLedger(height uint64) *SimulatedLedger {
	return &SimulatedLedger{height: height}
}

func (s *SimulatedLedger) SetHeight(height uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.height = height
}

func (s *SimulatedLedger) Advance(blocks uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.height += blocks
}

// FailNextHeightCalls makes the next n CurrentHeight calls fail with a
// transport error.
func (s *SimulatedLedger) FailNextHeightCalls(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failHeightCalls = n
}

// FailNextFilterCalls makes the next n FilterDepositLogs calls fail with a
// transport error.
func (s *SimulatedLedger) FailNextFilterCalls(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFilterCalls = n
}

// FailOnFilterCall makes the n-th FilterDepositLogs call (1-based, counted
// from process start) fail with a transport error. Used to break a specific
// chunk mid-scan.
func (s *SimulatedLedger) FailOnFilterCall(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOnCall == nil {
		s.failOnCall = make(map[int]bool)
	}
	s.failOnCall[n] = true
}

// AppendDeposit plants a well-formed TokensLocked log and returns it.
func (s *SimulatedLedger) AppendDeposit(d *SimDeposit) types.Log {
	data, err := DepositDataArguments.Pack(
		d.Recipient,
		common.BigIntClone(d.Amount),
		new(big.Int).SetUint64(d.DestinationChainID),
	)
	if err != nil {
		panic(err)
	}

	log := types.Log{
		BlockNumber: d.BlockNumber,
		Index:       d.LogIndex,
		TxHash:      ethcommon.Hash(common.RandBytes32()),
		Topics: []ethcommon.Hash{
			TokensLockedSignatureHash,
			ethcommon.BytesToHash(d.Token.Bytes()),
			ethcommon.BytesToHash(d.Sender.Bytes()),
			ethcommon.BigToHash(new(big.Int).SetUint64(d.Nonce)),
		},
		Data: data,
	}
	s.AppendRawLog(log)
	return log
}

// AppendRawLog plants an arbitrary log, malformed ones included.
func (s *SimulatedLedger) AppendRawLog(log types.Log) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	if log.BlockNumber > s.height {
		s.height = log.BlockNumber
	}
}

func (s *SimulatedLedger) CurrentHeight(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failHeightCalls > 0 {
		s.failHeightCalls--
		return 0, common.WrapTransport("sim_blockNumber", errInjected)
	}
	return s.height, nil
}

func (s *SimulatedLedger) FilterDepositLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.FilterCallCount++
	if s.failFilterCalls > 0 {
		s.failFilterCalls--
		return nil, common.WrapTransport("sim_getLogs", errInjected)
	}
	if s.failOnCall[s.FilterCallCount] {
		delete(s.failOnCall, s.FilterCallCount)
		return nil, common.WrapTransport("sim_getLogs", errInjected)
	}

	var out []types.Log
	for _, log := range s.logs {
		if log.BlockNumber >= fromBlock && log.BlockNumber <= toBlock {
			out = append(out, log)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockNumber != out[j].BlockNumber {
			return out[i].BlockNumber < out[j].BlockNumber
		}
		return out[i].Index < out[j].Index
	})
	return out, nil
}
