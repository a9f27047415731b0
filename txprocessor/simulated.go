package txprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	logger "github.com/sirupsen/logrus"
)

// SimulatedSubmitter records mint intent instead of dispatching it. Used in
// simulation mode and in tests. Re-submitting a nonce returns the original
// receipt, mirroring the destination bridge's own deduplication.
type SimulatedSubmitter struct {
	mu        sync.Mutex
	receipts  map[uint64]string
	failCalls int
	SubmitLog []*MintAction
}

func NewSimulatedSubmitter() *SimulatedSubmitter {
	return &SimulatedSubmitter{receipts: make(map[uint64]string)}
}

// FailNextCalls makes the next n Submit calls fail with a transport error.
func (s *SimulatedSubmitter) FailNextCalls(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCalls = n
}

func (s *SimulatedSubmitter) Submit(ctx context.Context, action *MintAction) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCalls > 0 {
		s.failCalls--
		return nil, errors.New("simulated transport failure")
	}

	if receipt, ok := s.receipts[action.Nonce]; ok {
		return &SubmitResult{Accepted: true, ReceiptID: receipt}, nil
	}

	receipt := fmt.Sprintf("sim-%d", action.Nonce)
	s.receipts[action.Nonce] = receipt
	s.SubmitLog = append(s.SubmitLog, action)

	logger.WithFields(logger.Fields{
		"nonce":     action.Nonce,
		"recipient": action.Recipient,
		"amount":    action.Amount,
	}).Info("simulated mint dispatch")

	return &SubmitResult{Accepted: true, ReceiptID: receipt}, nil
}

// Dispatched reports whether a nonce was ever submitted.
func (s *SimulatedSubmitter) Dispatched(nonce uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.receipts[nonce]
	return ok
}
