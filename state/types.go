package state

// OrchestratorState is the only durable mutable state of one bridge
// direction. The orchestrator owns the in-memory copy; StateDB owns the
// durable one. They only meet at Load and CommitWindow.
type OrchestratorState struct {
	// Highest block whose events have all reached a terminal outcome.
	LastScannedBlock uint64
	// Nonces whose deposit has been handed to the destination side.
	ProcessedNonces map[uint64]struct{}
}

func NewOrchestratorState() *OrchestratorState {
	return &OrchestratorState{
		ProcessedNonces: make(map[uint64]struct{}),
	}
}

func (s *OrchestratorState) HasNonce(nonce uint64) bool {
	_, ok := s.ProcessedNonces[nonce]
	return ok
}

func (s *OrchestratorState) AddNonces(nonces []uint64) {
	for _, n := range nonces {
		s.ProcessedNonces[n] = struct{}{}
	}
}
