package state

import (
	"errors"
	"fmt"
)

// ErrStateCorruption marks persisted state that violates an invariant.
// Fatal: the oracle must stop and wait for an operator instead of guessing.
var ErrStateCorruption = errors.New("state corruption")

func ErrCursorRegression(stored, incoming uint64) error {
	return fmt.Errorf("%w: lastScannedBlock would regress: stored=%d, incoming=%d",
		ErrStateCorruption, stored, incoming)
}
