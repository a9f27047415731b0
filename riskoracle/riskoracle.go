// Package riskoracle wraps the external pass/fail screening service that the
// validator consults before a deposit is relayed.
package riskoracle

import "context"

type Verdict int

const (
	Allowed Verdict = iota
	Blocked
)

func (v Verdict) String() string {
	if v == Blocked {
		return "blocked"
	}
	return "allowed"
}

// Oracle answers whether an address may take part in a transfer.
// A returned error is a transport failure, never a verdict.
type Oracle interface {
	Check(ctx context.Context, address string) (Verdict, error)
}
