package common

import "fmt"

// TransportError marks a failure talking to an external collaborator
// (event source, risk oracle, destination relayer). Transport errors are
// transient and safe to retry; everything else is not.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func WrapTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}
