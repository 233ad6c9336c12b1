package bot

import (
	"errors"
	"fmt"
)

var (
	// ErrUserInput marks input the engine cannot use (bad email, unknown
	// address, stale or malformed button). It becomes a re-prompt.
	ErrUserInput = errors.New("unusable user input")
	// ErrPaymentIntegrity marks a precheckout whose payload does not match
	// the invoice issued to the user.
	ErrPaymentIntegrity = errors.New("payment payload mismatch")
)

// GatewayError wraps a failed call to a collaborator (catalog, payments,
// geocoder, transport, session store). The session keeps its prior state.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func userInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUserInput, fmt.Sprintf(format, args...))
}
