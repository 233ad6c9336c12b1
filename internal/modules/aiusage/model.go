package aiusage

import "errors"

// ErrInsufficientTokens is returned when a user has no help replies left for the current month.
var ErrInsufficientTokens = errors.New("insufficient tokens")

// DefaultTokens is the monthly allowance when none is configured.
const DefaultTokens = 20
