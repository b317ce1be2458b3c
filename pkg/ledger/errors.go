package ledger

import "errors"

var (
	// ErrEmptyKey rejects writes without a key; keys are composite
	// "topic:id" strings.
	ErrEmptyKey = errors.New("ledger entry key is required")
)
