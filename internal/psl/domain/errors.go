package domain

import "errors"

var (
	// ErrDecoding is returned when rule or host text is not valid UTF-8.
	ErrDecoding = errors.New("text is not valid UTF-8")

	// ErrInvalidRule is returned when a suffix pattern cannot be turned into a Rule.
	// Decoding failures during rule parsing wrap both ErrInvalidRule and ErrDecoding.
	ErrInvalidRule = errors.New("invalid suffix rule")
)
