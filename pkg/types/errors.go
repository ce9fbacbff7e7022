package types

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every engine operation reports exactly one of these four
// roots; callers branch with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrStorage      = errors.New("storage failure")
	ErrCorruptState = errors.New("corrupt document state")
)

// Specific conditions, each rooted in one of the four taxonomy errors.
var (
	ErrInvalidID        = fmt.Errorf("%w: invalid entity ID", ErrValidation)
	ErrDuplicateName    = fmt.Errorf("%w: duplicate name", ErrValidation)
	ErrInvalidFieldKind = fmt.Errorf("%w: invalid field kind", ErrValidation)
	ErrTypeMismatch     = fmt.Errorf("%w: field value kind mismatch", ErrValidation)
	ErrAncestryCycle    = fmt.Errorf("%w: ancestry cycle", ErrValidation)
	ErrFieldLayout      = fmt.Errorf("%w: field layout mismatch", ErrCorruptState)
)

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)
