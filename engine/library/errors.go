package library

import "errors"

// Every rejected operation surfaces exactly one of these, wrapped with context.
var (
	ErrInvalidIdentifier     = errors.New("invalid identifier")
	ErrAlreadyClaimed        = errors.New("identifier already claimed")
	ErrUnauthorized          = errors.New("endorsement not signed by the authority key")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrZeroDividend          = errors.New("no dividend to withdraw")
	ErrForbidden             = errors.New("caller is not the controller")
	ErrAlreadyStarted        = errors.New("emission has already started")
	ErrInvalidAmount         = errors.New("invalid amount")
)
