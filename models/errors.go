package models

import "errors"

// Domain errors returned by the settlement engines. The caller is expected to
// match these with errors.Is and translate them to user-facing messages.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountSuspended  = errors.New("account is suspended")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAlreadyJoined     = errors.New("already joined")
	ErrInvalidState      = errors.New("operation not valid in current state")
	ErrBudgetExhausted   = errors.New("daily reward budget exhausted")
	ErrBelowMinimum      = errors.New("amount below configured minimum")
	ErrConflict          = errors.New("concurrent modification conflict")
)
