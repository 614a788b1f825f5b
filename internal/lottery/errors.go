package lottery

import (
	"errors"

	"lottery/internal/custody"
	"lottery/internal/ledger"
)

var (
	ErrInsufficientFunds     = ledger.ErrInsufficientFunds
	ErrArithmeticOverflow    = ledger.ErrArithmeticOverflow
	ErrInvalidAmount         = ledger.ErrInvalidAmount
	ErrAuthorizationMismatch = custody.ErrAuthorizationMismatch
	ErrInsufficientReferrals = errors.New("insufficient referrals")
	ErrUnauthorized          = errors.New("caller is not authorized")
	ErrOperatorMismatch      = errors.New("operator is not the lottery admin")
	ErrNotInitialized        = errors.New("lottery is not initialized")
	ErrAlreadyInitialized    = errors.New("lottery is already initialized")
	ErrInvalidState          = errors.New("invalid lottery state")
)

// Kind names the error class of err for metrics and API responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrAuthorizationMismatch):
		return "authorization_mismatch"
	case errors.Is(err, ErrInsufficientReferrals):
		return "insufficient_referrals"
	case errors.Is(err, ErrArithmeticOverflow):
		return "arithmetic_overflow"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrOperatorMismatch):
		return "operator_mismatch"
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, ErrAlreadyInitialized):
		return "already_initialized"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	default:
		return "internal"
	}
}
