package rates

import "errors"

var (
	ErrLineNotFound      = errors.New("line item not found")
	ErrDuplicateLine     = errors.New("duplicate line item")
	ErrRateLocked        = errors.New("rate locked by contract, override approval required")
	ErrOverridePending   = errors.New("another override request is pending")
	ErrNoPendingOverride = errors.New("no pending override request")
	ErrReasonRequired    = errors.New("override reason is required")
	ErrInvalidCredential = errors.New("invalid approval credential")
)
