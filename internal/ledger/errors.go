package ledger

import "errors"

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrUnknownUserRef    = errors.New("unknown user reference")
	ErrLockTimeout       = errors.New("lock timeout")
	ErrInvalidBucket     = errors.New("invalid bucket")
	ErrInvalidAmount     = errors.New("invalid amount")
)
