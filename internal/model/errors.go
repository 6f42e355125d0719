package model

import "errors"

// Error kinds shared by the fund ledger and the dividend vault. Callers match them
// with errors.Is; the returned errors carry more context.
var (
	ErrPhaseViolation           = errors.New("phase violation")
	ErrUnauthorized             = errors.New("unauthorized caller")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrNoShares                 = errors.New("no shares")
	ErrInsufficientVaultBalance = errors.New("insufficient vault balance")
	ErrTransferFailed           = errors.New("transfer failed")
)

// ErrorKind returns a short label for the error kind, used in metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrPhaseViolation):
		return "phase_violation"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrNoShares):
		return "no_shares"
	case errors.Is(err, ErrInsufficientVaultBalance):
		return "insufficient_vault_balance"
	case errors.Is(err, ErrTransferFailed):
		return "transfer_failed"
	default:
		return "unknown"
	}
}
