package asset

import (
	"context"
	"errors"

	"cosmossdk.io/math"

	"ZeitFund/internal/model"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransfer     = errors.New("invalid transfer")
)

// Transferer moves the base asset between accounts. A nil error means the
// transfer happened; any error means nothing moved.
type Transferer interface {
	Transfer(ctx context.Context, from, to model.AccountID, amount math.Int) error
}
