package calculator

import (
	"errors"
	"math/big"

	"cosmossdk.io/math"
)

// Scale is the fixed-point precision of the dividend-per-share accumulator.
var Scale = math.NewIntWithDecimal(1, 18)

// ErrOverflow is returned when a result does not fit in a math.Int.
var ErrOverflow = errors.New("amount exceeds 256 bits")

// AccumulatorDelta returns amount * Scale / totalShares, rounded down.
func AccumulatorDelta(amount, totalShares math.Int) (math.Int, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return math.ZeroInt(), errors.New("amount must be positive")
	}
	if totalShares.IsNil() || !totalShares.IsPositive() {
		return math.ZeroInt(), errors.New("total shares must be positive")
	}
	return mulDiv(amount, Scale, totalShares)
}

// Owed returns the dividend a holder of shares earned while the accumulator moved
// from checkpoint to accumulated, rounded down.
func Owed(shares, accumulated, checkpoint math.Int) (math.Int, error) {
	if shares.IsNil() || shares.IsNegative() {
		return math.ZeroInt(), errors.New("shares must not be negative")
	}
	if accumulated.LT(checkpoint) {
		return math.ZeroInt(), errors.New("checkpoint is ahead of the accumulator")
	}
	return mulDiv(shares, accumulated.Sub(checkpoint), Scale)
}

// mulDiv computes a*b/c with an unbounded intermediate product.
func mulDiv(a, b, c math.Int) (math.Int, error) {
	z := new(big.Int).Mul(a.BigInt(), b.BigInt())
	z.Quo(z, c.BigInt())
	if z.BitLen() > math.MaxBitLen {
		return math.ZeroInt(), ErrOverflow
	}
	return math.NewIntFromBigInt(z), nil
}
