package calculator

import (
	"errors"

	"cosmossdk.io/math"
)

// FundingProgressBps returns contributed/goal in basis points, capped at 10000.
func FundingProgressBps(contributed, goal math.Int) (int64, error) {
	if goal.IsNil() || !goal.IsPositive() {
		return 0, errors.New("funding goal must be positive")
	}
	if contributed.IsNil() || contributed.IsNegative() {
		return 0, errors.New("contributed amount must not be negative")
	}
	if contributed.GTE(goal) {
		return 10000, nil
	}
	bps, err := mulDiv(contributed, math.NewInt(10000), goal)
	if err != nil {
		return 0, err
	}
	return bps.Int64(), nil
}
