package calculator

import (
	"math/big"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorDelta(t *testing.T) {
	delta, err := AccumulatorDelta(math.NewInt(100), math.NewInt(1000))
	require.NoError(t, err)
	assert.True(t, delta.Equal(Scale.QuoRaw(10)), "got %s", delta)
}

func TestAccumulatorDelta_RejectsZero(t *testing.T) {
	_, err := AccumulatorDelta(math.ZeroInt(), math.NewInt(1000))
	assert.Error(t, err)

	_, err = AccumulatorDelta(math.NewInt(100), math.ZeroInt())
	assert.Error(t, err)
}

func TestOwed_ProportionalSplit(t *testing.T) {
	delta, err := AccumulatorDelta(math.NewInt(100), math.NewInt(1000))
	require.NoError(t, err)

	a, err := Owed(math.NewInt(600), delta, math.ZeroInt())
	require.NoError(t, err)
	b, err := Owed(math.NewInt(400), delta, math.ZeroInt())
	require.NoError(t, err)

	assert.Equal(t, int64(60), a.Int64())
	assert.Equal(t, int64(40), b.Int64())
}

func TestOwed_RoundsDown(t *testing.T) {
	// 100 split across three equal holders leaves one unit undistributed.
	delta, err := AccumulatorDelta(math.NewInt(100), math.NewInt(3))
	require.NoError(t, err)

	total := math.ZeroInt()
	for i := 0; i < 3; i++ {
		owed, err := Owed(math.NewInt(1), delta, math.ZeroInt())
		require.NoError(t, err)
		total = total.Add(owed)
	}
	assert.True(t, total.LTE(math.NewInt(100)))
	assert.True(t, total.GTE(math.NewInt(99)))
}

func TestOwed_NothingSinceCheckpoint(t *testing.T) {
	acc := Scale.MulRaw(5)
	owed, err := Owed(math.NewInt(1000), acc, acc)
	require.NoError(t, err)
	assert.True(t, owed.IsZero())
}

func TestOwed_CheckpointAhead(t *testing.T) {
	_, err := Owed(math.NewInt(10), math.NewInt(1), math.NewInt(2))
	assert.Error(t, err)
}

func TestFundingProgressBps(t *testing.T) {
	bps, err := FundingProgressBps(math.NewInt(600), math.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, int64(6000), bps)

	bps, err = FundingProgressBps(math.NewInt(1500), math.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, int64(10000), bps)

	_, err = FundingProgressBps(math.NewInt(1), math.ZeroInt())
	assert.Error(t, err)
}

func TestAccumulatorDelta_OverflowIsAnError(t *testing.T) {
	huge := math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 250))

	_, err := AccumulatorDelta(huge, math.NewInt(1000))
	require.ErrorIs(t, err, ErrOverflow)

	// A large intermediate product is fine as long as the result fits.
	delta, err := AccumulatorDelta(huge, huge)
	require.NoError(t, err)
	assert.True(t, delta.Equal(Scale), "got %s", delta)
}

func TestOwed_LargeIntermediateProduct(t *testing.T) {
	shares := math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 200))
	acc := math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 100))

	owed, err := Owed(shares, acc, math.ZeroInt())
	require.NoError(t, err)
	want := new(big.Int).Lsh(big.NewInt(1), 300)
	want.Quo(want, Scale.BigInt())
	assert.Equal(t, want.String(), owed.String())
}
