package asset

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger_Transfer(t *testing.T) {
	l := NewMemoryLedger()
	require.NoError(t, l.Mint("alice", math.NewInt(100)))

	require.NoError(t, l.Transfer(context.Background(), "alice", "bob", math.NewInt(40)))
	assert.Equal(t, int64(60), l.BalanceOf("alice").Int64())
	assert.Equal(t, int64(40), l.BalanceOf("bob").Int64())
}

func TestMemoryLedger_InsufficientBalance(t *testing.T) {
	l := NewMemoryLedger()
	require.NoError(t, l.Mint("alice", math.NewInt(10)))

	err := l.Transfer(context.Background(), "alice", "bob", math.NewInt(11))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, int64(10), l.BalanceOf("alice").Int64())
	assert.True(t, l.BalanceOf("bob").IsZero())
}

func TestMemoryLedger_InvalidTransfer(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	require.NoError(t, l.Mint("alice", math.NewInt(10)))

	assert.ErrorIs(t, l.Transfer(ctx, "alice", "bob", math.ZeroInt()), ErrInvalidTransfer)
	assert.ErrorIs(t, l.Transfer(ctx, "alice", "alice", math.NewInt(1)), ErrInvalidTransfer)
	assert.ErrorIs(t, l.Transfer(ctx, "", "bob", math.NewInt(1)), ErrInvalidTransfer)
	assert.ErrorIs(t, l.Mint("bob", math.NewInt(-1)), ErrInvalidTransfer)
}

func TestMemoryLedger_CancelledContext(t *testing.T) {
	l := NewMemoryLedger()
	require.NoError(t, l.Mint("alice", math.NewInt(10)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Transfer(ctx, "alice", "bob", math.NewInt(1)), context.Canceled)
	assert.Equal(t, int64(10), l.BalanceOf("alice").Int64())
}

func TestLoadLedger_RoundTripsThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")

	l, err := LoadLedger(path)
	require.NoError(t, err)
	require.NoError(t, l.Mint("alice", math.NewInt(500)))
	require.NoError(t, l.Transfer(context.Background(), "alice", "bob", math.NewInt(125)))

	reloaded, err := LoadLedger(path)
	require.NoError(t, err)
	assert.Equal(t, int64(375), reloaded.BalanceOf("alice").Int64())
	assert.Equal(t, int64(125), reloaded.BalanceOf("bob").Int64())
}

func TestMemoryLedger_MintOverflow(t *testing.T) {
	l := NewMemoryLedger()
	maxInt := math.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))
	require.NoError(t, l.Mint("alice", maxInt))

	assert.ErrorIs(t, l.Mint("alice", math.NewInt(1)), ErrInvalidTransfer)
	assert.True(t, l.BalanceOf("alice").Equal(maxInt))
}
