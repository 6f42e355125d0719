package vault

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ZeitFund/internal/asset"
	"ZeitFund/internal/logger"
	"ZeitFund/internal/model"
)

const (
	owner   model.AccountID = "fund:test"
	account model.AccountID = "vault:test"
)

type failingTransferer struct{}

func (failingTransferer) Transfer(context.Context, model.AccountID, model.AccountID, math.Int) error {
	return errors.New("upstream allowance exhausted")
}

func newTestVault(t *testing.T) (*Vault, *asset.MemoryLedger) {
	t.Helper()
	ledger := asset.NewMemoryLedger()
	require.NoError(t, ledger.Mint(owner, math.NewInt(1000)))
	v, err := New(owner, account, ledger, "", logger.Nop())
	require.NoError(t, err)
	return v, ledger
}

func TestReceive(t *testing.T) {
	v, ledger := newTestVault(t)

	require.NoError(t, v.Receive(context.Background(), owner, owner, math.NewInt(300)))
	assert.Equal(t, int64(300), v.Balance().Int64())
	assert.Equal(t, int64(300), ledger.BalanceOf(account).Int64())
	assert.Equal(t, int64(700), ledger.BalanceOf(owner).Int64())
}

func TestReceive_OnlyOwner(t *testing.T) {
	v, _ := newTestVault(t)

	err := v.Receive(context.Background(), "mallory", owner, math.NewInt(1))
	require.ErrorIs(t, err, model.ErrUnauthorized)
	assert.True(t, v.Balance().IsZero())
}

func TestReceive_InvalidAmount(t *testing.T) {
	v, _ := newTestVault(t)

	err := v.Receive(context.Background(), owner, owner, math.ZeroInt())
	require.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestReceive_TransferFailureLeavesBalance(t *testing.T) {
	v, err := New(owner, account, failingTransferer{}, "", logger.Nop())
	require.NoError(t, err)

	err = v.Receive(context.Background(), owner, owner, math.NewInt(10))
	require.ErrorIs(t, err, model.ErrTransferFailed)
	assert.True(t, v.Balance().IsZero())
}

func TestRelease(t *testing.T) {
	v, ledger := newTestVault(t)
	ctx := context.Background()
	require.NoError(t, v.Receive(ctx, owner, owner, math.NewInt(100)))

	require.NoError(t, v.Release(ctx, owner, "alice", math.NewInt(60)))
	assert.Equal(t, int64(40), v.Balance().Int64())
	assert.Equal(t, int64(60), ledger.BalanceOf("alice").Int64())
}

func TestRelease_OnlyOwner(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()
	require.NoError(t, v.Receive(ctx, owner, owner, math.NewInt(100)))

	err := v.Release(ctx, "alice", "alice", math.NewInt(100))
	require.ErrorIs(t, err, model.ErrUnauthorized)
	assert.Equal(t, int64(100), v.Balance().Int64())
}

func TestRelease_InsufficientBalanceIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	ledger := asset.NewMemoryLedger()
	require.NoError(t, ledger.Mint(owner, math.NewInt(100)))
	v, err := New(owner, account, ledger, "", logger.FromZap(zap.New(core)))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, v.Receive(ctx, owner, owner, math.NewInt(50)))

	err = v.Release(ctx, owner, "alice", math.NewInt(51))
	require.ErrorIs(t, err, model.ErrInsufficientVaultBalance)
	assert.Equal(t, int64(50), v.Balance().Int64())
	assert.True(t, ledger.BalanceOf("alice").IsZero())
	assert.Equal(t, 1, logs.Len())
}

func TestRelease_TransferFailureLeavesBalance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	ledger := asset.NewMemoryLedger()
	require.NoError(t, ledger.Mint(owner, math.NewInt(100)))
	v, err := New(owner, account, ledger, path, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, v.Receive(context.Background(), owner, owner, math.NewInt(100)))

	// Reopen the same record behind a transferer that always fails.
	broken, err := New(owner, account, failingTransferer{}, path, logger.Nop())
	require.NoError(t, err)

	err = broken.Release(context.Background(), owner, "alice", math.NewInt(10))
	require.ErrorIs(t, err, model.ErrTransferFailed)
	assert.Equal(t, int64(100), broken.Balance().Int64())
}

func TestNew_PersistsAndRejectsForeignOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	ledger := asset.NewMemoryLedger()
	require.NoError(t, ledger.Mint(owner, math.NewInt(100)))

	v, err := New(owner, account, ledger, path, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, v.Receive(context.Background(), owner, owner, math.NewInt(25)))

	reopened, err := New(owner, account, ledger, path, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, int64(25), reopened.Balance().Int64())
	assert.Equal(t, owner, reopened.Owner())

	_, err = New("fund:other", account, ledger, path, logger.Nop())
	assert.Error(t, err)
}
