package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ZeitFund/internal/logger"
	"ZeitFund/internal/model"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "fund.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSQLiteRecorder_ClaimHistory(t *testing.T) {
	r := newTestRecorder(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, r.RecordClaim(&ClaimEvent{
		At: base, Depositor: "alice", Amount: math.NewInt(60),
		Checkpoint: math.NewInt(1), VaultBalance: math.NewInt(40),
	}))
	require.NoError(t, r.RecordClaim(&ClaimEvent{
		At: base.Add(time.Hour), Depositor: "bob", Amount: math.NewInt(40),
		Checkpoint: math.NewInt(1), VaultBalance: math.ZeroInt(),
	}))
	require.NoError(t, r.RecordClaim(&ClaimEvent{
		At: base.Add(2 * time.Hour), Depositor: "alice", Amount: math.NewInt(6),
		Checkpoint: math.NewInt(2), VaultBalance: math.NewInt(4),
	}))

	history, err := r.ClaimHistory("alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(60), history[0].Amount.Int64())
	assert.True(t, base.Equal(history[0].At))
	assert.Equal(t, int64(6), history[1].Amount.Int64())
	assert.NotEmpty(t, history[0].ID)
}

func TestSQLiteRecorder_RecordsAllEvents(t *testing.T) {
	r := newTestRecorder(t)
	now := time.Now()

	require.NoError(t, r.RecordContribution(&ContributionEvent{
		At: now, Depositor: "alice", Amount: math.NewInt(600),
		SharesAfter: math.NewInt(600), TotalContributed: math.NewInt(600),
	}))
	require.NoError(t, r.RecordPhaseChange(&PhaseEvent{
		At: now, From: model.PhaseCollecting, To: model.PhaseUnlocked, TotalContributed: math.NewInt(1000),
	}))
	require.NoError(t, r.RecordWithdrawal(&WithdrawalEvent{At: now, Caller: "manager", Amount: math.NewInt(500)}))
	require.NoError(t, r.RecordDividend(&DividendEvent{
		At: now, Amount: math.NewInt(100), TotalShares: math.NewInt(1000),
		AccumulatorAfter: math.NewInt(1), VaultBalance: math.NewInt(100),
	}))

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM contributions`).Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM dividends`).Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM withdrawals`).Scan(&n))
	assert.Equal(t, 1, n)

	var to string
	require.NoError(t, r.db.QueryRow(`SELECT to_phase FROM phase_changes`).Scan(&to))
	assert.Equal(t, string(model.PhaseUnlocked), to)
}

func TestSQLiteRecorder_MigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fund.db")
	r, err := NewSQLiteRecorder(path, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, r.Close())
}
