package recorder

import (
	"time"

	"cosmossdk.io/math"

	"ZeitFund/internal/model"
)

// ContributionEvent records an accepted contribution.
type ContributionEvent struct {
	At               time.Time
	Depositor        model.AccountID
	Amount           math.Int
	SharesAfter      math.Int
	TotalContributed math.Int
}

// WithdrawalEvent records a principal withdrawal by the manager.
type WithdrawalEvent struct {
	At     time.Time
	Caller model.AccountID
	Amount math.Int
}

// DividendEvent records a dividend moved into the vault.
type DividendEvent struct {
	At               time.Time
	Amount           math.Int
	TotalShares      math.Int
	AccumulatorAfter math.Int
	VaultBalance     math.Int
}

// ClaimEvent records a dividend paid to a depositor.
type ClaimEvent struct {
	At           time.Time
	Depositor    model.AccountID
	Amount       math.Int
	Checkpoint   math.Int
	VaultBalance math.Int
}

// PhaseEvent records a funding phase transition.
type PhaseEvent struct {
	At               time.Time
	From             model.Phase
	To               model.Phase
	TotalContributed math.Int
}

// ClaimRecord is one row of a depositor's claim history.
type ClaimRecord struct {
	ID     string
	At     time.Time
	Amount math.Int
}

// Recorder persists fund history for analysis.
type Recorder interface {
	RecordContribution(evt *ContributionEvent) error
	RecordWithdrawal(evt *WithdrawalEvent) error
	RecordDividend(evt *DividendEvent) error
	RecordClaim(evt *ClaimEvent) error
	RecordPhaseChange(evt *PhaseEvent) error
	ClaimHistory(depositor model.AccountID) ([]ClaimRecord, error)
	Close() error
}
