package model

import (
	"time"

	"cosmossdk.io/math"
)

// Phase is the funding phase of a fund. It only ever moves forward.
type Phase string

const (
	PhaseCollecting Phase = "COLLECTING"
	PhaseUnlocked   Phase = "UNLOCKED"
)

// DepositorRecord is the per-depositor share and dividend bookkeeping.
type DepositorRecord struct {
	Shares      math.Int  `json:"shares"`
	Checkpoint  math.Int  `json:"checkpoint"`
	LastClaimAt time.Time `json:"last_claim_at,omitempty"`
}

// FundState is the persisted fund record.
type FundState struct {
	Name             string                         `json:"name"`
	Manager          AccountID                      `json:"manager"`
	FundingGoal      math.Int                       `json:"funding_goal"`
	TotalContributed math.Int                       `json:"total_contributed"`
	TotalShares      math.Int                       `json:"total_shares"`
	Phase            Phase                          `json:"phase"`
	Accumulator      math.Int                       `json:"dividend_per_share_accumulated"`
	Depositors       map[AccountID]*DepositorRecord `json:"depositors"`
	UnlockedAt       time.Time                      `json:"unlocked_at,omitempty"`
	UpdatedAt        time.Time                      `json:"updated_at"`
}

// VaultState is the persisted dividend vault record.
type VaultState struct {
	Owner     AccountID `json:"owner"`
	Account   AccountID `json:"account"`
	Balance   math.Int  `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FundSummary is a read-only view used by reports and metrics.
type FundSummary struct {
	Name             string
	Manager          AccountID
	Phase            Phase
	FundingGoal      math.Int
	TotalContributed math.Int
	TotalShares      math.Int
	Accumulator      math.Int
	Depositors       int
	VaultBalance     math.Int
}
