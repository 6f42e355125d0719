package fund

import (
	"time"

	"cosmossdk.io/math"

	"ZeitFund/internal/model"
	"ZeitFund/internal/statefile"
)

// LoadState reads the fund state from a JSON file. Returns nil if the file doesn't exist.
func LoadState(filePath string) (*model.FundState, error) {
	if filePath == "" {
		return nil, nil
	}
	var state model.FundState
	ok, err := statefile.Read(filePath, &state)
	if err != nil || !ok {
		return nil, err
	}
	normalize(&state)
	return &state, nil
}

// SaveState writes the fund state to a JSON file. An empty path disables persistence.
func SaveState(filePath string, state *model.FundState) error {
	state.UpdatedAt = time.Now()
	if filePath == "" {
		return nil
	}
	return statefile.Write(filePath, state)
}

// normalize replaces nil amounts left by older or hand-edited files with zero.
func normalize(state *model.FundState) {
	for _, v := range []*math.Int{&state.FundingGoal, &state.TotalContributed, &state.TotalShares, &state.Accumulator} {
		if v.IsNil() {
			*v = math.ZeroInt()
		}
	}
	if state.Depositors == nil {
		state.Depositors = make(map[model.AccountID]*model.DepositorRecord)
	}
	for _, rec := range state.Depositors {
		if rec.Shares.IsNil() {
			rec.Shares = math.ZeroInt()
		}
		if rec.Checkpoint.IsNil() {
			rec.Checkpoint = math.ZeroInt()
		}
	}
	if state.Phase == "" {
		state.Phase = model.PhaseCollecting
	}
}
