package vault

import (
	"time"

	"cosmossdk.io/math"

	"ZeitFund/internal/model"
	"ZeitFund/internal/statefile"
)

// LoadState reads the vault state from a JSON file. Returns nil if the file doesn't exist.
func LoadState(filePath string) (*model.VaultState, error) {
	if filePath == "" {
		return nil, nil
	}
	var state model.VaultState
	ok, err := statefile.Read(filePath, &state)
	if err != nil || !ok {
		return nil, err
	}
	if state.Balance.IsNil() {
		state.Balance = math.ZeroInt()
	}
	return &state, nil
}

// SaveState writes the vault state to a JSON file. An empty path disables persistence.
func SaveState(filePath string, state *model.VaultState) error {
	state.UpdatedAt = time.Now()
	if filePath == "" {
		return nil
	}
	return statefile.Write(filePath, state)
}
