package vault

import (
	"context"
	"fmt"
	"sync"

	"cosmossdk.io/math"

	"ZeitFund/internal/asset"
	"ZeitFund/internal/logger"
	"ZeitFund/internal/model"
)

// Vault holds dividend funds in custody, segregated from the fund's principal.
// Only its owner may move funds in or out.
type Vault struct {
	mu         sync.Mutex
	state      *model.VaultState
	transferer asset.Transferer
	filePath   string
	log        *logger.Logger
}

// New opens the vault record at filePath, creating it for owner if absent. An
// existing record bound to a different owner is rejected.
func New(owner, account model.AccountID, transferer asset.Transferer, filePath string, log *logger.Logger) (*Vault, error) {
	if owner == "" || account == "" {
		return nil, fmt.Errorf("vault owner and account are required")
	}
	if owner == account {
		return nil, fmt.Errorf("vault account must differ from its owner")
	}
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load vault state: %w", err)
	}
	if state == nil {
		state = &model.VaultState{Owner: owner, Account: account, Balance: math.ZeroInt()}
	}
	if state.Owner != owner || state.Account != account {
		return nil, fmt.Errorf("vault state in %s belongs to %s/%s", filePath, state.Owner, state.Account)
	}
	if log == nil {
		log = logger.Nop()
	}

	v := &Vault{
		state:      state,
		transferer: transferer,
		filePath:   filePath,
		log:        log.With("component", "vault", "account", account.String()),
	}
	if err := v.save(); err != nil {
		return nil, err
	}
	return v, nil
}

// Owner is the identity allowed to instruct the vault.
func (v *Vault) Owner() model.AccountID {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Owner
}

// Account is the custody account holding the dividend funds.
func (v *Vault) Account() model.AccountID {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Account
}

// Balance is the amount currently held in custody.
func (v *Vault) Balance() math.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Balance
}

// GetState returns a copy of the vault record.
func (v *Vault) GetState() model.VaultState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return *v.state
}

// Receive pulls amount from the given account into custody.
func (v *Vault) Receive(ctx context.Context, caller, from model.AccountID, amount math.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.state.Owner {
		return fmt.Errorf("%w: %s may not fund vault owned by %s", model.ErrUnauthorized, caller, v.state.Owner)
	}
	if amount.IsNil() || !amount.IsPositive() {
		return fmt.Errorf("%w: vault deposit must be positive", model.ErrInvalidAmount)
	}
	balance, err := v.state.Balance.SafeAdd(amount)
	if err != nil {
		return fmt.Errorf("%w: vault balance: %w", model.ErrInvalidAmount, err)
	}
	if err := v.transferer.Transfer(ctx, from, v.state.Account, amount); err != nil {
		return fmt.Errorf("%w: into vault: %w", model.ErrTransferFailed, err)
	}

	v.state.Balance = balance
	v.log.Debug("vault received", "from", from.String(), "amount", amount.String(), "balance", v.state.Balance.String())
	if err := v.save(); err != nil {
		v.log.Error("failed to save vault state", "error", err)
	}
	return nil
}

// Release pays amount out of custody to the given account.
func (v *Vault) Release(ctx context.Context, caller, to model.AccountID, amount math.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.state.Owner {
		return fmt.Errorf("%w: %s may not release from vault owned by %s", model.ErrUnauthorized, caller, v.state.Owner)
	}
	if amount.IsNil() || !amount.IsPositive() {
		return fmt.Errorf("%w: vault release must be positive", model.ErrInvalidAmount)
	}
	if v.state.Balance.LT(amount) {
		v.log.Error("vault release exceeds custody, accounting invariant breached",
			"to", to.String(), "amount", amount.String(), "balance", v.state.Balance.String())
		return fmt.Errorf("%w: release %s exceeds balance %s", model.ErrInsufficientVaultBalance, amount, v.state.Balance)
	}
	if err := v.transferer.Transfer(ctx, v.state.Account, to, amount); err != nil {
		return fmt.Errorf("%w: out of vault: %w", model.ErrTransferFailed, err)
	}

	v.state.Balance = v.state.Balance.Sub(amount)
	v.log.Debug("vault released", "to", to.String(), "amount", amount.String(), "balance", v.state.Balance.String())
	if err := v.save(); err != nil {
		v.log.Error("failed to save vault state", "error", err)
	}
	return nil
}

func (v *Vault) save() error {
	return SaveState(v.filePath, v.state)
}
