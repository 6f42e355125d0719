package asset

import (
	"context"
	"fmt"
	"sync"

	"cosmossdk.io/math"

	"ZeitFund/internal/model"
	"ZeitFund/internal/statefile"
)

// MemoryLedger is an in-process base-asset ledger, persisted to a JSON file when a
// path is set.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[model.AccountID]math.Int
	filePath string
}

// NewMemoryLedger returns an empty ledger that is never persisted.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[model.AccountID]math.Int)}
}

// LoadLedger reads balances from a JSON file. A missing file yields an empty ledger
// bound to that path.
func LoadLedger(filePath string) (*MemoryLedger, error) {
	l := NewMemoryLedger()
	l.filePath = filePath

	if _, err := statefile.Read(filePath, &l.balances); err != nil {
		return nil, fmt.Errorf("load asset ledger: %w", err)
	}
	if l.balances == nil {
		l.balances = make(map[model.AccountID]math.Int)
	}
	for id, bal := range l.balances {
		if bal.IsNil() {
			l.balances[id] = math.ZeroInt()
		}
	}
	return l, nil
}

// Mint credits an account out of thin air. Used for funding test and dev accounts.
func (l *MemoryLedger) Mint(to model.AccountID, amount math.Int) error {
	if to == "" || amount.IsNil() || !amount.IsPositive() {
		return ErrInvalidTransfer
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.balanceOf(to)
	next, err := prev.SafeAdd(amount)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransfer, err)
	}
	l.balances[to] = next
	if err := l.save(); err != nil {
		l.balances[to] = prev
		return err
	}
	return nil
}

// BalanceOf returns the balance of an account.
func (l *MemoryLedger) BalanceOf(id model.AccountID) math.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceOf(id)
}

func (l *MemoryLedger) Transfer(ctx context.Context, from, to model.AccountID, amount math.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if from == "" || to == "" || from == to || amount.IsNil() || !amount.IsPositive() {
		return ErrInvalidTransfer
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fromBal := l.balanceOf(from)
	if fromBal.LT(amount) {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientBalance, from, fromBal, amount)
	}
	toBal := l.balanceOf(to)
	toNext, err := toBal.SafeAdd(amount)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransfer, err)
	}
	l.balances[from] = fromBal.Sub(amount)
	l.balances[to] = toNext
	if err := l.save(); err != nil {
		l.balances[from] = fromBal
		l.balances[to] = toBal
		return fmt.Errorf("persist transfer: %w", err)
	}
	return nil
}

func (l *MemoryLedger) balanceOf(id model.AccountID) math.Int {
	bal, ok := l.balances[id]
	if !ok || bal.IsNil() {
		return math.ZeroInt()
	}
	return bal
}

func (l *MemoryLedger) save() error {
	if l.filePath == "" {
		return nil
	}
	return statefile.Write(l.filePath, l.balances)
}
