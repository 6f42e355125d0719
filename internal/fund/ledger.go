package fund

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/jonboulle/clockwork"

	"ZeitFund/internal/asset"
	"ZeitFund/internal/calculator"
	"ZeitFund/internal/logger"
	"ZeitFund/internal/metrics"
	"ZeitFund/internal/model"
	"ZeitFund/internal/recorder"
)

// DividendVault is the custody the ledger forwards dividends to.
type DividendVault interface {
	Receive(ctx context.Context, caller, from model.AccountID, amount math.Int) error
	Release(ctx context.Context, caller, to model.AccountID, amount math.Int) error
	Balance() math.Int
	Owner() model.AccountID
	Account() model.AccountID
}

// Params are the immutable settings of a fund.
type Params struct {
	Name        string
	Manager     model.AccountID
	FundingGoal math.Int
	StateFile   string
}

// Deps are the collaborators of a ledger. Recorder, Clock and Logger are optional.
type Deps struct {
	Vault      DividendVault
	Transferer asset.Transferer
	Recorder   recorder.Recorder
	Clock      clockwork.Clock
	Logger     *logger.Logger
}

// Ledger owns the funding state machine, the share records and the dividend
// accumulator. All operations are serialized.
type Ledger struct {
	mu         sync.Mutex
	state      *model.FundState
	filePath   string
	account    model.AccountID
	vault      DividendVault
	transferer asset.Transferer
	recorder   recorder.Recorder
	clock      clockwork.Clock
	log        *logger.Logger
}

// NewLedger loads the fund record from p.StateFile or creates a fresh one. A stored
// record whose manager or goal differ from p is rejected, since both are immutable.
func NewLedger(p Params, d Deps) (*Ledger, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("fund name is required")
	}
	if p.Manager == "" {
		return nil, fmt.Errorf("fund manager is required")
	}
	if p.FundingGoal.IsNil() || !p.FundingGoal.IsPositive() {
		return nil, fmt.Errorf("%w: funding goal must be positive", model.ErrInvalidAmount)
	}
	if d.Vault == nil || d.Transferer == nil {
		return nil, fmt.Errorf("vault and transferer are required")
	}

	account := model.FundAccount(p.Name)
	if d.Vault.Owner() != account {
		return nil, fmt.Errorf("vault %s is owned by %s, not %s", d.Vault.Account(), d.Vault.Owner(), account)
	}
	if p.Manager == account || p.Manager == d.Vault.Account() {
		return nil, fmt.Errorf("manager must be an external account")
	}

	state, err := LoadState(p.StateFile)
	if err != nil {
		return nil, fmt.Errorf("load fund state: %w", err)
	}
	if state == nil {
		state = &model.FundState{
			Name:             p.Name,
			Manager:          p.Manager,
			FundingGoal:      p.FundingGoal,
			TotalContributed: math.ZeroInt(),
			TotalShares:      math.ZeroInt(),
			Phase:            model.PhaseCollecting,
			Accumulator:      math.ZeroInt(),
			Depositors:       make(map[model.AccountID]*model.DepositorRecord),
		}
	}
	if state.Name != p.Name || state.Manager != p.Manager || !state.FundingGoal.Equal(p.FundingGoal) {
		return nil, fmt.Errorf("fund state in %s was created for %s (manager %s, goal %s)",
			p.StateFile, state.Name, state.Manager, state.FundingGoal)
	}

	if d.Recorder == nil {
		d.Recorder = recorder.NewNoopRecorder()
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}

	l := &Ledger{
		state:      state,
		filePath:   p.StateFile,
		account:    account,
		vault:      d.Vault,
		transferer: d.Transferer,
		recorder:   d.Recorder,
		clock:      d.Clock,
		log:        d.Logger.With("component", "fund", "fund", p.Name),
	}
	if err := l.save(); err != nil {
		return nil, err
	}
	metrics.ObserveSummary(l.summary())
	return l, nil
}

// Contribute accepts amount from depositor in exchange for the same number of shares.
// The whole amount is accepted even when it overshoots the funding goal.
func (l *Ledger) Contribute(ctx context.Context, depositor model.AccountID, amount math.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.Phase != model.PhaseCollecting {
		return l.reject("contribute", fmt.Errorf("%w: funding window is closed", model.ErrPhaseViolation))
	}
	if amount.IsNil() || !amount.IsPositive() {
		return l.reject("contribute", fmt.Errorf("%w: contribution must be positive", model.ErrInvalidAmount))
	}
	if depositor == "" || depositor == l.account || depositor == l.vault.Account() {
		return l.reject("contribute", fmt.Errorf("%w: %q cannot contribute", model.ErrUnauthorized, depositor))
	}
	// Shares never exceed the total, so one bound check covers all three sums.
	total, err := l.state.TotalContributed.SafeAdd(amount)
	if err != nil {
		return l.reject("contribute", fmt.Errorf("%w: %w", model.ErrInvalidAmount, err))
	}
	if err := l.transferer.Transfer(ctx, depositor, l.account, amount); err != nil {
		return l.reject("contribute", fmt.Errorf("%w: contribution from %s: %w", model.ErrTransferFailed, depositor, err))
	}

	rec, ok := l.state.Depositors[depositor]
	if !ok {
		rec = &model.DepositorRecord{Shares: math.ZeroInt(), Checkpoint: l.state.Accumulator}
		l.state.Depositors[depositor] = rec
	}
	rec.Shares = rec.Shares.Add(amount)
	l.state.TotalShares = l.state.TotalShares.Add(amount)
	l.state.TotalContributed = total

	now := l.clock.Now()
	unlocked := false
	if l.state.TotalContributed.GTE(l.state.FundingGoal) {
		l.state.Phase = model.PhaseUnlocked
		l.state.UnlockedAt = now
		unlocked = true
	}

	l.log.Info("contribution accepted",
		"depositor", depositor.String(), "amount", amount.String(),
		"total_contributed", l.state.TotalContributed.String())
	l.commit()

	metrics.ContributionsTotal.Inc()
	if err := l.recorder.RecordContribution(&recorder.ContributionEvent{
		At: now, Depositor: depositor, Amount: amount,
		SharesAfter: rec.Shares, TotalContributed: l.state.TotalContributed,
	}); err != nil {
		l.log.Error("record contribution", "error", err)
	}
	if unlocked {
		l.log.Info("funding goal reached, fund unlocked", "goal", l.state.FundingGoal.String())
		if err := l.recorder.RecordPhaseChange(&recorder.PhaseEvent{
			At: now, From: model.PhaseCollecting, To: model.PhaseUnlocked,
			TotalContributed: l.state.TotalContributed,
		}); err != nil {
			l.log.Error("record phase change", "error", err)
		}
	}
	return nil
}

// WithdrawPrincipal moves amount of principal to the manager for deployment.
// Shares are unaffected.
func (l *Ledger) WithdrawPrincipal(ctx context.Context, caller model.AccountID, amount math.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.onlyManager(caller); err != nil {
		return l.reject("withdraw", err)
	}
	if l.state.Phase != model.PhaseUnlocked {
		return l.reject("withdraw", fmt.Errorf("%w: principal is locked until the funding goal is met", model.ErrPhaseViolation))
	}
	if amount.IsNil() || !amount.IsPositive() {
		return l.reject("withdraw", fmt.Errorf("%w: withdrawal must be positive", model.ErrInvalidAmount))
	}
	if err := l.transferer.Transfer(ctx, l.account, l.state.Manager, amount); err != nil {
		return l.reject("withdraw", fmt.Errorf("%w: principal withdrawal: %w", model.ErrTransferFailed, err))
	}

	l.log.Info("principal withdrawn", "amount", amount.String())
	metrics.WithdrawalsTotal.Inc()
	if err := l.recorder.RecordWithdrawal(&recorder.WithdrawalEvent{
		At: l.clock.Now(), Caller: caller, Amount: amount,
	}); err != nil {
		l.log.Error("record withdrawal", "error", err)
	}
	return nil
}

// IssueDividend moves amount from the fund's principal account into the vault and
// raises the dividend-per-share accumulator. Cost is independent of the number of
// depositors.
func (l *Ledger) IssueDividend(ctx context.Context, caller model.AccountID, amount math.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.onlyManager(caller); err != nil {
		return l.reject("dividend", err)
	}
	if l.state.Phase != model.PhaseUnlocked {
		return l.reject("dividend", fmt.Errorf("%w: dividends start once the fund is unlocked", model.ErrPhaseViolation))
	}
	if amount.IsNil() || !amount.IsPositive() {
		return l.reject("dividend", fmt.Errorf("%w: dividend must be positive", model.ErrInvalidAmount))
	}
	if !l.state.TotalShares.IsPositive() {
		return l.reject("dividend", fmt.Errorf("%w: nobody holds shares yet", model.ErrNoShares))
	}
	delta, err := calculator.AccumulatorDelta(amount, l.state.TotalShares)
	if err != nil {
		return l.reject("dividend", fmt.Errorf("%w: %w", model.ErrInvalidAmount, err))
	}
	acc, err := l.state.Accumulator.SafeAdd(delta)
	if err != nil {
		return l.reject("dividend", fmt.Errorf("%w: accumulator: %w", model.ErrInvalidAmount, err))
	}
	if err := l.vault.Receive(ctx, l.account, l.account, amount); err != nil {
		return l.reject("dividend", err)
	}

	l.state.Accumulator = acc
	vaultBalance := l.vault.Balance()

	l.log.Info("dividend issued",
		"amount", amount.String(), "total_shares", l.state.TotalShares.String(),
		"accumulator", l.state.Accumulator.String())
	l.commit()

	metrics.DividendsTotal.Inc()
	if err := l.recorder.RecordDividend(&recorder.DividendEvent{
		At: l.clock.Now(), Amount: amount, TotalShares: l.state.TotalShares,
		AccumulatorAfter: l.state.Accumulator, VaultBalance: vaultBalance,
	}); err != nil {
		l.log.Error("record dividend", "error", err)
	}
	return nil
}

// Claim pays depositor everything owed since their last claim and returns the amount.
// Claiming with nothing owed returns zero and changes nothing.
func (l *Ledger) Claim(ctx context.Context, depositor model.AccountID) (math.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.state.Depositors[depositor]
	if !ok || !rec.Shares.IsPositive() {
		return math.ZeroInt(), l.reject("claim", fmt.Errorf("%w: %s holds no shares", model.ErrNoShares, depositor))
	}
	owed, err := calculator.Owed(rec.Shares, l.state.Accumulator, rec.Checkpoint)
	if err != nil {
		return math.ZeroInt(), l.reject("claim", fmt.Errorf("%w: %w", model.ErrInvalidAmount, err))
	}
	if owed.IsZero() {
		metrics.ClaimsTotal.WithLabelValues("false").Inc()
		return owed, nil
	}

	// Checkpoint moves only after the vault has paid.
	if err := l.vault.Release(ctx, l.account, depositor, owed); err != nil {
		return math.ZeroInt(), l.reject("claim", err)
	}
	now := l.clock.Now()
	rec.Checkpoint = l.state.Accumulator
	rec.LastClaimAt = now
	vaultBalance := l.vault.Balance()

	l.log.Info("dividend claimed", "depositor", depositor.String(), "amount", owed.String())
	l.commit()

	metrics.ClaimsTotal.WithLabelValues("true").Inc()
	if err := l.recorder.RecordClaim(&recorder.ClaimEvent{
		At: now, Depositor: depositor, Amount: owed,
		Checkpoint: rec.Checkpoint, VaultBalance: vaultBalance,
	}); err != nil {
		l.log.Error("record claim", "error", err)
	}
	return owed, nil
}

// Claimable is what Claim would pay depositor right now.
func (l *Ledger) Claimable(depositor model.AccountID) math.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.state.Depositors[depositor]
	if !ok {
		return math.ZeroInt()
	}
	owed, err := calculator.Owed(rec.Shares, l.state.Accumulator, rec.Checkpoint)
	if err != nil {
		return math.ZeroInt()
	}
	return owed
}

func (l *Ledger) Phase() model.Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Phase
}

func (l *Ledger) FundingGoal() math.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.FundingGoal
}

func (l *Ledger) TotalContributed() math.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.TotalContributed
}

func (l *Ledger) TotalShares() math.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.TotalShares
}

// Accumulator is the cumulative dividend per share, scaled by calculator.Scale.
func (l *Ledger) Accumulator() math.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Accumulator
}

func (l *Ledger) Manager() model.AccountID {
	return l.state.Manager
}

// Account is the fund's own identity and principal account.
func (l *Ledger) Account() model.AccountID {
	return l.account
}

func (l *Ledger) Shares(depositor model.AccountID) math.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sharesOf(depositor)
}

// ManagerShares is the stake the manager holds in their own fund.
func (l *Ledger) ManagerShares() math.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sharesOf(l.state.Manager)
}

// Checkpoint is the accumulator value depositor was last paid up to.
func (l *Ledger) Checkpoint(depositor model.AccountID) math.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec, ok := l.state.Depositors[depositor]; ok {
		return rec.Checkpoint
	}
	return math.ZeroInt()
}

// LastClaimAt is the time of depositor's last paid claim, zero if never.
func (l *Ledger) LastClaimAt(depositor model.AccountID) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec, ok := l.state.Depositors[depositor]; ok {
		return rec.LastClaimAt
	}
	return time.Time{}
}

// VaultAccount is the custody account dividends are paid from.
func (l *Ledger) VaultAccount() model.AccountID {
	return l.vault.Account()
}

// VaultOwner is the identity the vault accepts instructions from. It equals Account
// for a correctly linked fund.
func (l *Ledger) VaultOwner() model.AccountID {
	return l.vault.Owner()
}

// Depositors lists every depositor, sorted by id.
func (l *Ledger) Depositors() []model.AccountID {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.AccountID, 0, len(l.state.Depositors))
	for id := range l.state.Depositors {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Summary returns a read-only view of the fund.
func (l *Ledger) Summary() model.FundSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.summary()
}

func (l *Ledger) summary() model.FundSummary {
	return model.FundSummary{
		Name:             l.state.Name,
		Manager:          l.state.Manager,
		Phase:            l.state.Phase,
		FundingGoal:      l.state.FundingGoal,
		TotalContributed: l.state.TotalContributed,
		TotalShares:      l.state.TotalShares,
		Accumulator:      l.state.Accumulator,
		Depositors:       len(l.state.Depositors),
		VaultBalance:     l.vault.Balance(),
	}
}

func (l *Ledger) sharesOf(depositor model.AccountID) math.Int {
	if rec, ok := l.state.Depositors[depositor]; ok {
		return rec.Shares
	}
	return math.ZeroInt()
}

func (l *Ledger) onlyManager(caller model.AccountID) error {
	if caller != l.state.Manager {
		return fmt.Errorf("%w: only the manager may do this, not %s", model.ErrUnauthorized, caller)
	}
	return nil
}

func (l *Ledger) reject(op string, err error) error {
	l.log.Warn("operation rejected", "operation", op, "kind", model.ErrorKind(err), "error", err)
	metrics.ObserveError(op, err)
	return err
}

// commit persists the state after a mutation that has already taken effect upstream.
func (l *Ledger) commit() {
	if err := l.save(); err != nil {
		l.log.Error("failed to save fund state", "error", err)
	}
	metrics.ObserveSummary(l.summary())
}

func (l *Ledger) save() error {
	return SaveState(l.filePath, l.state)
}
