package recorder

import "ZeitFund/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordContribution(_ *ContributionEvent) error { return nil }
func (n *NoopRecorder) RecordWithdrawal(_ *WithdrawalEvent) error     { return nil }
func (n *NoopRecorder) RecordDividend(_ *DividendEvent) error         { return nil }
func (n *NoopRecorder) RecordClaim(_ *ClaimEvent) error               { return nil }
func (n *NoopRecorder) RecordPhaseChange(_ *PhaseEvent) error         { return nil }
func (n *NoopRecorder) ClaimHistory(_ model.AccountID) ([]ClaimRecord, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
