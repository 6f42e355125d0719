package metrics

import (
	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ZeitFund/internal/model"
)

var (
	ContributionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zeitfund_contributions_total",
			Help: "Total number of accepted contributions",
		},
	)

	DividendsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zeitfund_dividends_total",
			Help: "Total number of dividends issued",
		},
	)

	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zeitfund_claims_total",
			Help: "Total number of dividend claims, by whether anything was paid",
		},
		[]string{"paid"},
	)

	WithdrawalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zeitfund_principal_withdrawals_total",
			Help: "Total number of principal withdrawals by the manager",
		},
	)

	OperationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zeitfund_operation_errors_total",
			Help: "Total number of rejected fund operations",
		},
		[]string{"operation", "kind"},
	)

	TotalContributed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "zeitfund_total_contributed",
			Help: "Base asset contributed to the fund, in base units",
		},
	)

	VaultBalance = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "zeitfund_vault_balance",
			Help: "Base asset held by the dividend vault, in base units",
		},
	)

	Unlocked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "zeitfund_unlocked",
			Help: "1 once the funding goal has been reached",
		},
	)
)

// ObserveError counts a rejected operation.
func ObserveError(operation string, err error) {
	OperationErrorsTotal.WithLabelValues(operation, model.ErrorKind(err)).Inc()
}

// ObserveSummary refreshes the fund gauges.
func ObserveSummary(s model.FundSummary) {
	TotalContributed.Set(toFloat(s.TotalContributed))
	VaultBalance.Set(toFloat(s.VaultBalance))
	if s.Phase == model.PhaseUnlocked {
		Unlocked.Set(1)
	} else {
		Unlocked.Set(0)
	}
}

func toFloat(v math.Int) float64 {
	if v.IsNil() {
		return 0
	}
	f, _ := v.BigInt().Float64()
	return f
}
