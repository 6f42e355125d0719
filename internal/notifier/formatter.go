package notifier

import (
	"fmt"
	"strings"
	"time"

	"cosmossdk.io/math"
	"github.com/shopspring/decimal"

	"ZeitFund/internal/calculator"
	"ZeitFund/internal/model"
)

// Units renders base-unit amounts in whole asset units.
type Units struct {
	Symbol   string
	Decimals int32
}

// Format renders amount with trailing zeros trimmed, e.g. "12.5 ZTG".
func (u Units) Format(amount math.Int) string {
	if amount.IsNil() {
		amount = math.ZeroInt()
	}
	d := decimal.NewFromBigInt(amount.BigInt(), -u.Decimals)
	return fmt.Sprintf("%s %s", d.String(), u.Symbol)
}

// FormatFundStatus formats the current fund state for display.
func FormatFundStatus(s model.FundSummary, u Units) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>%s</b> | %s\n\n", s.Name, phaseLabel(s.Phase)))
	b.WriteString(fmt.Sprintf("Funding goal: %s\n", u.Format(s.FundingGoal)))
	b.WriteString(fmt.Sprintf("Contributed: %s", u.Format(s.TotalContributed)))
	if bps, err := calculator.FundingProgressBps(s.TotalContributed, s.FundingGoal); err == nil {
		b.WriteString(fmt.Sprintf(" (%s%%)", decimal.New(bps, -2).StringFixed(2)))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Depositors: %d\n", s.Depositors))
	b.WriteString(fmt.Sprintf("Dividend vault: %s\n", u.Format(s.VaultBalance)))
	b.WriteString(fmt.Sprintf("Updated: %s\n", time.Now().Format("2006-01-02 15:04")))
	return b.String()
}

// FormatDividendIssued announces a dividend round.
func FormatDividendIssued(amount math.Int, s model.FundSummary, u Units) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💰 <b>Dividend issued</b> | %s\n\n", s.Name))
	b.WriteString(fmt.Sprintf("Amount: %s\n", u.Format(amount)))
	b.WriteString(fmt.Sprintf("Shares outstanding: %s\n", u.Format(s.TotalShares)))
	b.WriteString(fmt.Sprintf("Vault balance: %s\n", u.Format(s.VaultBalance)))
	b.WriteString("\nDepositors can claim their share at any time.")
	return b.String()
}

// FormatGoalReached announces the end of the funding window.
func FormatGoalReached(s model.FundSummary, u Units) string {
	return fmt.Sprintf("🔓 <b>%s funded</b>\n\n%s raised from %d depositors, goal %s.",
		s.Name, u.Format(s.TotalContributed), s.Depositors, u.Format(s.FundingGoal))
}

// FormatClaimable describes a depositor's position.
func FormatClaimable(depositor model.AccountID, shares, claimable math.Int, lastClaim time.Time, u Units) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("👤 <b>%s</b>\n\n", depositor))
	b.WriteString(fmt.Sprintf("Shares: %s\n", u.Format(shares)))
	b.WriteString(fmt.Sprintf("Claimable: %s\n", u.Format(claimable)))
	if lastClaim.IsZero() {
		b.WriteString("Last claim: never\n")
	} else {
		b.WriteString(fmt.Sprintf("Last claim: %s\n", lastClaim.Format("2006-01-02 15:04")))
	}
	return b.String()
}

func phaseLabel(p model.Phase) string {
	switch p {
	case model.PhaseUnlocked:
		return "unlocked"
	case model.PhaseCollecting:
		return "collecting"
	default:
		return string(p)
	}
}

// Parse converts a whole-unit amount such as "12.5" into base units. Amounts with
// more fractional digits than the asset supports are rejected.
func (u Units) Parse(s string) (math.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return math.ZeroInt(), fmt.Errorf("parse amount %q: %w", s, err)
	}
	base := d.Shift(u.Decimals)
	if !base.Equal(base.Truncate(0)) {
		return math.ZeroInt(), fmt.Errorf("amount %q has more than %d decimals", s, u.Decimals)
	}
	bi := base.BigInt()
	if bi.BitLen() > math.MaxBitLen {
		return math.ZeroInt(), fmt.Errorf("amount %q is too large", s)
	}
	return math.NewIntFromBigInt(bi), nil
}
