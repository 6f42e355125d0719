package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cosmossdk.io/math"
	"github.com/robfig/cron/v3"

	"ZeitFund/internal/fund"
	"ZeitFund/internal/logger"
	"ZeitFund/internal/metrics"
	"ZeitFund/internal/model"
	"ZeitFund/internal/notifier"
	"ZeitFund/internal/recorder"
)

// Scheduler runs the fund's recurring tasks and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Fund     *fund.Ledger
	Notifier notifier.Notifier
	Recorder recorder.Recorder
	Units    notifier.Units
	Ctx      context.Context

	log       *logger.Logger
	mu        sync.Mutex
	lastPhase model.Phase
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, l *fund.Ledger, n notifier.Notifier, rec recorder.Recorder, units notifier.Units, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLogger{log}))),
		Fund:      l,
		Notifier:  n,
		Recorder:  rec,
		Units:     units,
		Ctx:       ctx,
		log:       log.With("component", "scheduler"),
		lastPhase: l.Phase(),
	}
}

// cronLogger routes cron's own messages, including recovered job panics, to zap.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append(keysAndValues, "error", err)...)
}

// RegisterAll registers the status report and, when dividendCron is set, the
// recurring dividend.
func (s *Scheduler) RegisterAll(dividendCron string, dividendAmount math.Int, statusCron string) error {
	if statusCron != "" {
		if _, err := s.Cron.AddFunc(statusCron, s.statusTask); err != nil {
			return fmt.Errorf("register status task: %w", err)
		}
	}
	if dividendCron != "" {
		if dividendAmount.IsNil() || !dividendAmount.IsPositive() {
			return fmt.Errorf("recurring dividend needs a positive amount")
		}
		if _, err := s.Cron.AddFunc(dividendCron, func() { s.dividendTask(dividendAmount) }); err != nil {
			return fmt.Errorf("register dividend task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", "entries", len(s.Cron.Entries()))
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunDividendNow issues one dividend immediately.
func (s *Scheduler) RunDividendNow(amount math.Int) error {
	return s.dividendTask(amount)
}

func (s *Scheduler) dividendTask(amount math.Int) error {
	if s.Fund.Phase() != model.PhaseUnlocked {
		s.log.Info("skipping recurring dividend, fund still collecting")
		return nil
	}
	s.log.Info("running recurring dividend", "amount", amount.String())
	if err := s.Fund.IssueDividend(s.Ctx, s.Fund.Manager(), amount); err != nil {
		s.log.Error("recurring dividend failed", "error", err)
		s.trySend(fmt.Sprintf("❌ Dividend of %s failed: %v", s.Units.Format(amount), err))
		return err
	}
	s.trySend(notifier.FormatDividendIssued(amount, s.Fund.Summary(), s.Units))
	return nil
}

func (s *Scheduler) statusTask() {
	summary := s.Fund.Summary()
	metrics.ObserveSummary(summary)

	s.mu.Lock()
	unlockedSinceLast := s.lastPhase != model.PhaseUnlocked && summary.Phase == model.PhaseUnlocked
	s.lastPhase = summary.Phase
	s.mu.Unlock()

	if unlockedSinceLast {
		s.trySend(notifier.FormatGoalReached(summary, s.Units))
	}
	s.trySend(notifier.FormatFundStatus(summary, s.Units))
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return help()
	}
	switch fields[0] {
	case "/status":
		return notifier.FormatFundStatus(s.Fund.Summary(), s.Units)
	case "/claimable", "/shares":
		if len(fields) != 2 {
			return "usage: " + fields[0] + " <account>"
		}
		id := model.AccountID(fields[1])
		return notifier.FormatClaimable(id, s.Fund.Shares(id), s.Fund.Claimable(id), s.Fund.LastClaimAt(id), s.Units)
	case "/history":
		if len(fields) != 2 {
			return "usage: /history <account>"
		}
		return s.claimHistory(model.AccountID(fields[1]))
	default:
		return help()
	}
}

func (s *Scheduler) claimHistory(id model.AccountID) string {
	history, err := s.Recorder.ClaimHistory(id)
	if err != nil {
		s.log.Error("load claim history", "account", id.String(), "error", err)
		return "claim history is unavailable"
	}
	if len(history) == 0 {
		return fmt.Sprintf("%s has not claimed any dividends", id)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧾 <b>Claims by %s</b>\n\n", id))
	for _, c := range history {
		b.WriteString(fmt.Sprintf("%s  %s\n", c.At.Format("2006-01-02 15:04"), s.Units.Format(c.Amount)))
	}
	return b.String()
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error("send notification", "error", err)
	}
}

func help() string {
	return "Available commands:\n• /status\n• /claimable <account>\n• /history <account>"
}
