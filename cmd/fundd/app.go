package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"ZeitFund/internal/asset"
	"ZeitFund/internal/config"
	"ZeitFund/internal/fund"
	"ZeitFund/internal/logger"
	"ZeitFund/internal/model"
	"ZeitFund/internal/notifier"
	"ZeitFund/internal/recorder"
	"ZeitFund/internal/vault"
)

// app is the wired fund: one ledger, its vault and the base-asset ledger they move
// funds through.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	assets   *asset.MemoryLedger
	vault    *vault.Vault
	ledger   *fund.Ledger
	recorder recorder.Recorder
	units    notifier.Units
	lock     *flock.Flock
}

func openApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	log, err := logger.New(cfg.Log.Format, opts.verbose)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	for _, p := range []string{cfg.Fund.StateFile, cfg.Fund.VaultStateFile, cfg.Asset.LedgerFile, cfg.Database.SQLitePath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		units: notifier.Units{Symbol: cfg.Asset.Symbol, Decimals: cfg.Asset.Decimals},
		lock:  flock.New(cfg.Fund.StateFile + ".lock"),
	}
	if err := a.acquire(); err != nil {
		return nil, err
	}

	if err := a.wire(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	cfg := a.cfg
	goal, err := cfg.FundingGoal()
	if err != nil {
		return err
	}

	a.assets, err = asset.LoadLedger(cfg.Asset.LedgerFile)
	if err != nil {
		return fmt.Errorf("load asset ledger: %w", err)
	}

	a.vault, err = vault.New(model.FundAccount(cfg.Fund.Name), model.VaultAccount(cfg.Fund.Name),
		a.assets, cfg.Fund.VaultStateFile, a.log)
	if err != nil {
		return fmt.Errorf("open vault: %w", err)
	}

	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, a.log)
		if err != nil {
			a.log.Warn("init sqlite recorder failed, using noop", "error", err)
			a.recorder = recorder.NewNoopRecorder()
		} else {
			a.recorder = sr
		}
	} else {
		a.recorder = recorder.NewNoopRecorder()
	}

	a.ledger, err = fund.NewLedger(fund.Params{
		Name:        cfg.Fund.Name,
		Manager:     cfg.ManagerID(),
		FundingGoal: goal,
		StateFile:   cfg.Fund.StateFile,
	}, fund.Deps{
		Vault:      a.vault,
		Transferer: a.assets,
		Recorder:   a.recorder,
		Logger:     a.log,
	})
	if err != nil {
		return fmt.Errorf("open fund: %w", err)
	}
	return nil
}

// acquire makes this process the single writer of the state files. The kernel drops
// the advisory lock when the process exits.
func (a *app) acquire() error {
	ok, err := a.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock fund state: %w", err)
	}
	if !ok {
		return fmt.Errorf("fund state is in use by another fundd process (%s)", a.lock.Path())
	}
	return nil
}

func (a *app) Close() {
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			a.log.Error("close recorder", "error", err)
		}
	}
	if err := a.lock.Unlock(); err != nil {
		a.log.Error("release state lock", "error", err)
	}
	a.log.Sync()
}
