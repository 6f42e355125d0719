package config

import (
	"fmt"
	"os"
	"strconv"

	"cosmossdk.io/math"
	"gopkg.in/yaml.v3"

	"ZeitFund/internal/model"
)

const defaultDecimals = 10

// Config holds all application configuration.
type Config struct {
	Fund struct {
		Name           string `yaml:"name"`
		Manager        string `yaml:"manager"`
		FundingGoal    string `yaml:"funding_goal"`
		StateFile      string `yaml:"state_file"`
		VaultStateFile string `yaml:"vault_state_file"`
	} `yaml:"fund"`
	Asset struct {
		Symbol     string `yaml:"symbol"`
		Decimals   int32  `yaml:"decimals"`
		LedgerFile string `yaml:"ledger_file"`
	} `yaml:"asset"`
	Dividend struct {
		Cron   string `yaml:"cron"`
		Amount string `yaml:"amount"`
	} `yaml:"dividend"`
	Schedule struct {
		StatusCron string `yaml:"status_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Zero is a valid decimals value, so its default is set before decoding.
	cfg.Asset.Decimals = defaultDecimals

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("FUND_NAME"); v != "" {
		cfg.Fund.Name = v
	}
	if v := os.Getenv("FUND_MANAGER"); v != "" {
		cfg.Fund.Manager = v
	}
	if v := os.Getenv("FUND_GOAL"); v != "" {
		cfg.Fund.FundingGoal = v
	}
	if v := os.Getenv("FUND_STATE_FILE"); v != "" {
		cfg.Fund.StateFile = v
	}
	if v := os.Getenv("VAULT_STATE_FILE"); v != "" {
		cfg.Fund.VaultStateFile = v
	}
	if v := os.Getenv("ASSET_LEDGER_FILE"); v != "" {
		cfg.Asset.LedgerFile = v
	}
	if v := os.Getenv("ASSET_DECIMALS"); v != "" {
		if d, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.Asset.Decimals = int32(d)
		}
	}
	if v := os.Getenv("DIVIDEND_CRON"); v != "" {
		cfg.Dividend.Cron = v
	}
	if v := os.Getenv("DIVIDEND_AMOUNT"); v != "" {
		cfg.Dividend.Amount = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Fund.Name == "" {
		cfg.Fund.Name = "zeitfund"
	}
	if cfg.Fund.StateFile == "" {
		cfg.Fund.StateFile = "data/fund_state.json"
	}
	if cfg.Fund.VaultStateFile == "" {
		cfg.Fund.VaultStateFile = "data/vault_state.json"
	}
	if cfg.Asset.Symbol == "" {
		cfg.Asset.Symbol = "ZTG"
	}
	if cfg.Asset.LedgerFile == "" {
		cfg.Asset.LedgerFile = "data/asset_ledger.json"
	}
	if cfg.Schedule.StatusCron == "" {
		cfg.Schedule.StatusCron = "0 0 9 * * 1"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/zeitfund.db"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Fund.Manager == "" {
		return fmt.Errorf("fund.manager is required")
	}
	goal, err := c.FundingGoal()
	if err != nil {
		return err
	}
	if !goal.IsPositive() {
		return fmt.Errorf("fund.funding_goal must be positive")
	}
	if c.Asset.Decimals < 0 || c.Asset.Decimals > 36 {
		return fmt.Errorf("asset.decimals must be between 0 and 36")
	}
	if c.Dividend.Cron != "" {
		amount, err := c.DividendAmount()
		if err != nil {
			return err
		}
		if !amount.IsPositive() {
			return fmt.Errorf("dividend.amount must be positive when dividend.cron is set")
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// FundingGoal parses fund.funding_goal in base units.
func (c *Config) FundingGoal() (math.Int, error) {
	return parseAmount("fund.funding_goal", c.Fund.FundingGoal)
}

// DividendAmount parses dividend.amount in base units. Unset means zero.
func (c *Config) DividendAmount() (math.Int, error) {
	if c.Dividend.Amount == "" {
		return math.ZeroInt(), nil
	}
	return parseAmount("dividend.amount", c.Dividend.Amount)
}

// ManagerID is the configured manager identity.
func (c *Config) ManagerID() model.AccountID {
	return model.AccountID(c.Fund.Manager)
}

// TelegramEnabled reports whether chat notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func parseAmount(field, s string) (math.Int, error) {
	if s == "" {
		return math.ZeroInt(), fmt.Errorf("%s is required", field)
	}
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.ZeroInt(), fmt.Errorf("%s: %q is not an integer amount", field, s)
	}
	return v, nil
}
