package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type rootOptions struct {
	configPath string
	verbose    bool
	logFormat  string
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "fundd",
		Short:         "Pooled dividend fund ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	bindRootFlags(root.PersistentFlags(), opts)

	root.AddCommand(
		newServeCmd(opts),
		newContributeCmd(opts),
		newWithdrawCmd(opts),
		newDividendCmd(opts),
		newClaimCmd(opts),
		newStatusCmd(opts),
		newClaimableCmd(opts),
		newMintCmd(opts),
		newBalanceCmd(opts),
	)
	return root
}

func bindRootFlags(fs *pflag.FlagSet, opts *rootOptions) {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	fs.StringVarP(&opts.configPath, "config", "c", cfgPath, "path to the YAML config file")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	fs.StringVar(&opts.logFormat, "log-format", "", "log encoding: console or json (overrides config)")
}
