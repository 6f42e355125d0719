package main

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"ZeitFund/internal/model"
	"ZeitFund/internal/notifier"
)

// withApp opens the fund for the lifetime of one command.
func withApp(opts *rootOptions, fn func(ctx context.Context, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := openApp(opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), a)
	}
}

func newContributeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contribute <depositor> <amount>",
		Short: "Contribute to the fund while it is collecting",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return withApp(opts, func(ctx context.Context, a *app) error {
			amount, err := a.units.Parse(args[1])
			if err != nil {
				return err
			}
			depositor := model.AccountID(args[0])
			if err := a.ledger.Contribute(ctx, depositor, amount); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "contributed %s from %s, shares %s, phase %s\n",
				a.units.Format(amount), depositor, a.units.Format(a.ledger.Shares(depositor)), a.ledger.Phase())
			return nil
		})(c, args)
	}
	return cmd
}

func newWithdrawCmd(opts *rootOptions) *cobra.Command {
	var caller string
	cmd := &cobra.Command{
		Use:   "withdraw <amount>",
		Short: "Withdraw principal to the manager after the goal is reached",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&caller, "as", "", "caller identity (defaults to the configured manager)")
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return withApp(opts, func(ctx context.Context, a *app) error {
			amount, err := a.units.Parse(args[0])
			if err != nil {
				return err
			}
			if err := a.ledger.WithdrawPrincipal(ctx, callerOrManager(caller, a), amount); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "withdrew %s to %s\n", a.units.Format(amount), a.ledger.Manager())
			return nil
		})(c, args)
	}
	return cmd
}

func newDividendCmd(opts *rootOptions) *cobra.Command {
	var caller string
	cmd := &cobra.Command{
		Use:   "dividend <amount>",
		Short: "Issue a dividend from the fund account into the vault",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&caller, "as", "", "caller identity (defaults to the configured manager)")
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return withApp(opts, func(ctx context.Context, a *app) error {
			amount, err := a.units.Parse(args[0])
			if err != nil {
				return err
			}
			if err := a.ledger.IssueDividend(ctx, callerOrManager(caller, a), amount); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), notifier.FormatDividendIssued(amount, a.ledger.Summary(), a.units))
			return nil
		})(c, args)
	}
	return cmd
}

func newClaimCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim <depositor>",
		Short: "Pay out everything the depositor is owed",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return withApp(opts, func(ctx context.Context, a *app) error {
			depositor := model.AccountID(args[0])
			paid, err := a.ledger.Claim(ctx, depositor)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "paid %s to %s\n", a.units.Format(paid), depositor)
			return nil
		})(c, args)
	}
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the fund summary",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(opts, func(_ context.Context, a *app) error {
		fmt.Fprintln(cmd.OutOrStdout(), notifier.FormatFundStatus(a.ledger.Summary(), a.units))
		return nil
	})
	return cmd
}

func newClaimableCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claimable <depositor>",
		Short: "Show a depositor's shares and unclaimed dividends",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return withApp(opts, func(_ context.Context, a *app) error {
			d := model.AccountID(args[0])
			fmt.Fprintln(c.OutOrStdout(), notifier.FormatClaimable(d, a.ledger.Shares(d), a.ledger.Claimable(d),
				a.ledger.LastClaimAt(d), a.units))
			return nil
		})(c, args)
	}
	return cmd
}

// mint credits the local asset ledger. It stands in for the external wallet layer.
func newMintCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint <account> <amount>",
		Short: "Credit base asset to an account on the local asset ledger",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return withApp(opts, func(_ context.Context, a *app) error {
			amount, err := a.units.Parse(args[1])
			if err != nil {
				return err
			}
			id := model.AccountID(args[0])
			if err := a.assets.Mint(id, amount); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "%s balance %s\n", id, a.units.Format(a.assets.BalanceOf(id)))
			return nil
		})(c, args)
	}
	return cmd
}

func newBalanceCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance [account...]",
		Short: "Show asset balances; defaults to the fund, vault and manager accounts",
	}
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return withApp(opts, func(_ context.Context, a *app) error {
			ids := make([]model.AccountID, 0, len(args))
			for _, s := range args {
				ids = append(ids, model.AccountID(s))
			}
			if len(ids) == 0 {
				ids = []model.AccountID{a.ledger.Account(), a.ledger.VaultAccount(), a.ledger.Manager()}
			}
			for _, id := range ids {
				fmt.Fprintf(c.OutOrStdout(), "%-24s %s\n", id, a.units.Format(a.assets.BalanceOf(id)))
			}
			fmt.Fprintf(c.OutOrStdout(), "%-24s %s\n", "vault (booked)", a.units.Format(a.vault.Balance()))
			return nil
		})(c, args)
	}
	return cmd
}

func callerOrManager(caller string, a *app) model.AccountID {
	if caller == "" {
		return a.ledger.Manager()
	}
	return model.AccountID(caller)
}

func isPositive(v math.Int) bool {
	return !v.IsNil() && v.IsPositive()
}
