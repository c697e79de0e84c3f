package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/spf13/cobra"
)

func walletsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wallets",
		Aliases: []string{"wallet"},
		Short:   "Manage wallets",
	}
	cmd.AddCommand(
		listWalletsCmd(),
		addWalletCmd(),
		archiveWalletCmd(true),
		archiveWalletCmd(false),
		deleteWalletCmd(),
		reconcileWalletCmd(),
	)
	return cmd
}

func listWalletsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List wallets and balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				wallets, err := a.ledger.ListWallets(ctx, owner, all)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(wallets) == 0 {
					fmt.Fprintln(out, cli.FormatInfo("No wallets yet. Use 'ledger wallets add' to create one."))
					return nil
				}

				table := cli.NewTable(out, "ID", "Name", "Balance", "Status")
				for _, w := range wallets {
					status := "active"
					if w.Archived {
						status = cli.SubtleStyle.Render("archived")
					}
					table.Row(w.ID, w.Name, cli.FormatAmount(w.Balance, w.Currency), status)
				}
				return table.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include archived wallets")
	return cmd
}

func addWalletCmd() *cobra.Command {
	var currency string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				w, err := a.ledger.CreateWallet(ctx, owner, args[0], currency)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Created wallet %d %q (%s)", w.ID, w.Name, w.Currency)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "", "ISO currency code (default wallet.default_currency)")
	return cmd
}

func archiveWalletCmd(archive bool) *cobra.Command {
	use, short, verb := "archive <id>", "Archive a wallet", "Archived"
	if !archive {
		use, short, verb = "restore <id>", "Restore an archived wallet", "Restored"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "wallet")
			if err != nil {
				return err
			}
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				if archive {
					err = a.ledger.ArchiveWallet(ctx, owner, id)
				} else {
					err = a.ledger.RestoreWallet(ctx, owner, id)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s wallet %d", verb, id)))
				return nil
			})
		},
	}
}

func deleteWalletCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a wallet that has no transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "wallet")
			if err != nil {
				return err
			}
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				if err := a.ledger.DeleteWallet(ctx, owner, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted wallet %d", id)))
				return nil
			})
		},
	}
}

func reconcileWalletCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <id>",
		Short: "Compare a wallet's cached balance with its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "wallet")
			if err != nil {
				return err
			}
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				rec, err := a.ledger.Reconcile(ctx, owner, id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if rec.Consistent() {
					fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Wallet %d balance %s matches its transactions",
						id, rec.Cached.StringFixed(2))))
					return nil
				}
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Wallet %d cached %s, transactions sum to %s (difference %s)",
					id, rec.Cached.StringFixed(2), rec.Computed.StringFixed(2), rec.Difference.StringFixed(2))))
				return nil
			})
		},
	}
}
