package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/spf13/cobra"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Record and edit income and expenses",
	}
	cmd.AddCommand(listTxCmd(), addTxCmd(), editTxCmd(), deleteTxCmd())
	return cmd
}

func listTxCmd() *cobra.Command {
	var (
		walletID, categoryID int64
		start, end, kind     string
		limit                int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := model.TransactionFilter{WalletID: walletID, CategoryID: categoryID, Limit: limit}
			var err error
			if filter.Start, err = optionalDate(start); err != nil {
				return err
			}
			if filter.End, err = optionalDate(end); err != nil {
				return err
			}
			if kind != "" {
				filter.Kind = model.TransactionKind(kind)
				if !filter.Kind.Valid() {
					return common.Validationf("unknown transaction kind %q", kind)
				}
			}

			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				txns, err := a.ledger.ListTransactions(ctx, owner, filter)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(txns) == 0 {
					fmt.Fprintln(out, cli.FormatInfo("No transactions match."))
					return nil
				}

				table := cli.NewTable(out, "ID", "Date", "Wallet", "Kind", "Amount", "Description")
				for i := range txns {
					t := &txns[i]
					table.Row(t.ID, formatDay(t.Date), t.WalletID, t.Kind, cli.FormatSigned(t), t.Description)
				}
				return table.Flush()
			})
		},
	}

	cmd.Flags().Int64Var(&walletID, "wallet", 0, "only this wallet")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "only this category")
	cmd.Flags().StringVar(&start, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "to", "", "last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&kind, "kind", "", "INCOME, EXPENSE, TRANSFER_OUT or TRANSFER_IN")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}

func addTxCmd() *cobra.Command {
	var (
		walletID, categoryID int64
		kind, date, notes    string
		description          string
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record an income or expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			parsedKind, err := model.ParseKind(kind)
			if err != nil {
				return err
			}
			day, err := parseDate(date)
			if err != nil {
				return err
			}

			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				txn, err := a.ledger.CreateTransaction(ctx, ledger.TransactionInput{
					OwnerID:     owner,
					WalletID:    walletID,
					CategoryID:  categoryID,
					Kind:        parsedKind,
					Amount:      amount,
					Date:        day,
					Description: description,
					Notes:       notes,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Recorded %s %d: %s", txn.Kind, txn.ID, cli.FormatSigned(txn))))
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&walletID, "wallet", 0, "wallet id")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "category id")
	cmd.Flags().StringVar(&kind, "kind", "EXPENSE", "INCOME or EXPENSE")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("wallet")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func editTxCmd() *cobra.Command {
	var (
		walletID, categoryID int64
		amount, kind, date   string
		description, notes   string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a transaction; balances follow the difference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "transaction")
			if err != nil {
				return err
			}

			var edit ledger.TransactionEdit
			flags := cmd.Flags()
			if flags.Changed("amount") {
				a, err := parseAmount(amount)
				if err != nil {
					return err
				}
				edit.Amount = &a
			}
			if flags.Changed("kind") {
				k, err := model.ParseKind(kind)
				if err != nil {
					return err
				}
				edit.Kind = &k
			}
			if flags.Changed("date") {
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				edit.Date = &d
			}
			if flags.Changed("wallet") {
				edit.WalletID = &walletID
			}
			if flags.Changed("category") {
				edit.CategoryID = &categoryID
			}
			if flags.Changed("description") {
				edit.Description = &description
			}
			if flags.Changed("notes") {
				edit.Notes = &notes
			}

			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				txn, err := a.ledger.EditTransaction(ctx, owner, id, edit)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Updated transaction %d: %s", txn.ID, cli.FormatSigned(txn))))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "new amount")
	cmd.Flags().StringVar(&kind, "kind", "", "INCOME or EXPENSE")
	cmd.Flags().StringVar(&date, "date", "", "new date (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&walletID, "wallet", 0, "move to wallet")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "move to category")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func deleteTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction (a transfer half deletes the whole transfer)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "transaction")
			if err != nil {
				return err
			}
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				if err := a.ledger.DeleteTransaction(ctx, owner, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted transaction %d", id)))
				return nil
			})
		},
	}
}
