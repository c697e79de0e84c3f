package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/loan"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/spf13/cobra"
)

func loansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "loans",
		Aliases: []string{"loan"},
		Short:   "Track money lent and its repayments",
	}
	cmd.AddCommand(listLoansCmd(), showLoanCmd(), addLoanCmd(), repayLoanCmd(), unrepayLoanCmd(), deleteLoanCmd())
	return cmd
}

func listLoansCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loans with outstanding balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter model.LoanStatus
			if status != "" {
				var err error
				if filter, err = model.ParseLoanStatus(status); err != nil {
					return err
				}
			}

			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				loans, err := a.loans.List(ctx, owner, filter)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(loans) == 0 {
					fmt.Fprintln(out, cli.FormatInfo("No loans."))
					return nil
				}

				table := cli.NewTable(out, "ID", "Borrower", "Principal", "Outstanding", "Due", "Status")
				for _, l := range loans {
					table.Row(l.ID, l.BorrowerName, l.Principal.StringFixed(2), l.Outstanding.StringFixed(2),
						formatOptionalDay(l.DueDate), cli.FormatLoanStatus(l.Status))
				}
				return table.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only OPEN, PARTIAL, OVERDUE or PAID")
	return cmd
}

func showLoanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a loan and its repayments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "loan")
			if err != nil {
				return err
			}
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				l, err := a.loans.Get(ctx, owner, id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.RenderBox(fmt.Sprintf("Loan %d: %s", l.ID, l.BorrowerName), fmt.Sprintf(
					"Principal:   %s\nOutstanding: %s\nBorrowed:    %s\nDue:         %s\nStatus:      %s",
					l.Principal.StringFixed(2), l.Outstanding.StringFixed(2), formatDay(l.BorrowedAt),
					formatOptionalDay(l.DueDate), cli.FormatLoanStatus(l.Status))))

				if len(l.Repayments) == 0 {
					return nil
				}
				table := cli.NewTable(out, "ID", "Paid", "Amount", "Notes")
				for _, r := range l.Repayments {
					table.Row(r.ID, formatDay(r.PaidAt), r.Amount.StringFixed(2), r.Notes)
				}
				return table.Flush()
			})
		},
	}
}

func addLoanCmd() *cobra.Command {
	var borrowed, due, notes string

	cmd := &cobra.Command{
		Use:   "add <borrower> <principal>",
		Short: "Record money lent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			borrowedAt, err := parseDate(borrowed)
			if err != nil {
				return err
			}
			dueDate, err := optionalDate(due)
			if err != nil {
				return err
			}

			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				l, err := a.loans.Create(ctx, loan.LoanInput{
					OwnerID:      owner,
					BorrowerName: args[0],
					Principal:    principal,
					BorrowedAt:   borrowedAt,
					DueDate:      dueDate,
					Notes:        notes,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Created loan %d to %s for %s", l.ID, l.BorrowerName, l.Principal.StringFixed(2))))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&borrowed, "date", "", "date lent (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func repayLoanCmd() *cobra.Command {
	var paid, notes string

	cmd := &cobra.Command{
		Use:   "repay <id> <amount>",
		Short: "Record a repayment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "loan")
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			paidAt, err := parseDate(paid)
			if err != nil {
				return err
			}

			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				l, err := a.loans.AddRepayment(ctx, loan.RepaymentInput{
					OwnerID: owner,
					LoanID:  id,
					Amount:  amount,
					PaidAt:  paidAt,
					Notes:   notes,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
					"Loan %d: %s outstanding, %s", l.ID, l.Outstanding.StringFixed(2), cli.FormatLoanStatus(l.Status))))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&paid, "date", "", "date paid (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func unrepayLoanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-repayment <loan-id> <repayment-id>",
		Short: "Remove a repayment and re-settle the loan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loanID, err := parseID(args[0], "loan")
			if err != nil {
				return err
			}
			repaymentID, err := parseID(args[1], "repayment")
			if err != nil {
				return err
			}
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				l, err := a.loans.DeleteRepayment(ctx, owner, loanID, repaymentID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
					"Loan %d: %s outstanding, %s", l.ID, l.Outstanding.StringFixed(2), cli.FormatLoanStatus(l.Status))))
				return nil
			})
		},
	}
}

func deleteLoanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a loan and its repayments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "loan")
			if err != nil {
				return err
			}
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				if err := a.loans.Delete(ctx, owner, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted loan %d", id)))
				return nil
			})
		},
	}
}
