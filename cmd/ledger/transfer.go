package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/spf13/cobra"
)

func transferCmd() *cobra.Command {
	var (
		from, to          int64
		date, description string
	)

	cmd := &cobra.Command{
		Use:   "transfer <amount>",
		Short: "Move money between two of your wallets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			day, err := parseDate(date)
			if err != nil {
				return err
			}

			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				result, err := a.ledger.Transfer(ctx, ledger.TransferInput{
					OwnerID:      owner,
					FromWalletID: from,
					ToWalletID:   to,
					Amount:       amount,
					Date:         day,
					Description:  description,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
					"Transferred %s from wallet %d to wallet %d (transfer %s)",
					amount.StringFixed(2), from, to, result.TransferID)))
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&from, "from", 0, "source wallet id")
	cmd.Flags().Int64Var(&to, "to", 0, "destination wallet id")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
