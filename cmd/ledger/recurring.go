package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/recurring"
	"github.com/spf13/cobra"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring income and expenses",
	}
	cmd.AddCommand(
		listRecurringCmd(),
		addRecurringCmd(),
		pauseRecurringCmd(),
		resumeRecurringCmd(),
		deleteRecurringCmd(),
		runRecurringCmd(),
	)
	return cmd
}

func listRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring definitions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				defs, err := a.scheduler.List(ctx, owner)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(defs) == 0 {
					fmt.Fprintln(out, cli.FormatInfo("No recurring definitions."))
					return nil
				}

				table := cli.NewTable(out, "ID", "Description", "Kind", "Amount", "Frequency", "Next", "Ends", "Active")
				for _, d := range defs {
					table.Row(d.ID, d.Description, d.Kind, d.Amount.StringFixed(2), d.Frequency,
						formatDay(d.NextRunDate), formatOptionalDay(d.EndDate), d.IsActive)
				}
				return table.Flush()
			})
		},
	}
}

func addRecurringCmd() *cobra.Command {
	var (
		walletID, categoryID    int64
		kind, frequency         string
		start, end, description string
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Create a recurring definition",
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
			parsedFrequency, err := model.ParseFrequency(frequency)
			if err != nil {
				return err
			}
			startDate, err := parseDate(start)
			if err != nil {
				return err
			}
			endDate, err := optionalDate(end)
			if err != nil {
				return err
			}

			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				def, err := a.scheduler.Create(ctx, recurring.DefinitionInput{
					OwnerID:     owner,
					WalletID:    walletID,
					CategoryID:  categoryID,
					Kind:        parsedKind,
					Amount:      amount,
					Frequency:   parsedFrequency,
					StartDate:   startDate,
					EndDate:     endDate,
					Description: description,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
					"Created recurring %d, first run %s", def.ID, formatDay(def.NextRunDate))))
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&walletID, "wallet", 0, "wallet id")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "category id")
	cmd.Flags().StringVar(&kind, "kind", "EXPENSE", "INCOME or EXPENSE")
	cmd.Flags().StringVar(&frequency, "every", "MONTHLY", "DAILY, WEEKLY, BIWEEKLY, MONTHLY, QUARTERLY or YEARLY")
	cmd.Flags().StringVar(&start, "start", "", "first occurrence (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&end, "end", "", "last possible occurrence (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description")
	_ = cmd.MarkFlagRequired("wallet")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func pauseRecurringCmd() *cobra.Command {
	return recurringStateCmd("pause <id>", "Stop a definition from running", func(ctx context.Context, a *app, owner string, id int64) (*model.RecurringDefinition, error) {
		return a.scheduler.Pause(ctx, owner, id)
	})
}

func resumeRecurringCmd() *cobra.Command {
	return recurringStateCmd("resume <id>", "Restart a paused definition without back-charging", func(ctx context.Context, a *app, owner string, id int64) (*model.RecurringDefinition, error) {
		return a.scheduler.Resume(ctx, owner, id, time.Now())
	})
}

func recurringStateCmd(use, short string, change func(context.Context, *app, string, int64) (*model.RecurringDefinition, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "recurring")
			if err != nil {
				return err
			}
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				def, err := change(ctx, a, owner, id)
				if err != nil {
					return err
				}
				state := "paused"
				if def.IsActive {
					state = "active, next run " + formatDay(def.NextRunDate)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recurring %d is %s", id, state)))
				return nil
			})
		},
	}
}

func deleteRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a definition; transactions it created are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "recurring")
			if err != nil {
				return err
			}
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				if err := a.scheduler.Delete(ctx, owner, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted recurring %d", id)))
				return nil
			})
		},
	}
}

func runRecurringCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Materialize every due occurrence for all owners",
		Long: `Process every active definition whose next run date has arrived, catching up
missed occurrences. Running it twice for the same date charges nothing twice.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now().UTC()
			if at != "" {
				day, err := parseDate(at)
				if err != nil {
					return err
				}
				now = day
			}

			out := cmd.OutOrStdout()
			progress := cli.NewProgress(out, "Running recurring charges...")
			interrupts := cli.NewInterruptHandler(out, "Recurring run")
			ctx := interrupts.HandleInterrupts(cmd.Context())

			a, err := openApp(ctx, progress.Report)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			result, err := a.scheduler.ProcessDue(ctx, now)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, cli.RenderBox("Recurring run "+formatDay(now), fmt.Sprintf(
				"Definitions: %d\nMaterialized: %d\nFailed: %d\nOwners touched: %d",
				result.Definitions, result.Materialized, result.Failed, len(result.Owners))))
			for _, runErr := range result.Errors {
				fmt.Fprintln(out, cli.FormatError(runErr.Error()))
			}
			if result.Failed > 0 {
				return fmt.Errorf("%w: %d recurring definitions failed", common.ErrPersistence, result.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "process as of this day (YYYY-MM-DD, default now)")
	return cmd
}
