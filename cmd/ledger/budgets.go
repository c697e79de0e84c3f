package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/budget"
	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/spf13/cobra"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "budgets",
		Aliases: []string{"budget"},
		Short:   "Manage spending budgets and alerts",
	}
	cmd.AddCommand(listBudgetsCmd(), addBudgetCmd(), progressBudgetCmd(), evaluateBudgetsCmd(), deleteBudgetCmd())
	return cmd
}

func listBudgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				budgets, err := a.budgets.List(ctx, owner, false)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(budgets) == 0 {
					fmt.Fprintln(out, cli.FormatInfo("No budgets."))
					return nil
				}

				table := cli.NewTable(out, "ID", "Name", "Amount", "Period", "Start", "End", "Categories", "Active")
				for _, b := range budgets {
					table.Row(b.ID, b.Name, b.Amount.StringFixed(2), b.Period, formatDay(b.StartDate),
						formatOptionalDay(b.EndDate), joinIDs(b.CategoryIDs), b.IsActive)
				}
				return table.Flush()
			})
		},
	}
}

func addBudgetCmd() *cobra.Command {
	var (
		period, start, end string
		categories         []int64
	)

	cmd := &cobra.Command{
		Use:   "add <name> <amount>",
		Short: "Create a budget over one or more expense categories",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			parsedPeriod, err := model.ParseBudgetPeriod(period)
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
				b, err := a.budgets.Create(ctx, budget.BudgetInput{
					OwnerID:     owner,
					Name:        args[0],
					Amount:      amount,
					Period:      parsedPeriod,
					StartDate:   startDate,
					EndDate:     endDate,
					CategoryIDs: categories,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Created %s budget %d %q", b.Period, b.ID, b.Name)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&period, "period", "MONTHLY", "WEEKLY, MONTHLY, QUARTERLY or YEARLY")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().Int64SliceVar(&categories, "category", nil, "expense category id (repeatable)")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func progressBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <id>",
		Short: "Show spend in the current window without raising alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "budget")
			if err != nil {
				return err
			}
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				p, err := a.budgets.Progress(ctx, owner, id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderProgress(p))
				return nil
			})
		},
	}
}

func evaluateBudgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Check every active budget and raise any new alerts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				evals, err := a.budgets.Evaluate(ctx, owner)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(evals) == 0 {
					fmt.Fprintln(out, cli.FormatInfo("No budgets are running today."))
					return nil
				}

				table := cli.NewTable(out, "ID", "Name", "Spent", "Limit", "Used", "Alert")
				for _, e := range evals {
					alert := "-"
					switch {
					case e.Raised:
						alert = cli.WarningStyle.Render("new " + string(e.Alert))
					case e.Alert != "":
						alert = string(e.Alert)
					}
					b := e.Progress.Budget
					table.Row(b.ID, b.Name, e.Progress.Spent.StringFixed(2), b.Amount.StringFixed(2),
						e.Progress.PercentUsed.StringFixed(1)+"%", alert)
				}
				return table.Flush()
			})
		},
	}
}

func deleteBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "budget")
			if err != nil {
				return err
			}
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				if err := a.budgets.Delete(ctx, owner, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted budget %d", id)))
				return nil
			})
		},
	}
}

func renderProgress(p *model.BudgetProgress) string {
	return cli.RenderBox(p.Budget.Name, fmt.Sprintf(
		"Window:    %s to %s\nSpent:     %s of %s\nRemaining: %s\nUsed:      %s%%",
		formatDay(p.Window.Start), formatDay(p.Window.LastDay()),
		p.Spent.StringFixed(2), p.Budget.Amount.StringFixed(2),
		cli.FormatAmount(p.Remaining, ""), p.PercentUsed.StringFixed(1)))
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}
