package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Manage income and expense categories",
	}
	cmd.AddCommand(listCategoriesCmd(), addCategoryCmd(), deleteCategoryCmd())
	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				categories, err := a.ledger.ListCategories(ctx, owner)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(categories) == 0 {
					fmt.Fprintln(out, cli.FormatInfo("No categories found. Use 'ledger categories add' to create one."))
					return nil
				}

				table := cli.NewTable(out, "ID", "Name", "Type")
				for _, c := range categories {
					table.Row(c.ID, c.Name, c.Type)
				}
				return table.Flush()
			})
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var categoryType string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := model.ParseCategoryType(categoryType)
			if err != nil {
				return err
			}
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				c, err := a.ledger.CreateCategory(ctx, owner, args[0], parsed)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Created %s category %d %q", c.Type, c.ID, c.Name)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&categoryType, "type", "EXPENSE", "category type (INCOME, EXPENSE)")
	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an unused category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "category")
			if err != nil {
				return err
			}
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				if err := a.ledger.DeleteCategory(ctx, owner, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted category %d", id)))
				return nil
			})
		},
	}
}
