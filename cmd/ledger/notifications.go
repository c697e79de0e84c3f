package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/spf13/cobra"
)

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notes"},
		Short:   "Read notifications from recurring runs and budgets",
	}
	cmd.AddCommand(listNotificationsCmd(), readNotificationCmd(), readAllNotificationsCmd())
	return cmd
}

func listNotificationsCmd() *cobra.Command {
	var (
		unread bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				notes, err := a.notes.List(ctx, owner, unread, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(notes) == 0 {
					fmt.Fprintln(out, cli.FormatInfo("Nothing new."))
					return nil
				}

				for i := range notes {
					n := &notes[i]
					marker := " "
					if !n.IsRead {
						marker = "•"
					}
					fmt.Fprintf(out, "%s [%d] %s %s\n    %s\n", marker, n.ID,
						cli.SubtleStyle.Render(n.CreatedAt.Format("2006-01-02 15:04")),
						cli.FormatNotification(n), n.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows (default 50)")
	return cmd
}

func readNotificationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "notification")
			if err != nil {
				return err
			}
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				if err := a.notes.MarkRead(ctx, owner, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Marked notification %d read", id)))
				return nil
			})
		},
	}
}

func readAllNotificationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withOwner(cmd, func(ctx context.Context, a *app, owner string) error {
				n, err := a.notes.MarkAllRead(ctx, owner)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Marked %d notifications read", n)))
				return nil
			})
		},
	}
}
