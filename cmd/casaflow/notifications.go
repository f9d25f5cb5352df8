package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/casaflow/casaflow/internal/cli"
	"github.com/casaflow/casaflow/internal/model"
)

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "View budget alerts and team activity",
	}

	cmd.AddCommand(listNotificationsCmd())
	cmd.AddCommand(readNotificationCmd())

	return cmd
}

func listNotificationsCmd() *cobra.Command {
	var unreadOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your notifications, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			teamID, userID, err := requireTeamAndUser()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			eng := initEngine(store)

			notifications, err := eng.ListNotifications(ctx, teamID, userID, unreadOnly)
			if err != nil {
				return fmt.Errorf("failed to list notifications: %w", err)
			}

			if len(notifications) == 0 {
				fmt.Println(cli.FormatInfo("No notifications."))
				return nil
			}

			for _, n := range notifications {
				marker := cli.SubtleStyle.Render(" ")
				if !n.Read {
					marker = cli.InfoStyle.Render("*")
				}
				title := n.Title
				if n.Type == model.NotificationAlert {
					title = cli.WarningStyle.Render(title)
				}
				fmt.Printf("%s [%d] %s  %s\n", marker, n.ID, title,
					cli.SubtleStyle.Render(n.CreatedAt.Format(time.RFC3339)))
				fmt.Printf("      %s\n", n.Body)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "show only unread notifications")

	return cmd
}

func readNotificationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			teamID, err := requireTeam()
			if err != nil {
				return err
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			eng := initEngine(store)

			if err := eng.MarkNotificationRead(ctx, teamID, id); err != nil {
				return fmt.Errorf("failed to mark notification read: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Notification marked read"))
			return nil
		},
	}
}
