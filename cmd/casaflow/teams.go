package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/casaflow/casaflow/internal/cli"
	"github.com/casaflow/casaflow/internal/model"
)

func teamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Manage your household team",
	}

	cmd.AddCommand(createTeamCmd())
	cmd.AddCommand(renameTeamCmd())
	cmd.AddCommand(inviteCodeCmd())
	cmd.AddCommand(membersCmd())

	return cmd
}

func createTeamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new team with you as owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := requireUser()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			eng := initEngine(store)

			team, err := eng.CreateTeam(ctx, args[0], userID)
			if err != nil {
				return fmt.Errorf("failed to create team: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created team %q", team.Name)))
			fmt.Printf("  Team ID:     %s\n", team.ID)
			fmt.Printf("  Invite code: %s\n", team.InviteCode)
			fmt.Println(cli.FormatInfo("Set team.id in your config to start recording expenses."))
			return nil
		},
	}
}

func renameTeamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name>",
		Short: "Rename the current team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			teamID, err := requireTeam()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			eng := initEngine(store)

			if err := eng.RenameTeam(ctx, teamID, args[0]); err != nil {
				return fmt.Errorf("failed to rename team: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Team renamed to %q", args[0])))
			return nil
		},
	}
}

func inviteCodeCmd() *cobra.Command {
	var regenerate bool

	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Show or regenerate the team's invite code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			teamID, err := requireTeam()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			eng := initEngine(store)

			if regenerate {
				code, err := eng.RegenerateInviteCode(ctx, teamID)
				if err != nil {
					return fmt.Errorf("failed to regenerate invite code: %w", err)
				}
				fmt.Println(cli.FormatSuccess("Invite code regenerated"))
				fmt.Printf("  New code: %s\n", code)
				return nil
			}

			team, err := eng.GetTeam(ctx, teamID)
			if err != nil {
				return fmt.Errorf("failed to load team: %w", err)
			}
			fmt.Printf("Invite code: %s\n", team.InviteCode)
			return nil
		},
	}

	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "replace the code, invalidating the old one")

	return cmd
}

func membersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Manage team members",
	}

	cmd.AddCommand(listMembersCmd())
	cmd.AddCommand(addMemberCmd())
	cmd.AddCommand(removeMemberCmd())
	cmd.AddCommand(memberRoleCmd())

	return cmd
}

func listMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List team members",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			teamID, err := requireTeam()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			eng := initEngine(store)

			members, err := eng.ListMembers(ctx, teamID)
			if err != nil {
				return fmt.Errorf("failed to list members: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.HeaderStyle.Render("User"),
				cli.HeaderStyle.Render("Role"),
				cli.HeaderStyle.Render("Active"))

			for _, member := range members {
				active := cli.SuccessStyle.Render("yes")
				if !member.IsActive {
					active = cli.SubtleStyle.Render("no")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", member.UserID, member.Role, active)
			}

			return nil
		},
	}
}

func addMemberCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "add <user-id>",
		Short: "Add a member to the team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			teamID, err := requireTeam()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			eng := initEngine(store)

			if err := eng.AddMember(ctx, teamID, args[0], model.MemberRole(role)); err != nil {
				return fmt.Errorf("failed to add member: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added %s to the team", args[0])))
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "member", "member role (owner, member)")

	return cmd
}

func removeMemberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user-id>",
		Short: "Remove a member from the team",
		Long:  `Deactivate a member. Their transactions and audit entries are kept.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			teamID, err := requireTeam()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			eng := initEngine(store)

			if err := eng.RemoveMember(ctx, teamID, args[0]); err != nil {
				return fmt.Errorf("failed to remove member: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Removed %s from the team", args[0])))
			return nil
		},
	}
}

func memberRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role <user-id> <role>",
		Short: "Change a member's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			teamID, err := requireTeam()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			eng := initEngine(store)

			if err := eng.ChangeMemberRole(ctx, teamID, args[0], model.MemberRole(args[1])); err != nil {
				return fmt.Errorf("failed to change role: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s is now a team %s", args[0], args[1])))
			return nil
		},
	}
}
