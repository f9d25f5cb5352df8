package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/casaflow/casaflow/internal/cli"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage expense categories",
		Long:  `List, add, update, and delete the expense categories transactions are filed under.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active categories",
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

			categories, err := eng.ListCategories(ctx, teamID)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Println(cli.FormatInfo("No categories found. Use 'casaflow categories add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Name"),
				cli.HeaderStyle.Render("Icon"))

			for _, category := range categories {
				icon := category.Icon
				if icon == "" {
					icon = cli.SubtleStyle.Render("-")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", category.ID, category.Name, icon)
			}

			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var icon, color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
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

			category, err := eng.CreateCategory(ctx, teamID, args[0], icon, color)
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created category %q (ID: %d)", category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&icon, "icon", "", "display icon")
	cmd.Flags().StringVar(&color, "color", "", "display color")

	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var name, icon, color string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or restyle a category",
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

			category, err := eng.UpdateCategory(ctx, teamID, id, name, icon, color)
			if err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated category %q", category.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&icon, "icon", "", "new icon")
	cmd.Flags().StringVar(&color, "color", "", "new color")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Deactivate a category",
		Long:  `Deactivate a category. Fails if any active or pending transaction still references it.`,
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

			if err := eng.DeleteCategory(ctx, teamID, id); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Category deactivated"))
			return nil
		},
	}
}
