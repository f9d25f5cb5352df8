package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/casaflow/casaflow/internal/cli"
	"github.com/casaflow/casaflow/internal/engine"
	"github.com/casaflow/casaflow/internal/model"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage category budgets",
	}

	cmd.AddCommand(listBudgetsCmd())
	cmd.AddCommand(addBudgetCmd())
	cmd.AddCommand(updateBudgetCmd())
	cmd.AddCommand(deleteBudgetCmd())
	cmd.AddCommand(budgetStatusCmd())

	return cmd
}

func listBudgetsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List budgets",
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

			budgets, err := eng.ListBudgets(ctx, teamID, !all)
			if err != nil {
				return fmt.Errorf("failed to list budgets: %w", err)
			}

			if len(budgets) == 0 {
				fmt.Println(cli.FormatInfo("No budgets found. Use 'casaflow budgets add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Category"),
				cli.HeaderStyle.Render("Amount"),
				cli.HeaderStyle.Render("Period"),
				cli.HeaderStyle.Render("Start"),
				cli.HeaderStyle.Render("End"))

			for _, budget := range budgets {
				end := cli.SubtleStyle.Render("open")
				if budget.EndDate != nil {
					end = budget.EndDate.Format(model.DateLayout)
				}
				fmt.Fprintf(w, "%d\t%d\t%.2f\t%s\t%s\t%s\n",
					budget.ID, budget.CategoryID, budget.Amount, budget.Period,
					budget.StartDate.Format(model.DateLayout), end)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include inactive budgets")

	return cmd
}

func addBudgetCmd() *cobra.Command {
	var (
		period, start, end string
	)

	cmd := &cobra.Command{
		Use:   "add <category-id> <amount>",
		Short: "Add a budget for a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			teamID, err := requireTeam()
			if err != nil {
				return err
			}

			categoryID, err := parseID(args[0])
			if err != nil {
				return err
			}
			var amount float64
			if _, err := fmt.Sscanf(args[1], "%f", &amount); err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}

			startDate := time.Now().UTC()
			if start != "" {
				if startDate, err = parseDate(start); err != nil {
					return err
				}
			}
			var endDate *time.Time
			if end != "" {
				parsed, err := parseDate(end)
				if err != nil {
					return err
				}
				endDate = &parsed
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			eng := initEngine(store)

			budget, err := eng.CreateBudget(ctx, teamID, categoryID, amount,
				model.BudgetPeriod(period), startDate, endDate)
			if err != nil {
				return fmt.Errorf("failed to create budget: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created %s budget of %.2f for category %d (ID: %d)",
				budget.Period, budget.Amount, budget.CategoryID, budget.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", "monthly", "budget period (monthly, weekly, biweekly, custom)")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&end, "end", "", "end date for custom budgets (YYYY-MM-DD)")

	return cmd
}

func updateBudgetCmd() *cobra.Command {
	var (
		period, start, end        string
		amount                    float64
		clearEnd, enable, disable bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a budget",
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
			if enable && disable {
				return fmt.Errorf("--enable and --disable are mutually exclusive")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			eng := initEngine(store)

			var update engine.BudgetUpdate
			if cmd.Flags().Changed("amount") {
				update.Amount = &amount
			}
			if cmd.Flags().Changed("period") {
				budgetPeriod := model.BudgetPeriod(period)
				update.Period = &budgetPeriod
			}
			if cmd.Flags().Changed("start") {
				parsed, err := parseDate(start)
				if err != nil {
					return err
				}
				update.StartDate = &parsed
			}
			switch {
			case clearEnd:
				update.ClearEndDate = true
			case cmd.Flags().Changed("end"):
				parsed, err := parseDate(end)
				if err != nil {
					return err
				}
				update.EndDate = &parsed
			}
			if enable || disable {
				update.IsActive = &enable
			}

			if _, err := eng.UpdateBudget(ctx, teamID, id, update); err != nil {
				return fmt.Errorf("failed to update budget: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Budget updated"))
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "new amount")
	cmd.Flags().StringVar(&period, "period", "", "new period")
	cmd.Flags().StringVar(&start, "start", "", "new start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "new end date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearEnd, "clear-end", false, "remove the end date")
	cmd.Flags().BoolVar(&enable, "enable", false, "activate the budget")
	cmd.Flags().BoolVar(&disable, "disable", false, "deactivate the budget")

	return cmd
}

func deleteBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a budget",
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

			if err := eng.DeleteBudget(ctx, teamID, id); err != nil {
				return fmt.Errorf("failed to delete budget: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Budget deleted"))
			return nil
		},
	}
}

func budgetStatusCmd() *cobra.Command {
	var month, year int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show spend against every active budget",
		Long:  `Compute current spend, remaining amount, and status for every active budget. Pass --month and --year together to inspect a past month.`,
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

			statuses, err := eng.GetBudgetAnalytics(ctx, teamID, time.Month(month), year)
			if err != nil {
				return fmt.Errorf("failed to compute budget status: %w", err)
			}

			if len(statuses) == 0 {
				fmt.Println(cli.FormatInfo("No active budgets."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("Category"),
				cli.HeaderStyle.Render("Budget"),
				cli.HeaderStyle.Render("Spent"),
				cli.HeaderStyle.Render("Remaining"),
				cli.HeaderStyle.Render("Used"),
				cli.HeaderStyle.Render("Status"))

			for _, status := range statuses {
				name := status.CategoryName
				if name == "" {
					name = fmt.Sprintf("category %d", status.Budget.CategoryID)
				}
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.0f%%\t%s\n",
					name, status.Budget.Amount, status.Spent, status.Remaining,
					status.Percentage, cli.FormatBudgetStatus(status.Status))
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&month, "month", 0, "month to inspect (1-12, requires --year)")
	cmd.Flags().IntVar(&year, "year", 0, "year to inspect (requires --month)")

	return cmd
}
