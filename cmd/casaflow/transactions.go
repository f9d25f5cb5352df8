package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/casaflow/casaflow/internal/cli"
	"github.com/casaflow/casaflow/internal/engine"
	"github.com/casaflow/casaflow/internal/model"
	"github.com/casaflow/casaflow/internal/service"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Record and manage expenses",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(updateTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var (
		from, to, search, bank, status string
		categoryID                     int64
		page, pageSize                 int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the team's transactions",
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

			filter := service.TransactionFilter{
				Search:   search,
				Bank:     bank,
				Status:   model.TransactionStatus(status),
				Page:     page,
				PageSize: pageSize,
			}
			if from != "" {
				date, err := parseDate(from)
				if err != nil {
					return err
				}
				filter.StartDate = &date
			}
			if to != "" {
				date, err := parseDate(to)
				if err != nil {
					return err
				}
				filter.EndDate = &date
			}
			if categoryID > 0 {
				filter.CategoryID = &categoryID
			}

			transactions, err := eng.ListTransactions(ctx, teamID, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			if len(transactions) == 0 {
				fmt.Println(cli.FormatInfo("No transactions found."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("Date"),
				cli.HeaderStyle.Render("Description"),
				cli.HeaderStyle.Render("Amount"),
				cli.HeaderStyle.Render("Category"),
				cli.HeaderStyle.Render("Status"),
				cli.HeaderStyle.Render("ID"))

			for _, txn := range transactions {
				category := cli.SubtleStyle.Render("(uncategorized)")
				if txn.CategoryID != nil {
					category = strconv.FormatInt(*txn.CategoryID, 10)
					if txn.AISuggested {
						category += cli.SubtleStyle.Render(" (auto)")
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\n",
					txn.Date.Format(model.DateLayout),
					txn.Description,
					txn.Amount,
					category,
					txn.Status,
					cli.SubtleStyle.Render(txn.ID))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "earliest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "latest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&search, "search", "", "description substring filter")
	cmd.Flags().StringVar(&bank, "bank", "", "bank filter")
	cmd.Flags().StringVar(&status, "status", "", "status filter (active, pending, deleted)")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "category ID filter")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "page size (0 disables pagination)")

	return cmd
}

func addTransactionCmd() *cobra.Command {
	var (
		bank       string
		categoryID int64
		pending    bool
	)

	cmd := &cobra.Command{
		Use:   "add <description> <amount> <date>",
		Short: "Record a new expense",
		Long:  `Record an expense. Active categorization rules run automatically; the first matching rule assigns its category unless you pass a conflicting --category.`,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			teamID, userID, err := requireTeamAndUser()
			if err != nil {
				return err
			}

			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			date, err := parseDate(args[2])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			eng := initEngine(store)

			input := engine.CreateTransactionInput{
				Description: args[0],
				Amount:      amount,
				Date:        date,
				Bank:        bank,
			}
			if categoryID > 0 {
				input.CategoryID = &categoryID
			}
			if pending {
				input.Status = model.StatusPending
			}

			txn, err := eng.CreateTransaction(ctx, teamID, userID, input)
			if err != nil {
				return fmt.Errorf("failed to record transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %q for %.2f (ID: %s)", txn.Description, txn.Amount, txn.ID)))
			if txn.AISuggested && txn.CategoryID != nil {
				fmt.Println(cli.FormatInfo(fmt.Sprintf("Auto-categorized into category %d", *txn.CategoryID)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "", "bank or account the expense came from")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "category ID")
	cmd.Flags().BoolVar(&pending, "pending", false, "record as pending")

	return cmd
}

func updateTransactionCmd() *cobra.Command {
	var (
		description, bank, date, status string
		amount                          float64
		categoryID                      int64
		clearCategory                   bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit an existing transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			var update engine.TransactionUpdate
			if cmd.Flags().Changed("description") {
				update.Description = &description
			}
			if cmd.Flags().Changed("bank") {
				update.Bank = &bank
			}
			if cmd.Flags().Changed("amount") {
				update.Amount = &amount
			}
			if cmd.Flags().Changed("date") {
				parsed, err := parseDate(date)
				if err != nil {
					return err
				}
				update.Date = &parsed
			}
			if cmd.Flags().Changed("status") {
				newStatus := model.TransactionStatus(status)
				update.Status = &newStatus
			}
			switch {
			case clearCategory:
				update.ClearCategory = true
			case cmd.Flags().Changed("category"):
				update.CategoryID = &categoryID
			}

			txn, err := eng.UpdateTransaction(ctx, teamID, userID, args[0], update)
			if err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated %q", txn.Description)))
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&bank, "bank", "", "new bank")
	cmd.Flags().StringVar(&date, "date", "", "new date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "new status (active, pending)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "new amount")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "new category ID")
	cmd.Flags().BoolVar(&clearCategory, "clear-category", false, "remove the category assignment")

	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft-delete a transaction",
		Long:  `Mark a transaction deleted. The record and its audit history are kept; it simply stops counting toward budgets and listings.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if _, err := eng.DeleteTransaction(ctx, teamID, userID, args[0]); err != nil {
				return fmt.Errorf("failed to delete transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Transaction deleted"))
			return nil
		},
	}
}
