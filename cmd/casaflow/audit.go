package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/casaflow/casaflow/internal/cli"
	"github.com/casaflow/casaflow/internal/model"
)

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect transaction change history",
	}

	cmd.AddCommand(auditHistoryCmd())

	return cmd
}

func auditHistoryCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "history <transaction-id>",
		Short: "Show the audit trail of one transaction, newest first",
		Long:  `Every create, edit, recategorization and delete of a transaction is recorded with full before and after snapshots. The history survives the transaction's deletion.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			eng := initEngine(store)

			entries, err := eng.GetTransactionAuditLog(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load audit history: %w", err)
			}

			if len(entries) == 0 {
				fmt.Println(cli.FormatInfo("No audit entries for this transaction."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("When"),
				cli.HeaderStyle.Render("Change"),
				cli.HeaderStyle.Render("By"),
				cli.HeaderStyle.Render("Detail"))

			for _, entry := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					entry.ChangedAt.Format(time.RFC3339),
					formatChangeType(entry.ChangeType),
					entry.UserID,
					describeChange(entry))
				if verbose {
					if entry.OldValue != "" {
						fmt.Fprintf(w, "\t\t\t%s %s\n", cli.SubtleStyle.Render("old:"), entry.OldValue)
					}
					if entry.NewValue != "" {
						fmt.Fprintf(w, "\t\t\t%s %s\n", cli.SubtleStyle.Render("new:"), entry.NewValue)
					}
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print full JSON snapshots")

	return cmd
}

func formatChangeType(changeType model.ChangeType) string {
	switch changeType {
	case model.ChangeCreated:
		return cli.SuccessStyle.Render(string(changeType))
	case model.ChangeDeleted:
		return cli.ErrorStyle.Render(string(changeType))
	case model.ChangeCategoryChanged:
		return cli.InfoStyle.Render(string(changeType))
	default:
		return string(changeType)
	}
}

// describeChange summarizes one audit entry from its snapshots.
func describeChange(entry model.AuditEntry) string {
	after, err := model.DecodeSnapshot(entry.NewValue)
	if err != nil {
		return ""
	}

	switch entry.ChangeType {
	case model.ChangeCreated:
		return fmt.Sprintf("%q for %.2f", after.Description, after.Amount)
	case model.ChangeCategoryChanged:
		if after.RuleName != "" {
			return fmt.Sprintf("rule %q assigned category %s", after.RuleName, formatCategoryRef(after.CategoryID))
		}
		return fmt.Sprintf("category set to %s", formatCategoryRef(after.CategoryID))
	case model.ChangeDeleted:
		return "marked deleted"
	default:
		return fmt.Sprintf("%q for %.2f", after.Description, after.Amount)
	}
}

func formatCategoryRef(categoryID *int64) string {
	if categoryID == nil {
		return "(none)"
	}
	return fmt.Sprintf("%d", *categoryID)
}
