package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/casaflow/casaflow/internal/cli"
	"github.com/casaflow/casaflow/internal/engine"
	"github.com/casaflow/casaflow/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
		Long: `Rules categorize transactions automatically. Each rule inspects one field
(description, amount, or date) and assigns a category when it matches.
Rules are evaluated in creation order and the first match wins.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(addRuleCmd())
	cmd.AddCommand(updateRuleCmd())
	cmd.AddCommand(deleteRuleCmd())
	cmd.AddCommand(applyRulesCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
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

			ruleList, err := eng.ListRules(ctx, teamID, !all)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			if len(ruleList) == 0 {
				fmt.Println(cli.FormatInfo("No rules found. Use 'casaflow rules add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Name"),
				cli.HeaderStyle.Render("Field"),
				cli.HeaderStyle.Render("Match"),
				cli.HeaderStyle.Render("Category"),
				cli.HeaderStyle.Render("Active"))

			for _, rule := range ruleList {
				active := cli.SuccessStyle.Render("yes")
				if !rule.IsActive {
					active = cli.SubtleStyle.Render("no")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%q\t%d\t%s\n",
					rule.ID, rule.Name, rule.Field, rule.MatchText, rule.CategoryID, active)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include inactive rules")

	return cmd
}

func addRuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name> <field> <match-text> <category-id>",
		Short: "Add a categorization rule",
		Long: `Add a rule matching one transaction field:

  description  case-insensitive substring match
  amount       exact match on the absolute amount
  date         substring match on the YYYY-MM-DD date`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			teamID, err := requireTeam()
			if err != nil {
				return err
			}

			categoryID, err := parseID(args[3])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			eng := initEngine(store)

			rule, err := eng.CreateRule(ctx, teamID, args[0], model.RuleField(args[1]), args[2], categoryID)
			if err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created rule %q (ID: %d)", rule.Name, rule.ID)))
			return nil
		},
	}

	return cmd
}

func updateRuleCmd() *cobra.Command {
	var (
		name, field, matchText string
		categoryID             int64
		enable, disable        bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a rule",
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

			var update engine.RuleUpdate
			if cmd.Flags().Changed("name") {
				update.Name = &name
			}
			if cmd.Flags().Changed("field") {
				ruleField := model.RuleField(field)
				update.Field = &ruleField
			}
			if cmd.Flags().Changed("match") {
				update.MatchText = &matchText
			}
			if cmd.Flags().Changed("category") {
				update.CategoryID = &categoryID
			}
			if enable || disable {
				update.IsActive = &enable
			}

			rule, err := eng.UpdateRule(ctx, teamID, id, update)
			if err != nil {
				return fmt.Errorf("failed to update rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated rule %q", rule.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&field, "field", "", "new field (description, amount, date)")
	cmd.Flags().StringVar(&matchText, "match", "", "new match text")
	cmd.Flags().Int64Var(&categoryID, "category", 0, "new category ID")
	cmd.Flags().BoolVar(&enable, "enable", false, "activate the rule")
	cmd.Flags().BoolVar(&disable, "disable", false, "deactivate the rule")

	return cmd
}

func deleteRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Long:  `Delete a rule. Transactions it already categorized keep their category.`,
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

			if err := eng.DeleteRule(ctx, teamID, id); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Rule deleted"))
			return nil
		},
	}
}

func applyRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Re-run all active rules over existing transactions",
		Long:  `Re-evaluate every active transaction against the team's rules and recategorize the ones whose first matching rule points elsewhere. Each change is audited with the rule that made it.`,
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

			var bar *progressbar.ProgressBar
			progress := func(done, total int) {
				if bar == nil {
					bar = progressbar.NewOptions(total,
						progressbar.OptionSetWriter(os.Stderr),
						progressbar.OptionShowCount(),
						progressbar.OptionSetWidth(40),
						progressbar.OptionSetDescription("Applying rules..."),
					)
				}
				_ = bar.Set(done)
			}

			result, err := eng.ApplyRules(ctx, teamID, userID, progress)
			if err != nil {
				return fmt.Errorf("failed to apply rules: %w", err)
			}
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(os.Stderr)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recategorized %d of %d transactions",
				result.CategorizedCount, result.TotalProcessed)))

			for _, match := range result.Details {
				fmt.Printf("  %s %q %s category %d (rule %q)\n",
					cli.InfoIcon, match.Description, cli.SubtleStyle.Render("->"),
					match.NewCategoryID, match.RuleName)
			}

			return nil
		},
	}
}
