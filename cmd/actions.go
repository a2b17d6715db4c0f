package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List and record follow-up actions of a case",
}

var actionsListCmd = &cobra.Command{
	Use:   "list <case-id>",
	Short: "List the actions of a case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			actions, err := a.repo.ListActions(ctx, args[0])
			if err != nil {
				return failure("listing actions", err)
			}
			if jsonOutput {
				return printJSON(a.out, actions)
			}
			if len(actions) == 0 {
				fmt.Fprintln(a.out, "No actions found.")
				return nil
			}
			t := newTable(a.out, "ID", "DATE", "TYPE", "COST", "BY", "NOTES")
			for _, ac := range actions {
				t.row(ac.ID, ac.ActionDate, ac.ActionType, fmt.Sprintf("%.2f", ac.Cost), dash(ac.CreatedByUser), ac.Notes)
			}
			return t.flush()
		})
	},
}

var actionFlags struct {
	actionType, date, notes, user string
	cost                          float64
}

var actionsAddCmd = &cobra.Command{
	Use:   "add <case-id>",
	Short: "Record an action; a cost is added to the case fees",
	Long: fmt.Sprintf(`Record a follow-up action on a case.

Action types offered by the console: %v.
The default type is %s.`, model.ActionTypes, model.DefaultActionType),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := model.CreateActionPayload{
			CaseID:        args[0],
			ActionType:    actionFlags.actionType,
			ActionDate:    optionalFlag(actionFlags.date),
			Notes:         optionalFlag(actionFlags.notes),
			CreatedByUser: optionalFlag(actionFlags.user),
		}
		if cmd.Flags().Changed("cost") {
			payload.Cost = model.Float(actionFlags.cost)
		}
		if err := payload.Validate(); err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			d := a.caseDetail()
			if err := d.LoadCaseDetails(ctx, args[0]); err != nil {
				return fmt.Errorf("loading case: %s", d.ErrorMessage())
			}
			if !d.SaveNewAction(ctx, payload) {
				return fmt.Errorf("recording action: %s", d.ErrorMessage())
			}
			return printCaseDetail(a.out, d)
		})
	},
}

var actionsNotesCmd = &cobra.Command{
	Use:   "notes <case-id> <action-id> <notes>",
	Short: "Replace the notes of an action",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			d := a.caseDetail()
			if err := d.LoadCaseDetails(ctx, args[0]); err != nil {
				return fmt.Errorf("loading case: %s", d.ErrorMessage())
			}
			if _, ok := d.Actions.Find(args[1]); !ok {
				return fmt.Errorf("action %s does not belong to case %s", args[1], args[0])
			}
			if !d.UpdateActionNotes(ctx, args[1], args[2]) {
				return fmt.Errorf("updating notes: %s", d.ErrorMessage())
			}
			return printCaseDetail(a.out, d)
		})
	},
}

func init() {
	rootCmd.AddCommand(actionsCmd)
	actionsCmd.AddCommand(actionsListCmd, actionsAddCmd, actionsNotesCmd)

	f := actionsAddCmd.Flags()
	f.StringVar(&actionFlags.actionType, "type", model.DefaultActionType, "Action type")
	f.StringVar(&actionFlags.date, "date", "", "Action date (YYYY-MM-DD, backend default when empty)")
	f.Float64Var(&actionFlags.cost, "cost", 0, "Cost charged to the case")
	f.StringVar(&actionFlags.notes, "notes", "", "Notes")
	f.StringVar(&actionFlags.user, "user", "", "Recorded by")
}
