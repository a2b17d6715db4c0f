package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JAlbrecht-svg/inkasso-console/internal/controller"
)

var mandantenCmd = &cobra.Command{
	Use:     "mandanten",
	Aliases: []string{"clients"},
	Short:   "Browse mandanten (read only)",
}

var mandantenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mandanten",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			list := controller.NewMandantList(a.repo, a.logger)
			if err := list.Load(ctx); err != nil {
				return fmt.Errorf("listing mandanten: %s", list.ErrorMessage())
			}
			if jsonOutput {
				return printJSON(a.out, list.Items())
			}
			t := newTable(a.out, "ID", "NUMBER", "NAME", "CONTACT", "ACTIVE")
			for _, m := range list.Items() {
				t.row(m.ID, m.MandantNumber, m.Name, dash(m.ContactPerson), m.Active())
			}
			return t.flush()
		})
	},
}

var mandantenShowCmd = &cobra.Command{
	Use:   "show <mandant-id>",
	Short: "Show one mandant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			m, err := a.repo.GetMandant(ctx, args[0])
			if err != nil {
				return failure("loading mandant", err)
			}
			if jsonOutput {
				return printJSON(a.out, m)
			}
			active := "inactive"
			if m.Active() {
				active = "active"
			}
			fmt.Fprintf(a.out, "%s  [%s]\n", m.Name, active)
			fmt.Fprintf(a.out, "   ID: %s\n", m.ID)
			fmt.Fprintf(a.out, "   Number: %s\n", m.MandantNumber)
			fmt.Fprintf(a.out, "   Contact: %s\n", dash(m.ContactPerson))
			fmt.Fprintf(a.out, "   Email: %s\n", dash(m.Email))
			fmt.Fprintf(a.out, "   Phone: %s\n", dash(m.Phone))
			return nil
		})
	},
}

var auftraegeMandant string

var auftraegeCmd = &cobra.Command{
	Use:     "auftraege",
	Aliases: []string{"orders"},
	Short:   "Browse orders (read only)",
}

var auftraegeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders, optionally of one mandant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			list := controller.NewAuftragList(a.repo, a.logger)
			if err := list.SetMandant(ctx, auftraegeMandant); err != nil {
				return fmt.Errorf("listing orders: %s", list.ErrorMessage())
			}
			if jsonOutput {
				return printJSON(a.out, list.Items())
			}
			t := newTable(a.out, "ID", "MANDANT", "SUB-ID", "NAME", "WORKFLOW")
			for _, o := range list.Items() {
				t.row(o.ID, o.MandantID, o.AuftragSubID, o.Name, dash(o.WorkflowID))
			}
			return t.flush()
		})
	},
}

var auftraegeShowCmd = &cobra.Command{
	Use:   "show <auftrag-id>",
	Short: "Show one order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			o, err := a.repo.GetAuftrag(ctx, args[0])
			if err != nil {
				return failure("loading order", err)
			}
			if jsonOutput {
				return printJSON(a.out, o)
			}
			fmt.Fprintf(a.out, "%s  [%s]\n", o.Name, o.AuftragSubID)
			fmt.Fprintf(a.out, "   ID: %s\n", o.ID)
			fmt.Fprintf(a.out, "   Mandant: %s\n", o.MandantID)
			fmt.Fprintf(a.out, "   Workflow: %s\n", dash(o.WorkflowID))
			if o.StartDate != "" || o.EndDate != "" {
				fmt.Fprintf(a.out, "   Runs: %s to %s\n", dash(o.StartDate), dash(o.EndDate))
			}
			if o.Notes != "" {
				fmt.Fprintf(a.out, "   Notes: %s\n", o.Notes)
			}
			return nil
		})
	},
}

var workflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "Browse dunning workflows (read only)",
}

var workflowsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			list := controller.NewWorkflowList(a.repo, a.logger)
			if err := list.Load(ctx); err != nil {
				return fmt.Errorf("listing workflows: %s", list.ErrorMessage())
			}
			if jsonOutput {
				return printJSON(a.out, list.Items())
			}
			t := newTable(a.out, "ID", "NAME", "CATEGORY", "DESCRIPTION")
			for _, w := range list.Items() {
				t.row(w.ID, w.Name, w.Category, w.Description)
			}
			return t.flush()
		})
	},
}

var workflowsStepsCmd = &cobra.Command{
	Use:   "steps <workflow-id>",
	Short: "List the steps of a workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			list := controller.NewStepList(a.repo, a.logger)
			if err := list.SetWorkflow(ctx, args[0]); err != nil {
				return fmt.Errorf("listing steps: %s", list.ErrorMessage())
			}
			if jsonOutput {
				return printJSON(a.out, list.Items())
			}
			t := newTable(a.out, "#", "NAME", "TRIGGER", "ACTION", "FEE", "TARGET STATUS")
			for _, s := range list.Items() {
				t.row(s.StepOrder, s.Name, fmt.Sprintf("%s %d", s.TriggerType, s.TriggerValue),
					s.ActionToPerform, fmt.Sprintf("%.2f", s.FeeToCharge), dash(s.TargetCaseStatus))
			}
			return t.flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(mandantenCmd, auftraegeCmd, workflowsCmd)
	mandantenCmd.AddCommand(mandantenListCmd, mandantenShowCmd)
	auftraegeCmd.AddCommand(auftraegeListCmd, auftraegeShowCmd)
	workflowsCmd.AddCommand(workflowsListCmd, workflowsStepsCmd)

	auftraegeListCmd.Flags().StringVar(&auftraegeMandant, "mandant", "", "Only orders of this mandant")
}
