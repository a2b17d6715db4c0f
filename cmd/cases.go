package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JAlbrecht-svg/inkasso-console/internal/controller"
	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
	"github.com/JAlbrecht-svg/inkasso-console/internal/repository"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "List, show and update cases",
	Long: `Work with collection cases.

Examples:
  # Open cases of one debtor
  inkasso cases list --status open --debtor D1

  # A case with its payments and actions
  inkasso cases show C1

  # Move a case to the first reminder
  inkasso cases status C1 reminder_1`,
}

var caseFilter struct {
	status, search, auftrag, debtor string
	limit, offset                   int
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := model.ParseStatus(caseFilter.status)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			cases, err := a.repo.ListCases(ctx, repository.CaseFilter{
				Status:    status,
				Search:    caseFilter.search,
				AuftragID: caseFilter.auftrag,
				DebtorID:  caseFilter.debtor,
				Limit:     caseFilter.limit,
				Offset:    caseFilter.offset,
			})
			if err != nil {
				return failure("listing cases", err)
			}
			if jsonOutput {
				return printJSON(a.out, cases)
			}
			if len(cases) == 0 {
				fmt.Fprintln(a.out, "No cases found.")
				return nil
			}
			t := newTable(a.out, "ID", "REFERENCE", "DEBTOR", "STATUS", "TOTAL", "PAID", "OUTSTANDING")
			for _, c := range cases {
				t.row(c.ID, c.CaseReference, dash(c.DebtorName), c.Status,
					money(c.TotalDue(), c.Currency), money(c.PaidAmount, c.Currency), money(c.OutstandingAmount(), c.Currency))
			}
			return t.flush()
		})
	},
}

var casesShowCmd = &cobra.Command{
	Use:   "show <case-id>",
	Short: "Show a case with its payments and actions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			d := a.caseDetail()
			if err := d.LoadCaseDetails(ctx, args[0]); err != nil {
				return fmt.Errorf("loading case: %s", d.ErrorMessage())
			}
			return printCaseDetail(a.out, d)
		})
	},
}

var casesStatusCmd = &cobra.Command{
	Use:   "status <case-id> <status>",
	Short: "Change the status of a case",
	Long: fmt.Sprintf(`Change the status of a case. Known statuses: %v.
Setting the status a case already has does nothing.`, model.Statuses),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := model.ParseStatus(args[1])
		if err != nil {
			return err
		}
		if status == "" {
			return fmt.Errorf("a status is required")
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			d := a.caseDetail()
			if err := d.LoadCaseDetails(ctx, args[0]); err != nil {
				return fmt.Errorf("loading case: %s", d.ErrorMessage())
			}
			if !d.UpdateStatus(ctx, status) {
				return fmt.Errorf("updating status: %s", d.ErrorMessage())
			}
			return printCaseDetail(a.out, d)
		})
	},
}

var casesReasonCmd = &cobra.Command{
	Use:   "reason <case-id> <text>",
	Short: "Set the reason for the claim (empty text clears it)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			d := a.caseDetail()
			if err := d.LoadCaseDetails(ctx, args[0]); err != nil {
				return fmt.Errorf("loading case: %s", d.ErrorMessage())
			}
			if !d.UpdateReason(ctx, args[1]) {
				return fmt.Errorf("updating reason: %s", d.ErrorMessage())
			}
			return printCaseDetail(a.out, d)
		})
	},
}

func init() {
	rootCmd.AddCommand(casesCmd)
	casesCmd.AddCommand(casesListCmd, casesShowCmd, casesStatusCmd, casesReasonCmd)

	f := casesListCmd.Flags()
	f.StringVar(&caseFilter.status, "status", "", "Only cases with this status (all when empty)")
	f.StringVar(&caseFilter.search, "search", "", "Search reference and debtor name")
	f.StringVar(&caseFilter.auftrag, "auftrag", "", "Only cases of this order")
	f.StringVar(&caseFilter.debtor, "debtor", "", "Only cases of this debtor")
	f.IntVar(&caseFilter.limit, "limit", repository.DefaultLimit, "Maximum number of cases")
	f.IntVar(&caseFilter.offset, "offset", 0, "Number of cases to skip")
}

type caseView struct {
	Case     model.Case      `json:"case"`
	Payments []model.Payment `json:"payments"`
	Actions  []model.Action  `json:"actions"`
}

func printCaseDetail(w io.Writer, d *controller.CaseDetail) error {
	c, ok := d.Case()
	if !ok {
		return fmt.Errorf("no case loaded")
	}
	payments, actions := d.Payments.Items(), d.Actions.Items()
	if jsonOutput {
		return printJSON(w, caseView{Case: c, Payments: payments, Actions: actions})
	}

	fmt.Fprintf(w, "%s  [%s]\n", c.CaseReference, c.Status)
	fmt.Fprintf(w, "   ID: %s\n", c.ID)
	fmt.Fprintf(w, "   Debtor: %s (%s)\n", dash(c.DebtorName), c.DebtorID)
	fmt.Fprintf(w, "   Order: %s (%s)\n", dash(c.AuftragName), c.AuftragID)
	if c.MandantName != "" {
		fmt.Fprintf(w, "   Mandant: %s\n", c.MandantName)
	}
	fmt.Fprintf(w, "   Claim: %s  Fees: %s  Interest: %s\n",
		money(c.OriginalAmount, c.Currency), money(c.FeesAmount, c.Currency), money(c.InterestAmount, c.Currency))
	fmt.Fprintf(w, "   Paid: %s  Outstanding: %s\n", money(c.PaidAmount, c.Currency), money(c.OutstandingAmount(), c.Currency))
	if c.ReasonForClaim != "" {
		fmt.Fprintf(w, "   Reason: %s\n", c.ReasonForClaim)
	}
	if c.DueDate != "" {
		fmt.Fprintf(w, "   Due: %s\n", c.DueDate)
	}
	if msg := d.ErrorMessage(); msg != "" {
		fmt.Fprintf(w, "   Warning: %s\n", msg)
	}

	fmt.Fprintf(w, "\nPayments (%d):\n", len(payments))
	if msg := d.Payments.ErrorMessage(); msg != "" {
		fmt.Fprintf(w, "   could not load: %s\n", msg)
	}
	for _, p := range payments {
		fmt.Fprintf(w, "   %s  %s  %s %s\n", p.PaymentDate, money(p.Amount, c.Currency), dash(p.PaymentMethod), p.Reference)
	}

	fmt.Fprintf(w, "\nActions (%d):\n", len(actions))
	if msg := d.Actions.ErrorMessage(); msg != "" {
		fmt.Fprintf(w, "   could not load: %s\n", msg)
	}
	for _, ac := range actions {
		fmt.Fprintf(w, "   %s  %-20s %s  %s  [%s]\n", ac.ActionDate, ac.ActionType, money(ac.Cost, c.Currency), ac.Notes, ac.ID)
	}
	return nil
}
