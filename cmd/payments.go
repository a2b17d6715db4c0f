package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
)

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "List and book payments of a case",
}

var paymentsListCmd = &cobra.Command{
	Use:   "list <case-id>",
	Short: "List the payments of a case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			payments, err := a.repo.ListPayments(ctx, args[0])
			if err != nil {
				return failure("listing payments", err)
			}
			if jsonOutput {
				return printJSON(a.out, payments)
			}
			if len(payments) == 0 {
				fmt.Fprintln(a.out, "No payments found.")
				return nil
			}
			t := newTable(a.out, "ID", "DATE", "AMOUNT", "METHOD", "REFERENCE", "NOTES")
			for _, p := range payments {
				t.row(p.ID, p.PaymentDate, fmt.Sprintf("%.2f", p.Amount), dash(p.PaymentMethod), dash(p.Reference), p.Notes)
			}
			return t.flush()
		})
	},
}

var paymentFlags struct {
	amount                   float64
	date, method, ref, notes string
}

var paymentsAddCmd = &cobra.Command{
	Use:   "add <case-id>",
	Short: "Book a payment and show the updated case",
	Long: `Book a payment on a case. The case is re-read afterwards, so the
paid and outstanding amounts printed are the ones the backend computed.

Example:
  inkasso payments add C1 --amount 20 --method transfer --reference "Kontoauszug 12"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := model.CreatePaymentPayload{
			CaseID:        args[0],
			Amount:        paymentFlags.amount,
			PaymentDate:   paymentFlags.date,
			PaymentMethod: optionalFlag(paymentFlags.method),
			Reference:     optionalFlag(paymentFlags.ref),
			Notes:         optionalFlag(paymentFlags.notes),
		}
		if err := payload.Validate(); err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			d := a.caseDetail()
			if err := d.LoadCaseDetails(ctx, args[0]); err != nil {
				return fmt.Errorf("loading case: %s", d.ErrorMessage())
			}
			if !d.SaveNewPayment(ctx, payload) {
				return fmt.Errorf("booking payment: %s", d.ErrorMessage())
			}
			return printCaseDetail(a.out, d)
		})
	},
}

func init() {
	rootCmd.AddCommand(paymentsCmd)
	paymentsCmd.AddCommand(paymentsListCmd, paymentsAddCmd)

	f := paymentsAddCmd.Flags()
	f.Float64Var(&paymentFlags.amount, "amount", 0, "Amount received (required, > 0)")
	f.StringVar(&paymentFlags.date, "date", time.Now().Format("2006-01-02"), "Payment date (YYYY-MM-DD)")
	f.StringVar(&paymentFlags.method, "method", "", "Payment method")
	f.StringVar(&paymentFlags.ref, "reference", "", "Payment reference")
	f.StringVar(&paymentFlags.notes, "notes", "", "Notes")
	_ = paymentsAddCmd.MarkFlagRequired("amount")
}

func optionalFlag(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
