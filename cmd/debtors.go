package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
	"github.com/JAlbrecht-svg/inkasso-console/internal/repository"
)

var debtorsCmd = &cobra.Command{
	Use:   "debtors",
	Short: "Search, show and edit debtors",
}

var debtorFilter struct {
	search        string
	limit, offset int
}

var debtorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List debtors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			debtors, err := a.repo.ListDebtors(ctx, repository.DebtorFilter{
				Search: debtorFilter.search,
				Limit:  debtorFilter.limit,
				Offset: debtorFilter.offset,
			})
			if err != nil {
				return failure("listing debtors", err)
			}
			if jsonOutput {
				return printJSON(a.out, debtors)
			}
			if len(debtors) == 0 {
				fmt.Fprintln(a.out, "No debtors found.")
				return nil
			}
			t := newTable(a.out, "ID", "NAME", "TYPE", "CITY", "EMAIL")
			for _, d := range debtors {
				t.row(d.ID, d.Name, d.DebtorType, dash(d.AddressCity), dash(d.Email))
			}
			return t.flush()
		})
	},
}

var debtorsShowCmd = &cobra.Command{
	Use:   "show <debtor-id>",
	Short: "Show one debtor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			d, err := a.repo.GetDebtor(ctx, args[0])
			if err != nil {
				return failure("loading debtor", err)
			}
			return printDebtor(a.out, d)
		})
	},
}

// debtorEdits maps edit flags onto debtor fields.
var debtorEdits = []struct {
	flag, usage string
	field       func(*model.Debtor) *string
}{
	{"name", "Name", func(d *model.Debtor) *string { return &d.Name }},
	{"street", "Street address", func(d *model.Debtor) *string { return &d.AddressStreet }},
	{"zip", "Postal code", func(d *model.Debtor) *string { return &d.AddressZip }},
	{"city", "City", func(d *model.Debtor) *string { return &d.AddressCity }},
	{"country", "Country", func(d *model.Debtor) *string { return &d.AddressCountry }},
	{"email", "Email (empty clears it)", func(d *model.Debtor) *string { return &d.Email }},
	{"phone", "Phone (empty clears it)", func(d *model.Debtor) *string { return &d.Phone }},
	{"type", "Debtor type (private or business)", func(d *model.Debtor) *string { return &d.DebtorType }},
	{"notes", "Notes (empty clears them)", func(d *model.Debtor) *string { return &d.Notes }},
}

var debtorsEditCmd = &cobra.Command{
	Use:   "edit <debtor-id>",
	Short: "Change debtor fields; only flags given are sent",
	Long: `Change debtor fields. Only the flags given are compared with the
stored debtor and only real changes are sent.

Example:
  inkasso debtors edit D1 --email max@example.org --phone ""`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if t, _ := flags.GetString("type"); flags.Changed("type") && t != model.DebtorPrivate && t != model.DebtorBusiness {
			return fmt.Errorf("debtor type must be %s or %s", model.DebtorPrivate, model.DebtorBusiness)
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			d := a.debtorDetail()
			if err := d.Load(ctx, args[0]); err != nil {
				return fmt.Errorf("loading debtor: %s", d.ErrorMessage())
			}
			d.Edit(func(draft *model.Debtor) { applyDebtorFlags(flags, draft) })
			if !d.Save(ctx) {
				return fmt.Errorf("saving debtor: %s", d.ErrorMessage())
			}
			if !jsonOutput {
				fmt.Fprintln(a.out, d.Notice())
			}
			return printDebtor(a.out, d.Draft())
		})
	},
}

func applyDebtorFlags(flags *pflag.FlagSet, draft *model.Debtor) {
	for _, e := range debtorEdits {
		if !flags.Changed(e.flag) {
			continue
		}
		v, _ := flags.GetString(e.flag)
		*e.field(draft) = v
	}
}

func init() {
	rootCmd.AddCommand(debtorsCmd)
	debtorsCmd.AddCommand(debtorsListCmd, debtorsShowCmd, debtorsEditCmd)

	f := debtorsListCmd.Flags()
	f.StringVar(&debtorFilter.search, "search", "", "Search name, email and city")
	f.IntVar(&debtorFilter.limit, "limit", repository.DefaultLimit, "Maximum number of debtors")
	f.IntVar(&debtorFilter.offset, "offset", 0, "Number of debtors to skip")

	for _, e := range debtorEdits {
		debtorsEditCmd.Flags().String(e.flag, "", e.usage)
	}
}

func printDebtor(w io.Writer, d model.Debtor) error {
	if jsonOutput {
		return printJSON(w, d)
	}
	fmt.Fprintf(w, "%s  [%s]\n", d.Name, d.DebtorType)
	fmt.Fprintf(w, "   ID: %s\n", d.ID)
	fmt.Fprintf(w, "   Address: %s, %s %s %s\n", dash(d.AddressStreet), d.AddressZip, d.AddressCity, d.AddressCountry)
	fmt.Fprintf(w, "   Email: %s\n", dash(d.Email))
	fmt.Fprintf(w, "   Phone: %s\n", dash(d.Phone))
	if d.Notes != "" {
		fmt.Fprintf(w, "   Notes: %s\n", d.Notes)
	}
	fmt.Fprintf(w, "   Updated: %s\n", d.UpdatedAt)
	return nil
}
