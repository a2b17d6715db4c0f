// Package changes computes partial-update payloads as a field diff between
// the snapshot an editor started from and the edited value.
//
// Both directions of every rule live in the static field tables below. A
// string that becomes empty is normally dropped from the payload; only fields
// marked clearable send an explicit "" so the server erases the stored value.
// An empty result is not an error: the caller decides to skip the request.
package changes

import (
	"strings"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
)

type stringField[E, P any] struct {
	name      string
	get       func(E) string
	set       func(*P, *string)
	clearable bool
}

var debtorFields = []stringField[model.Debtor, model.UpdateDebtorPayload]{
	{name: "name", get: func(d model.Debtor) string { return d.Name }, set: func(p *model.UpdateDebtorPayload, v *string) { p.Name = v }},
	{name: "address_street", get: func(d model.Debtor) string { return d.AddressStreet }, set: func(p *model.UpdateDebtorPayload, v *string) { p.AddressStreet = v }},
	{name: "address_zip", get: func(d model.Debtor) string { return d.AddressZip }, set: func(p *model.UpdateDebtorPayload, v *string) { p.AddressZip = v }},
	{name: "address_city", get: func(d model.Debtor) string { return d.AddressCity }, set: func(p *model.UpdateDebtorPayload, v *string) { p.AddressCity = v }},
	{name: "address_country", get: func(d model.Debtor) string { return d.AddressCountry }, set: func(p *model.UpdateDebtorPayload, v *string) { p.AddressCountry = v }},
	{name: "email", get: func(d model.Debtor) string { return d.Email }, set: func(p *model.UpdateDebtorPayload, v *string) { p.Email = v }, clearable: true},
	{name: "phone", get: func(d model.Debtor) string { return d.Phone }, set: func(p *model.UpdateDebtorPayload, v *string) { p.Phone = v }, clearable: true},
	{name: "debtor_type", get: func(d model.Debtor) string { return d.DebtorType }, set: func(p *model.UpdateDebtorPayload, v *string) { p.DebtorType = v }},
	{name: "notes", get: func(d model.Debtor) string { return d.Notes }, set: func(p *model.UpdateDebtorPayload, v *string) { p.Notes = v }, clearable: true},
}

var caseFields = []stringField[model.Case, model.UpdateCasePayload]{
	{name: "reason_for_claim", get: func(c model.Case) string { return c.ReasonForClaim }, set: func(p *model.UpdateCasePayload, v *string) { p.ReasonForClaim = v }, clearable: true},
	{name: "due_date", get: func(c model.Case) string { return c.DueDate }, set: func(p *model.UpdateCasePayload, v *string) { p.DueDate = v }},
}

// DebtorChanges returns the fields of current that differ from original.
func DebtorChanges(original, current model.Debtor) model.UpdateDebtorPayload {
	return build(debtorFields, original, current)
}

// CaseChanges returns the editable case fields of current that differ from
// original. Amounts are server-derived and never part of the diff.
func CaseChanges(original, current model.Case) model.UpdateCasePayload {
	p := build(caseFields, original, current)
	if current.Status != "" && current.Status != original.Status {
		s := current.Status
		p.Status = &s
	}
	return p
}

// ChangedDebtorFields lists the wire names of the debtor fields that differ.
func ChangedDebtorFields(original, current model.Debtor) []string {
	var names []string
	for _, f := range debtorFields {
		if _, ok := diff(f.get(original), f.get(current), f.clearable); ok {
			names = append(names, f.name)
		}
	}
	return names
}

func build[E, P any](fields []stringField[E, P], original, current E) P {
	var p P
	for _, f := range fields {
		if v, ok := diff(f.get(original), f.get(current), f.clearable); ok {
			f.set(&p, v)
		}
	}
	return p
}

func diff(original, current string, clearable bool) (*string, bool) {
	o := strings.TrimSpace(original)
	c := strings.TrimSpace(current)
	if o == c {
		return nil, false
	}
	if c == "" && !clearable {
		return nil, false
	}
	return &c, true
}
