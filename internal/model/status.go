package model

import (
	"fmt"
	"strings"
)

// CaseStatus is the lifecycle stage of a case.
type CaseStatus string

const (
	StatusOpen                CaseStatus = "open"
	StatusReminder1           CaseStatus = "reminder_1"
	StatusReminder2           CaseStatus = "reminder_2"
	StatusPaymentPlan         CaseStatus = "payment_plan"
	StatusLegal               CaseStatus = "legal"
	StatusPaid                CaseStatus = "paid"
	StatusClosedUncollectible CaseStatus = "closed_uncollectible"
	StatusContested           CaseStatus = "contested"
)

// Statuses is the selectable status set, in workflow order.
var Statuses = []CaseStatus{
	StatusOpen,
	StatusReminder1,
	StatusReminder2,
	StatusPaymentPlan,
	StatusLegal,
	StatusPaid,
	StatusClosedUncollectible,
	StatusContested,
}

// Valid reports whether s is one of the known statuses.
func (s CaseStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s CaseStatus) String() string { return string(s) }

// ParseStatus accepts a status name case-insensitively. "all" and "" yield the
// empty status, which list filters treat as unconstrained.
func ParseStatus(v string) (CaseStatus, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || v == "all" {
		return "", nil
	}
	s := CaseStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown case status %q", v)
	}
	return s, nil
}

// ActionTypes are the action kinds offered when recording a follow-up action.
// The backend accepts any string; the list only constrains the UI.
var ActionTypes = []string{
	"phone_call_attempt",
	"phone_call_success",
	"email_sent",
	"letter_sent",
	"payment_reminder",
	"address_updated",
	"note_added",
	"payment_plan_agreed",
	"legal_step_initiated",
	"cost_added",
}

// DefaultActionType is preselected in action forms when available.
const DefaultActionType = "note_added"

// Debtor types.
const (
	DebtorPrivate  = "private"
	DebtorBusiness = "business"
)
