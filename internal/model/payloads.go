package model

import (
	"fmt"
	"strings"
)

// Partial-update and create payloads. Pointer fields left nil are omitted from
// the request body, which the backend reads as "leave unchanged".

// UpdateCasePayload is the body of PUT cases/{id}. Amounts are server-derived
// and deliberately not part of it.
type UpdateCasePayload struct {
	Status         *CaseStatus `json:"status,omitempty"`
	ReasonForClaim *string     `json:"reason_for_claim,omitempty"`
	DueDate        *string     `json:"due_date,omitempty"`
	ClosedAt       *string     `json:"closed_at,omitempty"`
}

// Empty reports whether no editable field is set.
func (p UpdateCasePayload) Empty() bool {
	return p.Status == nil && p.ReasonForClaim == nil && p.DueDate == nil && p.ClosedAt == nil
}

// CreatePaymentPayload is the body of POST payments.
type CreatePaymentPayload struct {
	CaseID        string  `json:"case_id"`
	Amount        float64 `json:"amount"`
	PaymentDate   string  `json:"payment_date"`
	PaymentMethod *string `json:"payment_method,omitempty"`
	Reference     *string `json:"reference,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// Validate runs the checks done before a payment is submitted.
func (p CreatePaymentPayload) Validate() error {
	if p.Amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if strings.TrimSpace(p.PaymentDate) == "" {
		return &ValidationError{Field: "payment_date", Reason: "is required"}
	}
	return nil
}

// CreateActionPayload is the body of POST actions. A nil Cost is treated as 0
// by the backend.
type CreateActionPayload struct {
	CaseID        string   `json:"case_id"`
	ActionType    string   `json:"action_type"`
	ActionDate    *string  `json:"action_date,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	Cost          *float64 `json:"cost,omitempty"`
	CreatedByUser *string  `json:"created_by_user,omitempty"`
}

// Validate runs the checks done before an action is submitted.
func (p CreateActionPayload) Validate() error {
	if strings.TrimSpace(p.ActionType) == "" {
		return &ValidationError{Field: "action_type", Reason: "is required"}
	}
	if p.Cost != nil && *p.Cost < 0 {
		return &ValidationError{Field: "cost", Reason: "must not be negative"}
	}
	return nil
}

// CostValue returns the cost, defaulting to 0 when omitted.
func (p CreateActionPayload) CostValue() float64 {
	if p.Cost == nil {
		return 0
	}
	return *p.Cost
}

// UpdateActionPayload is the body of PUT actions/{id}.
type UpdateActionPayload struct {
	Notes *string `json:"notes,omitempty"`
}

// UpdateDebtorPayload is the body of PUT debtors/{id}.
type UpdateDebtorPayload struct {
	Name           *string `json:"name,omitempty"`
	AddressStreet  *string `json:"address_street,omitempty"`
	AddressZip     *string `json:"address_zip,omitempty"`
	AddressCity    *string `json:"address_city,omitempty"`
	AddressCountry *string `json:"address_country,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	DebtorType     *string `json:"debtor_type,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// Empty reports whether no field is set.
func (p UpdateDebtorPayload) Empty() bool {
	return p.Name == nil && p.AddressStreet == nil && p.AddressZip == nil &&
		p.AddressCity == nil && p.AddressCountry == nil && p.Email == nil &&
		p.Phone == nil && p.DebtorType == nil && p.Notes == nil
}

// ValidationError reports a payload rejected on the client before any request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UserMessage is the text shown next to the offending form field.
func (e *ValidationError) UserMessage() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Status returns a pointer to s.
func Status(s CaseStatus) *CaseStatus { return &s }
