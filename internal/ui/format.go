package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
)

// formatAmount renders v with two decimals and the currency code, EUR when
// the case carries none.
func formatAmount(v float64, currency string) string {
	if currency == "" {
		currency = "EUR"
	}
	return fmt.Sprintf("%.2f %s", v, currency)
}

// statusLabel is the human form of a status ("reminder_1" -> "Reminder 1").
func statusLabel(s model.CaseStatus) string {
	if s == "" {
		return "All"
	}
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// parseAmount accepts "12.50" and "12,50".
func parseAmount(field, text string) (float64, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, ",", "."))
	if text == "" {
		return 0, &model.ValidationError{Field: field, Reason: "is required"}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, &model.ValidationError{Field: field, Reason: "must be a number"}
	}
	return v, nil
}

func optional(text string) *string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &text
}

func today() string { return time.Now().Format("2006-01-02") }

// paymentInput is the raw content of the payment form.
type paymentInput struct {
	Amount    string
	Date      string
	Method    string
	Reference string
	Notes     string
}

func (in paymentInput) payload(caseID string) (model.CreatePaymentPayload, error) {
	amount, err := parseAmount("amount", in.Amount)
	if err != nil {
		return model.CreatePaymentPayload{}, err
	}
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = today()
	}
	p := model.CreatePaymentPayload{
		CaseID:        caseID,
		Amount:        amount,
		PaymentDate:   date,
		PaymentMethod: optional(in.Method),
		Reference:     optional(in.Reference),
		Notes:         optional(in.Notes),
	}
	return p, p.Validate()
}

// actionInput is the raw content of the action form.
type actionInput struct {
	Type  string
	Date  string
	Cost  string
	Notes string
	User  string
}

func (in actionInput) payload(caseID string) (model.CreateActionPayload, error) {
	p := model.CreateActionPayload{
		CaseID:        caseID,
		ActionType:    strings.TrimSpace(in.Type),
		ActionDate:    optional(in.Date),
		Notes:         optional(in.Notes),
		CreatedByUser: optional(in.User),
	}
	if strings.TrimSpace(in.Cost) != "" {
		cost, err := parseAmount("cost", in.Cost)
		if err != nil {
			return model.CreateActionPayload{}, err
		}
		p.Cost = &cost
	}
	return p, p.Validate()
}

// userMessage prefers the message written for people.
func userMessage(err error) string {
	if v, ok := err.(interface{ UserMessage() string }); ok {
		return v.UserMessage()
	}
	return err.Error()
}
