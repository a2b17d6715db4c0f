package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseDerivedAmounts(t *testing.T) {
	c := Case{OriginalAmount: 100, FeesAmount: 10, InterestAmount: 2.5, PaidAmount: 20}
	assert.InDelta(t, 112.5, c.TotalDue(), 1e-9)
	assert.InDelta(t, 92.5, c.OutstandingAmount(), 1e-9)
}

func TestOutstandingAmountNotClamped(t *testing.T) {
	c := Case{OriginalAmount: 50, PaidAmount: 60}
	assert.InDelta(t, -10, c.OutstandingAmount(), 1e-9)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("Payment_Plan")
	require.NoError(t, err)
	assert.Equal(t, StatusPaymentPlan, s)

	s, err = ParseStatus("all")
	require.NoError(t, err)
	assert.Equal(t, CaseStatus(""), s)

	_, err = ParseStatus("archived")
	assert.Error(t, err)
}

func TestPaymentValidation(t *testing.T) {
	err := CreatePaymentPayload{Amount: 0, PaymentDate: "2025-04-20"}.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)

	err = CreatePaymentPayload{Amount: 10}.Validate()
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "payment_date", verr.Field)

	assert.NoError(t, CreatePaymentPayload{Amount: 0.01, PaymentDate: "2025-04-20"}.Validate())
}

func TestActionValidationAndCostDefault(t *testing.T) {
	p := CreateActionPayload{ActionType: "letter_sent"}
	assert.NoError(t, p.Validate())
	assert.Equal(t, 0.0, p.CostValue())

	p.Cost = Float(-1)
	assert.Error(t, p.Validate())

	assert.Error(t, CreateActionPayload{ActionType: "  "}.Validate())
}

func TestPayloadEmpty(t *testing.T) {
	assert.True(t, UpdateCasePayload{}.Empty())
	assert.False(t, UpdateCasePayload{Status: Status(StatusPaid)}.Empty())
	assert.True(t, UpdateDebtorPayload{}.Empty())
	assert.False(t, UpdateDebtorPayload{Notes: String("")}.Empty())
}
