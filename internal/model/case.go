package model

// Case is a single debt-collection matter linking a debtor, an order (Auftrag)
// and the financial totals the backend maintains for it.
type Case struct {
	ID             string     `json:"id"`
	DebtorID       string     `json:"debtor_id"`
	AuftragID      string     `json:"auftrag_id"`
	MandantID      string     `json:"mandant_id,omitempty"`
	CaseReference  string     `json:"case_reference"`
	OriginalAmount float64    `json:"original_amount"`
	FeesAmount     float64    `json:"fees_amount"`
	InterestAmount float64    `json:"interest_amount"`
	PaidAmount     float64    `json:"paid_amount"`
	Currency       string     `json:"currency"`
	Status         CaseStatus `json:"status"`
	ReasonForClaim string     `json:"reason_for_claim,omitempty"`
	OpenedAt       string     `json:"opened_at"`
	DueDate        string     `json:"due_date,omitempty"`
	ClosedAt       string     `json:"closed_at,omitempty"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`

	// Joined by the list/get endpoints for display only.
	DebtorName  string `json:"debtor_name,omitempty"`
	AuftragName string `json:"auftrag_name,omitempty"`
	MandantName string `json:"mandant_name,omitempty"`
}

// Identity returns the case id.
func (c Case) Identity() string { return c.ID }

// TotalDue is the claim plus fees and interest.
func (c Case) TotalDue() float64 {
	return c.OriginalAmount + c.FeesAmount + c.InterestAmount
}

// OutstandingAmount is TotalDue minus what has been paid. It goes negative on
// overpayment and is intentionally not clamped.
func (c Case) OutstandingAmount() float64 {
	return c.TotalDue() - c.PaidAmount
}

// RequiredKeys lists the JSON keys the backend must always send for a case.
func (Case) RequiredKeys() []string {
	return []string{
		"id", "debtor_id", "auftrag_id", "case_reference",
		"original_amount", "fees_amount", "interest_amount", "paid_amount",
		"currency", "status", "opened_at", "created_at", "updated_at",
	}
}
