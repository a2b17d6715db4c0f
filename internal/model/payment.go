package model

// Payment is money received for a case. RecordedAt is assigned by the server.
type Payment struct {
	ID            string  `json:"id"`
	CaseID        string  `json:"case_id"`
	Amount        float64 `json:"amount"`
	PaymentDate   string  `json:"payment_date"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	Reference     string  `json:"reference,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	RecordedAt    string  `json:"recorded_at"`
}

func (p Payment) Identity() string { return p.ID }

func (Payment) RequiredKeys() []string {
	return []string{"id", "case_id", "amount", "payment_date", "recorded_at"}
}

// Action is a follow-up step taken on a case (call, letter, legal step...).
// A non-zero Cost is added to the case fees by the backend.
type Action struct {
	ID            string  `json:"id"`
	CaseID        string  `json:"case_id"`
	ActionType    string  `json:"action_type"`
	ActionDate    string  `json:"action_date"`
	Notes         string  `json:"notes,omitempty"`
	Cost          float64 `json:"cost"`
	CreatedByUser string  `json:"created_by_user,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func (a Action) Identity() string { return a.ID }

func (Action) RequiredKeys() []string {
	return []string{"id", "case_id", "action_type", "action_date", "created_at"}
}
