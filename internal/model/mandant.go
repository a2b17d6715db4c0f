package model

// Mandant is a client of the collection agency. Read only from this console.
type Mandant struct {
	ID            string `json:"id"`
	MandantNumber string `json:"mandant_number"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	IsActive      int    `json:"is_active"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func (m Mandant) Identity() string { return m.ID }

// Active reports the 0/1 is_active flag as a bool.
func (m Mandant) Active() bool { return m.IsActive != 0 }

func (Mandant) RequiredKeys() []string {
	return []string{"id", "mandant_number", "name", "is_active", "created_at", "updated_at"}
}

// Auftrag is an order a mandant placed; cases belong to exactly one.
type Auftrag struct {
	ID           string `json:"id"`
	MandantID    string `json:"mandant_id"`
	AuftragSubID string `json:"auftrag_sub_id"`
	Name         string `json:"name"`
	WorkflowID   string `json:"workflow_id,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	Notes        string `json:"notes,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func (a Auftrag) Identity() string { return a.ID }

func (Auftrag) RequiredKeys() []string {
	return []string{"id", "mandant_id", "auftrag_sub_id", "name", "created_at", "updated_at"}
}

// Workflow is a dunning workflow template.
type Workflow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	MandantID   string `json:"mandant_id,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func (w Workflow) Identity() string { return w.ID }

func (Workflow) RequiredKeys() []string {
	return []string{"id", "name", "category", "created_at", "updated_at"}
}

// WorkflowStep is one automated step of a workflow.
type WorkflowStep struct {
	ID                 string  `json:"id"`
	WorkflowID         string  `json:"workflow_id"`
	StepOrder          int     `json:"step_order"`
	Name               string  `json:"name"`
	TriggerType        string  `json:"trigger_type"`
	TriggerValue       int     `json:"trigger_value"`
	ActionToPerform    string  `json:"action_to_perform"`
	TemplateIdentifier string  `json:"template_identifier,omitempty"`
	FeeToCharge        float64 `json:"fee_to_charge"`
	TargetCaseStatus   string  `json:"target_case_status,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

func (s WorkflowStep) Identity() string { return s.ID }

func (WorkflowStep) RequiredKeys() []string {
	return []string{
		"id", "workflow_id", "step_order", "name", "trigger_type", "trigger_value",
		"action_to_perform", "fee_to_charge", "created_at", "updated_at",
	}
}
