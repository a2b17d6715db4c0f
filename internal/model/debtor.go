package model

// Debtor is the person or business a case is collected from.
type Debtor struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	AddressStreet  string `json:"address_street,omitempty"`
	AddressZip     string `json:"address_zip,omitempty"`
	AddressCity    string `json:"address_city,omitempty"`
	AddressCountry string `json:"address_country,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	DebtorType     string `json:"debtor_type"`
	Notes          string `json:"notes,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func (d Debtor) Identity() string { return d.ID }

func (Debtor) RequiredKeys() []string {
	return []string{"id", "name", "debtor_type", "created_at", "updated_at"}
}
