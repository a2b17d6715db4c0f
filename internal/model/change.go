package model

import "time"

// ChangeKind names a confirmed write.
type ChangeKind string

const (
	ChangeCaseUpdated    ChangeKind = "case.updated"
	ChangePaymentCreated ChangeKind = "payment.created"
	ChangeActionCreated  ChangeKind = "action.created"
	ChangeActionUpdated  ChangeKind = "action.updated"
	ChangeDebtorUpdated  ChangeKind = "debtor.updated"
)

// Change describes a write the backend confirmed. It feeds the local journal
// and the change feed; Payload is the request body that was sent.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	EntityID string     `json:"entity_id"`
	CaseID   string     `json:"case_id,omitempty"`
	Summary  string     `json:"summary"`
	Payload  any        `json:"payload,omitempty"`
	At       time.Time  `json:"at"`
}
