package backendtest

import "github.com/JAlbrecht-svg/inkasso-console/internal/model"

const stamp = "2025-01-01T00:00:00Z"

// Fixture ids.
const (
	CaseC1    = "C1"
	CaseC2    = "C2"
	CaseC3    = "C3"
	DebtorD1  = "D1"
	DebtorD2  = "D2"
	MandantM1 = "M1"
	MandantM2 = "M2"
	AuftragA1 = "A1"
	AuftragA2 = "A2"
	FlowW1    = "W1"
)

func (s *Server) seed() {
	s.debtors[DebtorD1] = &model.Debtor{
		ID: DebtorD1, Name: "Max Mustermann", AddressStreet: "Hauptstr. 1", AddressZip: "10115",
		AddressCity: "Berlin", AddressCountry: "DE", Email: "max@example.com",
		DebtorType: model.DebtorPrivate, CreatedAt: stamp, UpdatedAt: stamp,
	}
	s.debtors[DebtorD2] = &model.Debtor{
		ID: DebtorD2, Name: "Beispiel GmbH", AddressCity: "Hamburg",
		DebtorType: model.DebtorBusiness, CreatedAt: stamp, UpdatedAt: stamp,
	}

	s.cases[CaseC1] = &model.Case{
		ID: CaseC1, DebtorID: DebtorD1, AuftragID: AuftragA1, MandantID: MandantM1,
		CaseReference: "INK-2025-001", OriginalAmount: 100, FeesAmount: 10, InterestAmount: 2.5,
		PaidAmount: 20, Currency: "EUR", Status: model.StatusOpen, ReasonForClaim: "Rechnung 4711",
		OpenedAt: stamp, CreatedAt: stamp, UpdatedAt: stamp,
		DebtorName: "Max Mustermann", AuftragName: "Sammelauftrag Q1", MandantName: "Stadtwerke Nord",
	}
	s.cases[CaseC2] = &model.Case{
		ID: CaseC2, DebtorID: DebtorD2, AuftragID: AuftragA1, MandantID: MandantM1,
		CaseReference: "INK-2025-002", OriginalAmount: 250, Currency: "EUR",
		Status: model.StatusReminder1, OpenedAt: stamp, CreatedAt: stamp, UpdatedAt: stamp,
		DebtorName: "Beispiel GmbH", AuftragName: "Sammelauftrag Q1", MandantName: "Stadtwerke Nord",
	}
	s.cases[CaseC3] = &model.Case{
		ID: CaseC3, DebtorID: DebtorD1, AuftragID: AuftragA2, MandantID: MandantM2,
		CaseReference: "INK-2025-003", OriginalAmount: 80, FeesAmount: 5, PaidAmount: 90,
		Currency: "EUR", Status: model.StatusPaid, OpenedAt: stamp, CreatedAt: stamp, UpdatedAt: stamp,
		DebtorName: "Max Mustermann", AuftragName: "Einzelauftrag", MandantName: "Verlag Süd",
	}

	s.payments[CaseC1] = []model.Payment{{
		ID: "P1", CaseID: CaseC1, Amount: 20, PaymentDate: "2025-01-15",
		PaymentMethod: "bank_transfer", RecordedAt: stamp,
	}}
	s.actions[CaseC1] = []model.Action{{
		ID: "AC1", CaseID: CaseC1, ActionType: "letter_sent", ActionDate: "2025-01-05",
		Notes: "Erste Mahnung", Cost: 0, CreatedAt: stamp,
	}}

	s.mandanten = []model.Mandant{
		{ID: MandantM1, MandantNumber: "1001", Name: "Stadtwerke Nord", IsActive: 1, CreatedAt: stamp, UpdatedAt: stamp},
		{ID: MandantM2, MandantNumber: "1002", Name: "Verlag Süd", IsActive: 0, CreatedAt: stamp, UpdatedAt: stamp},
	}
	s.auftraege = []model.Auftrag{
		{ID: AuftragA1, MandantID: MandantM1, AuftragSubID: "Q1", Name: "Sammelauftrag Q1", WorkflowID: FlowW1, CreatedAt: stamp, UpdatedAt: stamp},
		{ID: AuftragA2, MandantID: MandantM2, AuftragSubID: "E1", Name: "Einzelauftrag", CreatedAt: stamp, UpdatedAt: stamp},
	}
	s.workflows = []model.Workflow{
		{ID: FlowW1, Name: "Standard", Category: "dunning", CreatedAt: stamp, UpdatedAt: stamp},
	}
	s.steps[FlowW1] = []model.WorkflowStep{
		{ID: "S1", WorkflowID: FlowW1, StepOrder: 1, Name: "Erste Mahnung", TriggerType: "days_after_open",
			TriggerValue: 14, ActionToPerform: "letter_sent", FeeToCharge: 5, TargetCaseStatus: "reminder_1",
			CreatedAt: stamp, UpdatedAt: stamp},
	}
}
