package repository

import (
	"context"
	"net/http"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
	"github.com/JAlbrecht-svg/inkasso-console/internal/transport"
)

// ListCases fetches the cases matching filter.
func (r *Repository) ListCases(ctx context.Context, filter CaseFilter) ([]model.Case, error) {
	var cases []model.Case
	if err := r.client.Do(ctx, http.MethodGet, "cases", filter.Query(), nil, transport.IntoList(&cases)); err != nil {
		return nil, err
	}
	return cases, nil
}

// GetCase fetches a single case.
func (r *Repository) GetCase(ctx context.Context, id string) (model.Case, error) {
	var c model.Case
	if err := requireID("case id", id); err != nil {
		return c, err
	}
	err := r.client.Do(ctx, http.MethodGet, resource("cases", id), nil, nil, transport.Into(&c))
	return c, err
}

// UpdateCase applies a partial update and returns the server's canonical
// case. An empty payload fails without a request.
func (r *Repository) UpdateCase(ctx context.Context, id string, payload model.UpdateCasePayload) (model.Case, error) {
	var c model.Case
	if err := requireID("case id", id); err != nil {
		return c, err
	}
	if payload.Empty() {
		return c, &transport.NoChangesError{Resource: "case"}
	}
	if payload.Status != nil && !payload.Status.Valid() {
		return c, &model.ValidationError{Field: "status", Reason: "is not a known case status"}
	}
	err := r.client.Do(ctx, http.MethodPut, resource("cases", id), nil, payload, transport.Into(&c))
	return c, err
}

// DeleteCase is refused: cases are archived through a closing status, never
// deleted.
func (r *Repository) DeleteCase(ctx context.Context, id string) error {
	return &transport.UnsupportedOperationError{Operation: "case deletion", Hint: "archive instead"}
}

// ListPayments fetches the payments booked on a case.
func (r *Repository) ListPayments(ctx context.Context, caseID string) ([]model.Payment, error) {
	if err := requireID("case id", caseID); err != nil {
		return nil, err
	}
	var payments []model.Payment
	if err := r.client.Do(ctx, http.MethodGet, resource("cases", caseID, "payments"), nil, nil, transport.IntoList(&payments)); err != nil {
		return nil, err
	}
	return payments, nil
}

// CreatePayment books a payment. The payload is validated first.
func (r *Repository) CreatePayment(ctx context.Context, payload model.CreatePaymentPayload) (model.Payment, error) {
	var p model.Payment
	if err := requireID("case_id", payload.CaseID); err != nil {
		return p, err
	}
	if err := payload.Validate(); err != nil {
		return p, err
	}
	err := r.client.Do(ctx, http.MethodPost, "payments", nil, payload, transport.Into(&p))
	return p, err
}

// ListActions fetches the follow-up actions of a case.
func (r *Repository) ListActions(ctx context.Context, caseID string) ([]model.Action, error) {
	if err := requireID("case id", caseID); err != nil {
		return nil, err
	}
	var actions []model.Action
	if err := r.client.Do(ctx, http.MethodGet, resource("cases", caseID, "actions"), nil, nil, transport.IntoList(&actions)); err != nil {
		return nil, err
	}
	return actions, nil
}

// CreateAction records an action. The payload is validated first.
func (r *Repository) CreateAction(ctx context.Context, payload model.CreateActionPayload) (model.Action, error) {
	var a model.Action
	if err := requireID("case_id", payload.CaseID); err != nil {
		return a, err
	}
	if err := payload.Validate(); err != nil {
		return a, err
	}
	err := r.client.Do(ctx, http.MethodPost, "actions", nil, payload, transport.Into(&a))
	return a, err
}

// UpdateActionNotes replaces the notes of an action. A nil notes value is
// sent as an empty body, which leaves the notes untouched.
func (r *Repository) UpdateActionNotes(ctx context.Context, id string, notes *string) (model.Action, error) {
	var a model.Action
	if err := requireID("action id", id); err != nil {
		return a, err
	}
	payload := model.UpdateActionPayload{Notes: notes}
	err := r.client.Do(ctx, http.MethodPut, resource("actions", id), nil, payload, transport.Into(&a))
	return a, err
}
