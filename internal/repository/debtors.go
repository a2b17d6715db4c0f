package repository

import (
	"context"
	"net/http"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
	"github.com/JAlbrecht-svg/inkasso-console/internal/transport"
)

// ListDebtors fetches the debtors matching filter.
func (r *Repository) ListDebtors(ctx context.Context, filter DebtorFilter) ([]model.Debtor, error) {
	var debtors []model.Debtor
	if err := r.client.Do(ctx, http.MethodGet, "debtors", filter.Query(), nil, transport.IntoList(&debtors)); err != nil {
		return nil, err
	}
	return debtors, nil
}

// GetDebtor fetches a single debtor.
func (r *Repository) GetDebtor(ctx context.Context, id string) (model.Debtor, error) {
	var d model.Debtor
	if err := requireID("debtor id", id); err != nil {
		return d, err
	}
	err := r.client.Do(ctx, http.MethodGet, resource("debtors", id), nil, nil, transport.Into(&d))
	return d, err
}

// UpdateDebtor applies a partial update and returns the canonical debtor.
func (r *Repository) UpdateDebtor(ctx context.Context, id string, payload model.UpdateDebtorPayload) (model.Debtor, error) {
	var d model.Debtor
	if err := requireID("debtor id", id); err != nil {
		return d, err
	}
	if payload.Empty() {
		return d, &transport.NoChangesError{Resource: "debtor"}
	}
	err := r.client.Do(ctx, http.MethodPut, resource("debtors", id), nil, payload, transport.Into(&d))
	return d, err
}
