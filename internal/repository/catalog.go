package repository

import (
	"context"
	"net/http"
	"strings"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
	"github.com/JAlbrecht-svg/inkasso-console/internal/transport"
)

// Mandanten, Aufträge and workflows are maintained elsewhere; this console
// only reads them.

func (r *Repository) ListMandanten(ctx context.Context) ([]model.Mandant, error) {
	var out []model.Mandant
	if err := r.client.Do(ctx, http.MethodGet, "mandanten", nil, nil, transport.IntoList(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) GetMandant(ctx context.Context, id string) (model.Mandant, error) {
	var m model.Mandant
	if err := requireID("mandant id", id); err != nil {
		return m, err
	}
	err := r.client.Do(ctx, http.MethodGet, resource("mandanten", id), nil, nil, transport.Into(&m))
	return m, err
}

// ListAuftraege lists all orders, or only those of mandantID when it is set.
func (r *Repository) ListAuftraege(ctx context.Context, mandantID string) ([]model.Auftrag, error) {
	path := "auftraege"
	if id := strings.TrimSpace(mandantID); id != "" {
		path = resource("mandanten", id, "auftraege")
	}
	var out []model.Auftrag
	if err := r.client.Do(ctx, http.MethodGet, path, nil, nil, transport.IntoList(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) GetAuftrag(ctx context.Context, id string) (model.Auftrag, error) {
	var a model.Auftrag
	if err := requireID("auftrag id", id); err != nil {
		return a, err
	}
	err := r.client.Do(ctx, http.MethodGet, resource("auftraege", id), nil, nil, transport.Into(&a))
	return a, err
}

func (r *Repository) ListWorkflows(ctx context.Context) ([]model.Workflow, error) {
	var out []model.Workflow
	if err := r.client.Do(ctx, http.MethodGet, "workflows", nil, nil, transport.IntoList(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) ListWorkflowSteps(ctx context.Context, workflowID string) ([]model.WorkflowStep, error) {
	if err := requireID("workflow id", workflowID); err != nil {
		return nil, err
	}
	var out []model.WorkflowStep
	if err := r.client.Do(ctx, http.MethodGet, resource("workflows", workflowID, "steps"), nil, nil, transport.IntoList(&out)); err != nil {
		return nil, err
	}
	return out, nil
}
