package repository_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAlbrecht-svg/inkasso-console/internal/backendtest"
	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
	"github.com/JAlbrecht-svg/inkasso-console/internal/repository"
	"github.com/JAlbrecht-svg/inkasso-console/internal/transport"
)

func TestCaseFilterQueryOmitsEmptyValues(t *testing.T) {
	assert.Empty(t, repository.CaseFilter{}.Query())
	assert.Empty(t, repository.CaseFilter{Search: "   "}.Query())

	q := repository.CaseFilter{Status: model.StatusPaid, Search: "max", AuftragID: "A1", Limit: 50}.Query()
	assert.Equal(t, "paid", q.Get("status"))
	assert.Equal(t, "max", q.Get("search"))
	assert.Equal(t, "A1", q.Get("auftragId"))
	assert.Equal(t, "50", q.Get("limit"))
	assert.False(t, q.Has("debtorId"))
	assert.False(t, q.Has("offset"))
}

func TestListCasesSendsFilter(t *testing.T) {
	srv := backendtest.NewServer(t)
	repo := srv.Repository()

	cases, err := repo.ListCases(context.Background(), repository.CaseFilter{Search: "mustermann", Limit: repository.DefaultLimit})
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, backendtest.CaseC1, cases[0].ID)

	q := srv.LastQuery(backendtest.RouteListCases)
	assert.Equal(t, "mustermann", q.Get("search"))
	assert.Equal(t, "50", q.Get("limit"))
	assert.False(t, q.Has("status"))
	assert.False(t, q.Has("offset"))
}

func TestListCasesByStatus(t *testing.T) {
	srv := backendtest.NewServer(t)
	cases, err := srv.Repository().ListCases(context.Background(), repository.CaseFilter{Status: model.StatusPaid})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, backendtest.CaseC3, cases[0].ID)
}

func TestGetCaseNotFound(t *testing.T) {
	srv := backendtest.NewServer(t)
	_, err := srv.Repository().GetCase(context.Background(), "nope")
	var statusErr *transport.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "case not found", statusErr.Message)
}

func TestUpdateCaseWithoutChangesSkipsNetwork(t *testing.T) {
	srv := backendtest.NewServer(t)
	_, err := srv.Repository().UpdateCase(context.Background(), backendtest.CaseC1, model.UpdateCasePayload{})
	assert.Equal(t, transport.KindNoChanges, transport.KindOf(err))
	assert.Equal(t, 0, srv.Calls(backendtest.RouteUpdateCase))
}

func TestUpdateCaseSendsOnlySetFields(t *testing.T) {
	srv := backendtest.NewServer(t)
	updated, err := srv.Repository().UpdateCase(context.Background(), backendtest.CaseC1,
		model.UpdateCasePayload{Status: model.Status(model.StatusPaymentPlan)})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaymentPlan, updated.Status)

	var body map[string]any
	require.NoError(t, json.Unmarshal(srv.LastBody(backendtest.RouteUpdateCase), &body))
	assert.Equal(t, map[string]any{"status": "payment_plan"}, body)
}

func TestUpdateCaseRejectsUnknownStatus(t *testing.T) {
	srv := backendtest.NewServer(t)
	_, err := srv.Repository().UpdateCase(context.Background(), backendtest.CaseC1,
		model.UpdateCasePayload{Status: model.Status("archived")})
	assert.Equal(t, transport.KindValidation, transport.KindOf(err))
	assert.Equal(t, 0, srv.Calls(backendtest.RouteUpdateCase))
}

func TestDeleteCaseUnsupported(t *testing.T) {
	srv := backendtest.NewServer(t)
	err := srv.Repository().DeleteCase(context.Background(), backendtest.CaseC1)
	assert.Equal(t, transport.KindUnsupported, transport.KindOf(err))
	assert.Contains(t, transport.UserMessage(err), "archive instead")
}

func TestCreatePaymentUpdatesServerTotals(t *testing.T) {
	srv := backendtest.NewServer(t)
	repo := srv.Repository()

	p, err := repo.CreatePayment(context.Background(), model.CreatePaymentPayload{
		CaseID: backendtest.CaseC1, Amount: 20, PaymentDate: "2025-02-01", Reference: model.String("SEPA-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "SEPA-1", p.Reference)

	c, err := repo.GetCase(context.Background(), backendtest.CaseC1)
	require.NoError(t, err)
	assert.InDelta(t, 40, c.PaidAmount, 1e-9)

	payments, err := repo.ListPayments(context.Background(), backendtest.CaseC1)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestCreatePaymentValidatesFirst(t *testing.T) {
	srv := backendtest.NewServer(t)
	_, err := srv.Repository().CreatePayment(context.Background(), model.CreatePaymentPayload{
		CaseID: backendtest.CaseC1, Amount: 0, PaymentDate: "2025-02-01",
	})
	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "amount", vErr.Field)
	assert.Equal(t, 0, srv.Calls(backendtest.RouteAddPayment))
}

func TestActionsRoundTrip(t *testing.T) {
	srv := backendtest.NewServer(t)
	repo := srv.Repository()
	ctx := context.Background()

	a, err := repo.CreateAction(ctx, model.CreateActionPayload{
		CaseID: backendtest.CaseC2, ActionType: "phone_call_attempt", Notes: model.String("no answer"),
	})
	require.NoError(t, err)
	assert.Zero(t, a.Cost)

	var body map[string]any
	require.NoError(t, json.Unmarshal(srv.LastBody(backendtest.RouteAddAction), &body))
	assert.NotContains(t, body, "cost")

	updated, err := repo.UpdateActionNotes(ctx, a.ID, model.String("called back"))
	require.NoError(t, err)
	assert.Equal(t, "called back", updated.Notes)

	actions, err := repo.ListActions(ctx, backendtest.CaseC2)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "called back", actions[0].Notes)
}

func TestUpdateDebtorGuards(t *testing.T) {
	srv := backendtest.NewServer(t)
	repo := srv.Repository()

	_, err := repo.UpdateDebtor(context.Background(), "", model.UpdateDebtorPayload{Name: model.String("x")})
	assert.Equal(t, transport.KindValidation, transport.KindOf(err))

	_, err = repo.UpdateDebtor(context.Background(), backendtest.DebtorD1, model.UpdateDebtorPayload{})
	assert.Equal(t, transport.KindNoChanges, transport.KindOf(err))
	assert.Equal(t, 0, srv.Calls(backendtest.RouteUpdateDebtor))

	d, err := repo.UpdateDebtor(context.Background(), backendtest.DebtorD1, model.UpdateDebtorPayload{Phone: model.String("030 1234")})
	require.NoError(t, err)
	assert.Equal(t, "030 1234", d.Phone)
	assert.Equal(t, "Max Mustermann", d.Name)
}

func TestListDebtorsSearch(t *testing.T) {
	srv := backendtest.NewServer(t)
	debtors, err := srv.Repository().ListDebtors(context.Background(), repository.DebtorFilter{Search: "gmbh"})
	require.NoError(t, err)
	require.Len(t, debtors, 1)
	assert.Equal(t, backendtest.DebtorD2, debtors[0].ID)
}

func TestCatalogReads(t *testing.T) {
	srv := backendtest.NewServer(t)
	repo := srv.Repository()
	ctx := context.Background()

	mandanten, err := repo.ListMandanten(ctx)
	require.NoError(t, err)
	require.Len(t, mandanten, 2)
	assert.True(t, mandanten[0].Active())
	assert.False(t, mandanten[1].Active())

	m, err := repo.GetMandant(ctx, backendtest.MandantM2)
	require.NoError(t, err)
	assert.Equal(t, "Verlag Süd", m.Name)

	all, err := repo.ListAuftraege(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 1, srv.Calls(backendtest.RouteListOrders))

	scoped, err := repo.ListAuftraege(ctx, backendtest.MandantM1)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, backendtest.AuftragA1, scoped[0].ID)
	assert.Equal(t, 1, srv.Calls(backendtest.RouteMandantOrder))

	a, err := repo.GetAuftrag(ctx, backendtest.AuftragA2)
	require.NoError(t, err)
	assert.Equal(t, "Einzelauftrag", a.Name)

	flows, err := repo.ListWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, flows, 1)

	steps, err := repo.ListWorkflowSteps(ctx, backendtest.FlowW1)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.InDelta(t, 5, steps[0].FeeToCharge, 1e-9)
}

func TestIDsArePathEscaped(t *testing.T) {
	srv := backendtest.NewServer(t)
	_, err := srv.Repository().GetCase(context.Background(), "a/b")
	var statusErr *transport.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, 1, srv.Calls(backendtest.RouteGetCase))
}
