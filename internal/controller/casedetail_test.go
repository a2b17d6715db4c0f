package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAlbrecht-svg/inkasso-console/internal/backendtest"
	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
)

type fixture struct {
	srv    *backendtest.Server
	list   *CaseList
	detail *CaseDetail
	rec    *recorded
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := backendtest.NewServer(t)
	repo := srv.Repository()
	f := &fixture{srv: srv, list: NewCaseList(repo, 0, nil), rec: &recorded{}}
	f.detail = NewCaseDetail(repo, f.list, f.rec, nil)
	require.NoError(t, f.list.Load(context.Background()))
	return f
}

func (f *fixture) open(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.detail.LoadCaseDetails(context.Background(), id))
	require.Equal(t, Loaded, f.detail.State())
}

func TestLoadCaseDetails(t *testing.T) {
	f := newFixture(t)
	f.open(t, backendtest.CaseC1)

	c, ok := f.detail.Case()
	require.True(t, ok)
	assert.InDelta(t, 112.5, c.TotalDue(), 1e-9)
	assert.InDelta(t, 92.5, c.OutstandingAmount(), 1e-9)
	assert.Equal(t, model.StatusOpen, f.detail.SelectedStatus())
	assert.Len(t, f.detail.Payments.Items(), 1)
	assert.Len(t, f.detail.Actions.Items(), 1)
	assert.Equal(t, Loaded, f.detail.Payments.State())
	assert.Equal(t, Loaded, f.detail.Actions.State())
	assert.False(t, f.detail.Busy())
}

func TestLoadCaseDetailsFailureSkipsSubLoads(t *testing.T) {
	f := newFixture(t)
	f.open(t, backendtest.CaseC1)

	f.srv.Fail(backendtest.RouteGetCase, 500, "boom")
	err := f.detail.LoadCaseDetails(context.Background(), backendtest.CaseC2)
	require.Error(t, err)

	_, ok := f.detail.Case()
	assert.False(t, ok)
	assert.Equal(t, Failed, f.detail.State())
	assert.Equal(t, "boom", f.detail.ErrorMessage())
	assert.Equal(t, 1, f.srv.Calls(backendtest.RouteListPayments))
	assert.Equal(t, 1, f.srv.Calls(backendtest.RouteListActions))
	assert.Empty(t, f.detail.Payments.Items(), "payments of the previous case are dropped")
}

func TestLoadCaseDetailsWhileBusyIsDropped(t *testing.T) {
	f := newFixture(t)
	release := f.srv.Hold(backendtest.RouteGetCase)
	defer release()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = f.detail.LoadCaseDetails(context.Background(), backendtest.CaseC1)
	}()
	require.Eventually(t, func() bool { return f.srv.Calls(backendtest.RouteGetCase) == 1 }, time.Second, 5*time.Millisecond)

	assert.NoError(t, f.detail.LoadCaseDetails(context.Background(), backendtest.CaseC1))
	assert.False(t, f.detail.SaveNewPayment(context.Background(), model.CreatePaymentPayload{Amount: 5, PaymentDate: "2025-02-01"}))

	release()
	wg.Wait()
	assert.Equal(t, 1, f.srv.Calls(backendtest.RouteGetCase))
	assert.Equal(t, 0, f.srv.Calls(backendtest.RouteAddPayment))
	assert.Equal(t, Loaded, f.detail.State())
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	f := newFixture(t)
	f.open(t, backendtest.CaseC1)
	before, _ := f.detail.Case()

	assert.True(t, f.detail.UpdateStatus(context.Background(), model.StatusOpen))
	after, _ := f.detail.Case()

	assert.Equal(t, 0, f.srv.Calls(backendtest.RouteUpdateCase))
	assert.Equal(t, before, after)
	assert.Empty(t, f.rec.kinds())
}

func TestUpdateStatusUsesServerCase(t *testing.T) {
	f := newFixture(t)
	f.open(t, backendtest.CaseC1)

	f.detail.SetSelectedStatus(model.StatusLegal)
	require.True(t, f.detail.UpdateStatus(context.Background(), model.StatusLegal))

	c, _ := f.detail.Case()
	assert.Equal(t, model.StatusLegal, c.Status)
	assert.NotEqual(t, "2025-01-01T00:00:00Z", c.UpdatedAt, "updated_at comes from the server")

	entry, ok := f.list.Find(backendtest.CaseC1)
	require.True(t, ok)
	assert.Equal(t, model.StatusLegal, entry.Status)
	assert.Equal(t, []model.ChangeKind{model.ChangeCaseUpdated}, f.rec.kinds())
}

func TestUpdateStatusRejectedRollsBackSelection(t *testing.T) {
	f := newFixture(t)
	f.open(t, backendtest.CaseC1)
	f.srv.Fail(backendtest.RouteUpdateCase, 403, `{"error":"not allowed"}`)

	f.detail.SetSelectedStatus(model.StatusPaid)
	assert.Equal(t, model.StatusPaid, f.detail.SelectedStatus())

	assert.False(t, f.detail.UpdateStatus(context.Background(), model.StatusPaid))
	assert.Equal(t, model.StatusOpen, f.detail.SelectedStatus())
	assert.Equal(t, "not allowed", f.detail.ErrorMessage())

	c, _ := f.detail.Case()
	assert.Equal(t, model.StatusOpen, c.Status)
	entry, _ := f.list.Find(backendtest.CaseC1)
	assert.Equal(t, model.StatusOpen, entry.Status)
	assert.Empty(t, f.rec.kinds())
}

func TestSaveNewPaymentReloadsCaseAndList(t *testing.T) {
	f := newFixture(t)
	f.open(t, backendtest.CaseC1)

	ok := f.detail.SaveNewPayment(context.Background(), model.CreatePaymentPayload{
		CaseID: backendtest.CaseC2, Amount: 20, PaymentDate: "2025-02-01",
	})
	require.True(t, ok, f.detail.ErrorMessage())

	c, _ := f.detail.Case()
	assert.InDelta(t, 40, c.PaidAmount, 1e-9)
	assert.InDelta(t, 72.5, c.OutstandingAmount(), 1e-9)
	assert.Len(t, f.detail.Payments.Items(), 2)

	entry, found := f.list.Find(backendtest.CaseC1)
	require.True(t, found)
	assert.InDelta(t, 40, entry.PaidAmount, 1e-9)

	other, _ := f.srv.Case(backendtest.CaseC2)
	assert.Zero(t, other.PaidAmount, "payload case id is replaced by the shown case")
	assert.Equal(t, 2, f.srv.Calls(backendtest.RouteGetCase))
	assert.Equal(t, []model.ChangeKind{model.ChangePaymentCreated}, f.rec.kinds())
	assert.False(t, f.detail.Busy())
}

func TestSaveNewPaymentValidation(t *testing.T) {
	f := newFixture(t)
	f.open(t, backendtest.CaseC1)

	assert.False(t, f.detail.SaveNewPayment(context.Background(), model.CreatePaymentPayload{Amount: -1, PaymentDate: "2025-02-01"}))
	assert.Equal(t, "amount must be greater than zero", f.detail.ErrorMessage())
	assert.Equal(t, 0, f.srv.Calls(backendtest.RouteAddPayment))
	_, ok := f.detail.Case()
	assert.True(t, ok)
}

func TestSaveNewActionWithoutCostRefreshesActionsOnly(t *testing.T) {
	f := newFixture(t)
	f.open(t, backendtest.CaseC1)

	require.True(t, f.detail.SaveNewAction(context.Background(), model.CreateActionPayload{
		ActionType: "phone_call_attempt", Notes: model.String("no answer"),
	}))
	assert.Equal(t, 1, f.srv.Calls(backendtest.RouteGetCase))
	assert.Equal(t, 2, f.srv.Calls(backendtest.RouteListActions))
	assert.Equal(t, 1, f.srv.Calls(backendtest.RouteListPayments))
	assert.Len(t, f.detail.Actions.Items(), 2)
}

func TestSaveNewActionWithCostReloadsCase(t *testing.T) {
	f := newFixture(t)
	f.open(t, backendtest.CaseC1)

	require.True(t, f.detail.SaveNewAction(context.Background(), model.CreateActionPayload{
		ActionType: "cost_added", Cost: model.Float(7.5),
	}))
	assert.Equal(t, 2, f.srv.Calls(backendtest.RouteGetCase))

	c, _ := f.detail.Case()
	assert.InDelta(t, 17.5, c.FeesAmount, 1e-9)
	entry, _ := f.list.Find(backendtest.CaseC1)
	assert.InDelta(t, 17.5, entry.FeesAmount, 1e-9)
}

func TestSaveNewActionDefaultsType(t *testing.T) {
	f := newFixture(t)
	f.open(t, backendtest.CaseC1)

	require.True(t, f.detail.SaveNewAction(context.Background(), model.CreateActionPayload{Notes: model.String("x")}))
	actions := f.detail.Actions.Items()
	require.Len(t, actions, 2)
	assert.Equal(t, model.DefaultActionType, actions[1].ActionType)
}

func TestUpdateActionNotes(t *testing.T) {
	f := newFixture(t)
	f.open(t, backendtest.CaseC1)

	require.True(t, f.detail.UpdateActionNotes(context.Background(), "AC1", "Zweite Mahnung angekündigt"))
	a, ok := f.detail.Actions.Find("AC1")
	require.True(t, ok)
	assert.Equal(t, "Zweite Mahnung angekündigt", a.Notes)

	assert.False(t, f.detail.UpdateActionNotes(context.Background(), "missing", "x"))
	assert.Contains(t, f.detail.ErrorMessage(), "action not found")
}

func TestUpdateReason(t *testing.T) {
	f := newFixture(t)
	f.open(t, backendtest.CaseC1)

	assert.True(t, f.detail.UpdateReason(context.Background(), "Rechnung 4711"))
	assert.Equal(t, 0, f.srv.Calls(backendtest.RouteUpdateCase))

	require.True(t, f.detail.UpdateReason(context.Background(), "Rechnung 4712"))
	c, _ := f.detail.Case()
	assert.Equal(t, "Rechnung 4712", c.ReasonForClaim)
}

func TestWriteWithoutCase(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.detail.SaveNewPayment(context.Background(), model.CreatePaymentPayload{Amount: 5, PaymentDate: "2025-02-01"}))
	assert.Equal(t, "no case loaded", f.detail.ErrorMessage())
}

func TestReloadFailureAfterPaymentKeepsCase(t *testing.T) {
	f := newFixture(t)
	f.open(t, backendtest.CaseC1)
	f.srv.Fail(backendtest.RouteGetCase, 502, "")

	assert.True(t, f.detail.SaveNewPayment(context.Background(), model.CreatePaymentPayload{Amount: 5, PaymentDate: "2025-02-01"}))
	c, ok := f.detail.Case()
	require.True(t, ok)
	assert.InDelta(t, 20, c.PaidAmount, 1e-9)
	assert.Contains(t, f.detail.ErrorMessage(), "502")
}
