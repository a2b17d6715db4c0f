package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/JAlbrecht-svg/inkasso-console/internal/changes"
	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
	"github.com/JAlbrecht-svg/inkasso-console/internal/transport"
)

// CaseStore is what the case detail needs from the repository.
type CaseStore interface {
	GetCase(ctx context.Context, id string) (model.Case, error)
	UpdateCase(ctx context.Context, id string, payload model.UpdateCasePayload) (model.Case, error)
	ListPayments(ctx context.Context, caseID string) ([]model.Payment, error)
	CreatePayment(ctx context.Context, payload model.CreatePaymentPayload) (model.Payment, error)
	ListActions(ctx context.Context, caseID string) ([]model.Action, error)
	CreateAction(ctx context.Context, payload model.CreateActionPayload) (model.Action, error)
	UpdateActionNotes(ctx context.Context, id string, notes *string) (model.Action, error)
}

var errNoCase = errors.New("no case loaded")

// CaseDetail owns one case and its payments and actions. The case is a copy;
// the list only learns about the outcome of a write through the refresher.
type CaseDetail struct {
	observers

	store     CaseStore
	refresher EntryRefresher[model.Case]
	recorder  Recorder
	logger    *log.Logger

	Payments *Collection[model.Payment]
	Actions  *Collection[model.Action]

	mu       sync.Mutex
	caseID   string
	current  *model.Case
	selected model.CaseStatus
	state    State
	busy     bool
	err      error
	errMsg   string
}

// NewCaseDetail creates an idle case detail. refresher and recorder may be nil.
func NewCaseDetail(store CaseStore, refresher EntryRefresher[model.Case], recorder Recorder, logger *log.Logger) *CaseDetail {
	d := &CaseDetail{
		store:     store,
		refresher: refresher,
		recorder:  recorder,
		logger:    discardIfNil(logger),
	}
	d.Payments = NewCollection[model.Payment]("payments", func(ctx context.Context) ([]model.Payment, error) {
		return store.ListPayments(ctx, d.CaseID())
	}, logger)
	d.Actions = NewCollection[model.Action]("actions", func(ctx context.Context) ([]model.Action, error) {
		return store.ListActions(ctx, d.CaseID())
	}, logger)
	return d
}

// LoadCaseDetails replaces the shown case with id, then loads its payments
// and actions in parallel. It is a no-op while the detail is busy. When the
// case cannot be fetched the sub-lists are not loaded and no case is shown.
func (d *CaseDetail) LoadCaseDetails(ctx context.Context, id string) error {
	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		d.logger.Printf("case %s: load skipped, busy", id)
		return nil
	}
	d.busy = true
	switched := d.caseID != id
	d.caseID = id
	d.current = nil
	d.selected = ""
	d.state = Loading
	d.err, d.errMsg = nil, ""
	d.mu.Unlock()

	if switched {
		d.Payments.Reset()
		d.Actions.Reset()
	}
	d.notify()

	err := d.reload(ctx, true)

	d.mu.Lock()
	d.busy = false
	d.mu.Unlock()
	d.notify()
	return err
}

// reload fetches the case and both sub-lists. It runs under the busy flag of
// its caller. With clearOnFailure unset a failed fetch keeps the shown case.
func (d *CaseDetail) reload(ctx context.Context, clearOnFailure bool) error {
	id := d.CaseID()
	c, err := d.store.GetCase(ctx, id)
	if err != nil {
		d.mu.Lock()
		if clearOnFailure {
			d.current = nil
			d.state = Failed
		}
		d.setErr(err)
		d.mu.Unlock()
		d.logger.Printf("case %s: load failed: %v", id, err)
		return err
	}

	d.mu.Lock()
	d.current = &c
	d.selected = c.Status
	d.mu.Unlock()
	d.notify()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = d.Payments.Load(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = d.Actions.Load(ctx)
	}()
	wg.Wait()

	d.mu.Lock()
	d.state = Loaded
	d.mu.Unlock()
	d.logger.Printf("case %s: loaded with %d payments, %d actions", id, d.Payments.Len(), d.Actions.Len())
	return nil
}

// SetSelectedStatus records the status picked in the UI without saving it.
func (d *CaseDetail) SetSelectedStatus(s model.CaseStatus) {
	d.mu.Lock()
	d.selected = s
	d.mu.Unlock()
	d.notify()
}

// UpdateStatus saves status. It does nothing when the case already has it.
// On success the server's case replaces the local one and the list entry is
// refreshed; on failure the selection reverts to the last confirmed status.
func (d *CaseDetail) UpdateStatus(ctx context.Context, status model.CaseStatus) bool {
	if c, ok := d.Case(); ok && c.Status == status {
		return true
	}
	current, ok := d.begin()
	if !ok {
		return false
	}
	payload := model.UpdateCasePayload{Status: &status}
	return d.submitCase(ctx, current, payload, fmt.Sprintf("status %s -> %s", current.Status, status))
}

// UpdateReason saves a new reason for the claim through the field diff. An
// unchanged reason succeeds without a request.
func (d *CaseDetail) UpdateReason(ctx context.Context, reason string) bool {
	if c, ok := d.Case(); ok {
		edited := c
		edited.ReasonForClaim = reason
		if changes.CaseChanges(c, edited).Empty() {
			return true
		}
	}
	current, ok := d.begin()
	if !ok {
		return false
	}
	edited := current
	edited.ReasonForClaim = reason
	payload := changes.CaseChanges(current, edited)
	return d.submitCase(ctx, current, payload, "reason for claim changed")
}

func (d *CaseDetail) submitCase(ctx context.Context, current model.Case, payload model.UpdateCasePayload, summary string) bool {
	updated, err := d.store.UpdateCase(ctx, current.ID, payload)
	if err != nil {
		d.mu.Lock()
		d.selected = current.Status
		d.setErr(err)
		d.busy = false
		d.mu.Unlock()
		d.logger.Printf("case %s: update failed: %v", current.ID, err)
		d.notify()
		return false
	}

	d.mu.Lock()
	d.current = &updated
	d.selected = updated.Status
	d.busy = false
	d.mu.Unlock()

	d.refresh(updated)
	record(ctx, d.recorder, d.logger, model.Change{
		Kind: model.ChangeCaseUpdated, EntityID: updated.ID, CaseID: updated.ID,
		Summary: summary, Payload: payload,
	})
	d.notify()
	return true
}

// SaveNewPayment books a payment on the shown case. The case id of payload is
// always replaced by the shown case. Totals are server-derived, so the case
// is reloaded afterwards and the list entry refreshed from that reload.
func (d *CaseDetail) SaveNewPayment(ctx context.Context, payload model.CreatePaymentPayload) bool {
	current, ok := d.begin()
	if !ok {
		return false
	}
	payload.CaseID = current.ID

	p, err := d.store.CreatePayment(ctx, payload)
	if err != nil {
		d.fail(err)
		return false
	}
	record(ctx, d.recorder, d.logger, model.Change{
		Kind: model.ChangePaymentCreated, EntityID: p.ID, CaseID: current.ID,
		Summary: fmt.Sprintf("payment %.2f %s", p.Amount, current.Currency), Payload: payload,
	})

	d.reloadAfterWrite(ctx)
	return true
}

// SaveNewAction records an action on the shown case. An action with a cost
// changes the fees, so the whole case is reloaded; otherwise only the actions
// are.
func (d *CaseDetail) SaveNewAction(ctx context.Context, payload model.CreateActionPayload) bool {
	current, ok := d.begin()
	if !ok {
		return false
	}
	payload.CaseID = current.ID
	if payload.ActionType == "" {
		payload.ActionType = model.DefaultActionType
	}

	a, err := d.store.CreateAction(ctx, payload)
	if err != nil {
		d.fail(err)
		return false
	}
	record(ctx, d.recorder, d.logger, model.Change{
		Kind: model.ChangeActionCreated, EntityID: a.ID, CaseID: current.ID,
		Summary: a.ActionType, Payload: payload,
	})

	if payload.CostValue() != 0 {
		d.reloadAfterWrite(ctx)
		return true
	}
	_ = d.Actions.Load(ctx)
	d.finish()
	return true
}

// UpdateActionNotes replaces the notes of one action and reloads the actions.
func (d *CaseDetail) UpdateActionNotes(ctx context.Context, actionID string, notes string) bool {
	current, ok := d.begin()
	if !ok {
		return false
	}
	a, err := d.store.UpdateActionNotes(ctx, actionID, &notes)
	if err != nil {
		d.fail(err)
		return false
	}
	record(ctx, d.recorder, d.logger, model.Change{
		Kind: model.ChangeActionUpdated, EntityID: a.ID, CaseID: current.ID,
		Summary: "notes changed", Payload: model.UpdateActionPayload{Notes: &notes},
	})
	_ = d.Actions.Load(ctx)
	d.finish()
	return true
}

// reloadAfterWrite re-reads the case while still busy and pushes the result
// to the list. A failed reload keeps the shown case and reports the error;
// the write itself stays successful.
func (d *CaseDetail) reloadAfterWrite(ctx context.Context) {
	if err := d.reload(ctx, false); err == nil {
		if c, ok := d.Case(); ok {
			d.refresh(c)
		}
	}
	d.finish()
}

// begin takes the busy flag for a write on the shown case.
func (d *CaseDetail) begin() (model.Case, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy {
		d.logger.Printf("case %s: write skipped, busy", d.caseID)
		return model.Case{}, false
	}
	if d.current == nil {
		d.setErr(errNoCase)
		return model.Case{}, false
	}
	d.busy = true
	d.err, d.errMsg = nil, ""
	return *d.current, true
}

func (d *CaseDetail) finish() {
	d.mu.Lock()
	d.busy = false
	d.mu.Unlock()
	d.notify()
}

func (d *CaseDetail) fail(err error) {
	d.mu.Lock()
	d.setErr(err)
	d.busy = false
	d.mu.Unlock()
	d.logger.Printf("case %s: write failed: %v", d.CaseID(), err)
	d.notify()
}

// setErr must be called with d.mu held.
func (d *CaseDetail) setErr(err error) {
	d.err = err
	d.errMsg = transport.UserMessage(err)
}

func (d *CaseDetail) refresh(c model.Case) {
	if d.refresher != nil {
		d.refresher.RefreshEntry(c)
	}
}

// CaseID is the id of the case being shown or loaded.
func (d *CaseDetail) CaseID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.caseID
}

// Case returns the shown case, false while none is loaded.
func (d *CaseDetail) Case() (model.Case, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return model.Case{}, false
	}
	return *d.current, true
}

// SelectedStatus is the status shown in the picker.
func (d *CaseDetail) SelectedStatus() model.CaseStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selected
}

func (d *CaseDetail) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Busy reports whether a load or write is in flight.
func (d *CaseDetail) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

// Err is the error of the last failed operation.
func (d *CaseDetail) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// ErrorMessage is the user-facing text of Err.
func (d *CaseDetail) ErrorMessage() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errMsg
}
