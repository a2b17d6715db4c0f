package controller

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/JAlbrecht-svg/inkasso-console/internal/changes"
	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
	"github.com/JAlbrecht-svg/inkasso-console/internal/transport"
)

// DebtorStore is what the debtor editor needs from the repository.
type DebtorStore interface {
	GetDebtor(ctx context.Context, id string) (model.Debtor, error)
	UpdateDebtor(ctx context.Context, id string, payload model.UpdateDebtorPayload) (model.Debtor, error)
}

// NothingToSave is the notice left by a Save without changes.
const NothingToSave = "There are no changes to save."

// DebtorDetail edits one debtor. Edits go to a draft; the snapshot the draft
// started from is kept to compute the update payload.
type DebtorDetail struct {
	observers

	store     DebtorStore
	refresher EntryRefresher[model.Debtor]
	recorder  Recorder
	logger    *log.Logger

	mu       sync.Mutex
	original *model.Debtor
	draft    model.Debtor
	state    State
	busy     bool
	err      error
	errMsg   string
	notice   string
}

func NewDebtorDetail(store DebtorStore, refresher EntryRefresher[model.Debtor], recorder Recorder, logger *log.Logger) *DebtorDetail {
	return &DebtorDetail{
		store:     store,
		refresher: refresher,
		recorder:  recorder,
		logger:    discardIfNil(logger),
	}
}

// Load fetches debtor id. It does nothing when that debtor is already loaded
// or another request is in flight.
func (d *DebtorDetail) Load(ctx context.Context, id string) error {
	d.mu.Lock()
	if d.busy || (d.original != nil && d.original.ID == id) {
		d.mu.Unlock()
		return nil
	}
	if strings.TrimSpace(id) == "" {
		d.mu.Unlock()
		err := &model.ValidationError{Field: "debtor id", Reason: "must not be empty"}
		d.setFailure(err, true)
		return err
	}
	d.busy = true
	d.state = Loading
	d.err, d.errMsg, d.notice = nil, "", ""
	d.mu.Unlock()
	d.notify()

	debtor, err := d.store.GetDebtor(ctx, id)
	if err != nil {
		d.logger.Printf("debtor %s: load failed: %v", id, err)
		d.setFailure(err, true)
		return err
	}

	d.mu.Lock()
	d.original = &debtor
	d.draft = debtor
	d.state = Loaded
	d.busy = false
	d.mu.Unlock()
	d.notify()
	return nil
}

func (d *DebtorDetail) setFailure(err error, clear bool) {
	d.mu.Lock()
	if clear {
		d.original = nil
		d.draft = model.Debtor{}
		d.state = Failed
	}
	d.err = err
	d.errMsg = transport.UserMessage(err)
	d.busy = false
	d.mu.Unlock()
	d.notify()
}

// Draft returns the edited copy.
func (d *DebtorDetail) Draft() model.Debtor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

// Original returns the last confirmed snapshot.
func (d *DebtorDetail) Original() (model.Debtor, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.original == nil {
		return model.Debtor{}, false
	}
	return *d.original, true
}

// Edit applies fn to the draft. The id is kept.
func (d *DebtorDetail) Edit(fn func(*model.Debtor)) {
	d.mu.Lock()
	if d.original == nil {
		d.mu.Unlock()
		return
	}
	id := d.draft.ID
	fn(&d.draft)
	d.draft.ID = id
	d.notice = ""
	d.mu.Unlock()
	d.notify()
}

// HasChanges reports whether the draft differs from the snapshot.
func (d *DebtorDetail) HasChanges() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasChanges()
}

func (d *DebtorDetail) hasChanges() bool {
	if d.original == nil {
		return false
	}
	return !changes.DebtorChanges(*d.original, d.draft).Empty()
}

// CanSave is true when the draft has a name, differs from the snapshot and
// nothing is in flight.
func (d *DebtorDetail) CanSave() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.TrimSpace(d.draft.Name) != "" && d.hasChanges() && !d.busy
}

// Save sends the changed fields. A draft without changes succeeds without a
// request and leaves Notice set.
func (d *DebtorDetail) Save(ctx context.Context) bool {
	d.mu.Lock()
	if d.busy || d.original == nil {
		d.mu.Unlock()
		return false
	}
	if strings.TrimSpace(d.draft.Name) == "" {
		d.err = &model.ValidationError{Field: "name", Reason: "must not be empty"}
		d.errMsg = transport.UserMessage(d.err)
		d.mu.Unlock()
		d.notify()
		return false
	}
	payload := changes.DebtorChanges(*d.original, d.draft)
	if payload.Empty() {
		d.notice = NothingToSave
		d.err, d.errMsg = nil, ""
		d.mu.Unlock()
		d.notify()
		return true
	}
	id := d.original.ID
	fields := changes.ChangedDebtorFields(*d.original, d.draft)
	d.busy = true
	d.err, d.errMsg, d.notice = nil, "", ""
	d.mu.Unlock()
	d.notify()

	saved, err := d.store.UpdateDebtor(ctx, id, payload)
	if err != nil {
		d.logger.Printf("debtor %s: save failed: %v", id, err)
		d.setFailure(err, false)
		return false
	}

	d.mu.Lock()
	d.original = &saved
	d.draft = saved
	d.busy = false
	d.notice = "Debtor saved."
	d.mu.Unlock()

	if d.refresher != nil {
		d.refresher.RefreshEntry(saved)
	}
	record(ctx, d.recorder, d.logger, model.Change{
		Kind: model.ChangeDebtorUpdated, EntityID: saved.ID,
		Summary: "changed " + strings.Join(fields, ", "), Payload: payload,
	})
	d.notify()
	return true
}

// Reset discards the draft.
func (d *DebtorDetail) Reset() {
	d.mu.Lock()
	if d.original != nil {
		d.draft = *d.original
	}
	d.err, d.errMsg, d.notice = nil, "", ""
	d.mu.Unlock()
	d.notify()
}

func (d *DebtorDetail) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *DebtorDetail) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *DebtorDetail) ErrorMessage() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errMsg
}

// Notice is an informational message such as NothingToSave.
func (d *DebtorDetail) Notice() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notice
}
