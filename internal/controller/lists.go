package controller

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
	"github.com/JAlbrecht-svg/inkasso-console/internal/repository"
)

// CaseSource lists cases.
type CaseSource interface {
	ListCases(ctx context.Context, filter repository.CaseFilter) ([]model.Case, error)
}

// DebtorSource lists debtors.
type DebtorSource interface {
	ListDebtors(ctx context.Context, filter repository.DebtorFilter) ([]model.Debtor, error)
}

// debouncer delays a search term until typing pauses and drops a term equal
// to the one triggered last.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	text    string
	last    string
	trigger func(ctx context.Context, term string) bool
}

func newDebouncer(delay time.Duration, trigger func(ctx context.Context, term string) bool) *debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &debouncer{delay: delay, trigger: trigger}
}

func (d *debouncer) changed(ctx context.Context, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(ctx) })
}

func (d *debouncer) fire(ctx context.Context) {
	d.mu.Lock()
	term := strings.TrimSpace(d.text)
	if term == d.last {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	// A term dropped by the in-flight guard is not remembered, so typing it
	// again triggers it.
	if d.trigger(ctx, term) {
		d.mu.Lock()
		d.last = term
		d.mu.Unlock()
	}
}

func (d *debouncer) visible() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// CaseList is the filtered case overview.
type CaseList struct {
	*Collection[model.Case]

	search *debouncer

	mu     sync.Mutex
	filter repository.CaseFilter
}

// NewCaseList creates a case list. A zero debounce uses DefaultDebounce.
func NewCaseList(src CaseSource, debounce time.Duration, logger *log.Logger) *CaseList {
	l := &CaseList{filter: repository.CaseFilter{Limit: repository.DefaultLimit}}
	l.Collection = NewCollection[model.Case]("cases", func(ctx context.Context) ([]model.Case, error) {
		return src.ListCases(ctx, l.Filter())
	}, logger)
	l.search = newDebouncer(debounce, func(ctx context.Context, term string) bool {
		l.mu.Lock()
		l.filter.Search = term
		l.mu.Unlock()
		ran, _ := l.Collection.load(ctx)
		return ran
	})
	return l
}

// Filter returns a snapshot of the active filter.
func (l *CaseList) Filter() repository.CaseFilter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// SearchText is the text as typed, before the debounce applied it.
func (l *CaseList) SearchText() string { return l.search.visible() }

// SearchTextChanged records text and loads once typing has paused.
func (l *CaseList) SearchTextChanged(ctx context.Context, text string) {
	l.search.changed(ctx, text)
}

// SetStatusFilter narrows the list to status, or all statuses when empty,
// and reloads immediately.
func (l *CaseList) SetStatusFilter(ctx context.Context, status model.CaseStatus) error {
	l.mu.Lock()
	l.filter.Status = status
	l.mu.Unlock()
	return l.FilterChanged(ctx)
}

// SetScope limits the list to one order and/or debtor and reloads.
func (l *CaseList) SetScope(ctx context.Context, auftragID, debtorID string) error {
	l.mu.Lock()
	l.filter.AuftragID = strings.TrimSpace(auftragID)
	l.filter.DebtorID = strings.TrimSpace(debtorID)
	l.mu.Unlock()
	return l.FilterChanged(ctx)
}

// SetPage sets limit and offset without reloading.
func (l *CaseList) SetPage(limit, offset int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filter.Limit = limit
	l.filter.Offset = offset
}

// FilterChanged reloads without debounce.
func (l *CaseList) FilterChanged(ctx context.Context) error {
	return l.Load(ctx)
}

// Close stops a pending debounced search.
func (l *CaseList) Close() { l.search.stop() }

// DebtorList is the debtor search.
type DebtorList struct {
	*Collection[model.Debtor]

	search *debouncer

	mu     sync.Mutex
	filter repository.DebtorFilter
}

func NewDebtorList(src DebtorSource, debounce time.Duration, logger *log.Logger) *DebtorList {
	l := &DebtorList{filter: repository.DebtorFilter{Limit: repository.DefaultLimit}}
	l.Collection = NewCollection[model.Debtor]("debtors", func(ctx context.Context) ([]model.Debtor, error) {
		return src.ListDebtors(ctx, l.Filter())
	}, logger)
	l.search = newDebouncer(debounce, func(ctx context.Context, term string) bool {
		l.mu.Lock()
		l.filter.Search = term
		l.mu.Unlock()
		ran, _ := l.Collection.load(ctx)
		return ran
	})
	return l
}

func (l *DebtorList) Filter() repository.DebtorFilter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

func (l *DebtorList) SearchText() string { return l.search.visible() }

func (l *DebtorList) SearchTextChanged(ctx context.Context, text string) {
	l.search.changed(ctx, text)
}

func (l *DebtorList) Close() { l.search.stop() }
