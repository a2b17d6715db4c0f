// Package controller holds the view state of the console: filtered lists,
// the case detail with its payments and actions, and the debtor editor.
//
// Controller methods block on network I/O and take a context. Each
// controller keeps its own mutex, held only while state changes and never
// across a request. The in-flight guard is a check-and-set of the busy flag
// under that mutex: a load issued while another one runs is dropped, not
// queued. There is no generation token, so when two loads of different
// controllers race the last response wins.
package controller

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
)

// State is the lifecycle of one logical view.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// DefaultDebounce is the quiet period before a search term triggers a load.
const DefaultDebounce = 500 * time.Millisecond

// EntryRefresher replaces one entry of a list in place.
type EntryRefresher[T any] interface {
	RefreshEntry(item T) bool
}

// Recorder receives every write the backend confirmed.
type Recorder interface {
	Record(ctx context.Context, change model.Change) error
}

// Recorders fans a change out to several recorders. A failing recorder does
// not stop the others; the first error is returned.
type Recorders []Recorder

func (rs Recorders) Record(ctx context.Context, change model.Change) error {
	var first error
	for _, r := range rs {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, change); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func record(ctx context.Context, rec Recorder, logger *log.Logger, change model.Change) {
	if rec == nil {
		return
	}
	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}
	if err := rec.Record(ctx, change); err != nil {
		logger.Printf("record %s %s: %v", change.Kind, change.EntityID, err)
	}
}

func discardIfNil(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return logger
}

// observers is embedded by every controller; callbacks run after the state
// mutex has been released.
type observers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

// Subscribe registers fn to run after every state change. The returned func
// removes it again.
func (o *observers) Subscribe(fn func()) (cancel func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fns == nil {
		o.fns = map[int]func(){}
	}
	id := o.next
	o.next++
	o.fns[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.fns, id)
	}
}

func (o *observers) notify() {
	o.mu.Lock()
	fns := make([]func(), 0, len(o.fns))
	for _, fn := range o.fns {
		fns = append(fns, fn)
	}
	o.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
