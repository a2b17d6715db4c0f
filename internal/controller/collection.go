package controller

import (
	"context"
	"log"
	"sync"

	"github.com/JAlbrecht-svg/inkasso-console/internal/transport"
)

// Identifiable is implemented by every entity a list can hold.
type Identifiable interface {
	Identity() string
}

// Fetcher loads the full contents of a list.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Collection is a list view over Idle, Loading, Loaded and Failed. A
// successful load replaces the whole collection; a failed one keeps the
// previous items and records the error.
type Collection[T Identifiable] struct {
	observers

	name   string
	fetch  Fetcher[T]
	logger *log.Logger

	mu     sync.Mutex
	items  []T
	state  State
	err    error
	errMsg string
}

// NewCollection creates an idle collection. A nil logger discards output.
func NewCollection[T Identifiable](name string, fetch Fetcher[T], logger *log.Logger) *Collection[T] {
	return &Collection[T]{name: name, fetch: fetch, logger: discardIfNil(logger)}
}

// Load fetches the collection. It is a no-op returning nil while another load
// of the same collection is in flight.
func (c *Collection[T]) Load(ctx context.Context) error {
	_, err := c.load(ctx)
	return err
}

func (c *Collection[T]) load(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.state == Loading {
		c.mu.Unlock()
		c.logger.Printf("%s: load skipped, already loading", c.name)
		return false, nil
	}
	c.state = Loading
	c.mu.Unlock()
	c.notify()

	items, err := c.fetch(ctx)

	c.mu.Lock()
	if err != nil {
		c.state = Failed
		c.err = err
		c.errMsg = transport.UserMessage(err)
	} else {
		c.items = items
		c.state = Loaded
		c.err = nil
		c.errMsg = ""
	}
	count := len(c.items)
	c.mu.Unlock()

	if err != nil {
		c.logger.Printf("%s: load failed: %v", c.name, err)
	} else {
		c.logger.Printf("%s: loaded %d entries", c.name, count)
	}
	c.notify()
	return true, err
}

// RefreshEntry replaces the entry with the same identity as item. The active
// filter is not re-applied, so an entry that no longer matches stays visible
// until the next Load. It reports whether an entry was replaced.
func (c *Collection[T]) RefreshEntry(item T) bool {
	id := item.Identity()
	c.mu.Lock()
	replaced := false
	for i := range c.items {
		if c.items[i].Identity() == id {
			c.items[i] = item
			replaced = true
			break
		}
	}
	c.mu.Unlock()
	if replaced {
		c.notify()
	}
	return replaced
}

// Reset drops all items and returns to Idle.
func (c *Collection[T]) Reset() {
	c.mu.Lock()
	c.items = nil
	c.state = Idle
	c.err = nil
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()
}

// Items returns a copy of the current entries.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Find returns the entry with the given identity.
func (c *Collection[T]) Find(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.Identity() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Collection[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err is the error of the last failed load, nil after a success.
func (c *Collection[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// ErrorMessage is the user-facing text of Err.
func (c *Collection[T]) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}
