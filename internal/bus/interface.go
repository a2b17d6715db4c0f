// Package bus publishes confirmed writes to a Redis stream so other
// workstations can follow what changed.
package bus

import (
	"context"
	"io"
	"log"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
)

// DefaultStream is the stream changes are appended to.
const DefaultStream = "inkasso:changes"

// Bus defines the interface for change feed implementations
type Bus interface {
	// Record publishes a confirmed change to the stream
	Record(ctx context.Context, change model.Change) error

	// Follow reads changes from the stream until ctx is done
	Follow(ctx context.Context, group, consumer string, handler func(ctx context.Context, msg ChangeMessage) error) error

	// Stats returns basic statistics about the stream
	Stats(ctx context.Context) (map[string]interface{}, error)

	// HealthCheck checks the connection
	HealthCheck(ctx context.Context) error

	// Close closes the connection
	Close() error
}

// NewBus creates a bus for redisURL. An empty or unreachable URL gives a
// NullBus.
func NewBus(redisURL, stream, source string, logger *log.Logger) Bus {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	if redisURL == "" {
		return NewNullBus(logger)
	}

	redisBus, err := NewRedisBus(redisURL, stream, source, logger)
	if err != nil {
		logger.Printf("change feed disabled: %v", err)
		return NewNullBus(logger)
	}
	return redisBus
}
