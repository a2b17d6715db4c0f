package bus

import (
	"context"
	"io"
	"log"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
)

// NullBus is used when no Redis URL is configured
type NullBus struct {
	logger *log.Logger
}

// NewNullBus creates a new null bus instance
func NewNullBus(logger *log.Logger) *NullBus {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &NullBus{logger: logger}
}

// Close is a no-op for null bus
func (nb *NullBus) Close() error {
	return nil
}

// Record logs the change but doesn't publish it
func (nb *NullBus) Record(ctx context.Context, change model.Change) error {
	nb.logger.Printf("Would publish %s %s (Redis disabled)", change.Kind, change.EntityID)
	return nil
}

// Follow blocks until ctx is done
func (nb *NullBus) Follow(ctx context.Context, group, consumer string, handler func(ctx context.Context, msg ChangeMessage) error) error {
	nb.logger.Printf("Would follow change feed %s:%s (Redis disabled)", group, consumer)
	<-ctx.Done()
	return ctx.Err()
}

// Stats returns empty stats for null bus
func (nb *NullBus) Stats(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{
		"type":   "null",
		"status": "disabled",
	}, nil
}

// HealthCheck always returns nil for null bus
func (nb *NullBus) HealthCheck(ctx context.Context) error {
	return nil
}
