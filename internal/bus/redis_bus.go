package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
)

// maxStreamLen caps the stream; older entries are trimmed approximately.
const maxStreamLen = 10000

// RedisBus appends changes to a Redis stream
type RedisBus struct {
	client *redis.Client
	stream string
	source string
	logger *log.Logger
}

// ChangeMessage is a change as read back from the stream
type ChangeMessage struct {
	StreamID string       `json:"stream_id"`
	ChangeID string       `json:"change_id"`
	Source   string       `json:"source"`
	Change   model.Change `json:"change"`
}

// NewRedisBus connects to redisURL. source identifies this workstation in
// published messages.
func NewRedisBus(redisURL, stream, source string, logger *log.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if stream == "" {
		stream = DefaultStream
	}

	return &RedisBus{
		client: client,
		stream: stream,
		source: source,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (rb *RedisBus) Close() error {
	return rb.client.Close()
}

// Record appends change to the stream
func (rb *RedisBus) Record(ctx context.Context, change model.Change) error {
	fields, err := encodeChange(uuid.NewString(), rb.source, change)
	if err != nil {
		return err
	}

	result := rb.client.XAdd(ctx, &redis.XAddArgs{
		Stream: rb.stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: fields,
	})
	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}

	rb.logger.Printf("Published %s %s as %s", change.Kind, change.EntityID, result.Val())
	return nil
}

// createGroup creates the consumer group if it doesn't exist
func (rb *RedisBus) createGroup(ctx context.Context, group string) error {
	err := rb.client.XGroupCreateMkStream(ctx, rb.stream, group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s for stream %s: %w", group, rb.stream, err)
	}
	return nil
}

// Follow reads new changes through a consumer group and acknowledges each
// one the handler accepts.
func (rb *RedisBus) Follow(ctx context.Context, group, consumer string, handler func(ctx context.Context, msg ChangeMessage) error) error {
	if err := rb.createGroup(ctx, group); err != nil {
		return err
	}

	rb.logger.Printf("Following %s (group: %s, consumer: %s)", rb.stream, group, consumer)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result := rb.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{rb.stream, ">"},
			Count:    10,
			Block:    time.Second,
		})
		if err := result.Err(); err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			rb.logger.Printf("Error reading from stream %s: %v", rb.stream, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, stream := range result.Val() {
			for _, message := range stream.Messages {
				msg, err := decodeChange(message.ID, message.Values)
				if err != nil {
					rb.logger.Printf("Skipping message %s: %v", message.ID, err)
				} else if err := handler(ctx, msg); err != nil {
					rb.logger.Printf("Error processing message %s: %v", message.ID, err)
					continue
				}
				if err := rb.client.XAck(ctx, rb.stream, group, message.ID).Err(); err != nil {
					rb.logger.Printf("Error acknowledging message %s: %v", message.ID, err)
				}
			}
		}
	}
}

// HealthCheck performs a health check on the Redis connection
func (rb *RedisBus) HealthCheck(ctx context.Context) error {
	return rb.client.Ping(ctx).Err()
}

// Stats returns basic statistics about the stream
func (rb *RedisBus) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{
		"type":   "redis",
		"stream": rb.stream,
	}

	info, err := rb.client.XInfoStream(ctx, rb.stream).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info for %s: %w", rb.stream, err)
	}
	stats["length"] = info.Length
	stats["first_entry_id"] = info.FirstEntry.ID
	stats["last_entry_id"] = info.LastEntry.ID

	if groups, err := rb.client.XInfoGroups(ctx, rb.stream).Result(); err == nil {
		stats["consumer_groups"] = len(groups)
	}
	return stats, nil
}

func encodeChange(id, source string, c model.Change) (map[string]interface{}, error) {
	payload := ""
	if c.Payload != nil {
		data, err := json.Marshal(c.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal change payload: %w", err)
		}
		payload = string(data)
	}
	return map[string]interface{}{
		"change_id": id,
		"source":    source,
		"kind":      string(c.Kind),
		"entity_id": c.EntityID,
		"case_id":   c.CaseID,
		"summary":   c.Summary,
		"payload":   payload,
		"timestamp": c.At.UnixMilli(),
	}, nil
}

func decodeChange(streamID string, values map[string]interface{}) (ChangeMessage, error) {
	field := func(key string) string {
		switch v := values[key].(type) {
		case string:
			return v
		case nil:
			return ""
		default:
			return fmt.Sprint(v)
		}
	}

	kind := field("kind")
	if kind == "" {
		return ChangeMessage{}, fmt.Errorf("message has no kind")
	}

	msg := ChangeMessage{
		StreamID: streamID,
		ChangeID: field("change_id"),
		Source:   field("source"),
		Change: model.Change{
			Kind:     model.ChangeKind(kind),
			EntityID: field("entity_id"),
			CaseID:   field("case_id"),
			Summary:  field("summary"),
		},
	}
	if p := field("payload"); p != "" {
		msg.Change.Payload = json.RawMessage(p)
	}
	if ts := field("timestamp"); ts != "" {
		ms, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return ChangeMessage{}, fmt.Errorf("invalid timestamp %q: %w", ts, err)
		}
		msg.Change.At = time.UnixMilli(ms)
	}
	return msg, nil
}
