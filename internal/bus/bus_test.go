package bus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
)

func TestNewBusWithoutURLIsNull(t *testing.T) {
	b := NewBus("", "", "ws1", nil)
	_, ok := b.(*NullBus)
	assert.True(t, ok)

	stats, err := b.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "null", stats["type"])
	assert.NoError(t, b.HealthCheck(context.Background()))
	assert.NoError(t, b.Record(context.Background(), model.Change{Kind: model.ChangeCaseUpdated, EntityID: "C1"}))
	assert.NoError(t, b.Close())
}

func TestNewBusWithInvalidURLFallsBack(t *testing.T) {
	b := NewBus("not-a-redis-url", "", "ws1", nil)
	_, ok := b.(*NullBus)
	assert.True(t, ok)
}

func TestNullBusFollowBlocksUntilCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewNullBus(nil).Follow(ctx, "g", "c", func(context.Context, ChangeMessage) error {
		t.Fatal("handler must not be called")
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEncodeDecodeChange(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	change := model.Change{
		Kind:     model.ChangePaymentCreated,
		EntityID: "P9",
		CaseID:   "C1",
		Summary:  "payment 20.00 EUR",
		Payload:  model.CreatePaymentPayload{CaseID: "C1", Amount: 20, PaymentDate: "2025-03-01"},
		At:       at,
	}

	fields, err := encodeChange("id-1", "ws1", change)
	require.NoError(t, err)
	assert.Equal(t, at.UnixMilli(), fields["timestamp"])

	// Redis hands every value back as a string.
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch v := v.(type) {
		case string:
			values[k] = v
		default:
			b, _ := json.Marshal(v)
			values[k] = string(b)
		}
	}

	msg, err := decodeChange("1-0", values)
	require.NoError(t, err)
	assert.Equal(t, "1-0", msg.StreamID)
	assert.Equal(t, "id-1", msg.ChangeID)
	assert.Equal(t, "ws1", msg.Source)
	assert.Equal(t, model.ChangePaymentCreated, msg.Change.Kind)
	assert.Equal(t, "C1", msg.Change.CaseID)
	assert.True(t, msg.Change.At.Equal(at))

	raw, ok := msg.Change.Payload.(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"case_id":"C1","amount":20,"payment_date":"2025-03-01"}`, string(raw))
}

func TestDecodeChangeRejectsGarbage(t *testing.T) {
	_, err := decodeChange("1-0", map[string]interface{}{"entity_id": "C1"})
	assert.Error(t, err)

	_, err = decodeChange("1-0", map[string]interface{}{"kind": "case.updated", "timestamp": "yesterday"})
	assert.Error(t, err)
}
