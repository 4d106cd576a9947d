package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBrokerDeliversToSubscribers(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, "alerts")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "alerts", Message{Event: "alert_created", Payload: map[string]int64{"id": 7}}))
	require.NoError(t, b.Publish(ctx, "other", Message{Event: "ignored"}))

	select {
	case raw := <-ch:
		var msg struct {
			Event   string           `json:"event"`
			Payload map[string]int64 `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "alert_created", msg.Event)
		assert.Equal(t, int64(7), msg.Payload["id"])
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	select {
	case raw := <-ch:
		t.Fatalf("unexpected message %s", raw)
	default:
	}
}

func TestMemoryBrokerUnsubscribesOnCancel(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Subscribe(ctx, "alerts")
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 10*time.Millisecond)
}
