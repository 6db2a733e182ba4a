package sse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decorhaus/storefront_api/internal/models"
)

func TestNotifierBroadcastsToRegisteredClients(t *testing.T) {
	hub := NewHub()
	n := NewHubNotifier(hub)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	client := hub.Register("admin-1")
	defer hub.Unregister("admin-1")

	n.NotifyOrderCreated(&models.Order{
		ID:            42,
		Status:        models.OrderStatusPending,
		PaymentMethod: models.PaymentMethodCOD,
		TotalAmount:   decimal.NewFromInt(1350),
		Items:         []models.OrderItem{{}, {}},
	})

	select {
	case data := <-client.Events:
		var ev OrderEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		assert.Equal(t, EventOrderCreated, ev.Event)
		assert.Equal(t, 42, ev.OrderID)
		assert.Equal(t, 2, ev.ItemCount)
		assert.True(t, ev.Guest)
		assert.True(t, decimal.NewFromInt(1350).Equal(ev.TotalAmount))
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	client := hub.Register("slow")
	for i := 0; i < cap(client.Events)+5; i++ {
		hub.Broadcast(&OrderEvent{OrderID: i})
	}
	assert.Len(t, client.Events, cap(client.Events))

	hub.Unregister("slow")
	assert.Equal(t, 0, hub.ClientCount())
}
