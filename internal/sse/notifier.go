package sse

import (
	"time"

	"github.com/decorhaus/storefront_api/internal/models"
)

// OrderNotifier is the interface services use to emit order events.
type OrderNotifier interface {
	NotifyOrderCreated(order *models.Order)
	NotifyOrderStatusChanged(order *models.Order)
}

// HubNotifier implements OrderNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
	now func() time.Time
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub, now: time.Now}
}

func (n *HubNotifier) NotifyOrderCreated(order *models.Order) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(n.toEvent(EventOrderCreated, order))
}

func (n *HubNotifier) NotifyOrderStatusChanged(order *models.Order) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(n.toEvent(EventOrderStatusChanged, order))
}

func (n *HubNotifier) toEvent(eventType EventType, o *models.Order) *OrderEvent {
	return &OrderEvent{
		Event:         eventType,
		OrderID:       o.ID,
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		TotalAmount:   o.TotalAmount,
		ItemCount:     len(o.Items),
		Guest:         o.IsGuest(),
		Timestamp:     n.now(),
	}
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (NopNotifier) NotifyOrderCreated(*models.Order)       {}
func (NopNotifier) NotifyOrderStatusChanged(*models.Order) {}
