package service

// Event types pushed to staff dashboards.
const (
	EventCarUpdated             = "car:updated"
	EventPurchaseRequestCreated = "purchase_request:created"
	EventPurchaseRequestUpdated = "purchase_request:updated"
	EventSaleCompleted          = "sale:completed"
)

// Notifier pushes domain events to connected dashboards. Implemented by
// the websocket hub; a NoopNotifier is used when the hub is disabled.
type Notifier interface {
	Broadcast(event string, data interface{})
}

// NoopNotifier discards all events.
type NoopNotifier struct{}

func (NoopNotifier) Broadcast(event string, data interface{}) {}
