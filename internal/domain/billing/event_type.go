package billing

// EventType is a payment provider webhook event type
type EventType int

const (
	// EventTypeUnrecognized covers every type without a handler. Such events are recorded
	// and treated as processed on first delivery.
	EventTypeUnrecognized EventType = iota
	EventTypeCheckoutSessionCompleted
	EventTypeSubscriptionCreated
	EventTypeSubscriptionUpdated
	EventTypeSubscriptionDeleted
)

var eventTypeNames = map[EventType]string{
	EventTypeCheckoutSessionCompleted: "checkout.session.completed",
	EventTypeSubscriptionCreated:      "customer.subscription.created",
	EventTypeSubscriptionUpdated:      "customer.subscription.updated",
	EventTypeSubscriptionDeleted:      "customer.subscription.deleted",
}

// ParseEventType maps a provider event type string to an EventType
func ParseEventType(s string) EventType {
	for t, n := range eventTypeNames {
		if n == s {
			return t
		}
	}
	return EventTypeUnrecognized
}

// String returns the provider name of the event type
func (t EventType) String() string {
	if n, ok := eventTypeNames[t]; ok {
		return n
	}
	return "unrecognized"
}

// HasHandler reports whether events of this type mutate subscription state
func (t EventType) HasHandler() bool {
	_, ok := eventTypeNames[t]
	return ok
}
