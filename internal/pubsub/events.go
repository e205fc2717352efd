package pubsub

type EventType string

const EventTypeUpdated EventType = "updated"

type Event[T any] struct {
	Type    EventType
	Payload T
}
