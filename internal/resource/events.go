package resource

// Event represents a resource manager lifecycle event.
// Minimal and stable: name + model type and optional fields via key/values.
type Event struct {
	Name      string
	ModelType string
	Fields    map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
