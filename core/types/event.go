package types

import "sort"

// Event represents a typed event emitted by a contract during a transaction.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// NewEvent returns an event with an initialised attribute bag.
func NewEvent(eventType string) *Event {
	return &Event{Type: eventType, Attributes: make(map[string]string)}
}

// Set stores an attribute, skipping empty values.
func (e *Event) Set(key, value string) *Event {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	if value == "" {
		return e
	}
	e.Attributes[key] = value
	return e
}

// Keys returns the attribute keys in sorted order.
func (e *Event) Keys() []string {
	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
