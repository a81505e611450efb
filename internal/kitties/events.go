package kitties

// EventKind names the domain events the pallet deposits.
type EventKind string

const (
	EventCreated     EventKind = "created"
	EventTransferred EventKind = "transferred"
)

// Event is recorded for observers after a transition commits. Breeding
// deposits a created event for the child.
type Event struct {
	Kind EventKind  `json:"kind" msgpack:"kind"`
	From AccountID  `json:"from,omitempty" msgpack:"from,omitempty"`
	To   AccountID  `json:"to" msgpack:"to"`
	ID   KittyIndex `json:"id" msgpack:"id"`
}

// Created is deposited when a kitty comes into existence, by create or breed.
func Created(owner AccountID, id KittyIndex) Event {
	return Event{Kind: EventCreated, To: owner, ID: id}
}

// Transferred is deposited when ownership changes.
func Transferred(from, to AccountID, id KittyIndex) Event {
	return Event{Kind: EventTransferred, From: from, To: to, ID: id}
}

// EventSink records events for the transition being executed.
type EventSink interface {
	Deposit(Event)
}

// EventBuffer collects deposited events in order.
type EventBuffer struct {
	events []Event
}

func (b *EventBuffer) Deposit(e Event) {
	b.events = append(b.events, e)
}

// Events returns the collected events.
func (b *EventBuffer) Events() []Event {
	return b.events
}
