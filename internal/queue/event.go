// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the audit log consumer.
package queue

import "time"

// QueueName is the durable queue every domain event is routed to.
const QueueName = "stores.events"

// Event types published after a successful write.
const (
	UserRegistered = "user.registered"
	StoreCreated   = "store.created"
	StoreDeleted   = "store.deleted"
	ItemCreated    = "item.created"
	ItemUpdated    = "item.updated"
	ItemDeleted    = "item.deleted"
	TagCreated     = "tag.created"
	TagDeleted     = "tag.deleted"
	TagLinked      = "tag.linked"
	TagUnlinked    = "tag.unlinked"
)

// Event describes a committed change.  It carries enough information for
// downstream consumers to log or notify without querying the database.
type Event struct {
	Type    string `json:"type"`
	Entity  string `json:"entity"`
	ID      uint64 `json:"id"`
	Name    string `json:"name,omitempty"`
	StoreID uint64 `json:"store_id,omitempty"`
	// RelatedID is the tag id for link events.
	RelatedID uint64 `json:"related_id,omitempty"`
	UserID    uint64 `json:"user_id,omitempty"`
	At        string `json:"at"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(typ, entity string, id uint64) Event {
	return Event{Type: typ, Entity: entity, ID: id, At: time.Now().UTC().Format(time.RFC3339)}
}
