package models

import "time"

// StatusRecord is one append-only history entry on an opportunity or
// proposal: either a status change or a free-form event (an addendum, an
// edit), always attributed to the actor that caused it. Records are never
// updated or deleted.
type StatusRecord struct {
	Id        string    `json:"id"`
	EntityId  string    `json:"-"`
	Status    string    `json:"status,omitempty"`
	Event     string    `json:"event,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}
