package domain

import "time"

// TicketChangeType tags what changed in an audit entry. The set is open;
// these are the values the engine itself emits.
type TicketChangeType string

const (
	ChangeTypeStatus   TicketChangeType = "status_changed"
	ChangeTypePriority TicketChangeType = "priority_changed"
	ChangeTypeAssignee TicketChangeType = "assignee_changed"
	ChangeTypeCategory TicketChangeType = "category_changed"
)

// TicketEvent is an append-only audit record. The concatenation of all events
// for a ticket reconstructs every observable field transition. Events are
// created only as a side effect of lifecycle or bulk mutations and are never
// updated or deleted.
type TicketEvent struct {
	ID         string           `db:"id"`
	TicketID   string           `db:"ticket_id"`
	ActorID    string           `db:"actor_id"`
	ChangeType TicketChangeType `db:"change_type"`
	OldValue   *string          `db:"old_value"`
	NewValue   *string          `db:"new_value"`
	ActorIP    *string          `db:"actor_ip"`
	CreatedAt  time.Time        `db:"created_at"`
}
