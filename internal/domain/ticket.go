package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusOnHold     TicketStatus = "ON_HOLD"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusReopened   TicketStatus = "REOPENED"
)

// KnownStatuses lists every accepted status value. Any member may be set on
// update; there is no allowed-transition table.
var KnownStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusOnHold,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusReopened,
}

// IsValid reports whether the status is a member of the enum.
func (s TicketStatus) IsValid() bool {
	for _, known := range KnownStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Ticket is the aggregate root for support requests. Tickets are created with
// a unique human-readable code, mutated only through the lifecycle service so
// every change can be diffed, and never hard-deleted.
type Ticket struct {
	ID             string       `db:"id"`
	TicketCode     string       `db:"ticket_code"`
	Subject        string       `db:"subject"`
	Description    string       `db:"description"`
	RequesterName  *string      `db:"requester_name"`
	RequesterEmail *string      `db:"requester_email"`
	RequesterPhone string       `db:"requester_phone"`
	Location       *string      `db:"location"`
	Status         TicketStatus `db:"status"`
	PriorityID     string       `db:"priority_id"`
	AssigneeID     *string      `db:"assignee_id"`
	CreatedByID    string       `db:"created_by_id"`
	UpdatedByID    string       `db:"updated_by_id"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
	ResolvedAt     *time.Time   `db:"resolved_at"`
	ClosedAt       *time.Time   `db:"closed_at"`

	// Hydrated relations, populated on detail reads.
	Priority    *Priority     `db:"-"`
	Assignee    *User         `db:"-"`
	Categories  []Category    `db:"-"`
	Comments    []Comment     `db:"-"`
	Attachments []Attachment  `db:"-"`
	Events      []TicketEvent `db:"-"`
}
