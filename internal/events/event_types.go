package events

import (
	"time"

	"github.com/supportdesk/ticketd/internal/domain"
)

// Type enumerates supported event identifiers.
type Type string

const (
	EventTicketCreated     Type = "ticket_created"
	EventTicketUpdated     Type = "ticket_updated"
	EventCommentAdded      Type = "comment_added"
	EventAttachmentAdded   Type = "attachment_added"
	EventAttachmentDeleted Type = "attachment_deleted"
	EventBulkApplied       Type = "bulk_applied"
)

// Event represents a domain event emitted by services after a committed
// mutation.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketCode string              `json:"ticket_code"`
	Subject    string              `json:"subject"`
	Status     domain.TicketStatus `json:"status"`
	PriorityID string              `json:"priority_id"`
}

// TicketUpdatedPayload carries the audit change tags emitted by the update.
type TicketUpdatedPayload struct {
	ChangeTypes []domain.TicketChangeType `json:"change_types"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID  string `json:"comment_id"`
	IsInternal bool   `json:"is_internal"`
}

// AttachmentPayload payload for attachment add/delete.
type AttachmentPayload struct {
	AttachmentID     string `json:"attachment_id"`
	OriginalFilename string `json:"original_filename,omitempty"`
}

// BulkAppliedPayload payload.
type BulkAppliedPayload struct {
	Operation string   `json:"operation"`
	TicketIDs []string `json:"ticket_ids"`
	Updated   int64    `json:"updated"`
}
