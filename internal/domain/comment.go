package domain

import "time"

// Comment is a message on a ticket thread. Internal comments are hidden from
// the requester-facing view. Comments are immutable once created.
type Comment struct {
	ID         string    `db:"id"`
	TicketID   string    `db:"ticket_id"`
	AuthorID   string    `db:"author_id"`
	Content    string    `db:"content"`
	IsInternal bool      `db:"is_internal"`
	CreatedAt  time.Time `db:"created_at"`
}
