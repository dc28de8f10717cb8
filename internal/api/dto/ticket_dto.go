package dto

import (
	"time"

	"github.com/supportdesk/ticketd/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject        string   `json:"subject" validate:"required"`
	Description    string   `json:"description" validate:"required"`
	RequesterName  *string  `json:"requester_name"`
	RequesterEmail *string  `json:"requester_email" validate:"omitempty,email"`
	RequesterPhone string   `json:"requester_phone" validate:"required"`
	Location       *string  `json:"location"`
	PriorityID     string   `json:"priority_id" validate:"required,uuid"`
	CategoryIDs    []string `json:"category_ids" validate:"omitempty,dive,uuid"`
}

// UpdateTicketRequest is a partial update; absent fields are untouched.
type UpdateTicketRequest struct {
	Status      *domain.TicketStatus `json:"status"`
	PriorityID  *string              `json:"priority_id" validate:"omitempty,uuid"`
	AssigneeID  *string              `json:"assignee_id" validate:"omitempty,uuid"`
	CategoryIDs *[]string            `json:"category_ids" validate:"omitempty,dive,uuid"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content    string `json:"content" validate:"required"`
	IsInternal bool   `json:"is_internal"`
}

// AddAttachmentRequest carries attachment metadata; file bytes are handled
// by an external storage collaborator.
type AddAttachmentRequest struct {
	OriginalFilename string `json:"original_filename" validate:"required"`
	StoredFilename   string `json:"stored_filename" validate:"required"`
	MimeType         string `json:"mime_type" validate:"required"`
	Size             int64  `json:"size" validate:"gte=0"`
}

// BulkAssignRequest payload.
type BulkAssignRequest struct {
	TicketIDs  []string `json:"ticket_ids" validate:"required,min=1,dive,uuid"`
	AssigneeID string   `json:"assignee_id" validate:"required,uuid"`
}

// BulkStatusRequest payload.
type BulkStatusRequest struct {
	TicketIDs []string            `json:"ticket_ids" validate:"required,min=1,dive,uuid"`
	Status    domain.TicketStatus `json:"status" validate:"required"`
}

// TicketSummary is the list-view projection.
type TicketSummary struct {
	ID             string              `json:"id"`
	TicketCode     string              `json:"ticket_code"`
	Subject        string              `json:"subject"`
	Status         domain.TicketStatus `json:"status"`
	PriorityID     string              `json:"priority_id"`
	AssigneeID     *string             `json:"assignee_id"`
	RequesterName  *string             `json:"requester_name"`
	RequesterPhone string              `json:"requester_phone"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// TicketListResponse is one page plus pagination echo.
type TicketListResponse struct {
	Data  []TicketSummary `json:"data"`
	Total int64           `json:"total"`
	Skip  int             `json:"skip"`
	Take  int             `json:"take"`
}

// TicketDetailResponse is the hydrated ticket view.
type TicketDetailResponse struct {
	ID             string               `json:"id"`
	TicketCode     string               `json:"ticket_code"`
	Subject        string               `json:"subject"`
	Description    string               `json:"description"`
	RequesterName  *string              `json:"requester_name"`
	RequesterEmail *string              `json:"requester_email"`
	RequesterPhone string               `json:"requester_phone"`
	Location       *string              `json:"location"`
	Status         domain.TicketStatus  `json:"status"`
	Priority       *PriorityResponse    `json:"priority"`
	Assignee       *UserSummary         `json:"assignee"`
	Categories     []CategoryResponse   `json:"categories"`
	Comments       []CommentResponse    `json:"comments"`
	Attachments    []AttachmentResponse `json:"attachments"`
	Events         []EventResponse      `json:"events"`
	CreatedByID    string               `json:"created_by_id"`
	UpdatedByID    string               `json:"updated_by_id"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	ResolvedAt     *time.Time           `json:"resolved_at"`
	ClosedAt       *time.Time           `json:"closed_at"`
}

// PriorityResponse projection.
type PriorityResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// CategoryResponse projection.
type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CommentResponse projection.
type CommentResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// AttachmentResponse projection.
type AttachmentResponse struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	StoredFilename   string    `json:"stored_filename"`
	MimeType         string    `json:"mime_type"`
	Size             int64     `json:"size"`
	UploadedByID     string    `json:"uploaded_by_id"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// EventResponse projection of an audit entry.
type EventResponse struct {
	ID         string                  `json:"id"`
	ActorID    string                  `json:"actor_id"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	OldValue   *string                 `json:"old_value"`
	NewValue   *string                 `json:"new_value"`
	CreatedAt  time.Time               `json:"created_at"`
}

// BulkResponse reports the matched count.
type BulkResponse struct {
	Updated int64 `json:"updated"`
}

// MessageResponse is a bare confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
