package domain

import "time"

// Attachment stores file metadata for a ticket. File bytes live with an
// external storage collaborator; only the metadata lifecycle is managed here.
// Deletion is a soft-delete: the row persists for audit but is excluded from
// detail views.
type Attachment struct {
	ID               string     `db:"id"`
	TicketID         string     `db:"ticket_id"`
	UploadedByID     string     `db:"uploaded_by_id"`
	OriginalFilename string     `db:"original_filename"`
	StoredFilename   string     `db:"stored_filename"`
	MimeType         string     `db:"mime_type"`
	SizeBytes        int64      `db:"size_bytes"`
	IsDeleted        bool       `db:"is_deleted"`
	DeletedAt        *time.Time `db:"deleted_at"`
	DeletedByID      *string    `db:"deleted_by_id"`
	UploadedAt       time.Time  `db:"uploaded_at"`
}
