package repository

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/supportdesk/ticketd/internal/domain"
)

// AttachmentRepository persists attachment metadata. Deletion is a soft
// delete; the row survives for audit.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	GetByID(ctx context.Context, id string) (*domain.Attachment, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
	SoftDelete(ctx context.Context, id, deletedByID string) error
}

type attachmentRepository struct {
	q Querier
}

// NewAttachmentRepository builds the repository.
func NewAttachmentRepository(q Querier) AttachmentRepository {
	return &attachmentRepository{q: q}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (ticket_id, uploaded_by_id, original_filename, stored_filename, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, uploaded_at`
	return r.q.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.UploadedByID,
		attachment.OriginalFilename,
		attachment.StoredFilename,
		attachment.MimeType,
		attachment.SizeBytes,
	).Scan(&attachment.ID, &attachment.UploadedAt)
}

func (r *attachmentRepository) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, uploaded_by_id, original_filename, stored_filename, mime_type,
               size_bytes, is_deleted, deleted_at, deleted_by_id, uploaded_at
        FROM attachments WHERE id=$1`
	var attachment domain.Attachment
	if err := pgxscan.Get(ctx, r.q, &attachment, query, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}
	return &attachment, nil
}

// ListByTicket returns non-deleted attachments for detail views.
func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, uploaded_by_id, original_filename, stored_filename, mime_type,
               size_bytes, is_deleted, deleted_at, deleted_by_id, uploaded_at
        FROM attachments WHERE ticket_id=$1 AND is_deleted = FALSE ORDER BY uploaded_at ASC`
	var attachments []domain.Attachment
	if err := pgxscan.Select(ctx, r.q, &attachments, query, ticketID); err != nil {
		return nil, err
	}
	return attachments, nil
}

// SoftDelete marks the attachment deleted. A row already deleted (or absent)
// affects zero rows and surfaces as pgx.ErrNoRows, so a second delete of the
// same attachment reports not-found.
func (r *attachmentRepository) SoftDelete(ctx context.Context, id, deletedByID string) error {
	const query = `
        UPDATE attachments
        SET is_deleted = TRUE, deleted_at = NOW(), deleted_by_id = $1
        WHERE id = $2 AND is_deleted = FALSE`
	cmd, err := r.q.Exec(ctx, query, deletedByID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
