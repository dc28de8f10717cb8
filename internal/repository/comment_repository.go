package repository

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/supportdesk/ticketd/internal/domain"
)

// CommentRepository persists ticket comments. Comments are immutable once
// created.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error)
}

type commentRepository struct {
	q Querier
}

// NewCommentRepository builds the repository.
func NewCommentRepository(q Querier) CommentRepository {
	return &commentRepository{q: q}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (ticket_id, author_id, content, is_internal)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.Content,
		comment.IsInternal,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error) {
	query := `
        SELECT id, ticket_id, author_id, content, is_internal, created_at
        FROM comments WHERE ticket_id=$1`
	if !includeInternal {
		query += ` AND is_internal = FALSE`
	}
	query += ` ORDER BY created_at ASC`

	var comments []domain.Comment
	if err := pgxscan.Select(ctx, r.q, &comments, query, ticketID); err != nil {
		return nil, err
	}
	return comments, nil
}
