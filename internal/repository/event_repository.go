package repository

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/supportdesk/ticketd/internal/domain"
)

// TicketEventRepository stores append-only audit entries. There is no update
// or delete path.
type TicketEventRepository interface {
	Create(ctx context.Context, event *domain.TicketEvent) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEvent, error)
	WithTx(q Querier) TicketEventRepository
}

type ticketEventRepository struct {
	q Querier
}

// NewTicketEventRepository builds the repository.
func NewTicketEventRepository(q Querier) TicketEventRepository {
	return &ticketEventRepository{q: q}
}

func (r *ticketEventRepository) WithTx(q Querier) TicketEventRepository {
	return &ticketEventRepository{q: q}
}

func (r *ticketEventRepository) Create(ctx context.Context, event *domain.TicketEvent) error {
	const query = `
        INSERT INTO ticket_events (ticket_id, actor_id, change_type, old_value, new_value, actor_ip)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		event.TicketID,
		event.ActorID,
		event.ChangeType,
		event.OldValue,
		event.NewValue,
		event.ActorIP,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *ticketEventRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEvent, error) {
	const query = `
        SELECT id, ticket_id, actor_id, change_type, old_value, new_value, actor_ip, created_at
        FROM ticket_events WHERE ticket_id=$1 ORDER BY created_at ASC`
	var events []domain.TicketEvent
	if err := pgxscan.Select(ctx, r.q, &events, query, ticketID); err != nil {
		return nil, err
	}
	return events, nil
}
