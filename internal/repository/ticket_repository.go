package repository

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/supportdesk/ticketd/internal/domain"
)

// psql builds queries with Postgres positional placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ticketColumns is the canonical select list for tickets.
const ticketColumns = `id, ticket_code, subject, description, requester_name, requester_email,
        requester_phone, location, status, priority_id, assignee_id, created_by_id, updated_by_id,
        created_at, updated_at, resolved_at, closed_at`

// TicketFilter captures the optional list filters. Absent fields are no-ops;
// each present field ANDs one predicate.
type TicketFilter struct {
	Status      *domain.TicketStatus
	PriorityID  *string
	AssigneeID  *string
	CreatedByID *string
	UpdatedByID *string
	CategoryID  *string
	Search      *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	UpdatedFrom *time.Time
	UpdatedTo   *time.Time
	Skip        int
	Take        int
}

// StatusCount is a per-status aggregate row.
type StatusCount struct {
	Status domain.TicketStatus `db:"status"`
	Count  int64               `db:"count"`
}

// PriorityCount is a per-priority aggregate row, keyed by the foreign key;
// the name lookup happens in the service against the small reference table.
type PriorityCount struct {
	PriorityID string `db:"priority_id"`
	Count      int64  `db:"count"`
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	ListByIDsForUpdate(ctx context.Context, ids []string) ([]domain.Ticket, error)
	BulkSetAssignee(ctx context.Context, ids []string, assigneeID, actorID string) (int64, error)
	BulkSetStatus(ctx context.Context, ids []string, status domain.TicketStatus, actorID string) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	CountByPriority(ctx context.Context) ([]PriorityCount, error)
	WithTx(q Querier) TicketRepository
}

type ticketRepository struct {
	q Querier
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(q Querier) TicketRepository {
	return &ticketRepository{q: q}
}

func (r *ticketRepository) WithTx(q Querier) TicketRepository {
	return &ticketRepository{q: q}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_code, subject, description, requester_name, requester_email,
            requester_phone, location, status, priority_id, assignee_id, created_by_id, updated_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		ticket.TicketCode,
		ticket.Subject,
		ticket.Description,
		ticket.RequesterName,
		ticket.RequesterEmail,
		ticket.RequesterPhone,
		ticket.Location,
		ticket.Status,
		ticket.PriorityID,
		ticket.AssigneeID,
		ticket.CreatedByID,
		ticket.UpdatedByID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET subject=$1, description=$2, requester_name=$3, requester_email=$4,
            requester_phone=$5, location=$6, status=$7, priority_id=$8, assignee_id=$9,
            updated_by_id=$10, resolved_at=$11, closed_at=$12, updated_at=NOW()
        WHERE id=$13`
	cmd, err := r.q.Exec(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.RequesterName,
		ticket.RequesterEmail,
		ticket.RequesterPhone,
		ticket.Location,
		ticket.Status,
		ticket.PriorityID,
		ticket.AssigneeID,
		ticket.UpdatedByID,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := pgxscan.Get(ctx, r.q, &ticket, query, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}
	return &ticket, nil
}

// ListWithFilter translates the optional filter fields into a predicate set
// and returns one page of tickets plus the unpaginated total.
func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error) {
	pred := filterPredicates(filter)

	take := filter.Take
	if take <= 0 {
		take = 10
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}

	listSQL, listArgs, err := psql.
		Select(ticketColumns).
		From("tickets").
		Where(pred).
		OrderBy("created_at DESC").
		Limit(uint64(take)).
		Offset(uint64(skip)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	var tickets []domain.Ticket
	if err := pgxscan.Select(ctx, r.q, &tickets, listSQL, listArgs...); err != nil {
		return nil, 0, err
	}

	countSQL, countArgs, err := psql.
		Select("COUNT(*)").
		From("tickets").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

// filterPredicates builds the AND-combined predicate set. Absent parameters
// contribute nothing, so an empty filter matches every ticket.
func filterPredicates(filter TicketFilter) sq.And {
	pred := sq.And{}
	if filter.Status != nil {
		pred = append(pred, sq.Eq{"status": *filter.Status})
	}
	if filter.PriorityID != nil {
		pred = append(pred, sq.Eq{"priority_id": *filter.PriorityID})
	}
	if filter.AssigneeID != nil {
		pred = append(pred, sq.Eq{"assignee_id": *filter.AssigneeID})
	}
	if filter.CreatedByID != nil {
		pred = append(pred, sq.Eq{"created_by_id": *filter.CreatedByID})
	}
	if filter.UpdatedByID != nil {
		pred = append(pred, sq.Eq{"updated_by_id": *filter.UpdatedByID})
	}
	if filter.CategoryID != nil {
		pred = append(pred, sq.Expr(
			"EXISTS (SELECT 1 FROM ticket_categories tc WHERE tc.ticket_id = tickets.id AND tc.category_id = ?)",
			*filter.CategoryID,
		))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		term := "%" + strings.TrimSpace(*filter.Search) + "%"
		pred = append(pred, sq.Or{
			sq.ILike{"ticket_code": term},
			sq.ILike{"subject": term},
			sq.ILike{"description": term},
			sq.ILike{"requester_name": term},
			sq.ILike{"requester_email": term},
		})
	}
	if filter.CreatedFrom != nil {
		pred = append(pred, sq.GtOrEq{"created_at": *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		pred = append(pred, sq.LtOrEq{"created_at": *filter.CreatedTo})
	}
	if filter.UpdatedFrom != nil {
		pred = append(pred, sq.GtOrEq{"updated_at": *filter.UpdatedFrom})
	}
	if filter.UpdatedTo != nil {
		pred = append(pred, sq.LtOrEq{"updated_at": *filter.UpdatedTo})
	}
	if len(pred) == 0 {
		pred = append(pred, sq.Expr("1=1"))
	}
	return pred
}

// CountCreatedSince counts tickets created at or after the given instant.
// The code generator derives the per-day sequence number from it.
func (r *ticketRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE created_at >= $1`
	var count int64
	if err := r.q.QueryRow(ctx, query, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListByIDsForUpdate loads and row-locks the listed tickets. Ids that do not
// exist are simply absent from the result.
func (r *ticketRepository) ListByIDsForUpdate(ctx context.Context, ids []string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ANY($1::uuid[]) FOR UPDATE`
	var tickets []domain.Ticket
	if err := pgxscan.Select(ctx, r.q, &tickets, query, ids); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *ticketRepository) BulkSetAssignee(ctx context.Context, ids []string, assigneeID, actorID string) (int64, error) {
	const query = `
        UPDATE tickets
        SET assignee_id=$1, updated_by_id=$2, updated_at=NOW()
        WHERE id = ANY($3::uuid[])`
	cmd, err := r.q.Exec(ctx, query, assigneeID, actorID, ids)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// BulkSetStatus applies one status to every listed ticket. The resolved/closed
// timestamps follow the same rules as the single-ticket path: entering
// Resolved or Closed stamps the timestamp if unset, entering Reopened clears
// both, anything else leaves them alone.
func (r *ticketRepository) BulkSetStatus(ctx context.Context, ids []string, status domain.TicketStatus, actorID string) (int64, error) {
	const query = `
        UPDATE tickets
        SET status=$1,
            resolved_at = CASE
                WHEN $1 = 'RESOLVED' THEN COALESCE(resolved_at, NOW())
                WHEN $1 = 'REOPENED' THEN NULL
                ELSE resolved_at END,
            closed_at = CASE
                WHEN $1 = 'CLOSED' THEN COALESCE(closed_at, NOW())
                WHEN $1 = 'REOPENED' THEN NULL
                ELSE closed_at END,
            updated_by_id = $2,
            updated_at = NOW()
        WHERE id = ANY($3::uuid[])`
	cmd, err := r.q.Exec(ctx, query, status, actorID, ids)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ticketRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM tickets GROUP BY status ORDER BY status`
	var counts []StatusCount
	if err := pgxscan.Select(ctx, r.q, &counts, query); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *ticketRepository) CountByPriority(ctx context.Context) ([]PriorityCount, error) {
	const query = `SELECT priority_id, COUNT(*) AS count FROM tickets GROUP BY priority_id`
	var counts []PriorityCount
	if err := pgxscan.Select(ctx, r.q, &counts, query); err != nil {
		return nil, err
	}
	return counts, nil
}
