package repository

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/supportdesk/ticketd/internal/domain"
)

// PriorityRepository reads the priority reference table.
type PriorityRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Priority, error)
	ListActive(ctx context.Context) ([]domain.Priority, error)
	ListAll(ctx context.Context) ([]domain.Priority, error)
}

type priorityRepository struct {
	q Querier
}

// NewPriorityRepository builds the repository.
func NewPriorityRepository(q Querier) PriorityRepository {
	return &priorityRepository{q: q}
}

func (r *priorityRepository) GetByID(ctx context.Context, id string) (*domain.Priority, error) {
	const query = `SELECT id, name, sort_order, is_active FROM priorities WHERE id=$1`
	var priority domain.Priority
	if err := pgxscan.Get(ctx, r.q, &priority, query, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}
	return &priority, nil
}

func (r *priorityRepository) ListActive(ctx context.Context) ([]domain.Priority, error) {
	const query = `SELECT id, name, sort_order, is_active FROM priorities WHERE is_active = TRUE ORDER BY sort_order ASC`
	var priorities []domain.Priority
	if err := pgxscan.Select(ctx, r.q, &priorities, query); err != nil {
		return nil, err
	}
	return priorities, nil
}

func (r *priorityRepository) ListAll(ctx context.Context) ([]domain.Priority, error) {
	const query = `SELECT id, name, sort_order, is_active FROM priorities ORDER BY sort_order ASC`
	var priorities []domain.Priority
	if err := pgxscan.Select(ctx, r.q, &priorities, query); err != nil {
		return nil, err
	}
	return priorities, nil
}
