package repository

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/supportdesk/ticketd/internal/domain"
)

// CategoryRepository reads the category reference table and manages the
// ticket-category association rows.
type CategoryRepository interface {
	ListAll(ctx context.Context) ([]domain.Category, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Category, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Category, error)
	AddToTicket(ctx context.Context, ticketID, categoryID string) error
	RemoveFromTicket(ctx context.Context, ticketID, categoryID string) error
	WithTx(q Querier) CategoryRepository
}

type categoryRepository struct {
	q Querier
}

// NewCategoryRepository builds the repository.
func NewCategoryRepository(q Querier) CategoryRepository {
	return &categoryRepository{q: q}
}

func (r *categoryRepository) WithTx(q Querier) CategoryRepository {
	return &categoryRepository{q: q}
}

func (r *categoryRepository) ListAll(ctx context.Context) ([]domain.Category, error) {
	const query = `SELECT id, name, is_active FROM categories ORDER BY name ASC`
	var categories []domain.Category
	if err := pgxscan.Select(ctx, r.q, &categories, query); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, name, is_active FROM categories WHERE id = ANY($1::uuid[])`
	var categories []domain.Category
	if err := pgxscan.Select(ctx, r.q, &categories, query, ids); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Category, error) {
	const query = `
        SELECT c.id, c.name, c.is_active
        FROM categories c
        JOIN ticket_categories tc ON tc.category_id = c.id
        WHERE tc.ticket_id = $1
        ORDER BY c.name ASC`
	var categories []domain.Category
	if err := pgxscan.Select(ctx, r.q, &categories, query, ticketID); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) AddToTicket(ctx context.Context, ticketID, categoryID string) error {
	const query = `
        INSERT INTO ticket_categories (ticket_id, category_id)
        VALUES ($1,$2)
        ON CONFLICT (ticket_id, category_id) DO NOTHING`
	_, err := r.q.Exec(ctx, query, ticketID, categoryID)
	return err
}

func (r *categoryRepository) RemoveFromTicket(ctx context.Context, ticketID, categoryID string) error {
	const query = `DELETE FROM ticket_categories WHERE ticket_id=$1 AND category_id=$2`
	_, err := r.q.Exec(ctx, query, ticketID, categoryID)
	return err
}
