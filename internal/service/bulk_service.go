package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/supportdesk/ticketd/internal/domain"
	"github.com/supportdesk/ticketd/internal/events"
	"github.com/supportdesk/ticketd/internal/repository"
	apperrors "github.com/supportdesk/ticketd/pkg/util/errorutil"
)

// BulkService applies one mutation to a set of tickets as a single atomic
// unit. Ids that do not resolve are silently skipped; the returned count
// reflects the tickets actually matched. Unlike the single-ticket update
// path there is no diff suppression: the caller's intent is explicit, so one
// audit event is emitted per matched ticket.
type BulkService struct {
	tickets      repository.TicketRepository
	ticketEvents repository.TicketEventRepository
	users        repository.UserRepository
	txm          repository.TxManager
	dispatcher   events.Dispatcher
}

// BulkDependencies bundles collaborators for the bulk service.
type BulkDependencies struct {
	TicketRepo repository.TicketRepository
	EventRepo  repository.TicketEventRepository
	UserRepo   repository.UserRepository
	TxManager  repository.TxManager
	Dispatcher events.Dispatcher
}

// NewBulkService constructs the service.
func NewBulkService(deps BulkDependencies) *BulkService {
	return &BulkService{
		tickets:      deps.TicketRepo,
		ticketEvents: deps.EventRepo,
		users:        deps.UserRepo,
		txm:          deps.TxManager,
		dispatcher:   deps.Dispatcher,
	}
}

// BulkResult reports how many tickets the mutation matched.
type BulkResult struct {
	Updated int64
}

// BulkAssign assigns every listed ticket to the given user inside one
// transaction.
func (s *BulkService) BulkAssign(ctx context.Context, ticketIDs []string, assigneeID string, actor domain.Actor) (*BulkResult, error) {
	ids := dedupe(ticketIDs)
	if len(ids) == 0 {
		return nil, apperrors.NewValidationError("ticket_ids required", map[string]any{"field": "ticket_ids"})
	}

	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("assignee inactive", map[string]any{"user_id": assignee.ID})
	}

	var updated int64
	err = s.txm.InTx(ctx, func(q repository.Querier) error {
		ticketRepo := s.tickets.WithTx(q)
		current, err := ticketRepo.ListByIDsForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		if len(current) == 0 {
			return nil
		}

		oldNames, err := s.assigneeNames(ctx, current)
		if err != nil {
			return err
		}

		matched := ticketIDsOf(current)
		updated, err = ticketRepo.BulkSetAssignee(ctx, matched, assignee.ID, actor.ID)
		if err != nil {
			return err
		}

		eventRepo := s.ticketEvents.WithTx(q)
		for _, ticket := range current {
			event := bulkEvent(ticket.ID, actor, domain.ChangeTypeAssignee,
				oldAssigneeValue(ticket, oldNames), &assignee.Name)
			if err := eventRepo.Create(ctx, &event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishBulk(ctx, actor, "assign", ids, updated)
	return &BulkResult{Updated: updated}, nil
}

// BulkStatus moves every listed ticket to the given status inside one
// transaction, applying the same resolved/closed timestamp rules as the
// single-ticket path.
func (s *BulkService) BulkStatus(ctx context.Context, ticketIDs []string, newStatus domain.TicketStatus, actor domain.Actor) (*BulkResult, error) {
	ids := dedupe(ticketIDs)
	if len(ids) == 0 {
		return nil, apperrors.NewValidationError("ticket_ids required", map[string]any{"field": "ticket_ids"})
	}
	if !newStatus.IsValid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(newStatus)})
	}

	var updated int64
	err := s.txm.InTx(ctx, func(q repository.Querier) error {
		ticketRepo := s.tickets.WithTx(q)
		current, err := ticketRepo.ListByIDsForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		if len(current) == 0 {
			return nil
		}

		matched := ticketIDsOf(current)
		updated, err = ticketRepo.BulkSetStatus(ctx, matched, newStatus, actor.ID)
		if err != nil {
			return err
		}

		newValue := string(newStatus)
		eventRepo := s.ticketEvents.WithTx(q)
		for _, ticket := range current {
			oldValue := string(ticket.Status)
			event := bulkEvent(ticket.ID, actor, domain.ChangeTypeStatus, &oldValue, &newValue)
			if err := eventRepo.Create(ctx, &event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishBulk(ctx, actor, "status", ids, updated)
	return &BulkResult{Updated: updated}, nil
}

// assigneeNames resolves the display names of the tickets' current
// assignees.
func (s *BulkService) assigneeNames(ctx context.Context, tickets []domain.Ticket) (map[string]string, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, ticket := range tickets {
		if ticket.AssigneeID != nil && !seen[*ticket.AssigneeID] {
			seen[*ticket.AssigneeID] = true
			ids = append(ids, *ticket.AssigneeID)
		}
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, user := range users {
		names[user.ID] = user.Name
	}
	return names, nil
}

func oldAssigneeValue(ticket domain.Ticket, names map[string]string) *string {
	if ticket.AssigneeID == nil {
		return nil
	}
	name := names[*ticket.AssigneeID]
	return &name
}

func ticketIDsOf(tickets []domain.Ticket) []string {
	ids := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		ids = append(ids, ticket.ID)
	}
	return ids
}

func bulkEvent(ticketID string, actor domain.Actor, changeType domain.TicketChangeType, oldValue, newValue *string) domain.TicketEvent {
	event := domain.TicketEvent{
		TicketID:   ticketID,
		ActorID:    actor.ID,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if actor.IP != "" {
		ip := actor.IP
		event.ActorIP = &ip
	}
	return event
}

func (s *BulkService) publishBulk(ctx context.Context, actor domain.Actor, operation string, ids []string, updated int64) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventBulkApplied,
		ActorID:   actor.ID,
		Timestamp: time.Now(),
		Payload: events.BulkAppliedPayload{
			Operation: operation,
			TicketIDs: ids,
			Updated:   updated,
		},
	})
}
