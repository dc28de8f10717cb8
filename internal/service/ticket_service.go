package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/supportdesk/ticketd/internal/audit"
	"github.com/supportdesk/ticketd/internal/domain"
	"github.com/supportdesk/ticketd/internal/events"
	"github.com/supportdesk/ticketd/internal/repository"
	"github.com/supportdesk/ticketd/internal/ticketcode"
	apperrors "github.com/supportdesk/ticketd/pkg/util/errorutil"
)

// TicketService coordinates the ticket lifecycle: create, update with
// diff-based audit events, comments, and attachment metadata.
type TicketService struct {
	tickets      repository.TicketRepository
	ticketEvents repository.TicketEventRepository
	comments     repository.CommentRepository
	attachments  repository.AttachmentRepository
	priorities   repository.PriorityRepository
	categories   repository.CategoryRepository
	users        repository.UserRepository
	txm          repository.TxManager
	generator    *ticketcode.Generator
	dispatcher   events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	EventRepo      repository.TicketEventRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	PriorityRepo   repository.PriorityRepository
	CategoryRepo   repository.CategoryRepository
	UserRepo       repository.UserRepository
	TxManager      repository.TxManager
	Generator      *ticketcode.Generator
	Dispatcher     events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:      deps.TicketRepo,
		ticketEvents: deps.EventRepo,
		comments:     deps.CommentRepo,
		attachments:  deps.AttachmentRepo,
		priorities:   deps.PriorityRepo,
		categories:   deps.CategoryRepo,
		users:        deps.UserRepo,
		txm:          deps.TxManager,
		generator:    deps.Generator,
		dispatcher:   deps.Dispatcher,
	}
}

// TicketCreateInput describes the ticket creation payload.
type TicketCreateInput struct {
	Subject        string
	Description    string
	RequesterName  *string
	RequesterEmail *string
	RequesterPhone string
	Location       *string
	PriorityID     string
	CategoryIDs    []string
}

// TicketUpdateInput is a partial update: nil fields are left untouched.
// CategoryIDs replaces the whole association set when present; the change is
// applied as a set difference so untouched association rows keep their
// creation timestamps.
type TicketUpdateInput struct {
	Status      *domain.TicketStatus
	PriorityID  *string
	AssigneeID  *string
	CategoryIDs *[]string
}

// ListResult is one page of tickets plus pagination echo so the caller can
// render pagination without a second round trip.
type ListResult struct {
	Data  []domain.Ticket
	Total int64
	Skip  int
	Take  int
}

// Create validates the input, allocates a unique human-readable code, and
// persists the ticket with its category associations. Creation itself emits
// no audit event; the row's own timestamp is the creation record.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput, actor domain.Actor) (*domain.Ticket, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	priority, err := s.priorities.GetByID(ctx, input.PriorityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("priority", map[string]any{"priority_id": input.PriorityID})
		}
		return nil, apperrors.MapError(err)
	}
	if !priority.IsActive {
		return nil, apperrors.NewConflict("priority inactive", map[string]any{"priority_id": priority.ID})
	}

	categoryIDs := dedupe(input.CategoryIDs)
	if err := s.checkCategoriesExist(ctx, categoryIDs); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Subject:        strings.TrimSpace(input.Subject),
		Description:    strings.TrimSpace(input.Description),
		RequesterName:  input.RequesterName,
		RequesterEmail: input.RequesterEmail,
		RequesterPhone: strings.TrimSpace(input.RequesterPhone),
		Location:       input.Location,
		Status:         domain.TicketStatusNew,
		PriorityID:     input.PriorityID,
		CreatedByID:    actor.ID,
		UpdatedByID:    actor.ID,
	}

	// The generator's count-and-format is racy by design; the unique
	// constraint on ticket_code is the arbiter. Retry with a fresh candidate
	// on collision, bounded by the attempt budget.
	var created bool
	for attempt := 0; attempt < ticketcode.MaxAttempts; attempt++ {
		code, err := s.generator.Next(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		ticket.TicketCode = code

		err = s.txm.InTx(ctx, func(q repository.Querier) error {
			if err := s.tickets.WithTx(q).Create(ctx, ticket); err != nil {
				return err
			}
			categoryRepo := s.categories.WithTx(q)
			for _, categoryID := range categoryIDs {
				if err := categoryRepo.AddToTicket(ctx, ticket.ID, categoryID); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			created = true
			break
		}
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		return nil, apperrors.MapError(err)
	}
	if !created {
		return nil, apperrors.NewGenerationExhausted(ticketcode.MaxAttempts)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCreatedPayload{
			TicketCode: ticket.TicketCode,
			Subject:    ticket.Subject,
			Status:     ticket.Status,
			PriorityID: ticket.PriorityID,
		},
	})

	return s.Get(ctx, ticket.ID)
}

// Update applies the present fields of the partial input, emits one audit
// event per changed field of interest, and returns the rehydrated ticket.
func (s *TicketService) Update(ctx context.Context, ticketID string, input TicketUpdateInput, actor domain.Actor) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldCategories, err := s.categories.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	before, err := s.snapshot(ctx, ticket, oldCategories)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if input.Status != nil {
		newStatus := *input.Status
		if !newStatus.IsValid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(newStatus)})
		}
		if newStatus != ticket.Status {
			applyStatusTimestamps(ticket, newStatus, now)
			ticket.Status = newStatus
		}
	}
	if input.PriorityID != nil && *input.PriorityID != ticket.PriorityID {
		priority, err := s.priorities.GetByID(ctx, *input.PriorityID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("priority", map[string]any{"priority_id": *input.PriorityID})
			}
			return nil, apperrors.MapError(err)
		}
		ticket.PriorityID = priority.ID
	}
	if input.AssigneeID != nil {
		assignee, err := s.users.GetByID(ctx, *input.AssigneeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("user", map[string]any{"user_id": *input.AssigneeID})
			}
			return nil, apperrors.MapError(err)
		}
		ticket.AssigneeID = &assignee.ID
	}

	newCategories := oldCategories
	if input.CategoryIDs != nil {
		categoryIDs := dedupe(*input.CategoryIDs)
		if err := s.checkCategoriesExist(ctx, categoryIDs); err != nil {
			return nil, err
		}
		newCategories, err = s.categories.ListByIDs(ctx, categoryIDs)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	ticket.UpdatedByID = actor.ID

	after, err := s.snapshot(ctx, ticket, newCategories)
	if err != nil {
		return nil, err
	}
	auditEvents := audit.Diff(ticket.ID, actor, before, after)

	err = s.txm.InTx(ctx, func(q repository.Querier) error {
		if err := s.tickets.WithTx(q).Update(ctx, ticket); err != nil {
			return err
		}
		if input.CategoryIDs != nil {
			// Apply the association change as a set difference instead of a
			// delete-all-reinsert so surviving rows keep their timestamps.
			categoryRepo := s.categories.WithTx(q)
			for _, category := range newCategories {
				if _, ok := before.Categories[category.ID]; !ok {
					if err := categoryRepo.AddToTicket(ctx, ticket.ID, category.ID); err != nil {
						return err
					}
				}
			}
			for id := range before.Categories {
				if _, ok := after.Categories[id]; !ok {
					if err := categoryRepo.RemoveFromTicket(ctx, ticket.ID, id); err != nil {
						return err
					}
				}
			}
		}
		eventRepo := s.ticketEvents.WithTx(q)
		for i := range auditEvents {
			if err := eventRepo.Create(ctx, &auditEvents[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if len(auditEvents) > 0 {
		changeTypes := make([]domain.TicketChangeType, 0, len(auditEvents))
		for _, event := range auditEvents {
			changeTypes = append(changeTypes, event.ChangeType)
		}
		s.publish(ctx, events.Event{
			Type:     events.EventTicketUpdated,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Payload:  events.TicketUpdatedPayload{ChangeTypes: changeTypes},
		})
	}

	return s.Get(ctx, ticket.ID)
}

// AddComment appends a comment. Comments are their own audit trail; no
// ticket event is emitted.
func (s *TicketService) AddComment(ctx context.Context, ticketID, content string, isInternal bool, actor domain.Actor) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("content required", map[string]any{"field": "content"})
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		AuthorID:   actor.ID,
		Content:    strings.TrimSpace(content),
		IsInternal: isInternal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.CommentAddedPayload{CommentID: comment.ID, IsInternal: comment.IsInternal},
	})
	return comment, nil
}

// AttachmentInput describes attachment metadata. File bytes live with an
// external storage collaborator.
type AttachmentInput struct {
	OriginalFilename string
	StoredFilename   string
	MimeType         string
	SizeBytes        int64
}

// AddAttachment appends attachment metadata to a ticket.
func (s *TicketService) AddAttachment(ctx context.Context, ticketID string, input AttachmentInput, actor domain.Actor) (*domain.Attachment, error) {
	details := map[string]any{}
	if strings.TrimSpace(input.OriginalFilename) == "" {
		details["original_filename"] = "required"
	}
	if strings.TrimSpace(input.StoredFilename) == "" {
		details["stored_filename"] = "required"
	}
	if strings.TrimSpace(input.MimeType) == "" {
		details["mime_type"] = "required"
	}
	if input.SizeBytes < 0 {
		details["size"] = "must not be negative"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid attachment metadata", details)
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	attachment := &domain.Attachment{
		TicketID:         ticket.ID,
		UploadedByID:     actor.ID,
		OriginalFilename: input.OriginalFilename,
		StoredFilename:   input.StoredFilename,
		MimeType:         input.MimeType,
		SizeBytes:        input.SizeBytes,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventAttachmentAdded,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.AttachmentPayload{AttachmentID: attachment.ID, OriginalFilename: attachment.OriginalFilename},
	})
	return attachment, nil
}

// DeleteAttachment soft-deletes attachment metadata. An attachment that does
// not exist or was already deleted reports not-found.
func (s *TicketService) DeleteAttachment(ctx context.Context, attachmentID string, actor domain.Actor) error {
	err := s.attachments.SoftDelete(ctx, attachmentID, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
		}
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventAttachmentDeleted,
		ActorID: actor.ID,
		Payload: events.AttachmentPayload{AttachmentID: attachmentID},
	})
	return nil
}

// Get returns the ticket hydrated with its priority, assignee, categories,
// comments, non-deleted attachments, and events ordered oldest-first.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	priority, err := s.priorities.GetByID(ctx, ticket.PriorityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Priority = priority

	if ticket.AssigneeID != nil {
		assignee, err := s.users.GetByID(ctx, *ticket.AssigneeID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		ticket.Assignee = assignee
	}

	if ticket.Categories, err = s.categories.ListByTicket(ctx, ticket.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket.Comments, err = s.comments.ListByTicket(ctx, ticket.ID, true); err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket.Attachments, err = s.attachments.ListByTicket(ctx, ticket.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket.Events, err = s.ticketEvents.ListByTicket(ctx, ticket.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// List returns one page of tickets matching the filter.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter) (*ListResult, error) {
	if filter.Take <= 0 {
		filter.Take = 10
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}
	tickets, total, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &ListResult{
		Data:  tickets,
		Total: total,
		Skip:  filter.Skip,
		Take:  filter.Take,
	}, nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// snapshot resolves the ticket's audit-relevant references to display
// strings.
func (s *TicketService) snapshot(ctx context.Context, ticket *domain.Ticket, categories []domain.Category) (audit.Snapshot, error) {
	snap := audit.Snapshot{
		Status:     ticket.Status,
		PriorityID: ticket.PriorityID,
		AssigneeID: ticket.AssigneeID,
		Categories: make(map[string]string, len(categories)),
	}
	for _, category := range categories {
		snap.Categories[category.ID] = category.Name
	}

	priority, err := s.priorities.GetByID(ctx, ticket.PriorityID)
	if err != nil {
		return audit.Snapshot{}, apperrors.MapError(err)
	}
	snap.PriorityName = priority.Name

	if ticket.AssigneeID != nil {
		assignee, err := s.users.GetByID(ctx, *ticket.AssigneeID)
		if err != nil {
			return audit.Snapshot{}, apperrors.MapError(err)
		}
		snap.AssigneeName = assignee.Name
	}
	return snap, nil
}

// applyStatusTimestamps implements the lifecycle timestamp rules: entering
// Resolved or Closed stamps the timestamp if unset, entering Reopened clears
// both, any other transition leaves them alone.
func applyStatusTimestamps(ticket *domain.Ticket, newStatus domain.TicketStatus, now time.Time) {
	switch newStatus {
	case domain.TicketStatusResolved:
		if ticket.ResolvedAt == nil {
			ticket.ResolvedAt = &now
		}
	case domain.TicketStatusClosed:
		if ticket.ClosedAt == nil {
			ticket.ClosedAt = &now
		}
	case domain.TicketStatusReopened:
		ticket.ResolvedAt = nil
		ticket.ClosedAt = nil
	}
}

func validateCreateInput(input TicketCreateInput) error {
	details := map[string]any{}
	if strings.TrimSpace(input.Subject) == "" {
		details["subject"] = "required"
	}
	if strings.TrimSpace(input.Description) == "" {
		details["description"] = "required"
	}
	if strings.TrimSpace(input.RequesterPhone) == "" {
		details["requester_phone"] = "required"
	}
	if strings.TrimSpace(input.PriorityID) == "" {
		details["priority_id"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("missing required fields", details)
	}
	return nil
}

func (s *TicketService) checkCategoriesExist(ctx context.Context, categoryIDs []string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	found, err := s.categories.ListByIDs(ctx, categoryIDs)
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(found) != len(categoryIDs) {
		known := make(map[string]bool, len(found))
		for _, category := range found {
			known[category.ID] = true
		}
		var missing []string
		for _, id := range categoryIDs {
			if !known[id] {
				missing = append(missing, id)
			}
		}
		return apperrors.NewNotFound("category", map[string]any{"category_ids": missing})
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var result []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
