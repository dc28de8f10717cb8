package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/supportdesk/ticketd/internal/domain"
	"github.com/supportdesk/ticketd/internal/events"
	"github.com/supportdesk/ticketd/internal/repository"
)

// The fakes below back the service tests with in-memory state. They honor the
// same contracts as the Postgres repositories: pgx.ErrNoRows for missing rows,
// repository.ErrDuplicateCode for ticket_code collisions, and soft deletes
// that report not-found on the second attempt.

func repositoryFilter() repository.TicketFilter {
	return repository.TicketFilter{}
}

type fakeTxManager struct {
	calls int
	err   error
}

func (m *fakeTxManager) InTx(ctx context.Context, fn func(q repository.Querier) error) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return fn(nil)
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	order   []string
	seq     int
	now     func() time.Time

	// remaining forced ErrDuplicateCode failures on Create
	duplicateFailures int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets: make(map[string]*domain.Ticket),
		now:     time.Now,
	}
}

func (r *fakeTicketRepo) WithTx(q repository.Querier) repository.TicketRepository { return r }

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.duplicateFailures > 0 {
		r.duplicateFailures--
		return repository.ErrDuplicateCode
	}
	for _, existing := range r.tickets {
		if existing.TicketCode == ticket.TicketCode {
			return repository.ErrDuplicateCode
		}
	}

	r.seq++
	ticket.ID = fmt.Sprintf("t-%d", r.seq)
	ticket.CreatedAt = r.now()
	ticket.UpdatedAt = ticket.CreatedAt

	stored := *ticket
	r.tickets[ticket.ID] = &stored
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = r.now()
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []domain.Ticket
	for _, id := range r.order {
		ticket := r.tickets[id]
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.PriorityID != nil && ticket.PriorityID != *filter.PriorityID {
			continue
		}
		if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.Search != nil {
			term := strings.ToLower(strings.TrimSpace(*filter.Search))
			if term != "" &&
				!strings.Contains(strings.ToLower(ticket.Subject), term) &&
				!strings.Contains(strings.ToLower(ticket.Description), term) &&
				!strings.Contains(strings.ToLower(ticket.TicketCode), term) {
				continue
			}
		}
		if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		matched = append(matched, *ticket)
	}

	total := int64(len(matched))
	take := filter.Take
	if take <= 0 {
		take = 10
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}
	if skip >= len(matched) {
		return nil, total, nil
	}
	end := skip + take
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (r *fakeTicketRepo) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, ticket := range r.tickets {
		if !ticket.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) ListByIDsForUpdate(ctx context.Context, ids []string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.Ticket
	for _, id := range ids {
		if ticket, ok := r.tickets[id]; ok {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (r *fakeTicketRepo) BulkSetAssignee(ctx context.Context, ids []string, assigneeID, actorID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated int64
	for _, id := range ids {
		ticket, ok := r.tickets[id]
		if !ok {
			continue
		}
		assignee := assigneeID
		ticket.AssigneeID = &assignee
		ticket.UpdatedByID = actorID
		ticket.UpdatedAt = r.now()
		updated++
	}
	return updated, nil
}

func (r *fakeTicketRepo) BulkSetStatus(ctx context.Context, ids []string, status domain.TicketStatus, actorID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var updated int64
	for _, id := range ids {
		ticket, ok := r.tickets[id]
		if !ok {
			continue
		}
		ticket.Status = status
		switch status {
		case domain.TicketStatusResolved:
			if ticket.ResolvedAt == nil {
				stamp := now
				ticket.ResolvedAt = &stamp
			}
		case domain.TicketStatusClosed:
			if ticket.ClosedAt == nil {
				stamp := now
				ticket.ClosedAt = &stamp
			}
		case domain.TicketStatusReopened:
			ticket.ResolvedAt = nil
			ticket.ClosedAt = nil
		}
		ticket.UpdatedByID = actorID
		ticket.UpdatedAt = now
		updated++
	}
	return updated, nil
}

func (r *fakeTicketRepo) CountAll(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.tickets)), nil
}

func (r *fakeTicketRepo) CountByStatus(ctx context.Context) ([]repository.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[domain.TicketStatus]int64)
	for _, ticket := range r.tickets {
		counts[ticket.Status]++
	}
	result := make([]repository.StatusCount, 0, len(counts))
	for status, count := range counts {
		result = append(result, repository.StatusCount{Status: status, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Status < result[j].Status })
	return result, nil
}

func (r *fakeTicketRepo) CountByPriority(ctx context.Context) ([]repository.PriorityCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int64)
	for _, ticket := range r.tickets {
		counts[ticket.PriorityID]++
	}
	result := make([]repository.PriorityCount, 0, len(counts))
	for priorityID, count := range counts {
		result = append(result, repository.PriorityCount{PriorityID: priorityID, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PriorityID < result[j].PriorityID })
	return result, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []domain.TicketEvent
	seq    int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{}
}

func (r *fakeEventRepo) WithTx(q repository.Querier) repository.TicketEventRepository { return r }

func (r *fakeEventRepo) Create(ctx context.Context, event *domain.TicketEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	event.ID = fmt.Sprintf("e-%d", r.seq)
	event.CreatedAt = time.Now()
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeEventRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.TicketEvent
	for _, event := range r.events {
		if event.TicketID == ticketID {
			result = append(result, event)
		}
	}
	return result, nil
}

func (r *fakeEventRepo) byTicket(ticketID string) []domain.TicketEvent {
	result, _ := r.ListByTicket(context.Background(), ticketID)
	return result
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []domain.Comment
	seq      int
}

func newFakeCommentRepo() *fakeCommentRepo { return &fakeCommentRepo{} }

func (r *fakeCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	comment.ID = fmt.Sprintf("cm-%d", r.seq)
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.Comment
	for _, comment := range r.comments {
		if comment.TicketID != ticketID {
			continue
		}
		if comment.IsInternal && !includeInternal {
			continue
		}
		result = append(result, comment)
	}
	return result, nil
}

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	attachments map[string]*domain.Attachment
	seq         int
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: make(map[string]*domain.Attachment)}
}

func (r *fakeAttachmentRepo) Create(ctx context.Context, attachment *domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	attachment.ID = fmt.Sprintf("a-%d", r.seq)
	attachment.UploadedAt = time.Now()
	stored := *attachment
	r.attachments[attachment.ID] = &stored
	return nil
}

func (r *fakeAttachmentRepo) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attachment, ok := r.attachments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *attachment
	return &copied, nil
}

func (r *fakeAttachmentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.Attachment
	for i := 1; i <= r.seq; i++ {
		attachment, ok := r.attachments[fmt.Sprintf("a-%d", i)]
		if !ok || attachment.TicketID != ticketID || attachment.IsDeleted {
			continue
		}
		result = append(result, *attachment)
	}
	return result, nil
}

func (r *fakeAttachmentRepo) SoftDelete(ctx context.Context, id, deletedByID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	attachment, ok := r.attachments[id]
	if !ok || attachment.IsDeleted {
		return pgx.ErrNoRows
	}
	now := time.Now()
	attachment.IsDeleted = true
	attachment.DeletedAt = &now
	attachment.DeletedByID = &deletedByID
	return nil
}

type fakePriorityRepo struct {
	priorities map[string]domain.Priority
}

func newFakePriorityRepo(priorities ...domain.Priority) *fakePriorityRepo {
	repo := &fakePriorityRepo{priorities: make(map[string]domain.Priority)}
	for _, priority := range priorities {
		repo.priorities[priority.ID] = priority
	}
	return repo
}

func (r *fakePriorityRepo) GetByID(ctx context.Context, id string) (*domain.Priority, error) {
	priority, ok := r.priorities[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &priority, nil
}

func (r *fakePriorityRepo) ListActive(ctx context.Context) ([]domain.Priority, error) {
	var result []domain.Priority
	for _, priority := range r.priorities {
		if priority.IsActive {
			result = append(result, priority)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (r *fakePriorityRepo) ListAll(ctx context.Context) ([]domain.Priority, error) {
	result := make([]domain.Priority, 0, len(r.priorities))
	for _, priority := range r.priorities {
		result = append(result, priority)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories map[string]domain.Category
	assoc      map[string]map[string]bool
}

func newFakeCategoryRepo(categories ...domain.Category) *fakeCategoryRepo {
	repo := &fakeCategoryRepo{
		categories: make(map[string]domain.Category),
		assoc:      make(map[string]map[string]bool),
	}
	for _, category := range categories {
		repo.categories[category.ID] = category
	}
	return repo
}

func (r *fakeCategoryRepo) WithTx(q repository.Querier) repository.CategoryRepository { return r }

func (r *fakeCategoryRepo) ListAll(ctx context.Context) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.Category, 0, len(r.categories))
	for _, category := range r.categories {
		result = append(result, category)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *fakeCategoryRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.Category
	for _, id := range ids {
		if category, ok := r.categories[id]; ok {
			result = append(result, category)
		}
	}
	return result, nil
}

func (r *fakeCategoryRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.Category
	for id := range r.assoc[ticketID] {
		if category, ok := r.categories[id]; ok {
			result = append(result, category)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *fakeCategoryRepo) AddToTicket(ctx context.Context, ticketID, categoryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.assoc[ticketID] == nil {
		r.assoc[ticketID] = make(map[string]bool)
	}
	r.assoc[ticketID][categoryID] = true
	return nil
}

func (r *fakeCategoryRepo) RemoveFromTicket(ctx context.Context, ticketID, categoryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.assoc[ticketID], categoryID)
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
	seq   int
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	user.ID = fmt.Sprintf("u-new-%d", r.seq)
	user.Active = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.User
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			result = append(result, user)
		}
	}
	return result, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.Type, handler events.Handler) {}

func (d *recordingDispatcher) byType(eventType events.Type) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}
