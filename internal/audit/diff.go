package audit

import (
	"sort"
	"strings"

	"github.com/supportdesk/ticketd/internal/domain"
)

// Snapshot is the audit-relevant view of a ticket at a point in time, with
// references already resolved to display strings.
type Snapshot struct {
	Status       domain.TicketStatus
	PriorityID   string
	PriorityName string
	AssigneeID   *string
	AssigneeName string
	// Categories maps category id to display name.
	Categories map[string]string
}

// Diff compares two snapshots field by field and returns one event per
// changed field of interest. The comparison is explicit per field; no
// reflection. Returned events carry display strings so the audit trail reads
// without further lookups.
func Diff(ticketID string, actor domain.Actor, before, after Snapshot) []domain.TicketEvent {
	var events []domain.TicketEvent

	if before.Status != after.Status {
		events = append(events, newEvent(ticketID, actor, domain.ChangeTypeStatus,
			strPtr(string(before.Status)), strPtr(string(after.Status))))
	}
	if before.PriorityID != after.PriorityID {
		events = append(events, newEvent(ticketID, actor, domain.ChangeTypePriority,
			strPtr(before.PriorityName), strPtr(after.PriorityName)))
	}
	if !equalPtr(before.AssigneeID, after.AssigneeID) {
		events = append(events, newEvent(ticketID, actor, domain.ChangeTypeAssignee,
			nameOrNil(before.AssigneeID, before.AssigneeName),
			nameOrNil(after.AssigneeID, after.AssigneeName)))
	}
	if added, removed, changed := diffCategorySets(before.Categories, after.Categories); changed {
		events = append(events, newEvent(ticketID, actor, domain.ChangeTypeCategory,
			joinedOrNil(before.Categories), strPtr(categoryComposite(added, removed))))
	}

	return events
}

func newEvent(ticketID string, actor domain.Actor, changeType domain.TicketChangeType, oldValue, newValue *string) domain.TicketEvent {
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

// diffCategorySets computes the set difference between the two associations.
func diffCategorySets(before, after map[string]string) (added, removed []string, changed bool) {
	for id, name := range after {
		if _, ok := before[id]; !ok {
			added = append(added, name)
		}
	}
	for id, name := range before {
		if _, ok := after[id]; !ok {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed, len(added) > 0 || len(removed) > 0
}

// categoryComposite renders the diff as "added: X; removed: Y".
func categoryComposite(added, removed []string) string {
	var parts []string
	if len(added) > 0 {
		parts = append(parts, "added: "+strings.Join(added, ", "))
	}
	if len(removed) > 0 {
		parts = append(parts, "removed: "+strings.Join(removed, ", "))
	}
	return strings.Join(parts, "; ")
}

func joinedOrNil(categories map[string]string) *string {
	if len(categories) == 0 {
		return nil
	}
	names := make([]string, 0, len(categories))
	for _, name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	joined := strings.Join(names, ", ")
	return &joined
}

func nameOrNil(id *string, name string) *string {
	if id == nil {
		return nil
	}
	return strPtr(name)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strPtr(s string) *string {
	return &s
}
