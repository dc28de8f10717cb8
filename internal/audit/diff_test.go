package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk/ticketd/internal/domain"
)

var testActor = domain.Actor{ID: "actor-1", Role: domain.UserRoleAgent, IP: "10.0.0.9"}

func snapshotBase() Snapshot {
	return Snapshot{
		Status:       domain.TicketStatusNew,
		PriorityID:   "p-high",
		PriorityName: "High",
		Categories:   map[string]string{},
	}
}

func TestDiffNoChanges(t *testing.T) {
	before := snapshotBase()
	after := snapshotBase()

	events := Diff("t-1", testActor, before, after)
	assert.Empty(t, events)
}

func TestDiffStatusChange(t *testing.T) {
	before := snapshotBase()
	after := snapshotBase()
	after.Status = domain.TicketStatusInProgress

	events := Diff("t-1", testActor, before, after)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, "t-1", event.TicketID)
	assert.Equal(t, domain.ChangeTypeStatus, event.ChangeType)
	require.NotNil(t, event.OldValue)
	require.NotNil(t, event.NewValue)
	assert.Equal(t, "NEW", *event.OldValue)
	assert.Equal(t, "IN_PROGRESS", *event.NewValue)
	assert.Equal(t, "actor-1", event.ActorID)
	require.NotNil(t, event.ActorIP)
	assert.Equal(t, "10.0.0.9", *event.ActorIP)
}

func TestDiffPriorityChangeUsesDisplayNames(t *testing.T) {
	before := snapshotBase()
	after := snapshotBase()
	after.PriorityID = "p-low"
	after.PriorityName = "Low"

	events := Diff("t-1", testActor, before, after)
	require.Len(t, events, 1)
	assert.Equal(t, domain.ChangeTypePriority, events[0].ChangeType)
	assert.Equal(t, "High", *events[0].OldValue)
	assert.Equal(t, "Low", *events[0].NewValue)
}

func TestDiffAssigneeFromUnassigned(t *testing.T) {
	before := snapshotBase()
	after := snapshotBase()
	id := "u-7"
	after.AssigneeID = &id
	after.AssigneeName = "Dana"

	events := Diff("t-1", testActor, before, after)
	require.Len(t, events, 1)
	assert.Equal(t, domain.ChangeTypeAssignee, events[0].ChangeType)
	assert.Nil(t, events[0].OldValue)
	require.NotNil(t, events[0].NewValue)
	assert.Equal(t, "Dana", *events[0].NewValue)
}

func TestDiffAssigneeCleared(t *testing.T) {
	before := snapshotBase()
	id := "u-7"
	before.AssigneeID = &id
	before.AssigneeName = "Dana"
	after := snapshotBase()

	events := Diff("t-1", testActor, before, after)
	require.Len(t, events, 1)
	assert.Equal(t, "Dana", *events[0].OldValue)
	assert.Nil(t, events[0].NewValue)
}

func TestDiffAssigneeSamePointerDistinct(t *testing.T) {
	before := snapshotBase()
	after := snapshotBase()
	beforeID, afterID := "u-7", "u-7"
	before.AssigneeID = &beforeID
	before.AssigneeName = "Dana"
	after.AssigneeID = &afterID
	after.AssigneeName = "Dana"

	assert.Empty(t, Diff("t-1", testActor, before, after))
}

func TestDiffCategoryComposite(t *testing.T) {
	before := snapshotBase()
	before.Categories = map[string]string{"c-hw": "Hardware", "c-net": "Network"}
	after := snapshotBase()
	after.Categories = map[string]string{"c-net": "Network", "c-sw": "Software"}

	events := Diff("t-1", testActor, before, after)
	require.Len(t, events, 1)
	assert.Equal(t, domain.ChangeTypeCategory, events[0].ChangeType)
	require.NotNil(t, events[0].OldValue)
	assert.Equal(t, "Hardware, Network", *events[0].OldValue)
	require.NotNil(t, events[0].NewValue)
	assert.Equal(t, "added: Software; removed: Hardware", *events[0].NewValue)
}

func TestDiffCategoryAddOnly(t *testing.T) {
	before := snapshotBase()
	after := snapshotBase()
	after.Categories = map[string]string{"c-net": "Network"}

	events := Diff("t-1", testActor, before, after)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].OldValue)
	assert.Equal(t, "added: Network", *events[0].NewValue)
}

func TestDiffMultipleFieldsOneEventEach(t *testing.T) {
	before := snapshotBase()
	after := snapshotBase()
	after.Status = domain.TicketStatusAssigned
	after.PriorityID = "p-urgent"
	after.PriorityName = "Urgent"
	id := "u-2"
	after.AssigneeID = &id
	after.AssigneeName = "Lee"

	events := Diff("t-1", testActor, before, after)
	require.Len(t, events, 3)

	types := make(map[domain.TicketChangeType]bool, len(events))
	for _, event := range events {
		types[event.ChangeType] = true
	}
	assert.True(t, types[domain.ChangeTypeStatus])
	assert.True(t, types[domain.ChangeTypePriority])
	assert.True(t, types[domain.ChangeTypeAssignee])
}

func TestDiffNoActorIPLeavesNil(t *testing.T) {
	actor := domain.Actor{ID: "actor-1"}
	before := snapshotBase()
	after := snapshotBase()
	after.Status = domain.TicketStatusClosed

	events := Diff("t-1", actor, before, after)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].ActorIP)
}
