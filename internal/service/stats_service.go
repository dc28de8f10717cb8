package service

import (
	"context"
	"time"

	"github.com/supportdesk/ticketd/internal/domain"
	"github.com/supportdesk/ticketd/internal/repository"
	apperrors "github.com/supportdesk/ticketd/pkg/util/errorutil"
)

// StatsService computes dashboard aggregates. Every call is a fresh,
// side-effect-free snapshot; there is no caching layer.
type StatsService struct {
	tickets    repository.TicketRepository
	priorities repository.PriorityRepository
	now        func() time.Time
}

// NewStatsService constructs the service.
func NewStatsService(tickets repository.TicketRepository, priorities repository.PriorityRepository) *StatsService {
	return &StatsService{tickets: tickets, priorities: priorities, now: time.Now}
}

// NewStatsServiceWithClock constructs the service with an injected clock.
func NewStatsServiceWithClock(tickets repository.TicketRepository, priorities repository.PriorityRepository, now func() time.Time) *StatsService {
	return &StatsService{tickets: tickets, priorities: priorities, now: now}
}

// StatusStat is a per-status count.
type StatusStat struct {
	Status domain.TicketStatus
	Count  int64
}

// PriorityStat is a per-priority count with the priority name joined in.
type PriorityStat struct {
	PriorityID   string
	PriorityName string
	Count        int64
}

// Stats is the aggregate snapshot.
type Stats struct {
	Total       int64
	ByStatus    []StatusStat
	ByPriority  []PriorityStat
	Recent7Days int64
}

// Stats computes the aggregate snapshot: total count, counts grouped by
// status and by priority, and the count of tickets created in the last
// seven days.
func (s *StatsService) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.tickets.CountAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	statusCounts, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byStatus := make([]StatusStat, 0, len(statusCounts))
	for _, row := range statusCounts {
		byStatus = append(byStatus, StatusStat{Status: row.Status, Count: row.Count})
	}

	// Two-step priority aggregate: group by the foreign key, then join the
	// names from the small reference table in memory.
	priorityCounts, err := s.tickets.CountByPriority(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	priorities, err := s.priorities.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	names := make(map[string]string, len(priorities))
	for _, priority := range priorities {
		names[priority.ID] = priority.Name
	}
	byPriority := make([]PriorityStat, 0, len(priorityCounts))
	for _, row := range priorityCounts {
		byPriority = append(byPriority, PriorityStat{
			PriorityID:   row.PriorityID,
			PriorityName: names[row.PriorityID],
			Count:        row.Count,
		})
	}

	recent, err := s.tickets.CountCreatedSince(ctx, s.now().Add(-7*24*time.Hour))
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &Stats{
		Total:       total,
		ByStatus:    byStatus,
		ByPriority:  byPriority,
		Recent7Days: recent,
	}, nil
}
