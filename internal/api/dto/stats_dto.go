package dto

import "github.com/supportdesk/ticketd/internal/domain"

// StatusCountResponse is one by-status aggregate row.
type StatusCountResponse struct {
	Status domain.TicketStatus `json:"status"`
	Count  int64               `json:"count"`
}

// PriorityCountResponse is one by-priority aggregate row.
type PriorityCountResponse struct {
	PriorityID   string `json:"priority_id"`
	PriorityName string `json:"priority_name"`
	Count        int64  `json:"count"`
}

// StatsResponse is the dashboard aggregate snapshot.
type StatsResponse struct {
	Total       int64                   `json:"total"`
	ByStatus    []StatusCountResponse   `json:"by_status"`
	ByPriority  []PriorityCountResponse `json:"by_priority"`
	Recent7Days int64                   `json:"recent_7_days"`
}
