package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticketd/internal/api/dto"
	"github.com/supportdesk/ticketd/internal/service"
)

// StatsHandler exposes the dashboard aggregates.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Stats GET /tickets/stats.
func (h *StatsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.Stats(c.Context())
	if err != nil {
		return err
	}

	resp := dto.StatsResponse{
		Total:       stats.Total,
		ByStatus:    make([]dto.StatusCountResponse, 0, len(stats.ByStatus)),
		ByPriority:  make([]dto.PriorityCountResponse, 0, len(stats.ByPriority)),
		Recent7Days: stats.Recent7Days,
	}
	for _, row := range stats.ByStatus {
		resp.ByStatus = append(resp.ByStatus, dto.StatusCountResponse{Status: row.Status, Count: row.Count})
	}
	for _, row := range stats.ByPriority {
		resp.ByPriority = append(resp.ByPriority, dto.PriorityCountResponse{
			PriorityID:   row.PriorityID,
			PriorityName: row.PriorityName,
			Count:        row.Count,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}
