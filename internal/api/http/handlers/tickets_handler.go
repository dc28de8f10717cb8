package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticketd/internal/api/dto"
	"github.com/supportdesk/ticketd/internal/auth"
	"github.com/supportdesk/ticketd/internal/domain"
	"github.com/supportdesk/ticketd/internal/repository"
	"github.com/supportdesk/ticketd/internal/service"
	apperrors "github.com/supportdesk/ticketd/pkg/util/errorutil"
)

// TicketsHandler exposes the ticket lifecycle, audit trail, and bulk
// endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
	bulk    *service.BulkService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, bulk *service.BulkService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, bulk: bulk}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateRequest(req); err != nil {
		return err
	}

	ticket, err := h.tickets.Create(c.Context(), service.TicketCreateInput{
		Subject:        req.Subject,
		Description:    req.Description,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		RequesterPhone: req.RequesterPhone,
		Location:       req.Location,
		PriorityID:     req.PriorityID,
		CategoryIDs:    req.CategoryIDs,
	}, actor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	filter := parseTicketQuery(c)
	result, err := h.tickets.List(c.Context(), filter)
	if err != nil {
		return err
	}

	items := make([]dto.TicketSummary, 0, len(result.Data))
	for i := range result.Data {
		items = append(items, ticketSummary(&result.Data[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Data:  items,
		Total: result.Total,
		Skip:  result.Skip,
		Take:  result.Take,
	}})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Update PATCH /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateRequest(req); err != nil {
		return err
	}

	ticket, err := h.tickets.Update(c.Context(), c.Params("id"), service.TicketUpdateInput{
		Status:      req.Status,
		PriorityID:  req.PriorityID,
		AssigneeID:  req.AssigneeID,
		CategoryIDs: req.CategoryIDs,
	}, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateRequest(req); err != nil {
		return err
	}

	comment, err := h.tickets.AddComment(c.Context(), c.Params("id"), req.Content, req.IsInternal, actor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// AddAttachment POST /tickets/:id/attachments.
func (h *TicketsHandler) AddAttachment(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AddAttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateRequest(req); err != nil {
		return err
	}

	attachment, err := h.tickets.AddAttachment(c.Context(), c.Params("id"), service.AttachmentInput{
		OriginalFilename: req.OriginalFilename,
		StoredFilename:   req.StoredFilename,
		MimeType:         req.MimeType,
		SizeBytes:        req.Size,
	}, actor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment)})
}

// DeleteAttachment DELETE /attachments/:id.
func (h *TicketsHandler) DeleteAttachment(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.tickets.DeleteAttachment(c.Context(), c.Params("id"), actor); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "attachment deleted"}})
}

// BulkAssign POST /tickets/bulk/assign.
func (h *TicketsHandler) BulkAssign(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.BulkAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateRequest(req); err != nil {
		return err
	}

	result, err := h.bulk.BulkAssign(c.Context(), req.TicketIDs, req.AssigneeID, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BulkResponse{Updated: result.Updated}})
}

// BulkStatus POST /tickets/bulk/status.
func (h *TicketsHandler) BulkStatus(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.BulkStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateRequest(req); err != nil {
		return err
	}

	result, err := h.bulk.BulkStatus(c.Context(), req.TicketIDs, req.Status, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BulkResponse{Updated: result.Updated}})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if val := strings.TrimSpace(c.Query("status")); val != "" {
		status := domain.TicketStatus(val)
		filter.Status = &status
	}
	filter.PriorityID = queryString(c, "priority_id")
	filter.AssigneeID = queryString(c, "assignee_id")
	filter.CreatedByID = queryString(c, "created_by")
	filter.UpdatedByID = queryString(c, "updated_by")
	filter.CategoryID = queryString(c, "category_id")
	filter.Search = queryString(c, "search")
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	filter.UpdatedFrom = parseTime(c.Query("updated_from"))
	filter.UpdatedTo = parseTime(c.Query("updated_to"))
	filter.Skip = parseInt(c.Query("skip"), 0)
	filter.Take = parseInt(c.Query("take"), 10)
	return filter
}

func queryString(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:             ticket.ID,
		TicketCode:     ticket.TicketCode,
		Subject:        ticket.Subject,
		Status:         ticket.Status,
		PriorityID:     ticket.PriorityID,
		AssigneeID:     ticket.AssigneeID,
		RequesterName:  ticket.RequesterName,
		RequesterPhone: ticket.RequesterPhone,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	resp := dto.TicketDetailResponse{
		ID:             ticket.ID,
		TicketCode:     ticket.TicketCode,
		Subject:        ticket.Subject,
		Description:    ticket.Description,
		RequesterName:  ticket.RequesterName,
		RequesterEmail: ticket.RequesterEmail,
		RequesterPhone: ticket.RequesterPhone,
		Location:       ticket.Location,
		Status:         ticket.Status,
		Categories:     make([]dto.CategoryResponse, 0, len(ticket.Categories)),
		Comments:       make([]dto.CommentResponse, 0, len(ticket.Comments)),
		Attachments:    make([]dto.AttachmentResponse, 0, len(ticket.Attachments)),
		Events:         make([]dto.EventResponse, 0, len(ticket.Events)),
		CreatedByID:    ticket.CreatedByID,
		UpdatedByID:    ticket.UpdatedByID,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
		ResolvedAt:     ticket.ResolvedAt,
		ClosedAt:       ticket.ClosedAt,
	}
	if ticket.Priority != nil {
		resp.Priority = &dto.PriorityResponse{
			ID:        ticket.Priority.ID,
			Name:      ticket.Priority.Name,
			SortOrder: ticket.Priority.SortOrder,
		}
	}
	if ticket.Assignee != nil {
		resp.Assignee = &dto.UserSummary{
			ID:    ticket.Assignee.ID,
			Name:  ticket.Assignee.Name,
			Email: ticket.Assignee.Email,
			Role:  ticket.Assignee.Role,
		}
	}
	for _, category := range ticket.Categories {
		resp.Categories = append(resp.Categories, dto.CategoryResponse{ID: category.ID, Name: category.Name})
	}
	for i := range ticket.Comments {
		resp.Comments = append(resp.Comments, commentResponse(&ticket.Comments[i]))
	}
	for i := range ticket.Attachments {
		resp.Attachments = append(resp.Attachments, attachmentResponse(&ticket.Attachments[i]))
	}
	for _, event := range ticket.Events {
		resp.Events = append(resp.Events, dto.EventResponse{
			ID:         event.ID,
			ActorID:    event.ActorID,
			ChangeType: event.ChangeType,
			OldValue:   event.OldValue,
			NewValue:   event.NewValue,
			CreatedAt:  event.CreatedAt,
		})
	}
	return resp
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		AuthorID:   comment.AuthorID,
		Content:    comment.Content,
		IsInternal: comment.IsInternal,
		CreatedAt:  comment.CreatedAt,
	}
}

func attachmentResponse(attachment *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:               attachment.ID,
		OriginalFilename: attachment.OriginalFilename,
		StoredFilename:   attachment.StoredFilename,
		MimeType:         attachment.MimeType,
		Size:             attachment.SizeBytes,
		UploadedByID:     attachment.UploadedByID,
		UploadedAt:       attachment.UploadedAt,
	}
}
