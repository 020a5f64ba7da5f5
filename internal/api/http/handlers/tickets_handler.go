package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"

	"github.com/spec-kit/ticket-ledger/internal/api/dto"
	"github.com/spec-kit/ticket-ledger/internal/auth"
	"github.com/spec-kit/ticket-ledger/internal/service"
	"github.com/spec-kit/ticket-ledger/internal/wire"
	apperrors "github.com/spec-kit/ticket-ledger/pkg/util/errorutil"
)

const maxPageSize = 100

// TicketsHandler serves ticket projections and accepts change-sets.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangeSetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	params, err := req.Params(principal.Author())
	if err != nil {
		return err
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), principal.UserID, params)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	limit, offset := parsePage(c)
	tickets, err := h.service.ListTickets(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	languages := preferredLanguages(c)
	items := make([]dto.TicketSummary, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, dto.NewTicketSummary(t, languages...))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// StatusHistory GET /tickets/:id/status-history.
func (h *TicketsHandler) StatusHistory(c *fiber.Ctx) error {
	history, err := h.service.StatusHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": wire.FromStatusHistory(history)})
}

// ListChangeSets GET /tickets/:id/change-sets.
func (h *TicketsHandler) ListChangeSets(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	log, err := h.service.ListChangeSets(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChangeSetResponses(ticketID, log)})
}

// AppendChangeSet POST /tickets/:id/change-sets.
func (h *TicketsHandler) AppendChangeSet(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangeSetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	params, err := req.Params(principal.Author())
	if err != nil {
		return err
	}
	ticket, err := h.service.AppendChangeSet(c.UserContext(), c.Params("id"), principal.UserID, params)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Hash GET /tickets/:id/hash.
func (h *TicketsHandler) Hash(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	digest, err := h.service.IntegrityHash(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.HashResponse{TicketID: ticketID, Hash: digest}})
}

// Affected GET /tickets/:id/affected.
func (h *TicketsHandler) Affected(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	expanded, unresolved, err := h.service.ResolveAffected(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAffectedResponse(ticketID, expanded, unresolved)})
}

// LinkAffected POST /tickets/:id/affected.
func (h *TicketsHandler) LinkAffected(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.LinkAffectedRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.LinkAffected(c.UserContext(), c.Params("id"), principal.UserID, req.Set())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Report GET /tickets/report.csv.
func (h *TicketsHandler) Report(c *fiber.Ctx) error {
	limit, offset := parsePage(c)
	var buf bytes.Buffer
	if err := h.service.ExportCSV(c.UserContext(), &buf, limit, offset); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="tickets.csv"`)
	return c.Send(buf.Bytes())
}

func parsePage(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageSize, (page - 1) * pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// preferredLanguages returns the Accept-Language tags in quality order.
func preferredLanguages(c *fiber.Ctx) []string {
	tags, _, err := language.ParseAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
	if err != nil {
		return nil
	}
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = tag.String()
	}
	return out
}
