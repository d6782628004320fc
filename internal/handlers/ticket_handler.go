package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/services"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/status"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/models"
)

type TicketHandler struct {
	issuer *services.IssuerService
}

func NewTicketHandler(issuer *services.IssuerService) *TicketHandler {
	return &TicketHandler{issuer: issuer}
}

type issueTicketRequest struct {
	EventID          string `json:"eventId"`
	CustomerName     string `json:"customerName"`
	CustomerEmail    string `json:"customerEmail"`
	CustomerDocument string `json:"customerDocument"`
	Quantity         int    `json:"quantity"`
	TotalCents       int64  `json:"totalCents"`
}

// Issue creates a ticket plus its redemption token.
func (h *TicketHandler) Issue(c echo.Context) error {
	var req issueTicketRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
	}
	if req.EventID == "" || req.CustomerName == "" || req.Quantity <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "eventId, customerName and quantity are required"})
	}

	buyer := models.BuyerInfo{
		Name:     req.CustomerName,
		Document: req.CustomerDocument,
		Email:    req.CustomerEmail,
	}

	ticket, token, err := h.issuer.Issue(c.Request().Context(), req.EventID, buyer, req.Quantity, req.TotalCents)
	if errors.Is(err, status.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]any{"success": false, "error": "event not found"})
	}
	if err != nil {
		slog.Error("ticket issuance failed", "event_id", req.EventID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "error": "internal error"})
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"success":         true,
		"ticket":          ticket,
		"redemptionToken": token,
	})
}
