package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/services"
)

type RedemptionHandler struct {
	redemption *services.RedemptionService
}

func NewRedemptionHandler(redemption *services.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{redemption: redemption}
}

type redeemRequest struct {
	TicketID string `json:"ticket_id"`
	EventID  string `json:"event_id"`
}

// Redeem validates a scanned ticket at the gate. Invalid and already-used
// are ordinary responses, not errors; they are terminal for the caller and
// never retried here.
func (h *RedemptionHandler) Redeem(c echo.Context) error {
	var req redeemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"status": "invalid"})
	}

	res, err := h.redemption.Redeem(c.Request().Context(), req.TicketID, req.EventID)
	if err != nil {
		slog.Error("redemption failed", "ticket_id", req.TicketID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, res)
}
