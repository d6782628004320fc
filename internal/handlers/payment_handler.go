package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/services"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/status"
)

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreatePixPayment starts a PIX checkout: a pending payment record plus a
// provider charge.
func (h *PaymentHandler) CreatePixPayment(c echo.Context) error {
	var req services.CreatePixPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
	}

	result, err := h.payments.CreatePixPayment(c.Request().Context(), &req)

	var vErr *status.ValidationError
	if errors.As(err, &vErr) {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   vErr.Message,
			"field":   vErr.Field,
		})
	}

	var pErr *status.ProviderError
	if errors.As(err, &pErr) {
		// The pending payment already exists; expose its id so the charge
		// can be retried or reconciled manually.
		body := map[string]any{"success": false, "error": "payment provider rejected the charge"}
		if result != nil && result.Payment != nil {
			body["paymentId"] = result.Payment.ID
		}
		return c.JSON(http.StatusBadGateway, body)
	}

	if err != nil {
		slog.Error("pix payment creation failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "error": "internal error"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":         true,
		"payment":         result.Payment,
		"pixQrCode":       result.PixCode,
		"pixQrCodeBase64": result.PixQRImage,
		"pixCopyPaste":    result.PixCode,
		"expiresAt":       result.ExpiresAt,
	})
}

type pixWebhookRequest struct {
	Type    string `json:"type"`
	Billing struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"billing"`
}

// Webhook receives asynchronous charge updates from the provider.
// Authenticity verification happens upstream. A payload without a billing
// id is acknowledged and ignored; the provider retries deliveries that are
// not acknowledged with a 2xx.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	var req pixWebhookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"received": false})
	}

	if req.Billing.ID == "" {
		slog.Warn("webhook without billing id ignored", "type", req.Type)
		return c.JSON(http.StatusOK, map[string]any{"received": true})
	}

	if err := h.payments.ApplyWebhook(c.Request().Context(), req.Billing.ID, req.Billing.Status); err != nil {
		slog.Error("webhook processing failed", "charge_id", req.Billing.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"received": false})
	}

	return c.JSON(http.StatusOK, map[string]any{"received": true})
}

// GetStatus returns a payment, refreshing non-terminal statuses from the
// provider as a side effect.
func (h *PaymentHandler) GetStatus(c echo.Context) error {
	paymentID := c.PathParam("paymentId")

	p, err := h.payments.GetStatus(c.Request().Context(), paymentID)
	if errors.Is(err, status.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]any{"success": false, "error": "payment not found"})
	}
	if err != nil {
		slog.Error("payment status query failed", "payment_id", paymentID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "error": "internal error"})
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "payment": p})
}
