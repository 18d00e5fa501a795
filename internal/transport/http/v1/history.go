package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// GetSessionMessages retrieves messages for a session.
// GET /v1/sessions/:session_id/messages
func (h *Handler) GetSessionMessages(c echo.Context) error {
	sessionID := c.Param("session_id")
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}
	before := c.QueryParam("before")

	ctx := c.Request().Context()

	messages, err := h.service.GetMessages(ctx, sessionID, limit, before)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
		"has_more": len(messages) == limit, // Approximate
	})
}

// ListTransactions lists stored turn transactions, newest first.
// GET /v1/history
func (h *Handler) ListTransactions(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}

	ctx := c.Request().Context()

	txs, err := h.service.ListTransactions(ctx, sessionID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"transactions": txs,
	})
}

// GetTransactionEvents retrieves the per-step audit trail of a transaction.
// GET /v1/transactions/:transaction_id/events
func (h *Handler) GetTransactionEvents(c echo.Context) error {
	transactionID := c.Param("transaction_id")
	limit := 100
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}
	afterTs := int64(0)
	if t := c.QueryParam("after_ts"); t != "" {
		if val, err := strconv.ParseInt(t, 10, 64); err == nil {
			afterTs = val
		}
	}

	ctx := c.Request().Context()

	events, err := h.service.GetTransactionEvents(ctx, transactionID, afterTs, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

// GetStats aggregates stored transactions.
// GET /v1/stats
func (h *Handler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, stats)
}
