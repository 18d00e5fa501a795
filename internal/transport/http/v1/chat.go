package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/companionai/counsel/internal/domain"
	"github.com/companionai/counsel/internal/service"
)

// Chat runs one message through the counseling pipeline.
// POST /v1/chat
func (h *Handler) Chat(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ctx := c.Request().Context()

	resp, err := h.service.ProcessChat(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}
