// README: Telegram webhook handler.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"pizzabot/internal/messaging/telegram"
)

type TelegramHandler struct {
	events EventHandler
	log    *slog.Logger
}

func NewTelegramHandler(events EventHandler, log *slog.Logger) *TelegramHandler {
	return &TelegramHandler{events: events, log: log}
}

// Webhook handles POST /telegram/webhook. Updates the bot does not act on
// are still answered 200 so Telegram stops redelivering them.
func (h *TelegramHandler) Webhook(c *gin.Context) {
	var upd telegram.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if ev, ok := upd.ToEvent(); ok {
		dispatch(c, h.events, h.log, ev)
	}
	c.Status(http.StatusOK)
}
