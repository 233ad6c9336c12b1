// README: Facebook Messenger webhook handlers (subscription check and event delivery).
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"pizzabot/internal/messaging/facebook"
)

type FacebookHandler struct {
	events      EventHandler
	verifyToken string
	log         *slog.Logger
}

func NewFacebookHandler(events EventHandler, verifyToken string, log *slog.Logger) *FacebookHandler {
	return &FacebookHandler{events: events, verifyToken: verifyToken, log: log}
}

// Verify handles GET /facebook/webhook.
func (h *FacebookHandler) Verify(c *gin.Context) {
	challenge, ok := facebook.Verify(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
		h.verifyToken,
	)
	if !ok {
		writeError(c, http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, "%s", challenge)
}

// Webhook handles POST /facebook/webhook.
func (h *FacebookHandler) Webhook(c *gin.Context) {
	var payload facebook.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	dispatch(c, h.events, h.log, payload.Events()...)
	c.String(http.StatusOK, "EVENT_RECEIVED")
}
