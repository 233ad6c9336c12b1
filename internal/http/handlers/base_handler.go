// README: Base handler utilities (JSON helpers, event dispatch).
package handlers

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"pizzabot/internal/messaging"
)

// EventHandler consumes normalized inbound events. *bot.Engine satisfies it.
type EventHandler interface {
	Handle(ctx context.Context, ev messaging.Event)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// dispatch hands events to the engine detached from the request's
// cancellation: a platform that drops the connection must not abort a
// half-applied turn.
func dispatch(c *gin.Context, events EventHandler, log *slog.Logger, evs ...messaging.Event) {
	ctx := context.WithoutCancel(c.Request.Context())
	for _, ev := range evs {
		log.Debug("webhook event", "channel", string(ev.Channel), "kind", ev.Kind.String(), "chat", ev.ChatID)
		events.Handle(ctx, ev)
	}
}
