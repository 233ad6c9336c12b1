// README: HTTP gateway; registers webhook, health and metrics routes and delegates events to the bot engine.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pizzabot/internal/http/handlers"
	"pizzabot/internal/http/middleware"
	"pizzabot/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

type ServerDeps struct {
	Events handlers.EventHandler
	// TelegramEnabled mounts /telegram/webhook.
	TelegramEnabled bool
	TelegramSecret  string
	// FacebookVerifyToken mounts /facebook/webhook when set.
	FacebookVerifyToken string
	Log                 *slog.Logger
}

type Server struct {
	deps ServerDeps
	log  *slog.Logger
}

func NewServer(deps ServerDeps) *Server {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Server{deps: deps, log: log}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(s.log), middleware.Logging(s.log), middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if s.deps.TelegramEnabled {
		tg := handlers.NewTelegramHandler(s.deps.Events, s.log)
		r.POST("/telegram/webhook",
			middleware.SecretHeader(middleware.TelegramSecretHeader, s.deps.TelegramSecret),
			tg.Webhook)
	}
	if s.deps.FacebookVerifyToken != "" {
		fb := handlers.NewFacebookHandler(s.deps.Events, s.deps.FacebookVerifyToken, s.log)
		r.GET("/facebook/webhook", fb.Verify)
		r.POST("/facebook/webhook", fb.Webhook)
	}
	return r
}

// ListenAndServe serves addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Routes(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
