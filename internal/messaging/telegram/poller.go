package telegram

import (
	"context"
	"log/slog"
	"time"

	"pizzabot/internal/messaging"
)

// Handler receives decoded events. It must not block for long: the poller
// waits for it before fetching the next batch.
type Handler func(ctx context.Context, ev messaging.Event)

type updateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// Poller drives the bot with getUpdates long polling instead of a webhook.
type Poller struct {
	source  updateSource
	handle  Handler
	timeout time.Duration
	backoff time.Duration
	log     *slog.Logger
}

func NewPoller(source updateSource, handle Handler, log *slog.Logger) *Poller {
	return &Poller{source: source, handle: handle, timeout: 30 * time.Second, backoff: 3 * time.Second, log: log}
}

func (p *Poller) Run(ctx context.Context) {
	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}
		updates, err := p.source.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Warn("telegram getUpdates failed", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.backoff):
			}
			continue
		}
		offset = p.dispatch(ctx, offset, updates)
	}
}

// dispatch handles a batch and returns the next offset to confirm.
func (p *Poller) dispatch(ctx context.Context, offset int64, updates []Update) int64 {
	for _, u := range updates {
		if u.UpdateID >= offset {
			offset = u.UpdateID + 1
		}
		ev, ok := u.ToEvent()
		if !ok {
			continue
		}
		p.handle(ctx, ev)
	}
	return offset
}
