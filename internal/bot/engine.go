// README: Conversation engine: per-user state machine driving catalog, checkout and delivery routing.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pizzabot/internal/messaging"
	"pizzabot/internal/metrics"
	"pizzabot/internal/modules/pricing"
	"pizzabot/internal/modules/session"
)

const resetCommand = "/start"

type Options struct {
	PageSize      int
	CallTimeout   time.Duration
	ReminderDelay time.Duration
	FlowKey       string
}

type Deps struct {
	Catalog    Catalog
	Geocoder   Geocoder
	Payments   Payments
	Sessions   Sessions
	Reminders  Reminders
	Pricing    *pricing.Service
	Messengers map[messaging.Channel]Messenger
	// Orders and Helper are optional.
	Orders Orders
	Helper Helper
}

type Engine struct {
	Deps
	opts  Options
	log   *slog.Logger
	locks keyLock
}

func NewEngine(deps Deps, opts Options, log *slog.Logger) *Engine {
	if opts.PageSize <= 0 {
		opts.PageSize = 6
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 10 * time.Second
	}
	return &Engine{Deps: deps, opts: opts, log: log}
}

// turn is one event being processed for one session.
type turn struct {
	ev      messaging.Event
	key     string
	msgr    Messenger
	sess    session.Session
	state   State
	ack     string
	unknown bool
}

// Handle processes one inbound event to completion. Events for the same
// user are serialized; errors never escape to the caller.
func (e *Engine) Handle(ctx context.Context, ev messaging.Event) {
	start := time.Now()
	key := ev.SessionKey()
	unlock := e.locks.lock(key)
	defer unlock()

	outcome := e.handle(ctx, ev, key)
	metrics.EventsHandled.WithLabelValues(string(ev.Channel), ev.Kind.String(), outcome).Inc()
	metrics.EventDuration.WithLabelValues(string(ev.Channel)).Observe(time.Since(start).Seconds())
}

func (e *Engine) handle(ctx context.Context, ev messaging.Event, key string) string {
	msgr, ok := e.Messengers[ev.Channel]
	if !ok {
		e.log.Error("event for unconfigured channel", "channel", string(ev.Channel), "session", key)
		return "no_channel"
	}

	sess, err := call(ctx, e.opts.CallTimeout, "session.get", func(c context.Context) (session.Session, error) {
		return e.Sessions.Get(c, key)
	})
	if err != nil {
		e.fail(ctx, msgr, ev, err)
		return "gateway_error"
	}
	sess.Key = key
	t := &turn{ev: ev, key: key, msgr: msgr, sess: sess, state: ParseState(sess.State)}

	next, err := e.dispatch(ctx, t)
	if ev.Kind == messaging.KindButton {
		e.acknowledge(ctx, t)
	}
	switch {
	case err == nil:
	case errors.Is(err, ErrUserInput):
		e.log.Info("user input rejected", "session", key, "state", t.state.String(), "err", err)
		e.reprompt(ctx, t)
		return "user_input"
	case errors.Is(err, ErrPaymentIntegrity):
		e.log.Warn("precheckout rejected", "session", key, "err", err)
		return "payment_rejected"
	default:
		e.fail(ctx, msgr, ev, err)
		return "gateway_error"
	}

	t.sess.State = next.String()
	if next == StateStart {
		t.sess.Page, t.sess.Position, t.sess.LocationID = 0, nil, ""
	}
	if _, err := call(ctx, e.opts.CallTimeout, "session.save", func(c context.Context) (session.Session, error) {
		return e.Sessions.Save(c, t.sess)
	}); err != nil {
		e.fail(ctx, msgr, ev, err)
		return "gateway_error"
	}
	if next != t.state {
		metrics.Transitions.WithLabelValues(t.state.String(), next.String()).Inc()
	}
	e.log.Debug("event handled", "session", key, "kind", ev.Kind.String(), "state", t.state.String(), "next", next.String())
	if t.unknown {
		return "unhandled"
	}
	return "ok"
}

func (e *Engine) dispatch(ctx context.Context, t *turn) (State, error) {
	if t.ev.Kind == messaging.KindText && strings.TrimSpace(t.ev.Text) == resetCommand {
		return e.showMenu(ctx, t, 0)
	}
	switch t.state {
	case StateMenu:
		return e.onMenu(ctx, t)
	case StateProductDetail:
		return e.onProductDetail(ctx, t)
	case StateCart:
		return e.onCart(ctx, t)
	case StateAwaitingEmail:
		return e.onEmail(ctx, t)
	case StateAwaitingPaymentPrecheck:
		return e.onPrecheck(ctx, t)
	case StatePaymentConfirmed:
		return e.onPaymentConfirmed(ctx, t)
	case StateAwaitingLocation:
		return e.onLocation(ctx, t)
	case StateAwaitingDeliveryChoice:
		return e.onDeliveryChoice(ctx, t)
	default:
		return e.showMenu(ctx, t, 0)
	}
}

// button decodes the tapped payload; ok is false for non-button events.
func button(t *turn) (Callback, bool, error) {
	if t.ev.Kind != messaging.KindButton {
		return Callback{}, false, nil
	}
	cb, err := ParseCallback(t.ev.Data)
	return cb, true, err
}

func (e *Engine) send(ctx context.Context, t *turn, m messaging.Message) error {
	return do(ctx, e.opts.CallTimeout, "messenger.send", func(c context.Context) error {
		return t.msgr.Send(c, t.ev.ChatID, m)
	})
}

// help answers an event the current state does not expect and keeps the state.
func (e *Engine) help(ctx context.Context, t *turn) (State, error) {
	t.unknown = true
	if t.ev.Kind == messaging.KindPaymentPrecheck && t.ev.Payment != nil {
		// Unanswered queries hold the payment open until the platform times out.
		err := do(ctx, e.opts.CallTimeout, "messenger.answer_precheckout", func(c context.Context) error {
			return t.msgr.AnswerPrecheckout(c, t.ev.Payment.QueryID, false, textInvoiceStale)
		})
		if err != nil {
			return t.state, err
		}
	}
	text := helpText(t.state)
	if e.Helper != nil && t.ev.Kind == messaging.KindText && t.ev.Text != "" {
		reply, err := call(ctx, e.opts.CallTimeout, "helper.reply", func(c context.Context) (string, error) {
			return e.Helper.HelpReply(c, t.key, t.state.String(), t.ev.Text)
		})
		switch {
		case err != nil:
			e.log.Warn("help reply failed, using static text", "session", t.key, "err", err)
		case reply != "":
			text = reply + "\n\n" + text
		}
	}
	if err := e.send(ctx, t, messaging.Message{Text: text}); err != nil {
		return t.state, err
	}
	return t.state, nil
}

func (e *Engine) reprompt(ctx context.Context, t *turn) {
	if err := e.send(ctx, t, messaging.Message{Text: repromptText(t.state)}); err != nil {
		e.log.Warn("re-prompt failed", "session", t.key, "err", err)
	}
}

func (e *Engine) acknowledge(ctx context.Context, t *turn) {
	err := do(ctx, e.opts.CallTimeout, "messenger.acknowledge", func(c context.Context) error {
		return t.msgr.Acknowledge(c, t.ev.ChatID, t.ev.CallbackID, t.ack)
	})
	if err != nil {
		e.log.Warn("button acknowledge failed", "session", t.key, "err", err)
	}
}

// fail reports a gateway failure to the user, best effort.
func (e *Engine) fail(ctx context.Context, msgr Messenger, ev messaging.Event, cause error) {
	e.log.Error("event failed", "session", ev.SessionKey(), "kind", ev.Kind.String(), "err", cause)
	err := do(ctx, e.opts.CallTimeout, "messenger.send", func(c context.Context) error {
		return msgr.Send(c, ev.ChatID, messaging.Message{Text: textGenericFailure})
	})
	if err != nil {
		e.log.Warn("failure notice not delivered", "session", ev.SessionKey(), "err", err)
	}
}

// Remind sends the post-delivery reminder. It does not touch the session.
func (e *Engine) Remind(ctx context.Context, userKey string) error {
	ch, chatID, ok := messaging.ParseSessionKey(userKey)
	if !ok {
		return userInput("unrecognized session key %q", userKey)
	}
	msgr, ok := e.Messengers[ch]
	if !ok {
		return &GatewayError{Op: "messenger.send", Err: messaging.ErrUnsupported}
	}
	return do(ctx, e.opts.CallTimeout, "messenger.send", func(c context.Context) error {
		return msgr.Send(c, chatID, messaging.Message{Text: textReminder})
	})
}
