package bot

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"pizzabot/internal/messaging"
	"pizzabot/internal/modules/catalog"
)

func parseEmail(text string) (string, bool) {
	text = strings.TrimSpace(text)
	addr, err := mail.ParseAddress(text)
	if err != nil || addr.Address != text {
		return "", false
	}
	return addr.Address, true
}

// onEmail upserts the customer and issues an invoice for the current cart.
func (e *Engine) onEmail(ctx context.Context, t *turn) (State, error) {
	if t.ev.Kind != messaging.KindText {
		return e.help(ctx, t)
	}
	email, ok := parseEmail(t.ev.Text)
	if !ok {
		return t.state, userInput("not an email address: %q", t.ev.Text)
	}

	cart, err := e.loadCart(ctx, t.key)
	if err != nil {
		return t.state, err
	}
	if cart.IsEmpty() {
		return StateCart, e.send(ctx, t, cartMessage(cart))
	}
	if err := e.upsertCustomerEmail(ctx, t.key, email); err != nil {
		return t.state, err
	}

	payload, err := call(ctx, e.opts.CallTimeout, "payments.issue_invoice", func(c context.Context) (string, error) {
		return e.Payments.IssueInvoice(c, t.key, cart.Total)
	})
	if err != nil {
		return t.state, err
	}
	inv := messaging.Invoice{
		Title:       "Pizza order",
		Description: invoiceDescription(cart),
		Payload:     payload,
		Amount:      cart.Total,
	}
	err = do(ctx, e.opts.CallTimeout, "messenger.send_invoice", func(c context.Context) error {
		return t.msgr.SendInvoice(c, t.ev.ChatID, inv)
	})
	if err != nil {
		return t.state, err
	}
	return StateAwaitingPaymentPrecheck, nil
}

// upsertCustomerEmail creates the customer on first checkout and writes the
// email only when it differs from the stored one.
func (e *Engine) upsertCustomerEmail(ctx context.Context, name, email string) error {
	cust, err := e.findCustomer(ctx, name)
	if err != nil {
		return err
	}
	if cust == nil {
		_, err := call(ctx, e.opts.CallTimeout, "catalog.create_customer", func(c context.Context) (catalog.Customer, error) {
			return e.Catalog.CreateCustomer(c, name, email)
		})
		return err
	}
	if cust.Email == email {
		return nil
	}
	return do(ctx, e.opts.CallTimeout, "catalog.update_customer_email", func(c context.Context) error {
		return e.Catalog.UpdateCustomerEmail(c, cust.ID, email)
	})
}

func (e *Engine) findCustomer(ctx context.Context, name string) (*catalog.Customer, error) {
	return call(ctx, e.opts.CallTimeout, "catalog.find_customer", func(c context.Context) (*catalog.Customer, error) {
		return e.Catalog.FindCustomerByName(c, name)
	})
}

func invoiceDescription(cart catalog.CartView) string {
	parts := make([]string, 0, len(cart.Items))
	for _, it := range cart.Items {
		parts = append(parts, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
	}
	return strings.Join(parts, ", ")
}

func (e *Engine) onPrecheck(ctx context.Context, t *turn) (State, error) {
	if t.ev.Kind == messaging.KindButton {
		if cb, err := ParseCallback(t.ev.Data); err == nil && cb.Action == ActionCheckout {
			return t.state, e.send(ctx, t, messaging.Message{Text: textInvoicePending})
		}
		return e.help(ctx, t)
	}
	if t.ev.Kind != messaging.KindPaymentPrecheck || t.ev.Payment == nil {
		return e.help(ctx, t)
	}

	q := t.ev.Payment
	valid, err := call(ctx, e.opts.CallTimeout, "payments.validate_precheckout", func(c context.Context) (bool, error) {
		return e.Payments.ValidatePrecheckout(c, t.key, q.Payload)
	})
	if err != nil {
		return t.state, err
	}
	err = do(ctx, e.opts.CallTimeout, "messenger.answer_precheckout", func(c context.Context) error {
		if valid {
			return t.msgr.AnswerPrecheckout(c, q.QueryID, true, "")
		}
		return t.msgr.AnswerPrecheckout(c, q.QueryID, false, textPaymentFailed)
	})
	if err != nil {
		return t.state, err
	}
	if !valid {
		if err := e.send(ctx, t, messaging.Message{Text: textPaymentFailed}); err != nil {
			e.log.Warn("payment failure notice not delivered", "session", t.key, "err", err)
		}
		return t.state, fmt.Errorf("%w: payload %q", ErrPaymentIntegrity, q.Payload)
	}
	return StatePaymentConfirmed, nil
}

func (e *Engine) onPaymentConfirmed(ctx context.Context, t *turn) (State, error) {
	if t.ev.Kind != messaging.KindPaymentSuccess {
		return e.help(ctx, t)
	}
	if err := e.send(ctx, t, messaging.Message{Text: textAskLocation}); err != nil {
		return t.state, err
	}
	return StateAwaitingLocation, nil
}
