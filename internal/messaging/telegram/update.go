package telegram

import (
	"pizzabot/internal/messaging"
	"pizzabot/internal/types"
)

// Update mirrors the subset of the Bot API Update object the bot consumes.
type Update struct {
	UpdateID         int64             `json:"update_id"`
	Message          *Message          `json:"message,omitempty"`
	CallbackQuery    *CallbackQuery    `json:"callback_query,omitempty"`
	PreCheckoutQuery *PreCheckoutQuery `json:"pre_checkout_query,omitempty"`
}

type User struct {
	ID int64 `json:"id"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type SuccessfulPayment struct {
	Currency       string `json:"currency"`
	TotalAmount    int64  `json:"total_amount"`
	InvoicePayload string `json:"invoice_payload"`
}

type Message struct {
	MessageID         int64              `json:"message_id"`
	From              *User              `json:"from,omitempty"`
	Chat              Chat               `json:"chat"`
	Text              string             `json:"text,omitempty"`
	Location          *Location          `json:"location,omitempty"`
	SuccessfulPayment *SuccessfulPayment `json:"successful_payment,omitempty"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data"`
}

type PreCheckoutQuery struct {
	ID             string `json:"id"`
	From           User   `json:"from"`
	Currency       string `json:"currency"`
	TotalAmount    int64  `json:"total_amount"`
	InvoicePayload string `json:"invoice_payload"`
}

// ToEvent converts an update into an inbound event. ok is false for updates
// the bot does not react to (stickers, edits, photos).
func (u Update) ToEvent() (messaging.Event, bool) {
	ev := messaging.Event{Channel: messaging.ChannelTelegram}
	switch {
	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		ev.ChatID = formatID(q.From.ID)
		if q.Message != nil {
			ev.ChatID = formatID(q.Message.Chat.ID)
		}
		ev.Kind = messaging.KindButton
		ev.Data = q.Data
		ev.CallbackID = q.ID
	case u.PreCheckoutQuery != nil:
		q := u.PreCheckoutQuery
		ev.ChatID = formatID(q.From.ID)
		ev.Kind = messaging.KindPaymentPrecheck
		ev.Payment = &messaging.Payment{
			QueryID: q.ID,
			Payload: q.InvoicePayload,
			Total:   types.Money{Amount: q.TotalAmount, Currency: q.Currency},
		}
	case u.Message != nil:
		m := u.Message
		ev.ChatID = formatID(m.Chat.ID)
		switch {
		case m.SuccessfulPayment != nil:
			p := m.SuccessfulPayment
			ev.Kind = messaging.KindPaymentSuccess
			ev.Payment = &messaging.Payment{
				Payload: p.InvoicePayload,
				Total:   types.Money{Amount: p.TotalAmount, Currency: p.Currency},
			}
		case m.Location != nil:
			ev.Kind = messaging.KindLocation
			ev.Location = &types.Point{Lat: m.Location.Latitude, Lng: m.Location.Longitude}
		case m.Text != "":
			ev.Kind = messaging.KindText
			ev.Text = m.Text
		default:
			return messaging.Event{}, false
		}
	default:
		return messaging.Event{}, false
	}
	return ev, true
}
